package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"nestcrm-data/internal/domain"
	"nestcrm-data/internal/repository"
	"nestcrm-data/internal/service"
)

// LeadsHandler serves the tenant-scoped lead collection. Every route runs
// through the guard first; mutations go through the lifecycle engine.
type LeadsHandler struct {
	leadService service.LeadService
	tenants     repository.TenantsRepository
	guard       *Guard
	logger      *zap.Logger
}

func NewLeadsHandler(leadService service.LeadService, tenants repository.TenantsRepository, guard *Guard, logger *zap.Logger) *LeadsHandler {
	return &LeadsHandler{
		leadService: leadService,
		tenants:     tenants,
		guard:       guard,
		logger:      logger,
	}
}

type leadWriteRequest struct {
	Name            *string        `json:"name"`
	Phone           *string        `json:"phone"`
	Email           *string        `json:"email"`
	Stage           *string        `json:"stage"`
	AssignedUserID  *string        `json:"assigned_user_id"`
	TransactionType *string        `json:"transaction_type"`
	MinPrice        *int64         `json:"min_price"`
	MinDeposit      *int64         `json:"min_deposit"`
	CustomFields    map[string]any `json:"custom_fields"`

	// Contract shaping, honored only when the patch enters SUCCESS.
	CustomID *string `json:"custom_id"`
	Rent     *int64  `json:"rent"`
}

func (req *leadWriteRequest) toPatch() *repository.LeadPatch {
	patch := &repository.LeadPatch{
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		Stage:           req.Stage,
		AssignedUserID:  req.AssignedUserID,
		TransactionType: req.TransactionType,
		MinPrice:        req.MinPrice,
		MinDeposit:      req.MinDeposit,
		CustomID:        req.CustomID,
		Rent:            req.Rent,
	}
	if req.CustomFields != nil {
		if b, err := json.Marshal(req.CustomFields); err == nil {
			patch.CustomFields = b
		}
	}
	return patch
}

func (req *leadWriteRequest) toLead(tenantID string) *domain.Lead {
	lead := &domain.Lead{TenantID: tenantID}
	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Phone != nil {
		lead.Phone = sql.NullString{String: *req.Phone, Valid: *req.Phone != ""}
	}
	if req.Email != nil {
		lead.Email = sql.NullString{String: *req.Email, Valid: *req.Email != ""}
	}
	if req.Stage != nil {
		lead.Stage = *req.Stage
	}
	if req.AssignedUserID != nil {
		lead.AssignedUserID = sql.NullString{String: *req.AssignedUserID, Valid: *req.AssignedUserID != ""}
	}
	if req.TransactionType != nil {
		lead.TransactionType = sql.NullString{String: *req.TransactionType, Valid: *req.TransactionType != ""}
	}
	if req.MinPrice != nil {
		lead.MinPrice = sql.NullInt64{Int64: *req.MinPrice, Valid: true}
	}
	if req.MinDeposit != nil {
		lead.MinDeposit = sql.NullInt64{Int64: *req.MinDeposit, Valid: true}
	}
	if req.CustomFields != nil {
		if b, err := json.Marshal(req.CustomFields); err == nil {
			lead.CustomFields = b
		}
	}
	return lead
}

// Collection handles GET (list) and POST (create) on /crm/api/v1/leads.
func (h *LeadsHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ByID handles GET/PATCH/DELETE on /crm/api/v1/leads/{id}.
func (h *LeadsHandler) ByID(w http.ResponseWriter, r *http.Request) {
	leadID := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/leads/")
	if leadID == "" || strings.Contains(leadID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, leadID)
	case http.MethodPatch:
		h.update(w, r, leadID)
	case http.MethodDelete:
		h.delete(w, r, leadID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *LeadsHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := h.guard.Authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	filter := repository.LeadFilters{
		Stage:          q.Get("stage"),
		AssignedUserID: q.Get("assigned_user_id"),
		Search:         q.Get("search"),
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 50)

	leads, total, err := h.leadService.ListLeads(r.Context(), tenantID, filter, page, size)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(leads))
	for _, lead := range leads {
		items = append(items, leadToJSON(lead))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": total,
	}))
}

func (h *LeadsHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := h.guard.Authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req leadWriteRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	leadID, err := h.leadService.CreateLead(r.Context(), req.toLead(tenantID))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"lead_id": leadID}))
}

func (h *LeadsHandler) get(w http.ResponseWriter, r *http.Request, leadID string) {
	tenantID, _, err := h.guard.Authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.leadService.GetLead(r.Context(), tenantID, leadID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(leadToJSON(lead)))
}

func (h *LeadsHandler) update(w http.ResponseWriter, r *http.Request, leadID string) {
	tenantID, _, err := h.guard.Authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req leadWriteRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	lead, err := h.leadService.ApplyLeadUpdate(r.Context(), tenantID, leadID, req.toPatch())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(leadToJSON(lead)))
}

func (h *LeadsHandler) delete(w http.ResponseWriter, r *http.Request, leadID string) {
	tenantID, _, err := h.guard.Authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.leadService.DeleteLead(r.Context(), tenantID, leadID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}

type intakeRequest struct {
	// TenantKey is the agency invite code embedded in the public web form.
	TenantKey string `json:"tenant_key"`
	leadWriteRequest
}

// Intake handles POST /crm/api/v1/intake/leads: unauthenticated lead
// capture from the public web form. The tenant is identified by the form's
// embed key, and the lead always lands at stage NEW.
func (h *LeadsHandler) Intake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req intakeRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	tenant, err := h.tenants.GetTenantByInviteCode(r.Context(), strings.TrimSpace(req.TenantKey))
	if err != nil || tenant.Status != domain.TenantActive {
		if err != nil && !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrValidation) {
			h.logger.Warn("Intake tenant lookup failed", zap.Error(err))
		}
		writeJSON(w, http.StatusNotFound, Fail("not found"))
		return
	}

	lead := req.toLead(tenant.TenantID)
	lead.Stage = domain.StageNew
	leadID, err := h.leadService.CreateLead(r.Context(), lead)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"lead_id": leadID}))
}
