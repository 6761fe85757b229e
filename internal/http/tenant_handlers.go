package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"nestcrm-data/internal/repository"
	"nestcrm-data/internal/service"
)

// TenantsHandler serves tenant onboarding and the current-tenant lookup.
type TenantsHandler struct {
	tenantService service.TenantService
	tenants       repository.TenantsRepository
	guard         *Guard
	logger        *zap.Logger
}

func NewTenantsHandler(tenantService service.TenantService, tenants repository.TenantsRepository, guard *Guard, logger *zap.Logger) *TenantsHandler {
	return &TenantsHandler{
		tenantService: tenantService,
		tenants:       tenants,
		guard:         guard,
		logger:        logger,
	}
}

type createTenantRequest struct {
	Name string `json:"name"`
}

// CreateTenant handles POST /crm/api/v1/tenants.
func (h *TenantsHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.Principal(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createTenantRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	tenantID, err := h.tenantService.CreateTenant(r.Context(), principal, req.Name, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"tenant_id": tenantID}))
}

type joinTenantRequest struct {
	InviteCode string `json:"invite_code"`
}

// JoinTenant handles POST /crm/api/v1/tenants/join.
func (h *TenantsHandler) JoinTenant(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.Principal(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req joinTenantRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	tenant, err := h.tenantService.JoinTenant(r.Context(), principal, req.InviteCode, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(tenantToJSON(tenant)))
}

// LeaveTenant handles POST /crm/api/v1/tenants/leave.
func (h *TenantsHandler) LeaveTenant(w http.ResponseWriter, r *http.Request) {
	principal, err := h.guard.Principal(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tenantID := r.Header.Get(TenantHeader)
	if err := h.tenantService.LeaveTenant(r.Context(), principal, tenantID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"left": true}))
}

// CurrentTenant handles GET /crm/api/v1/tenant. Requires an authorized
// membership of the tenant named in the header.
func (h *TenantsHandler) CurrentTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, decision, err := h.guard.Authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tenant, err := h.tenants.GetTenant(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	body := tenantToJSON(tenant)
	body["role"] = decision.Role
	body["user_id"] = decision.UserID
	writeJSON(w, http.StatusOK, Ok(body))
}
