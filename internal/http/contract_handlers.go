package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"nestcrm-data/internal/repository"
)

// ContractsHandler serves tenant-scoped contract reads. Contracts have no
// write surface here: they are derived exclusively by the lead lifecycle
// engine.
type ContractsHandler struct {
	contracts repository.ContractsRepository
	guard     *Guard
	logger    *zap.Logger
}

func NewContractsHandler(contracts repository.ContractsRepository, guard *Guard, logger *zap.Logger) *ContractsHandler {
	return &ContractsHandler{contracts: contracts, guard: guard, logger: logger}
}

// Collection handles GET /crm/api/v1/contracts.
func (h *ContractsHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tenantID, _, err := h.guard.Authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 50)

	contracts, total, err := h.contracts.ListContracts(r.Context(), tenantID, page, size)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(contracts))
	for _, c := range contracts {
		items = append(items, contractToJSON(c))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": total,
	}))
}

// ByID handles GET /crm/api/v1/contracts/{id}.
func (h *ContractsHandler) ByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	contractID := strings.TrimPrefix(r.URL.Path, "/crm/api/v1/contracts/")
	if contractID == "" || strings.Contains(contractID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	tenantID, _, err := h.guard.Authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	contract, err := h.contracts.GetContract(r.Context(), tenantID, contractID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(contractToJSON(contract)))
}
