package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router uses the standard library http.ServeMux (avoids pulling in a
// third-party routing dependency).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler supports the http.Handler interface (for pprof etc.)
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterTenantRoutes: tenant onboarding and the current-tenant lookup.
func (r *Router) RegisterTenantRoutes(h *TenantsHandler) {
	r.Handle("/crm/api/v1/tenants", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.CreateTenant(w, req)
	})

	r.Handle("/crm/api/v1/tenants/join", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.JoinTenant(w, req)
	})

	r.Handle("/crm/api/v1/tenants/leave", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.LeaveTenant(w, req)
	})

	r.Handle("/crm/api/v1/tenant", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.CurrentTenant(w, req)
	})
}

// RegisterLeadRoutes: the lead collection, the Excel export, and the
// unauthenticated web-form intake.
func (r *Router) RegisterLeadRoutes(h *LeadsHandler) {
	r.Handle("/crm/api/v1/leads", h.Collection)
	r.Handle("/crm/api/v1/leads/export", h.Export)
	r.Handle("/crm/api/v1/leads/", h.ByID)
	r.Handle("/crm/api/v1/intake/leads", h.Intake)
}

// RegisterContractRoutes: read-only contract views.
func (r *Router) RegisterContractRoutes(h *ContractsHandler) {
	r.Handle("/crm/api/v1/contracts", h.Collection)
	r.Handle("/crm/api/v1/contracts/", h.ByID)
}
