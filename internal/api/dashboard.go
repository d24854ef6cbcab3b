package api

import (
	"net/http"

	"github.com/erazemk/almoxarifado/internal/service"
)

// DashboardHandler serves the home screen totals and the form options.
type DashboardHandler struct {
	Service *service.Service
}

// Dashboard handles GET /api/painel.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Store.Dashboard(r.Context())
	if err != nil {
		storeError(w, err, "failed to load dashboard")
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// Options handles GET /api/opcoes.
func (h *DashboardHandler) Options(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Service.Options)
}
