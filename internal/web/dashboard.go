package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/almoxarifado/internal/store"
)

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.Service.Store.Dashboard(r.Context())
	if err != nil {
		slog.Error("failed to load dashboard", "error", err)
		d = &store.Dashboard{}
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Dashboard *store.Dashboard
	}{
		PageData:  s.page(r, "Painel"),
		Dashboard: d,
	})
}
