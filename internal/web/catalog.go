package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/service"
)

type itemsPage struct {
	PageData
	Category string
	Items    []model.Item
}

// ItemsPage handles GET /itens.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	s.renderItems(w, r, s.page(r, "Itens"), http.StatusOK)
}

func (s *Server) renderItems(w http.ResponseWriter, r *http.Request, p PageData, status int) {
	category := strings.ToUpper(r.URL.Query().Get("categoria"))
	if !model.ValidCategory(category) {
		category = ""
	}
	items, err := s.Service.Store.ListItems(r.Context(), category)
	if err != nil {
		slog.Error("failed to list items", "error", err)
	}

	s.Templates.RenderStatus(w, status, "items.html", &itemsPage{PageData: p, Category: category, Items: items})
}

// ItemCreateSubmit handles POST /itens.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	item, err := s.Service.RegisterItem(r.Context(), model.ItemForm{
		Name:     r.FormValue("nome"),
		Category: r.FormValue("categoria"),
	})
	if err != nil {
		p := s.page(r, "Itens")
		p.withError(err)
		s.renderItems(w, r, p, http.StatusBadRequest)
		return
	}

	slog.Info("item created", "user", claims.Username, "item", item.Name, "category", item.Category)
	redirectFlash(w, r, "/itens", "sucesso", "Item '"+item.Name+"' cadastrado com sucesso!")
}

// ItemDeleteSubmit handles POST /itens/excluir (admin only).
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	name := r.FormValue("nome")
	category := strings.ToUpper(r.FormValue("categoria"))

	if err := s.Service.Store.DeleteItem(r.Context(), name, category); err != nil {
		redirectFlash(w, r, "/itens", "erro", errorMessage(err))
		return
	}

	slog.Info("item deleted", "user", claims.Username, "item", name, "category", category)
	redirectFlash(w, r, "/itens", "sucesso", "Item '"+name+"' excluído.")
}

type coordinatorsPage struct {
	PageData
	Coordinators []model.Coordinator
}

// CoordinatorsPage handles GET /coordenadores.
func (s *Server) CoordinatorsPage(w http.ResponseWriter, r *http.Request) {
	s.renderCoordinators(w, r, s.page(r, "Coordenadores"), http.StatusOK)
}

func (s *Server) renderCoordinators(w http.ResponseWriter, r *http.Request, p PageData, status int) {
	coordinators, err := s.Service.Store.ListCoordinators(r.Context())
	if err != nil {
		slog.Error("failed to list coordinators", "error", err)
	}
	s.Templates.RenderStatus(w, status, "coordinators.html", &coordinatorsPage{PageData: p, Coordinators: coordinators})
}

// CoordinatorCreateSubmit handles POST /coordenadores.
func (s *Server) CoordinatorCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	reg, err := s.Service.RegisterCoordinator(r.Context(), model.CoordinatorForm{
		Name:  r.FormValue("coordenador"),
		Email: r.FormValue("email"),
	})
	p := s.page(r, "Coordenadores")
	if err != nil {
		p.withError(err)
		s.renderCoordinators(w, r, p, http.StatusBadRequest)
		return
	}

	slog.Info("coordinator created", "user", claims.Username, "email", reg.Coordinator.Email)
	p.Success = "Coordenador '" + reg.Coordinator.Name + "' cadastrado com sucesso!"
	if reg.Notice != nil {
		p.Problems = append(p.Problems, service.NoticeMessage(reg.Notice))
	}
	s.renderCoordinators(w, r, p, http.StatusOK)
}

// CoordinatorDeleteSubmit handles POST /coordenadores/excluir (admin only).
func (s *Server) CoordinatorDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	email := r.FormValue("email")

	if err := s.Service.Store.DeleteCoordinator(r.Context(), email); err != nil {
		redirectFlash(w, r, "/coordenadores", "erro", errorMessage(err))
		return
	}

	slog.Info("coordinator deleted", "user", claims.Username, "email", email)
	redirectFlash(w, r, "/coordenadores", "sucesso", "Coordenador excluído.")
}
