package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/service"
)

// CatalogHandler handles the item catalog and the coordinator directory.
type CatalogHandler struct {
	Service *service.Service
}

// ListItems handles GET /api/itens.
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	category := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("categoria")))
	if category != "" && !model.ValidCategory(category) {
		jsonError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, err := h.Service.Store.ListItems(r.Context(), category)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// CreateItem handles POST /api/itens.
func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var form model.ItemForm
	if err := decodeJSON(r, &form); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.RegisterItem(r.Context(), form)
	if err != nil {
		storeError(w, err, "failed to create item")
		return
	}

	slog.Info("item created", "user", GetClaims(r.Context()).Username, "item", item.Name, "category", item.Category)
	jsonResponse(w, http.StatusCreated, item)
}

// DeleteItem handles DELETE /api/itens/{nome}.
func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("nome")
	category := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("categoria")))

	if err := h.Service.Store.DeleteItem(r.Context(), name, category); err != nil {
		storeError(w, err, "failed to delete item")
		return
	}

	slog.Info("item deleted", "user", GetClaims(r.Context()).Username, "item", name, "category", category)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// ListCoordinators handles GET /api/coordenadores.
func (h *CatalogHandler) ListCoordinators(w http.ResponseWriter, r *http.Request) {
	coordinators, err := h.Service.Store.ListCoordinators(r.Context())
	if err != nil {
		storeError(w, err, "failed to list coordinators")
		return
	}
	if coordinators == nil {
		coordinators = []model.Coordinator{}
	}
	jsonResponse(w, http.StatusOK, coordinators)
}

type coordinatorResponse struct {
	*model.Coordinator
	Warning string `json:"aviso,omitempty"`
}

// CreateCoordinator handles POST /api/coordenadores. A failed welcome e-mail
// is reported as a warning next to the created coordinator.
func (h *CatalogHandler) CreateCoordinator(w http.ResponseWriter, r *http.Request) {
	var form model.CoordinatorForm
	if err := decodeJSON(r, &form); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := h.Service.RegisterCoordinator(r.Context(), form)
	if err != nil {
		storeError(w, err, "failed to create coordinator")
		return
	}

	resp := coordinatorResponse{Coordinator: reg.Coordinator}
	if reg.Notice != nil {
		resp.Warning = service.NoticeMessage(reg.Notice)
	}
	slog.Info("coordinator created", "user", GetClaims(r.Context()).Username, "email", reg.Coordinator.Email)
	jsonResponse(w, http.StatusCreated, resp)
}

// DeleteCoordinator handles DELETE /api/coordenadores/{email}.
func (h *CatalogHandler) DeleteCoordinator(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if err := h.Service.Store.DeleteCoordinator(r.Context(), email); err != nil {
		storeError(w, err, "failed to delete coordinator")
		return
	}

	slog.Info("coordinator deleted", "user", GetClaims(r.Context()).Username, "email", email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "coordinator deleted"})
}
