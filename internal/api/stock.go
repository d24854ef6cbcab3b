package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/report"
	"github.com/erazemk/almoxarifado/internal/service"
)

// StockHandler handles the stock ledger endpoints.
type StockHandler struct {
	Service *service.Service
}

type stockResponse struct {
	Entries   []model.StockEntry  `json:"itens"`
	Valuation report.Valuation    `json:"valor"`
	Choices   map[string][]string `json:"opcoes"`
}

func (h *StockHandler) filtered(r *http.Request) ([]model.StockEntry, []model.StockEntry, error) {
	all, err := h.Service.Store.ListStock(r.Context())
	if err != nil {
		return nil, nil, err
	}
	return all, report.FilterStock(all, report.ParseStockFilter(r.URL.Query())), nil
}

// List handles GET /api/estoque.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	all, entries, err := h.filtered(r)
	if err != nil {
		storeError(w, err, "failed to list stock")
		return
	}
	if entries == nil {
		entries = []model.StockEntry{}
	}

	choices := make(map[string][]string)
	for _, col := range []string{"tipo", "tamanho", "status", "fornecedor"} {
		choices[col] = report.DistinctStock(all, col)
	}
	jsonResponse(w, http.StatusOK, stockResponse{
		Entries:   entries,
		Valuation: report.Value(entries),
		Choices:   choices,
	})
}

// Export handles GET /api/estoque/exportar.
func (h *StockHandler) Export(w http.ResponseWriter, r *http.Request) {
	_, entries, err := h.filtered(r)
	if err != nil {
		storeError(w, err, "failed to list stock")
		return
	}

	var buf bytes.Buffer
	if err := report.WriteStock(&buf, entries); err != nil {
		slog.Error("failed to export stock", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export stock")
		return
	}
	writeWorkbook(w, report.Filename("estoque", h.Service.Store.Now()), buf.Bytes())
}

// Receive handles POST /api/estoque/entradas.
func (h *StockHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var form model.IntakeForm
	if err := decodeJSON(r, &form); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.Service.Receive(r.Context(), form)
	if err != nil {
		storeError(w, err, "failed to receive stock")
		return
	}

	slog.Info("stock intake", "user", GetClaims(r.Context()).Username, "category", form.Category,
		"lines", len(out.Lines), "ok", out.Succeeded())
	outcomeResponse(w, out)
}

func writeWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("error writing workbook", "error", err)
	}
}
