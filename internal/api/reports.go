package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/report"
	"github.com/erazemk/almoxarifado/internal/service"
)

// ReportsHandler serves the filtered transaction logs.
type ReportsHandler struct {
	Service *service.Service
}

var reportFields = []report.Field{
	report.FieldResponsible, report.FieldShift, report.FieldCostCenter,
	report.FieldReason, report.FieldSize, report.FieldItemStatus, report.FieldLoanStatus,
}

type reportResponse struct {
	Kind    model.Kind          `json:"tipo"`
	Title   string              `json:"titulo"`
	Rows    []model.Transaction `json:"registros"`
	Choices map[string][]string `json:"opcoes"`
}

func (h *ReportsHandler) load(w http.ResponseWriter, r *http.Request) (model.Kind, []model.Transaction, []model.Transaction, bool) {
	kind, ok := model.ParseKind(r.PathValue("tipo"))
	if !ok {
		jsonError(w, http.StatusNotFound, "unknown report")
		return "", nil, nil, false
	}
	all, err := h.Service.Store.ListTransactions(r.Context(), kind)
	if err != nil {
		storeError(w, err, "failed to load report")
		return "", nil, nil, false
	}
	f := report.ParseFilter(r.URL.Query(), h.Service.Store.Location())
	return kind, all, report.Apply(all, f), true
}

// Get handles GET /api/relatorios/{tipo}.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, all, rows, ok := h.load(w, r)
	if !ok {
		return
	}
	if rows == nil {
		rows = []model.Transaction{}
	}

	choices := make(map[string][]string)
	for _, f := range reportFields {
		if vals := report.Distinct(all, f); len(vals) > 0 {
			choices[string(f)] = vals
		}
	}
	jsonResponse(w, http.StatusOK, reportResponse{Kind: kind, Title: kind.Title(), Rows: rows, Choices: choices})
}

// Export handles GET /api/relatorios/{tipo}/exportar.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind, _, rows, ok := h.load(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteTransactions(&buf, kind, rows); err != nil {
		slog.Error("failed to export report", "kind", kind, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export report")
		return
	}
	writeWorkbook(w, report.Filename(string(kind), h.Service.Store.Now()), buf.Bytes())
}
