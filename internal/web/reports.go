package web

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/report"
)

type reportsPage struct {
	PageData
	Kinds    []model.Kind
	Kind     model.Kind
	Filter   report.Filter
	Rows     []model.Transaction
	Choices  map[string][]string
	Selected url.Values
	From     string
	To       string
	Query    template.URL
}

var reportFields = []report.Field{
	report.FieldResponsible, report.FieldShift, report.FieldCostCenter,
	report.FieldReason, report.FieldSize, report.FieldItemStatus, report.FieldLoanStatus,
}

func (s *Server) reportRows(r *http.Request, kind model.Kind) ([]model.Transaction, []model.Transaction, report.Filter, error) {
	all, err := s.Service.Store.ListTransactions(r.Context(), kind)
	if err != nil {
		return nil, nil, report.Filter{}, err
	}
	f := report.ParseFilter(r.URL.Query(), s.Service.Store.Location())
	return all, report.Apply(all, f), f, nil
}

// ReportsPage handles GET /relatorios. ?tipo= picks the log, issuances by default.
func (s *Server) ReportsPage(w http.ResponseWriter, r *http.Request) {
	kind, ok := model.ParseKind(r.URL.Query().Get("tipo"))
	if !ok {
		kind = model.KindIssuance
	}

	all, rows, f, err := s.reportRows(r, kind)
	if err != nil {
		slog.Error("failed to load report", "kind", kind, "error", err)
	}

	choices := make(map[string][]string)
	for _, field := range reportFields {
		if vals := report.Distinct(all, field); len(vals) > 0 {
			choices[string(field)] = vals
		}
	}

	q := r.URL.Query()
	s.Templates.Render(w, "reports.html", &reportsPage{
		PageData: s.page(r, "Relatórios"),
		Kinds:    model.Kinds,
		Kind:     kind,
		Filter:   f,
		Rows:     rows,
		Choices:  choices,
		Selected: q,
		From:     q.Get("de"),
		To:       q.Get("ate"),
		Query:    template.URL(r.URL.RawQuery),
	})
}

// ReportExport handles GET /relatorios/exportar with the page's filters.
func (s *Server) ReportExport(w http.ResponseWriter, r *http.Request) {
	kind, ok := model.ParseKind(r.URL.Query().Get("tipo"))
	if !ok {
		http.Error(w, "unknown report", http.StatusNotFound)
		return
	}

	_, rows, _, err := s.reportRows(r, kind)
	if err != nil {
		slog.Error("failed to load report", "kind", kind, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteTransactions(&buf, kind, rows); err != nil {
		slog.Error("failed to export report", "kind", kind, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	sendWorkbook(w, report.Filename(string(kind), s.Service.Store.Now()), buf.Bytes())
}
