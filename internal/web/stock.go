package web

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/report"
)

type stockPage struct {
	PageData
	Filter    report.StockFilter
	Entries   []model.StockEntry
	Valuation report.Valuation
	Choices   map[string][]string
	Query     template.URL
}

// StockPage handles GET /estoque.
func (s *Server) StockPage(w http.ResponseWriter, r *http.Request) {
	all, err := s.Service.Store.ListStock(r.Context())
	if err != nil {
		slog.Error("failed to list stock", "error", err)
	}
	f := report.ParseStockFilter(r.URL.Query())
	entries := report.FilterStock(all, f)

	choices := make(map[string][]string)
	for _, col := range []string{"tipo", "tamanho", "status", "fornecedor"} {
		choices[col] = report.DistinctStock(all, col)
	}

	s.Templates.Render(w, "stock.html", &stockPage{
		PageData:  s.page(r, "Estoque"),
		Filter:    f,
		Entries:   entries,
		Valuation: report.Value(entries),
		Choices:   choices,
		Query:     template.URL(r.URL.RawQuery),
	})
}

// StockExport handles GET /estoque/exportar with the same filters as the page.
func (s *Server) StockExport(w http.ResponseWriter, r *http.Request) {
	all, err := s.Service.Store.ListStock(r.Context())
	if err != nil {
		slog.Error("failed to list stock", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	entries := report.FilterStock(all, report.ParseStockFilter(r.URL.Query()))

	var buf bytes.Buffer
	if err := report.WriteStock(&buf, entries); err != nil {
		slog.Error("failed to export stock", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	sendWorkbook(w, report.Filename("estoque", s.Service.Store.Now()), buf.Bytes())
}

type intakePage struct {
	PageData
	Category string
	Items    []string
	Rows     []int
}

// IntakePage handles GET /estoque/entrada.
func (s *Server) IntakePage(w http.ResponseWriter, r *http.Request) {
	s.renderIntake(w, r, s.page(r, "Entrada de Estoque"), http.StatusOK)
}

func (s *Server) renderIntake(w http.ResponseWriter, r *http.Request, p PageData, status int) {
	category := r.FormValue("tipo")
	if !model.ValidCategory(category) {
		category = model.CategoryPPE
	}
	items, err := s.Service.Store.ItemNames(r.Context(), category)
	if err != nil {
		slog.Error("failed to list items", "error", err)
	}

	s.Templates.RenderStatus(w, status, "intake.html", &intakePage{
		PageData: p,
		Category: category,
		Items:    items,
		Rows:     seq(rowCount(r)),
	})
}

// IntakeSubmit handles POST /estoque/entrada.
func (s *Server) IntakeSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	form := model.IntakeForm{
		Category: r.FormValue("tipo"),
		Lines:    parseIntakeLines(r),
	}

	p := s.page(r, "Entrada de Estoque")
	out, err := s.Service.Receive(r.Context(), form)
	if err != nil {
		p.withError(err)
		s.renderIntake(w, r, p, http.StatusBadRequest)
		return
	}

	slog.Info("stock intake", "user", claims.Username, "category", form.Category,
		"lines", len(out.Lines), "ok", out.Succeeded())
	p.withOutcome(out)
	s.renderIntake(w, r, p, http.StatusOK)
}

func sendWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(data); err != nil {
		slog.Error("error writing workbook", "error", err)
	}
}
