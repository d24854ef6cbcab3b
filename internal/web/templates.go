package web

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/almoxarifado/internal/auth"
	"github.com/erazemk/almoxarifado/internal/metrics"
	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/options"
	"github.com/erazemk/almoxarifado/internal/service"
	webembed "github.com/erazemk/almoxarifado/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrador"
			case model.RoleOperator:
				return "Operador"
			default:
				return role
			}
		},
		"money": formatMoney,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
		"size": func(s string) string {
			if s == "" || s == model.SizeUnique {
				return "-"
			}
			return s
		},
		"seq":      seq,
		"selected": options.Allowed,
	}
}

// formatMoney renders a value the Brazilian way: R$ 1.234,56.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	// Read layout.
	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"dashboard.html",
		"coordinators.html",
		"items.html",
		"stock.html",
		"intake.html",
		"issue_ppe.html",
		"issue_supplies.html",
		"loans.html",
		"returns.html",
		"reports.html",
		"users.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with a status other than 200.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title    string
	Path     string
	User     *auth.Claims
	Options  *options.Options
	Error    string
	Success  string
	Problems []string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Service   *service.Service
	Verifier  auth.Verifier
	Templates *Templates
	JWTSecret string
	Metrics   *metrics.Metrics
}

// page returns the base data of an authenticated page, with the flash
// messages carried in the query string after a redirect.
func (s *Server) page(r *http.Request, title string) PageData {
	q := r.URL.Query()
	return PageData{
		Title:   title,
		Path:    r.URL.Path,
		User:    GetWebClaims(r.Context()),
		Options: s.Service.Options,
		Success: q.Get("sucesso"),
		Error:   q.Get("erro"),
	}
}

// withOutcome copies a form outcome into the page messages.
func (p *PageData) withOutcome(out *service.Outcome) {
	p.Success, p.Problems = out.Summary()
}

// withError sets the page error from a service error.
func (p *PageData) withError(err error) {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		p.Error = "Corrija os campos destacados."
		for _, fe := range verrs {
			p.Problems = append(p.Problems, fe.Message)
		}
		return
	}
	p.Error = errorMessage(err)
}
