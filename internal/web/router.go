package web

import (
	"net/http"

	"github.com/erazemk/almoxarifado/internal/auth"
	"github.com/erazemk/almoxarifado/internal/metrics"
	"github.com/erazemk/almoxarifado/internal/service"
	webembed "github.com/erazemk/almoxarifado/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(svc *service.Service, verifier auth.Verifier, jwtSecret string, m *metrics.Metrics) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Service:   svc,
		Verifier:  verifier,
		Templates: templates,
		JWTSecret: jwtSecret,
		Metrics:   m,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, svc.Store)
	admin := func(h http.HandlerFunc) http.Handler { return cookieAuth(RequireAdmin(h)) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.HandlerFunc(s.Dashboard)))

	mux.Handle("GET /coordenadores", cookieAuth(http.HandlerFunc(s.CoordinatorsPage)))
	mux.Handle("POST /coordenadores", cookieAuth(http.HandlerFunc(s.CoordinatorCreateSubmit)))
	mux.Handle("POST /coordenadores/excluir", admin(s.CoordinatorDeleteSubmit))

	mux.Handle("GET /itens", cookieAuth(http.HandlerFunc(s.ItemsPage)))
	mux.Handle("POST /itens", cookieAuth(http.HandlerFunc(s.ItemCreateSubmit)))
	mux.Handle("POST /itens/excluir", admin(s.ItemDeleteSubmit))

	mux.Handle("GET /estoque", cookieAuth(http.HandlerFunc(s.StockPage)))
	mux.Handle("GET /estoque/exportar", cookieAuth(http.HandlerFunc(s.StockExport)))
	mux.Handle("GET /estoque/entrada", cookieAuth(http.HandlerFunc(s.IntakePage)))
	mux.Handle("POST /estoque/entrada", cookieAuth(http.HandlerFunc(s.IntakeSubmit)))

	mux.Handle("GET /saidas/epis", cookieAuth(s.flowPageHandler(ppeForm)))
	mux.Handle("POST /saidas/epis", cookieAuth(http.HandlerFunc(s.IssuePPESubmit)))
	mux.Handle("GET /saidas/insumos", cookieAuth(s.flowPageHandler(supplyForm)))
	mux.Handle("POST /saidas/insumos", cookieAuth(http.HandlerFunc(s.IssueSuppliesSubmit)))

	mux.Handle("GET /emprestimos", cookieAuth(s.flowPageHandler(loanForm)))
	mux.Handle("POST /emprestimos", cookieAuth(http.HandlerFunc(s.LoanSubmit)))
	mux.Handle("POST /emprestimos/{id}/devolucao", cookieAuth(http.HandlerFunc(s.LoanReturnSubmit)))

	mux.Handle("GET /devolucoes", cookieAuth(s.flowPageHandler(returnForm)))
	mux.Handle("POST /devolucoes", cookieAuth(http.HandlerFunc(s.ReturnSubmit)))

	mux.Handle("GET /relatorios", cookieAuth(http.HandlerFunc(s.ReportsPage)))
	mux.Handle("GET /relatorios/exportar", cookieAuth(http.HandlerFunc(s.ReportExport)))

	mux.Handle("GET /usuarios", admin(s.UsersPage))
	mux.Handle("POST /usuarios", admin(s.UserCreateSubmit))
	mux.Handle("POST /usuarios/{id}/senha", admin(s.UserResetPasswordSubmit))
	mux.Handle("POST /usuarios/{id}/excluir", admin(s.UserDeleteSubmit))

	return m.Middleware(mux), nil
}
