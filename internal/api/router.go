package api

import (
	"net/http"

	"github.com/erazemk/almoxarifado/internal/auth"
	"github.com/erazemk/almoxarifado/internal/metrics"
	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/service"
)

// NewRouter creates the API router with all endpoints registered. m may be nil.
func NewRouter(svc *service.Service, verifier auth.Verifier, jwtSecret string, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Store: svc.Store, Verifier: verifier, JWTSecret: jwtSecret, Metrics: m}
	usersHandler := &UsersHandler{Store: svc.Store}
	dashboardHandler := &DashboardHandler{Service: svc}
	catalogHandler := &CatalogHandler{Service: svc}
	stockHandler := &StockHandler{Service: svc}
	transactionsHandler := &TransactionsHandler{Service: svc}
	reportsHandler := &ReportsHandler{Service: svc}

	authMW := AuthMiddleware(jwtSecret, svc.Store)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/senha", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Operator accounts (admin only).
	mux.Handle("GET /api/usuarios", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/usuarios", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("PUT /api/usuarios/{id}/senha", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/usuarios/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	mux.Handle("GET /api/painel", authMW(http.HandlerFunc(dashboardHandler.Dashboard)))
	mux.Handle("GET /api/opcoes", authMW(http.HandlerFunc(dashboardHandler.Options)))

	// Catalog and directory: read and create (all roles), delete (admin).
	mux.Handle("GET /api/itens", authMW(http.HandlerFunc(catalogHandler.ListItems)))
	mux.Handle("POST /api/itens", authMW(http.HandlerFunc(catalogHandler.CreateItem)))
	mux.Handle("DELETE /api/itens/{nome}", authMW(requireAdmin(http.HandlerFunc(catalogHandler.DeleteItem))))
	mux.Handle("GET /api/coordenadores", authMW(http.HandlerFunc(catalogHandler.ListCoordinators)))
	mux.Handle("POST /api/coordenadores", authMW(http.HandlerFunc(catalogHandler.CreateCoordinator)))
	mux.Handle("DELETE /api/coordenadores/{email}", authMW(requireAdmin(http.HandlerFunc(catalogHandler.DeleteCoordinator))))

	// Stock.
	mux.Handle("GET /api/estoque", authMW(http.HandlerFunc(stockHandler.List)))
	mux.Handle("GET /api/estoque/exportar", authMW(http.HandlerFunc(stockHandler.Export)))
	mux.Handle("POST /api/estoque/entradas", authMW(http.HandlerFunc(stockHandler.Receive)))

	// Transactions.
	mux.Handle("POST /api/saidas/epis", authMW(http.HandlerFunc(transactionsHandler.IssuePPE)))
	mux.Handle("POST /api/saidas/insumos", authMW(http.HandlerFunc(transactionsHandler.IssueSupplies)))
	mux.Handle("POST /api/emprestimos", authMW(http.HandlerFunc(transactionsHandler.Lend)))
	mux.Handle("GET /api/emprestimos/pendentes", authMW(http.HandlerFunc(transactionsHandler.PendingLoans)))
	mux.Handle("POST /api/emprestimos/{id}/devolucao", authMW(http.HandlerFunc(transactionsHandler.ReturnLoan)))
	mux.Handle("POST /api/devolucoes", authMW(http.HandlerFunc(transactionsHandler.Return)))

	// Reports.
	mux.Handle("GET /api/relatorios/{tipo}", authMW(http.HandlerFunc(reportsHandler.Get)))
	mux.Handle("GET /api/relatorios/{tipo}/exportar", authMW(http.HandlerFunc(reportsHandler.Export)))

	return m.Middleware(mux)
}
