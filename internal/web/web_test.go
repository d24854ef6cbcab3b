package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/almoxarifado/internal/auth"
	"github.com/erazemk/almoxarifado/internal/db"
	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/options"
	"github.com/erazemk/almoxarifado/internal/service"
	"github.com/erazemk/almoxarifado/internal/store"
)

const testJWTSecret = "test-secret"

type testSite struct {
	server *httptest.Server
	store  *store.Store
	client *http.Client
}

func setupTestSite(t *testing.T) *testSite {
	t.Helper()
	st := store.New(db.NewTestDB(t), store.Config{Location: time.UTC})
	svc := service.New(st, options.Default(), nil)

	router, err := NewRouter(svc, &auth.StoreVerifier{Users: st}, testJWTSecret, nil)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	for _, u := range []struct{ name, role string }{
		{"admin", model.RoleAdmin},
		{"operador", model.RoleOperator},
	} {
		hash, _ := auth.HashPassword("password")
		if _, err := st.CreateUser(ctx, u.name, hash, u.role); err != nil {
			t.Fatalf("CreateUser %s: %v", u.name, err)
		}
	}

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testSite{server: server, store: st, client: client}
}

func (s *testSite) login(t *testing.T, username string) {
	t.Helper()
	resp, err := s.client.PostForm(s.server.URL+"/login", url.Values{
		"username": {username},
		"password": {"password"},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("login: expected redirect to /, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func (s *testSite) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := s.client.Get(s.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (s *testSite) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.PostForm(s.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestLoadTemplates(t *testing.T) {
	ts, err := LoadTemplates()
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	if _, ok := ts.templates["issue_ppe.html"]; !ok {
		t.Error("issue_ppe.html not loaded")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"12.5", "R$ 12,50"},
		{"1234.56", "R$ 1.234,56"},
		{"1234567", "R$ 1.234.567,00"},
		{"-980.1", "-R$ 980,10"},
	}
	for _, tt := range tests {
		if got := formatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("formatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnauthenticatedRedirect(t *testing.T) {
	site := setupTestSite(t)

	resp, err := site.client.Get(site.server.URL + "/estoque")
	if err != nil {
		t.Fatalf("GET /estoque: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	site := setupTestSite(t)

	resp, body := site.post(t, "/login", url.Values{"username": {"admin"}, "password": {"nope"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Usuário ou senha incorretos.") {
		t.Error("expected login error message")
	}
}

func TestPagesRender(t *testing.T) {
	site := setupTestSite(t)
	site.login(t, "admin")

	pages := []struct {
		path  string
		title string
	}{
		{"/", "Painel"},
		{"/estoque", "Estoque"},
		{"/estoque/entrada", "Entrada de Estoque"},
		{"/saidas/epis", "Saída de EPIs"},
		{"/saidas/insumos", "Saída de Insumos"},
		{"/emprestimos", "Empréstimos"},
		{"/devolucoes", "Devoluções"},
		{"/relatorios?tipo=emprestimos", "Relatórios"},
		{"/itens", "Itens"},
		{"/coordenadores", "Coordenadores"},
		{"/usuarios", "Usuários"},
	}
	for _, p := range pages {
		t.Run(p.path, func(t *testing.T) {
			status, body := site.get(t, p.path)
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d", status)
			}
			if !strings.Contains(body, "<h1>"+p.title+"</h1>") {
				t.Errorf("missing title %q", p.title)
			}
			if !strings.Contains(body, "</html>") {
				t.Error("page was not fully rendered")
			}
		})
	}
}

func TestOperatorCannotManageUsers(t *testing.T) {
	site := setupTestSite(t)
	site.login(t, "operador")

	if status, _ := site.get(t, "/usuarios"); status != http.StatusForbidden {
		t.Errorf("expected 403, got %d", status)
	}
	if status, _ := site.get(t, "/estoque"); status != http.StatusOK {
		t.Errorf("expected 200 on /estoque, got %d", status)
	}
}

func TestIssuePPESubmit(t *testing.T) {
	site := setupTestSite(t)
	ctx := context.Background()
	if _, err := site.store.CreateItem(ctx, "LUVA", model.CategoryPPE); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if _, err := site.store.CreateCoordinator(ctx, "MARIA", "maria@example.com"); err != nil {
		t.Fatalf("CreateCoordinator: %v", err)
	}
	key := model.StockKey{Item: "LUVA", Size: "M", Status: model.StatusNew}
	if _, err := site.store.ApplyDelta(ctx, model.Delta{
		Key: key, Category: model.CategoryPPE, Quantity: 5,
		Supplier: "ACME", UnitValue: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	site.login(t, "operador")

	resp, body := site.post(t, "/saidas/epis", url.Values{
		"colaborador":       {"João Silva"},
		"cpf":               {"123.456.789-00"},
		"email_coordenador": {"maria@example.com"},
		"responsavel":       {"AMANDA MESSIAS"},
		"turno":             {"ADM"},
		"centro_de_custo":   {"RC"},
		"motivo":            {"PERDA"},
		"efetivo":           {"DHL"},
		"status":            {"NOVO"},
		"linhas":            {"2"},
		"item_0":            {"luva"},
		"tamanho_0":         {"m"},
		"quantidade_0":      {"2"},
		"item_1":            {"LUVA"},
		"tamanho_1":         {"G"},
		"quantidade_1":      {"1"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "1 item(ns) registrado(s) com sucesso!") {
		t.Error("expected success message")
	}
	if !strings.Contains(body, "Item &#39;LUVA&#39;") {
		t.Error("expected a problem for the size without stock")
	}

	entry, err := site.store.StockEntryByKey(ctx, key)
	if err != nil {
		t.Fatalf("StockEntryByKey: %v", err)
	}
	if entry.Quantity != 3 {
		t.Errorf("expected 3 left in stock, got %d", entry.Quantity)
	}

	rows, err := site.store.ListTransactions(ctx, model.KindIssuance)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(rows) != 1 || rows[0].Coordinator != "MARIA" {
		t.Errorf("expected one issuance for MARIA, got %+v", rows)
	}
}

func TestIssueValidationRerendersForm(t *testing.T) {
	site := setupTestSite(t)
	site.login(t, "admin")

	resp, body := site.post(t, "/saidas/insumos", url.Values{"linhas": {"1"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Corrija os campos destacados.") {
		t.Error("expected validation message")
	}
}

func TestLogoutRevokesCookie(t *testing.T) {
	site := setupTestSite(t)
	site.login(t, "admin")

	token := ""
	u, _ := url.Parse(site.server.URL)
	for _, c := range site.client.Jar.Cookies(u) {
		if c.Name == cookieName {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatal("no session cookie after login")
	}

	resp, _ := site.post(t, "/logout", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}

	// Reusing the old token must fail even though it has not expired.
	req, _ := http.NewRequest(http.MethodGet, site.server.URL+"/estoque", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	plain := &http.Client{CheckRedirect: site.client.CheckRedirect}
	resp2, err := plain.Do(req)
	if err != nil {
		t.Fatalf("GET /estoque: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusSeeOther {
		t.Errorf("expected redirect for a revoked token, got %d", resp2.StatusCode)
	}
}
