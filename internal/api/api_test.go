package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/erazemk/almoxarifado/internal/auth"
	"github.com/erazemk/almoxarifado/internal/db"
	"github.com/erazemk/almoxarifado/internal/metrics"
	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/options"
	"github.com/erazemk/almoxarifado/internal/report"
	"github.com/erazemk/almoxarifado/internal/service"
	"github.com/erazemk/almoxarifado/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server  *httptest.Server
	svc     *service.Service
	metrics *metrics.Metrics
	token   string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	st := store.New(db.NewTestDB(t), store.Config{Location: time.UTC})
	svc := service.New(st, options.Default(), nil)
	m := metrics.New("test")

	router := NewRouter(svc, &auth.StoreVerifier{Users: st}, testJWTSecret, m)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := auth.HashPassword("password")
	if _, err := st.CreateUser(ctx, "admin", hash, model.RoleAdmin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	return &testEnv{server: server, svc: svc, metrics: m, token: login(t, server, "admin", "password")}
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends an authenticated request, checks the status and decodes the
// response into out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, status int, out any) {
	t.Helper()
	req, err := authRequest(method, e.server.URL+path, e.token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != status {
		var msg map[string]any
		json.NewDecoder(resp.Body).Decode(&msg)
		t.Fatalf("%s %s: expected %d, got %d (%v)", method, path, status, resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
}

func header() map[string]any {
	return map[string]any{
		"cpf":               "123.456.789-00",
		"coordenador":       "Maria",
		"email_coordenador": "maria@example.com",
		"colaborador":       "João Silva",
		"responsavel":       "AMANDA MESSIAS",
		"turno":             "ADM",
		"centro_de_custo":   "RC",
	}
}

func withHeader(fields map[string]any) map[string]any {
	out := header()
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// seed registers LUVA and BOTA, the coordinator and 5 LUVA M in stock.
func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	e.do(t, "POST", "/api/itens", map[string]string{"nome": "luva", "categoria": "EPI"}, http.StatusCreated, nil)
	e.do(t, "POST", "/api/itens", map[string]string{"nome": "bota", "categoria": "EPI"}, http.StatusCreated, nil)
	e.do(t, "POST", "/api/coordenadores", map[string]string{"coordenador": "Maria", "email": "maria@example.com"}, http.StatusCreated, nil)
	e.do(t, "POST", "/api/estoque/entradas", map[string]any{
		"tipo": "EPI",
		"itens": []map[string]any{
			{"item": "LUVA", "tamanho": "M", "status": "NOVO", "fornecedor": "ACME", "quantidade": 5, "valor_unitario": "12.50"},
		},
	}, http.StatusCreated, nil)
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	failed := testutil.ToFloat64(env.metrics.Logins.WithLabelValues("error"))
	if failed != 1 {
		t.Errorf("expected 1 failed login, got %v", failed)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := http.Get(env.server.URL + "/api/itens")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	env := setupTestServer(t)
	env.seed(t)

	operatorToken, _ := auth.GenerateToken(testJWTSecret, auth.Principal{UserID: 99, Username: "operador1", Role: model.RoleOperator})
	operator := &testEnv{server: env.server, token: operatorToken}

	// Operators register items but cannot delete them.
	operator.do(t, "POST", "/api/itens", map[string]string{"nome": "capacete", "categoria": "EPI"}, http.StatusCreated, nil)
	operator.do(t, "DELETE", "/api/itens/CAPACETE", nil, http.StatusForbidden, nil)
	operator.do(t, "DELETE", "/api/coordenadores/maria@example.com", nil, http.StatusForbidden, nil)
	operator.do(t, "GET", "/api/usuarios", nil, http.StatusForbidden, nil)

	env.do(t, "DELETE", "/api/itens/CAPACETE?categoria=EPI", nil, http.StatusOK, nil)
	env.do(t, "DELETE", "/api/itens/CAPACETE", nil, http.StatusNotFound, nil)
}

func TestIssuanceFlow(t *testing.T) {
	env := setupTestServer(t)
	env.seed(t)

	var out outcomeBody
	env.do(t, "POST", "/api/saidas/epis", withHeader(map[string]any{
		"motivo":  "PERDA",
		"efetivo": "DHL",
		"status":  "NOVO",
		"itens": []map[string]any{
			{"item": "LUVA", "tamanho": "M", "quantidade": 2},
			{"item": "BOTA", "tamanho": "42", "quantidade": 1},
		},
	}), http.StatusMultiStatus, &out)

	if len(out.Lines) != 2 || out.Lines[0].Error != "" || out.Lines[1].Error == "" {
		t.Fatalf("expected first line ok and second failed, got %+v", out.Lines)
	}
	if out.Success == "" || len(out.Problems) != 1 {
		t.Errorf("unexpected summary %q %v", out.Success, out.Problems)
	}

	var stock stockResponse
	env.do(t, "GET", "/api/estoque?item=luv", nil, http.StatusOK, &stock)
	if len(stock.Entries) != 1 || stock.Entries[0].Quantity != 3 {
		t.Fatalf("expected 3 LUVA left, got %+v", stock.Entries)
	}
	if !stock.Valuation.Total.Equal(stock.Entries[0].UnitValue.Mul(decimal.NewFromInt(3))) {
		t.Errorf("unexpected valuation %v", stock.Valuation.Total)
	}

	var rep reportResponse
	env.do(t, "GET", "/api/relatorios/saida_epis?colaborador=joão", nil, http.StatusOK, &rep)
	if len(rep.Rows) != 1 || rep.Rows[0].Item != "LUVA" {
		t.Errorf("expected the committed line in the report, got %+v", rep.Rows)
	}

	var dash store.Dashboard
	env.do(t, "GET", "/api/painel", nil, http.StatusOK, &dash)
	if dash.PPEIssued != 2 {
		t.Errorf("expected 2 PPE issued, got %d", dash.PPEIssued)
	}

	pattern := "POST /api/saidas/epis"
	if got := testutil.ToFloat64(env.metrics.HTTPRequests.WithLabelValues("POST", pattern, "207")); got != 1 {
		t.Errorf("expected the request counted under its pattern, got %v", got)
	}
}

func TestValidationError(t *testing.T) {
	env := setupTestServer(t)
	env.seed(t)

	var resp validationResponse
	env.do(t, "POST", "/api/saidas/epis", withHeader(map[string]any{
		"colaborador": "",
		"motivo":      "PERDA",
		"efetivo":     "DHL",
		"status":      "NOVO",
		"itens":       []map[string]any{{"item": "LUVA", "tamanho": "M", "quantidade": 1}},
	}), http.StatusBadRequest, &resp)
	if len(resp.Fields) == 0 {
		t.Fatal("expected field errors")
	}

	e, err := env.svc.Store.StockEntryByKey(context.Background(), model.StockKey{Item: "LUVA", Size: "M", Status: "NOVO"})
	if err != nil || e == nil || e.Quantity != 5 {
		t.Errorf("expected stock untouched, got %+v (%v)", e, err)
	}
}

func TestLoanReturnFlow(t *testing.T) {
	env := setupTestServer(t)
	env.seed(t)

	var out outcomeBody
	env.do(t, "POST", "/api/emprestimos", withHeader(map[string]any{
		"status_item": "NOVO",
		"itens":       []map[string]any{{"item": "LUVA", "tamanho": "M", "quantidade": 1}},
	}), http.StatusCreated, &out)

	var pending []model.Transaction
	env.do(t, "GET", "/api/emprestimos/pendentes?colaborador=silva", nil, http.StatusOK, &pending)
	if len(pending) != 1 || pending[0].LoanStatus != model.LoanPending {
		t.Fatalf("expected one pending loan, got %+v", pending)
	}

	path := "/api/emprestimos/" + itoa(pending[0].ID) + "/devolucao"
	env.do(t, "POST", path, nil, http.StatusCreated, &out)
	env.do(t, "POST", path, nil, http.StatusConflict, nil)
	env.do(t, "POST", "/api/emprestimos/999/devolucao", nil, http.StatusNotFound, nil)

	env.do(t, "GET", "/api/emprestimos/pendentes", nil, http.StatusOK, &pending)
	if len(pending) != 0 {
		t.Errorf("expected no pending loans, got %d", len(pending))
	}
}

func TestReportExport(t *testing.T) {
	env := setupTestServer(t)
	env.seed(t)

	env.do(t, "GET", "/api/relatorios/desconhecido", nil, http.StatusNotFound, nil)

	req, _ := authRequest("GET", env.server.URL+"/api/estoque/exportar", env.token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != report.ContentType {
		t.Errorf("expected workbook content type, got %q", ct)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestServer(t)

	env.do(t, "GET", "/api/opcoes", nil, http.StatusOK, nil)
	env.do(t, "POST", "/api/auth/logout", nil, http.StatusOK, nil)
	env.do(t, "GET", "/api/opcoes", nil, http.StatusUnauthorized, nil)
}

func TestUsersAPIFlow(t *testing.T) {
	env := setupTestServer(t)

	var user model.User
	env.do(t, "POST", "/api/usuarios", map[string]string{
		"username": "operador1", "password": "short", "role": model.RoleOperator,
	}, http.StatusBadRequest, nil)
	env.do(t, "POST", "/api/usuarios", map[string]string{
		"username": "operador1", "password": "senha-forte", "role": model.RoleOperator,
	}, http.StatusCreated, &user)
	env.do(t, "POST", "/api/usuarios", map[string]string{
		"username": "operador1", "password": "senha-forte", "role": model.RoleOperator,
	}, http.StatusConflict, nil)

	login(t, env.server, "operador1", "senha-forte")

	env.do(t, "PUT", "/api/usuarios/"+itoa(user.ID)+"/senha", map[string]string{"password": "outra-senha"}, http.StatusOK, nil)
	login(t, env.server, "operador1", "outra-senha")

	env.do(t, "DELETE", "/api/usuarios/"+itoa(user.ID), nil, http.StatusOK, nil)
	env.do(t, "DELETE", "/api/usuarios/"+itoa(user.ID), nil, http.StatusNotFound, nil)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
