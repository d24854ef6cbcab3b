package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/service"
)

// TransactionsHandler handles the issuance, loan and return forms.
type TransactionsHandler struct {
	Service *service.Service
}

type lineResponse struct {
	service.LineResult
	Error string `json:"erro,omitempty"`
}

type outcomeBody struct {
	Kind     model.Kind     `json:"tipo,omitempty"`
	Lines    []lineResponse `json:"linhas"`
	Success  string         `json:"sucesso,omitempty"`
	Problems []string       `json:"problemas,omitempty"`
	Warning  string         `json:"aviso,omitempty"`
}

// outcomeResponse writes 201 when every line was applied and 207 otherwise.
func outcomeResponse(w http.ResponseWriter, out *service.Outcome) {
	body := outcomeBody{Kind: out.Kind, Warning: out.Warning()}
	body.Success, body.Problems = out.Summary()
	for _, l := range out.Lines {
		body.Lines = append(body.Lines, lineResponse{LineResult: l, Error: l.Message()})
	}

	status := http.StatusCreated
	if len(out.Failed()) > 0 {
		status = http.StatusMultiStatus
	}
	jsonResponse(w, status, body)
}

// IssuePPE handles POST /api/saidas/epis.
func (h *TransactionsHandler) IssuePPE(w http.ResponseWriter, r *http.Request) {
	var form model.IssuanceForm
	if err := decodeJSON(r, &form); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.Service.IssuePPE(r.Context(), form)
	h.respond(w, r, out, err)
}

// IssueSupplies handles POST /api/saidas/insumos.
func (h *TransactionsHandler) IssueSupplies(w http.ResponseWriter, r *http.Request) {
	var form model.SupplyIssuanceForm
	if err := decodeJSON(r, &form); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.Service.IssueSupplies(r.Context(), form)
	h.respond(w, r, out, err)
}

// Lend handles POST /api/emprestimos.
func (h *TransactionsHandler) Lend(w http.ResponseWriter, r *http.Request) {
	var form model.LoanForm
	if err := decodeJSON(r, &form); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.Service.Lend(r.Context(), form)
	h.respond(w, r, out, err)
}

// Return handles POST /api/devolucoes.
func (h *TransactionsHandler) Return(w http.ResponseWriter, r *http.Request) {
	var form model.ReturnForm
	if err := decodeJSON(r, &form); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.Service.Return(r.Context(), form)
	h.respond(w, r, out, err)
}

// PendingLoans handles GET /api/emprestimos/pendentes.
func (h *TransactionsHandler) PendingLoans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loans, err := h.Service.Store.FindPendingLoans(r.Context(), q.Get("colaborador"), q.Get("item"))
	if err != nil {
		storeError(w, err, "failed to list loans")
		return
	}
	if loans == nil {
		loans = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, loans)
}

// ReturnLoan handles POST /api/emprestimos/{id}/devolucao. The body is
// optional.
func (h *TransactionsHandler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	var form model.LoanReturnForm
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &form); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	form.LoanID = id

	out, err := h.Service.ReturnLoan(r.Context(), form)
	h.respond(w, r, out, err)
}

func (h *TransactionsHandler) respond(w http.ResponseWriter, r *http.Request, out *service.Outcome, err error) {
	if err != nil {
		storeError(w, err, "failed to record transaction")
		return
	}
	slog.Info("transaction submitted", "user", GetClaims(r.Context()).Username, "kind", out.Kind,
		"lines", len(out.Lines), "ok", out.Succeeded())
	outcomeResponse(w, out)
}
