package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/service"
)

type flowPage struct {
	PageData
	Kind         model.Kind
	Items        []string
	Coordinators []model.Coordinator
	Rows         []int
	Pending      []model.Transaction
	Worker       string
	Item         string
}

// flowForm describes one transaction form page.
type flowForm struct {
	kind     model.Kind
	template string
	path     string
	title    string
}

var (
	ppeForm    = flowForm{model.KindIssuance, "issue_ppe.html", "/saidas/epis", "Saída de EPIs"}
	supplyForm = flowForm{model.KindSupply, "issue_supplies.html", "/saidas/insumos", "Saída de Insumos"}
	loanForm   = flowForm{model.KindLoan, "loans.html", "/emprestimos", "Empréstimos"}
	returnForm = flowForm{model.KindReturn, "returns.html", "/devolucoes", "Devoluções"}
)

func (s *Server) renderFlow(w http.ResponseWriter, r *http.Request, f flowForm, p PageData, status int) {
	items, err := s.Service.Store.ItemNames(r.Context(), f.kind.Category())
	if err != nil {
		slog.Error("failed to list items", "error", err)
	}
	coordinators, err := s.Service.Store.ListCoordinators(r.Context())
	if err != nil {
		slog.Error("failed to list coordinators", "error", err)
	}

	data := &flowPage{
		PageData:     p,
		Kind:         f.kind,
		Items:        items,
		Coordinators: coordinators,
		Rows:         seq(rowCount(r)),
	}
	if f.kind == model.KindLoan {
		q := r.URL.Query()
		data.Worker, data.Item = q.Get("colaborador"), q.Get("item")
		data.Pending, err = s.Service.Store.FindPendingLoans(r.Context(), data.Worker, data.Item)
		if err != nil {
			slog.Error("failed to list pending loans", "error", err)
		}
	}
	s.Templates.RenderStatus(w, status, f.template, data)
}

func (s *Server) flowPageHandler(f flowForm) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderFlow(w, r, f, s.page(r, f.title), http.StatusOK)
	}
}

// finishFlow renders the form again with the outcome of a submission.
func (s *Server) finishFlow(w http.ResponseWriter, r *http.Request, f flowForm, out *service.Outcome, err error) {
	p := s.page(r, f.title)
	if err != nil {
		p.withError(err)
		s.renderFlow(w, r, f, p, http.StatusBadRequest)
		return
	}

	slog.Info("transaction submitted", "user", GetWebClaims(r.Context()).Username, "kind", out.Kind,
		"lines", len(out.Lines), "ok", out.Succeeded())
	p.withOutcome(out)
	s.renderFlow(w, r, f, p, http.StatusOK)
}

// IssuePPESubmit handles POST /saidas/epis.
func (s *Server) IssuePPESubmit(w http.ResponseWriter, r *http.Request) {
	form := model.IssuanceForm{
		Header:    parseHeader(r),
		Reason:    r.FormValue("motivo"),
		Workforce: r.FormValue("efetivo"),
		Status:    r.FormValue("status"),
		Lines:     parseLines(r),
	}
	s.fillCoordinator(r, &form.Header)
	out, err := s.Service.IssuePPE(r.Context(), form)
	s.finishFlow(w, r, ppeForm, out, err)
}

// IssueSuppliesSubmit handles POST /saidas/insumos.
func (s *Server) IssueSuppliesSubmit(w http.ResponseWriter, r *http.Request) {
	form := model.SupplyIssuanceForm{
		Header: parseHeader(r),
		Lines:  parseLines(r),
	}
	s.fillCoordinator(r, &form.Header)
	out, err := s.Service.IssueSupplies(r.Context(), form)
	s.finishFlow(w, r, supplyForm, out, err)
}

// LoanSubmit handles POST /emprestimos.
func (s *Server) LoanSubmit(w http.ResponseWriter, r *http.Request) {
	form := model.LoanForm{
		Header: parseHeader(r),
		Status: r.FormValue("status_item"),
		Lines:  parseLines(r),
	}
	s.fillCoordinator(r, &form.Header)
	out, err := s.Service.Lend(r.Context(), form)
	s.finishFlow(w, r, loanForm, out, err)
}

// LoanReturnSubmit handles POST /emprestimos/{id}/devolucao.
func (s *Server) LoanReturnSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		redirectFlash(w, r, "/emprestimos", "erro", "Empréstimo inválido.")
		return
	}

	out, err := s.Service.ReturnLoan(r.Context(), model.LoanReturnForm{
		LoanID:      id,
		Responsible: r.FormValue("responsavel"),
		Reason:      r.FormValue("motivo"),
	})
	if err != nil {
		redirectFlash(w, r, "/emprestimos", "erro", errorMessage(err))
		return
	}

	slog.Info("loan returned", "user", GetWebClaims(r.Context()).Username, "loan", id)
	msg := "Devolução do empréstimo " + strconv.FormatInt(id, 10) + " registrada."
	if out.Notice != nil {
		msg += " " + out.Warning()
	}
	redirectFlash(w, r, "/emprestimos", "sucesso", msg)
}

// ReturnSubmit handles POST /devolucoes.
func (s *Server) ReturnSubmit(w http.ResponseWriter, r *http.Request) {
	form := model.ReturnForm{
		Header: parseHeader(r),
		Reason: r.FormValue("motivo"),
		Status: r.FormValue("status_item"),
		Action: r.FormValue("acao"),
		Lines:  parseLines(r),
	}
	s.fillCoordinator(r, &form.Header)
	out, err := s.Service.Return(r.Context(), form)
	s.finishFlow(w, r, returnForm, out, err)
}
