package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/store"
)

// defaultRows is how many blank item rows a form shows.
const defaultRows = 5

// rowCount reads the number of item rows to show from ?linhas=.
func rowCount(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("linhas"))
	if err != nil || n < 1 {
		return defaultRows
	}
	return min(n, model.MaxLines)
}

// seq returns 0..n-1, the row indices of a multi-line form.
func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// submittedRows reads the "linhas" field of a multi-line form. Rows beyond
// MaxLines are still read so validation can reject the form.
func submittedRows(r *http.Request) int {
	n, err := strconv.Atoi(r.FormValue("linhas"))
	if err != nil || n < 0 {
		return 0
	}
	return min(n, model.MaxLines+1)
}

func parseHeader(r *http.Request) model.Header {
	return model.Header{
		CPF:              r.FormValue("cpf"),
		Coordinator:      r.FormValue("coordenador"),
		CoordinatorEmail: r.FormValue("email_coordenador"),
		Worker:           r.FormValue("colaborador"),
		Responsible:      r.FormValue("responsavel"),
		Shift:            r.FormValue("turno"),
		CostCenter:       r.FormValue("centro_de_custo"),
	}
}

// parseLines reads item_N, tamanho_N and quantidade_N. Rows without an item
// are dropped later by the form's Normalize.
func parseLines(r *http.Request) []model.Line {
	n := submittedRows(r)
	lines := make([]model.Line, 0, n)
	for i := range n {
		suffix := "_" + strconv.Itoa(i)
		qty, _ := strconv.Atoi(r.FormValue("quantidade" + suffix))
		lines = append(lines, model.Line{
			Item:     r.FormValue("item" + suffix),
			Size:     r.FormValue("tamanho" + suffix),
			Quantity: qty,
		})
	}
	return lines
}

// parseIntakeLines reads the intake rows, which add status_N, fornecedor_N
// and valor_N. Values accept a decimal comma.
func parseIntakeLines(r *http.Request) []model.IntakeLine {
	n := submittedRows(r)
	lines := make([]model.IntakeLine, 0, n)
	for i := range n {
		suffix := "_" + strconv.Itoa(i)
		qty, _ := strconv.Atoi(r.FormValue("quantidade" + suffix))
		value, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(r.FormValue("valor"+suffix)), ",", "."))
		if err != nil {
			value = decimal.Zero
		}
		lines = append(lines, model.IntakeLine{
			Item:      r.FormValue("item" + suffix),
			Size:      r.FormValue("tamanho" + suffix),
			Status:    r.FormValue("status" + suffix),
			Supplier:  r.FormValue("fornecedor" + suffix),
			Quantity:  qty,
			UnitValue: value,
		})
	}
	return lines
}

// fillCoordinator sets the coordinator name from the directory when the form
// only carries the e-mail picked from the list.
func (s *Server) fillCoordinator(r *http.Request, h *model.Header) {
	if h.Coordinator != "" || h.CoordinatorEmail == "" {
		return
	}
	c, err := s.Service.Store.GetCoordinator(r.Context(), h.CoordinatorEmail)
	if err == nil && c != nil {
		h.Coordinator = c.Name
	}
}

// errorMessage is the operator-facing text of a store or service error.
func errorMessage(err error) string {
	var stockErr *store.StockError
	switch {
	case errors.As(err, &stockErr):
		return stockErr.Error()
	case errors.Is(err, store.ErrAlreadyExists):
		return "Registro já cadastrado."
	case errors.Is(err, store.ErrNotFound):
		return "Registro não encontrado."
	case errors.Is(err, store.ErrLoanNotFound):
		return "Empréstimo não encontrado."
	case errors.Is(err, store.ErrNotPending):
		return "Este empréstimo já foi devolvido."
	default:
		return "Ocorreu um erro inesperado. Tente novamente."
	}
}

// redirectFlash redirects to path with a success or error message.
func redirectFlash(w http.ResponseWriter, r *http.Request, path, key, message string) {
	http.Redirect(w, r, path+"?"+url.Values{key: {message}}.Encode(), http.StatusSeeOther)
}
