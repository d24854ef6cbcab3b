package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/notify"
)

// LineResult is what happened to one item line of a form.
type LineResult struct {
	Index    int                `json:"linha"`
	Item     string             `json:"item"`
	Size     string             `json:"tamanho"`
	Quantity int                `json:"quantidade"`
	Record   *model.Transaction `json:"registro,omitempty"`
	Stock    *model.StockEntry  `json:"estoque,omitempty"`

	// Logged is true when the line's log row was committed.
	Logged bool  `json:"registrado"`
	Err    error `json:"-"`
}

// OK reports whether the line was fully applied.
func (l LineResult) OK() bool {
	return l.Err == nil
}

// Message is the operator-facing text of the line error, empty for a line
// without one.
func (l LineResult) Message() string {
	if l.Err == nil {
		return ""
	}
	return lineMessage(l.Err)
}

// Outcome aggregates the per-line results of one submitted form.
type Outcome struct {
	Kind   model.Kind   `json:"tipo,omitempty"`
	Lines  []LineResult `json:"linhas"`
	Notice error        `json:"-"`
}

// Succeeded counts lines without errors.
func (o *Outcome) Succeeded() int {
	n := 0
	for _, l := range o.Lines {
		if l.OK() {
			n++
		}
	}
	return n
}

// Failed returns the lines that reported an error.
func (o *Outcome) Failed() []LineResult {
	var out []LineResult
	for _, l := range o.Lines {
		if !l.OK() {
			out = append(out, l)
		}
	}
	return out
}

// Partial reports whether some but not all lines failed.
func (o *Outcome) Partial() bool {
	s := o.Succeeded()
	return s > 0 && s < len(o.Lines)
}

// Records returns the log rows that were committed.
func (o *Outcome) Records() []model.Transaction {
	var out []model.Transaction
	for _, l := range o.Lines {
		if l.Logged && l.Record != nil {
			out = append(out, *l.Record)
		}
	}
	return out
}

// Summary describes the outcome for the operator, one message per line.
func (o *Outcome) Summary() (success string, problems []string) {
	if n := o.Succeeded(); n > 0 {
		success = fmt.Sprintf("%d item(ns) registrado(s) com sucesso!", n)
	}
	for _, l := range o.Failed() {
		problems = append(problems, fmt.Sprintf("Item '%s': %s", l.Item, l.Message()))
	}
	if o.Notice != nil {
		problems = append(problems, o.Warning())
	}
	return success, problems
}

// Problems joins the problem messages of Summary.
func (o *Outcome) Problems() string {
	_, problems := o.Summary()
	return strings.Join(problems, "\n")
}

// Warning describes the notification failure, empty when there was none.
func (o *Outcome) Warning() string {
	if o.Notice == nil {
		return ""
	}
	return NoticeMessage(o.Notice)
}

// NoticeMessage is the operator-facing text of a notification failure.
func NoticeMessage(err error) string {
	switch {
	case errors.Is(err, notify.ErrMailerDisabled):
		return "Envio de e-mail desativado; nenhuma notificação foi enviada."
	case errors.Is(err, notify.ErrInvalidRecipient):
		return "E-mail do coordenador inválido; nenhuma notificação foi enviada."
	default:
		return fmt.Sprintf("Registro salvo, mas a notificação por e-mail falhou: %v", err)
	}
}
