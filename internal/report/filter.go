// Package report filters the transaction logs and the stock ledger and exports
// them as spreadsheets.
package report

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/erazemk/almoxarifado/internal/model"
)

// Field names a filterable column of a log row.
type Field string

// Filterable fields. Values match the column names.
const (
	FieldWorker      Field = "colaborador"
	FieldCoordinator Field = "coordenador"
	FieldItem        Field = "item"
	FieldResponsible Field = "responsavel"
	FieldShift       Field = "turno"
	FieldCostCenter  Field = "centro_de_custo"
	FieldReason      Field = "motivo"
	FieldSize        Field = "tamanho"
	FieldItemStatus  Field = "status_item"
	FieldLoanStatus  Field = "status_emprestimo"
)

func (f Field) value(t model.Transaction) string {
	switch f {
	case FieldWorker:
		return t.Worker
	case FieldCoordinator:
		return t.Coordinator
	case FieldItem:
		return t.Item
	case FieldResponsible:
		return t.Responsible
	case FieldShift:
		return t.Shift
	case FieldCostCenter:
		return t.CostCenter
	case FieldReason:
		return t.Reason
	case FieldSize:
		return t.Size
	case FieldItemStatus:
		return t.Status
	case FieldLoanStatus:
		return t.LoanStatus
	}
	return ""
}

// Filter selects log rows. Zero fields match everything. Dates are whole days
// and both bounds are inclusive. Text fields match case-insensitive
// substrings; slice fields match any listed value exactly.
type Filter struct {
	From *time.Time
	To   *time.Time

	Worker      string
	Coordinator string
	Item        string

	Responsible []string
	Shift       []string
	CostCenter  []string
	Reason      []string
	Size        []string
	ItemStatus  []string
	LoanStatus  []string
}

// Match reports whether t passes every predicate of the filter.
func (f Filter) Match(t model.Transaction) bool {
	if f.From != nil && t.Date.Before(startOfDay(*f.From, t.Date.Location())) {
		return false
	}
	if f.To != nil && !t.Date.Before(startOfDay(*f.To, t.Date.Location()).AddDate(0, 0, 1)) {
		return false
	}

	substrings := []struct {
		field Field
		want  string
	}{
		{FieldWorker, f.Worker},
		{FieldCoordinator, f.Coordinator},
		{FieldItem, f.Item},
	}
	for _, s := range substrings {
		if s.want != "" && !containsFold(s.field.value(t), s.want) {
			return false
		}
	}

	sets := []struct {
		field Field
		want  []string
	}{
		{FieldResponsible, f.Responsible},
		{FieldShift, f.Shift},
		{FieldCostCenter, f.CostCenter},
		{FieldReason, f.Reason},
		{FieldSize, f.Size},
		{FieldItemStatus, f.ItemStatus},
		{FieldLoanStatus, f.LoanStatus},
	}
	for _, s := range sets {
		if len(s.want) > 0 && !slices.Contains(s.want, s.field.value(t)) {
			return false
		}
	}
	return true
}

// Apply returns the rows that match f, in their original order.
func Apply(rows []model.Transaction, f Filter) []model.Transaction {
	out := []model.Transaction{}
	for _, t := range rows {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Distinct returns the sorted non-empty values of field across rows, for
// multi-select options.
func Distinct(rows []model.Transaction, field Field) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, t := range rows {
		v := field.value(t)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// ParseFilter reads a filter from query parameters. Dates use YYYY-MM-DD in loc
// under "de" and "ate"; an unparsable date is ignored. Set fields may repeat.
func ParseFilter(q url.Values, loc *time.Location) Filter {
	return Filter{
		From:        parseDay(q.Get("de"), loc),
		To:          parseDay(q.Get("ate"), loc),
		Worker:      strings.TrimSpace(q.Get(string(FieldWorker))),
		Coordinator: strings.TrimSpace(q.Get(string(FieldCoordinator))),
		Item:        strings.TrimSpace(q.Get(string(FieldItem))),
		Responsible: values(q, FieldResponsible),
		Shift:       values(q, FieldShift),
		CostCenter:  values(q, FieldCostCenter),
		Reason:      values(q, FieldReason),
		Size:        values(q, FieldSize),
		ItemStatus:  values(q, FieldItemStatus),
		LoanStatus:  values(q, FieldLoanStatus),
	}
}

func values(q url.Values, field Field) []string {
	var out []string
	for _, v := range q[string(field)] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDay(s string, loc *time.Location) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return nil
	}
	return &t
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToUpper(s), strings.ToUpper(substr))
}
