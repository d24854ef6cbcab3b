// Package service runs the warehouse forms: it validates the input, writes
// each item line, and notifies the coordinator once the lines are committed.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/notify"
	"github.com/erazemk/almoxarifado/internal/options"
	"github.com/erazemk/almoxarifado/internal/store"
)

// Service is safe for concurrent use.
type Service struct {
	Store    *store.Store
	Options  *options.Options
	Notifier *notify.Dispatcher
}

// New returns a Service. A nil notifier disables notifications.
func New(s *store.Store, opts *options.Options, n *notify.Dispatcher) *Service {
	if opts == nil {
		opts = options.Default()
	}
	return &Service{Store: s, Options: opts, Notifier: n}
}

// IssuePPE records PPE handed to a worker.
func (s *Service) IssuePPE(ctx context.Context, form model.IssuanceForm) (*Outcome, error) {
	form.Normalize()

	errs := s.check(ctx, &form, &form.Header, model.CategoryPPE, form.Lines)
	s.allowed(&errs, "Motivo", s.Options.IssueReasons, form.Reason)
	s.allowed(&errs, "Efetivo", s.Options.Workforces, form.Workforce)
	s.allowed(&errs, "Status", s.Options.IssueStatuses, form.Status)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	base := s.transaction(model.KindIssuance, form.Header)
	base.Reason = form.Reason
	base.Workforce = form.Workforce
	base.Status = form.Status
	return s.record(ctx, base, form.Lines), nil
}

// IssueSupplies records consumables handed to a worker.
func (s *Service) IssueSupplies(ctx context.Context, form model.SupplyIssuanceForm) (*Outcome, error) {
	form.Normalize()

	errs := s.check(ctx, &form, &form.Header, model.CategorySupply, form.Lines)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return s.record(ctx, s.transaction(model.KindSupply, form.Header), form.Lines), nil
}

// Lend records PPE lent to a worker. Every line becomes a pending loan.
func (s *Service) Lend(ctx context.Context, form model.LoanForm) (*Outcome, error) {
	form.Normalize()

	errs := s.check(ctx, &form, &form.Header, model.CategoryPPE, form.Lines)
	s.allowed(&errs, "Status", s.Options.IssueStatuses, form.Status)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	base := s.transaction(model.KindLoan, form.Header)
	base.Status = form.Status
	return s.record(ctx, base, form.Lines), nil
}

// Return records items handed back outside of a registered loan.
func (s *Service) Return(ctx context.Context, form model.ReturnForm) (*Outcome, error) {
	form.Normalize()

	errs := s.check(ctx, &form, &form.Header, model.CategoryPPE, form.Lines)
	s.allowed(&errs, "Motivo", s.Options.ReturnReasons, form.Reason)
	s.allowed(&errs, "Status", s.Options.ItemStatuses, form.Status)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	base := s.transaction(model.KindReturn, form.Header)
	base.Reason = form.Reason
	base.Status = form.Status
	base.Action = form.Action
	return s.record(ctx, base, form.Lines), nil
}

// ReturnLoan closes one pending loan and notifies its coordinator. Store
// errors such as store.ErrNotPending are returned as is.
func (s *Service) ReturnLoan(ctx context.Context, form model.LoanReturnForm) (*Outcome, error) {
	form.Normalize()
	if err := model.Validate(&form); err != nil {
		return nil, err
	}
	var errs model.ValidationErrors
	if form.Responsible != "" {
		s.allowed(&errs, "Responsável", s.Options.Responsibles, form.Responsible)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	ret, err := s.Store.ReturnLoan(ctx, form.LoanID, form.Responsible, form.Reason)
	if err != nil {
		return nil, err
	}
	slog.Info("loan returned", "loan", form.LoanID, "item", ret.Item, "quantity", ret.Quantity)

	out := &Outcome{
		Kind: model.KindReturn,
		Lines: []LineResult{{
			Index: 0, Item: ret.Item, Size: ret.Size, Quantity: ret.Quantity,
			Record: ret, Logged: true,
		}},
	}
	out.Notice = s.notify(ctx, model.KindReturn, []model.Transaction{*ret})
	return out, nil
}

// Receive applies an intake form to the ledger, one independent delta per
// line. Supply lines are always stocked with status N/A, which is what supply
// issuance takes from.
func (s *Service) Receive(ctx context.Context, form model.IntakeForm) (*Outcome, error) {
	form.Normalize()

	var errs model.ValidationErrors
	if err := s.validateForm(&errs, &form); err != nil {
		return nil, err
	}
	if len(form.Lines) > model.MaxLines {
		errs.Add("Itens", "No máximo %d itens por formulário.", model.MaxLines)
	}
	if model.ValidCategory(form.Category) {
		lines := make([]model.Line, len(form.Lines))
		for i, l := range form.Lines {
			lines[i] = model.Line{Item: l.Item}
		}
		s.catalogued(ctx, &errs, form.Category, lines)
	}
	if form.Category == model.CategoryPPE {
		for i, l := range form.Lines {
			if !options.Allowed(s.Options.IssueStatuses, l.Status) {
				errs.Add("Status", "Linha %d: O campo 'Status' tem um valor inválido.", i+1)
			}
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{}
	for i, l := range form.Lines {
		status := l.Status
		if form.Category == model.CategorySupply {
			status = model.NoStatus
		}
		res := LineResult{Index: i, Item: l.Item, Size: l.Size, Quantity: l.Quantity}
		res.Stock, res.Err = s.Store.ApplyDelta(ctx, model.Delta{
			Key:       model.StockKey{Item: l.Item, Size: l.Size, Status: status},
			Category:  form.Category,
			Quantity:  l.Quantity,
			Supplier:  l.Supplier,
			UnitValue: l.UnitValue,
		})
		if res.Err != nil {
			slog.Warn("intake line failed", "item", l.Item, "error", res.Err)
		}
		out.Lines = append(out.Lines, res)
	}
	slog.Info("stock received", "category", form.Category, "lines", len(out.Lines), "ok", out.Succeeded())
	return out, nil
}

// RegisterItem adds an item to the catalog.
func (s *Service) RegisterItem(ctx context.Context, form model.ItemForm) (*model.Item, error) {
	form.Normalize()
	if err := model.Validate(&form); err != nil {
		return nil, err
	}
	item, err := s.Store.CreateItem(ctx, form.Name, form.Category)
	if err != nil {
		return nil, err
	}
	slog.Info("item registered", "name", item.Name, "category", item.Category)
	return item, nil
}

// Registration is the result of registering a coordinator.
type Registration struct {
	Coordinator *model.Coordinator
	Notice      error
}

// RegisterCoordinator adds a coordinator and sends the welcome e-mail.
func (s *Service) RegisterCoordinator(ctx context.Context, form model.CoordinatorForm) (*Registration, error) {
	form.Normalize()
	if err := model.Validate(&form); err != nil {
		return nil, err
	}
	c, err := s.Store.CreateCoordinator(ctx, form.Name, form.Email)
	if err != nil {
		return nil, err
	}
	slog.Info("coordinator registered", "name", c.Name, "email", c.Email)

	reg := &Registration{Coordinator: c}
	if s.Notifier != nil {
		reg.Notice = s.Notifier.CoordinatorWelcome(ctx, *c)
	}
	return reg, nil
}

// transaction builds the log row fields shared by every line of a form. All
// lines share one timestamp.
func (s *Service) transaction(kind model.Kind, h model.Header) model.Transaction {
	return model.Transaction{
		Kind:             kind,
		Date:             s.Store.Now(),
		CPF:              h.CPF,
		Coordinator:      h.Coordinator,
		CoordinatorEmail: h.CoordinatorEmail,
		Worker:           h.Worker,
		Responsible:      h.Responsible,
		Shift:            h.Shift,
		CostCenter:       h.CostCenter,
	}
}

// record writes each line in its own transaction, then notifies about the
// lines whose log row was committed.
func (s *Service) record(ctx context.Context, base model.Transaction, lines []model.Line) *Outcome {
	out := &Outcome{Kind: base.Kind}
	for i, l := range lines {
		t := base
		t.Item = l.Item
		t.Size = l.Size
		t.Quantity = l.Quantity

		res := LineResult{Index: i, Item: l.Item, Size: l.Size, Quantity: l.Quantity}
		res.Record, res.Err = s.Store.Record(ctx, t)
		res.Logged = res.Record != nil
		if res.Err != nil {
			slog.Warn("transaction line failed", "kind", base.Kind, "item", l.Item, "logged", res.Logged, "error", res.Err)
		}
		out.Lines = append(out.Lines, res)
	}
	slog.Info("transaction recorded", "kind", base.Kind, "worker", base.Worker,
		"lines", len(out.Lines), "ok", out.Succeeded())

	if records := out.Records(); len(records) > 0 {
		out.Notice = s.notify(ctx, base.Kind, records)
	}
	return out
}

func (s *Service) notify(ctx context.Context, kind model.Kind, records []model.Transaction) error {
	if s.Notifier == nil {
		return nil
	}
	return s.Notifier.Transaction(ctx, kind, records)
}

// check validates a transaction form: struct rules, header option lists, the
// coordinator directory and the catalog.
func (s *Service) check(ctx context.Context, form any, h *model.Header, category string, lines []model.Line) model.ValidationErrors {
	var errs model.ValidationErrors
	if err := s.validateForm(&errs, form); err != nil {
		errs.Add("", "%v", err)
		return errs
	}
	if len(lines) > model.MaxLines {
		errs.Add("Itens", "No máximo %d itens por formulário.", model.MaxLines)
	}

	s.allowed(&errs, "Responsável", s.Options.Responsibles, h.Responsible)
	s.allowed(&errs, "Turno", s.Options.Shifts, h.Shift)
	s.allowed(&errs, "Centro de Custo", s.Options.CostCenters, h.CostCenter)

	if h.CoordinatorEmail != "" {
		emails, err := s.Store.CoordinatorEmails(ctx)
		if err != nil {
			errs.Add("", "Não foi possível carregar os coordenadores: %v", err)
		} else if !slices.ContainsFunc(emails, func(e string) bool { return strings.EqualFold(e, h.CoordinatorEmail) }) {
			errs.Add("E-mail do Coordenador", "O e-mail '%s' não pertence a um coordenador cadastrado.", h.CoordinatorEmail)
		}
	}

	s.catalogued(ctx, &errs, category, lines)
	return errs
}

// validateForm appends the struct-tag errors of form to errs. Only an
// unexpected validator failure is returned.
func (s *Service) validateForm(errs *model.ValidationErrors, form any) error {
	err := model.Validate(form)
	if err == nil {
		return nil
	}
	var ve model.ValidationErrors
	if errors.As(err, &ve) {
		*errs = append(*errs, ve...)
		return nil
	}
	return err
}

func (s *Service) allowed(errs *model.ValidationErrors, label string, list []string, v string) {
	if v == "" || options.Allowed(list, v) {
		return
	}
	errs.Add(label, "O valor '%s' não é permitido para o campo '%s'.", v, label)
}

func (s *Service) catalogued(ctx context.Context, errs *model.ValidationErrors, category string, lines []model.Line) {
	if len(lines) == 0 {
		return
	}
	names, err := s.Store.ItemNames(ctx, category)
	if err != nil {
		errs.Add("", "Não foi possível carregar o catálogo: %v", err)
		return
	}
	for i, l := range lines {
		if l.Item != "" && !slices.Contains(names, l.Item) {
			errs.Add("Item", "Linha %d: O item '%s' não está cadastrado como %s.", i+1, l.Item, category)
		}
	}
}

// lineMessage is the operator-facing text of a line error.
func lineMessage(err error) string {
	var stockErr *store.StockError
	if errors.As(err, &stockErr) {
		return stockErr.Error()
	}
	return fmt.Sprintf("falha ao registrar (%v)", err)
}
