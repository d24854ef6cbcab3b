package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/erazemk/almoxarifado/internal/db"
	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/notify"
	"github.com/erazemk/almoxarifado/internal/notify/mocks"
	"github.com/erazemk/almoxarifado/internal/options"
	"github.com/erazemk/almoxarifado/internal/service"
	"github.com/erazemk/almoxarifado/internal/store"
)

var fixedNow = time.Date(2024, 5, 3, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, m notify.Mailer) *service.Service {
	t.Helper()
	ctx := context.Background()

	st := store.New(db.NewTestDB(t), store.Config{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
	for _, it := range []struct{ name, category string }{
		{"LUVA", model.CategoryPPE},
		{"BOTA", model.CategoryPPE},
		{"FITA", model.CategorySupply},
	} {
		if _, err := st.CreateItem(ctx, it.name, it.category); err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
	}
	if _, err := st.CreateCoordinator(ctx, "MARIA", "maria@example.com"); err != nil {
		t.Fatalf("CreateCoordinator: %v", err)
	}

	var n *notify.Dispatcher
	if m != nil {
		n = &notify.Dispatcher{Mailer: m, Location: time.UTC, Now: func() time.Time { return fixedNow }}
	}
	return service.New(st, options.Default(), n)
}

func header() model.Header {
	return model.Header{
		CPF:              "123.456.789-00",
		Coordinator:      "Maria",
		CoordinatorEmail: "maria@example.com",
		Worker:           "João Silva",
		Responsible:      "AMANDA MESSIAS",
		Shift:            "ADM",
		CostCenter:       "RC",
	}
}

func receive(t *testing.T, svc *service.Service, category string, lines ...model.IntakeLine) {
	t.Helper()
	out, err := svc.Receive(context.Background(), model.IntakeForm{Category: category, Lines: lines})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(out.Failed()) > 0 {
		t.Fatalf("Receive failed lines: %s", out.Problems())
	}
}

func stockOf(t *testing.T, svc *service.Service, item, size, status string) int {
	t.Helper()
	e, err := svc.Store.StockEntryByKey(context.Background(), model.StockKey{Item: item, Size: size, Status: status})
	if err != nil {
		t.Fatalf("StockEntryByKey: %v", err)
	}
	if e == nil {
		return -1
	}
	return e.Quantity
}

func TestIssuePPEPartialSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockMailer(ctrl)
	svc := newTestService(t, m)
	receive(t, svc, model.CategoryPPE, model.IntakeLine{
		Item: "luva", Size: "M", Status: model.StatusNew, Quantity: 5, UnitValue: decimal.RequireFromString("12.50"),
	})

	var sent notify.Message
	m.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg notify.Message) error {
		sent = msg
		return nil
	})

	out, err := svc.IssuePPE(context.Background(), model.IssuanceForm{
		Header:    header(),
		Reason:    "PERDA",
		Workforce: "DHL",
		Status:    "novo",
		Lines: []model.Line{
			{Item: "LUVA", Size: "M", Quantity: 2},
			{Item: "BOTA", Size: "42", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("IssuePPE: %v", err)
	}

	if out.Succeeded() != 1 || !out.Partial() {
		t.Fatalf("expected one of two lines to succeed, got %d", out.Succeeded())
	}
	if !errors.Is(out.Lines[1].Err, store.ErrStockNotFound) {
		t.Errorf("expected ErrStockNotFound on the second line, got %v", out.Lines[1].Err)
	}
	if got := stockOf(t, svc, "LUVA", "M", model.StatusNew); got != 3 {
		t.Errorf("expected 3 left, got %d", got)
	}
	if out.Notice != nil {
		t.Errorf("unexpected notice: %v", out.Notice)
	}
	if sent.To != "maria@example.com" {
		t.Errorf("expected mail to the coordinator, got %q", sent.To)
	}
	if !strings.Contains(sent.HTML, "LUVA") || strings.Contains(sent.HTML, "BOTA") {
		t.Error("expected only the committed line in the e-mail")
	}

	_, problems := out.Summary()
	if len(problems) != 1 || !strings.Contains(problems[0], "não encontrado no estoque") {
		t.Errorf("unexpected problems: %v", problems)
	}
}

func TestIssuePPESharesTimestamp(t *testing.T) {
	svc := newTestService(t, nil)
	receive(t, svc, model.CategoryPPE,
		model.IntakeLine{Item: "LUVA", Size: "M", Status: model.StatusNew, Quantity: 5},
		model.IntakeLine{Item: "BOTA", Size: "42", Status: model.StatusNew, Quantity: 5},
	)

	out, err := svc.IssuePPE(context.Background(), model.IssuanceForm{
		Header: header(), Reason: "PERDA", Workforce: "DHL", Status: "NOVO",
		Lines: []model.Line{{Item: "LUVA", Size: "M", Quantity: 1}, {Item: "BOTA", Size: "42", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("IssuePPE: %v", err)
	}
	recs := out.Records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if !recs[0].Date.Equal(recs[1].Date) {
		t.Errorf("expected one timestamp, got %v and %v", recs[0].Date, recs[1].Date)
	}
}

func TestIssuePPEValidatesBeforeWriting(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockMailer(ctrl) // no Send expected
	svc := newTestService(t, m)
	receive(t, svc, model.CategoryPPE, model.IntakeLine{Item: "LUVA", Size: "M", Status: model.StatusNew, Quantity: 5})

	tests := map[string]func(f *model.IssuanceForm){
		"missing worker":          func(f *model.IssuanceForm) { f.Worker = "" },
		"unknown shift":           func(f *model.IssuanceForm) { f.Shift = "NOITE" },
		"unknown reason":          func(f *model.IssuanceForm) { f.Reason = "CAPRICHO" },
		"damaged status":          func(f *model.IssuanceForm) { f.Status = model.StatusBroken },
		"unknown coordinator":     func(f *model.IssuanceForm) { f.CoordinatorEmail = "joao@example.com" },
		"supply item as PPE":      func(f *model.IssuanceForm) { f.Lines[0].Item = "FITA" },
		"zero quantity":           func(f *model.IssuanceForm) { f.Lines[0].Quantity = 0 },
		"no lines":                func(f *model.IssuanceForm) { f.Lines = nil },
		"uncatalogued second row": func(f *model.IssuanceForm) { f.Lines = append(f.Lines, model.Line{Item: "CAPACETE", Quantity: 1}) },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			form := model.IssuanceForm{
				Header: header(), Reason: "PERDA", Workforce: "DHL", Status: "NOVO",
				Lines: []model.Line{{Item: "LUVA", Size: "M", Quantity: 1}},
			}
			mutate(&form)

			_, err := svc.IssuePPE(context.Background(), form)
			var verrs model.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if got := stockOf(t, svc, "LUVA", "M", model.StatusNew); got != 5 {
				t.Errorf("expected stock untouched, got %d", got)
			}
		})
	}
}

func TestIssuePPETooManyLines(t *testing.T) {
	svc := newTestService(t, nil)
	form := model.IssuanceForm{Header: header(), Reason: "PERDA", Workforce: "DHL", Status: "NOVO"}
	for range model.MaxLines + 1 {
		form.Lines = append(form.Lines, model.Line{Item: "LUVA", Quantity: 1})
	}

	_, err := svc.IssuePPE(context.Background(), form)
	if err == nil || !strings.Contains(err.Error(), "No máximo") {
		t.Fatalf("expected line limit error, got %v", err)
	}
}

func TestNoticeOnMailerFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockMailer(ctrl)
	svc := newTestService(t, m)
	receive(t, svc, model.CategorySupply, model.IntakeLine{Item: "FITA", Status: model.StatusNew, Quantity: 10})

	m.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	out, err := svc.IssueSupplies(context.Background(), model.SupplyIssuanceForm{
		Header: header(),
		Lines:  []model.Line{{Item: "FITA", Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("IssueSupplies: %v", err)
	}
	if out.Succeeded() != 1 {
		t.Fatalf("expected the line to succeed: %s", out.Problems())
	}
	if out.Notice == nil {
		t.Fatal("expected a notice")
	}
	if got := stockOf(t, svc, "FITA", model.SizeUnique, model.NoStatus); got != 6 {
		t.Errorf("expected 6 left, got %d", got)
	}
	if !strings.Contains(out.Problems(), "notificação por e-mail falhou") {
		t.Errorf("unexpected problems: %q", out.Problems())
	}
}

func TestNoNotificationWhenNothingLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockMailer(ctrl) // no Send expected
	svc := newTestService(t, m)
	receive(t, svc, model.CategoryPPE, model.IntakeLine{Item: "LUVA", Size: "M", Status: model.StatusNew, Quantity: 1})

	out, err := svc.IssuePPE(context.Background(), model.IssuanceForm{
		Header: header(), Reason: "PERDA", Workforce: "DHL", Status: "NOVO",
		Lines: []model.Line{{Item: "LUVA", Size: "M", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("IssuePPE: %v", err)
	}
	if out.Succeeded() != 0 || len(out.Records()) != 0 {
		t.Fatalf("expected nothing logged, got %d records", len(out.Records()))
	}
	if !errors.Is(out.Lines[0].Err, store.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", out.Lines[0].Err)
	}
}

func TestReceiveSupplyForcesNoStatus(t *testing.T) {
	svc := newTestService(t, nil)

	out, err := svc.Receive(context.Background(), model.IntakeForm{
		Category: "insumo",
		Lines: []model.IntakeLine{
			{Item: "fita", Status: model.StatusNew, Supplier: "3m", Quantity: 7, UnitValue: decimal.RequireFromString("3.20")},
		},
	})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if out.Succeeded() != 1 {
		t.Fatalf("expected success: %s", out.Problems())
	}
	e := out.Lines[0].Stock
	if e.Status != model.NoStatus || e.Size != model.SizeUnique || e.Supplier != "3M" {
		t.Errorf("unexpected entry %+v", e)
	}
	if got := stockOf(t, svc, "FITA", model.SizeUnique, model.StatusNew); got != -1 {
		t.Errorf("expected no NOVO row for a supply, got %d", got)
	}
}

func TestReceiveRejectsUncataloguedItem(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Receive(context.Background(), model.IntakeForm{
		Category: model.CategoryPPE,
		Lines:    []model.IntakeLine{{Item: "FITA", Status: model.StatusNew, Quantity: 1}},
	})
	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
}

func TestLendAndReturnLoan(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockMailer(ctrl)
	svc := newTestService(t, m)
	receive(t, svc, model.CategoryPPE, model.IntakeLine{Item: "BOTA", Size: "42", Status: model.StatusClean, Quantity: 2})

	var subjects []string
	m.EXPECT().Send(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(func(_ context.Context, msg notify.Message) error {
		subjects = append(subjects, msg.Subject)
		return nil
	})

	out, err := svc.Lend(context.Background(), model.LoanForm{
		Header: header(),
		Status: model.StatusClean,
		Lines:  []model.Line{{Item: "BOTA", Size: "42", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Lend: %v", err)
	}
	loan := out.Lines[0].Record
	if loan == nil || loan.LoanStatus != model.LoanPending {
		t.Fatalf("expected a pending loan, got %+v", loan)
	}
	if got := stockOf(t, svc, "BOTA", "42", model.StatusClean); got != 1 {
		t.Errorf("expected 1 left after lending, got %d", got)
	}

	ret, err := svc.ReturnLoan(context.Background(), model.LoanReturnForm{LoanID: loan.ID})
	if err != nil {
		t.Fatalf("ReturnLoan: %v", err)
	}
	rec := ret.Records()[0]
	if rec.Reason != store.DefaultLoanReturnReason || rec.LoanID == nil || *rec.LoanID != loan.ID {
		t.Errorf("unexpected return record %+v", rec)
	}
	if got := stockOf(t, svc, "BOTA", "42", model.StatusClean); got != 2 {
		t.Errorf("expected 2 after the return, got %d", got)
	}

	_, err = svc.ReturnLoan(context.Background(), model.LoanReturnForm{LoanID: loan.ID})
	if !errors.Is(err, store.ErrNotPending) {
		t.Errorf("expected ErrNotPending on the second return, got %v", err)
	}

	if len(subjects) != 2 || !strings.HasPrefix(subjects[0], "Empréstimo") || !strings.HasPrefix(subjects[1], "Devolução") {
		t.Errorf("unexpected subjects %v", subjects)
	}
}

func TestReturnDiscardKeepsStock(t *testing.T) {
	svc := newTestService(t, nil)

	out, err := svc.Return(context.Background(), model.ReturnForm{
		Header: header(),
		Reason: "AVARIADO",
		Status: model.StatusBroken,
		Action: "descartar",
		Lines:  []model.Line{{Item: "LUVA", Size: "M", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if out.Succeeded() != 1 {
		t.Fatalf("expected the discard to be logged: %s", out.Problems())
	}
	if got := stockOf(t, svc, "LUVA", "M", model.StatusBroken); got != -1 {
		t.Errorf("expected no ledger row for a discard, got %d", got)
	}
}

func TestRegisterCoordinatorSendsWelcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockMailer(ctrl)
	svc := newTestService(t, m)

	m.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notify.ErrMailerDisabled)

	reg, err := svc.RegisterCoordinator(context.Background(), model.CoordinatorForm{Name: "carlos", Email: "carlos@example.com"})
	if err != nil {
		t.Fatalf("RegisterCoordinator: %v", err)
	}
	if reg.Coordinator.Name != "CARLOS" {
		t.Errorf("expected uppercased name, got %q", reg.Coordinator.Name)
	}
	if !errors.Is(reg.Notice, notify.ErrMailerDisabled) {
		t.Errorf("expected the mailer error as a notice, got %v", reg.Notice)
	}

	_, err = svc.RegisterCoordinator(context.Background(), model.CoordinatorForm{Name: "Outro", Email: "carlos@example.com"})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestRegisterItem(t *testing.T) {
	svc := newTestService(t, nil)

	item, err := svc.RegisterItem(context.Background(), model.ItemForm{Name: " capacete ", Category: "epi"})
	if err != nil {
		t.Fatalf("RegisterItem: %v", err)
	}
	if item.Name != "CAPACETE" || item.Category != model.CategoryPPE {
		t.Errorf("unexpected item %+v", item)
	}

	_, err = svc.RegisterItem(context.Background(), model.ItemForm{Name: "X", Category: "OUTRO"})
	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Errorf("expected ValidationErrors for a bad category, got %v", err)
	}
}
