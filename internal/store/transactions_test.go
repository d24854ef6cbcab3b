package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/almoxarifado/internal/model"
)

func testHeader(kind model.Kind) model.Transaction {
	return model.Transaction{
		Kind:             kind,
		CPF:              "123.456.789-00",
		Coordinator:      "MARIA",
		CoordinatorEmail: "maria@example.com",
		Worker:           "JOÃO SILVA",
		Responsible:      "Ana",
		Shift:            "1º Turno",
		CostCenter:       "CC-01",
	}
}

func issuance(item, size string, quantity int) model.Transaction {
	t := testHeader(model.KindIssuance)
	t.Reason = "Admissão"
	t.Workforce = "DHL"
	t.Status = model.StatusNew
	t.Item = item
	t.Size = size
	t.Quantity = quantity
	return t
}

func TestRecordIssuanceDecrementsStock(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	stockUp(t, s, "LUVA", "M", "NOVO", 10)

	rec, err := s.Record(ctx, issuance("luva", "m", 3))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected an id")
	}
	if rec.Item != "LUVA" || rec.Size != "M" {
		t.Errorf("expected normalized item and size, got %q %q", rec.Item, rec.Size)
	}
	if q := quantityOf(t, s, "LUVA", "M", "NOVO"); q != 7 {
		t.Errorf("expected quantity 7, got %d", q)
	}

	list, err := s.ListTransactions(ctx, model.KindIssuance)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 row, got %d", len(list))
	}
	got := list[0]
	if got.Worker != "JOÃO SILVA" || got.Reason != "Admissão" || got.Workforce != "DHL" || got.Quantity != 3 {
		t.Errorf("unexpected row %+v", got)
	}
	if !got.Date.Equal(rec.Date) {
		t.Errorf("expected date %v, got %v", rec.Date, got.Date)
	}
}

func TestRecordWithoutStockRollsBackLine(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	_, err := s.Record(ctx, issuance("CAPACETE", "", 1))
	if !errors.Is(err, ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}

	list, _ := s.ListTransactions(ctx, model.KindIssuance)
	if len(list) != 0 {
		t.Errorf("expected the log row to be rolled back, got %d rows", len(list))
	}
}

func TestRecordKeepUnstockedLog(t *testing.T) {
	s := newTestStore(t, Config{KeepUnstockedLog: true})
	ctx := context.Background()

	rec, err := s.Record(ctx, issuance("CAPACETE", "", 1))
	if !errors.Is(err, ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}
	if rec == nil || rec.ID == 0 {
		t.Fatal("expected the committed row to be returned")
	}

	list, _ := s.ListTransactions(ctx, model.KindIssuance)
	if len(list) != 1 {
		t.Errorf("expected the log row to be kept, got %d rows", len(list))
	}
	stock, _ := s.ListStock(ctx)
	if len(stock) != 0 {
		t.Errorf("expected no ledger rows, got %d", len(stock))
	}
}

func TestRecordKeepUnstockedLogStillRejectsShortage(t *testing.T) {
	s := newTestStore(t, Config{KeepUnstockedLog: true})
	ctx := context.Background()

	stockUp(t, s, "LUVA", "M", "NOVO", 1)
	rec, err := s.Record(ctx, issuance("LUVA", "M", 2))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if rec != nil {
		t.Error("expected no row on shortage")
	}
	list, _ := s.ListTransactions(ctx, model.KindIssuance)
	if len(list) != 0 {
		t.Errorf("expected no rows, got %d", len(list))
	}
}

func TestRecordSupplyUsesNoStatus(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	stockUp(t, s, "FITA", "", model.NoStatus, 5)

	tx := testHeader(model.KindSupply)
	tx.Item = "FITA"
	tx.Quantity = 2
	if _, err := s.Record(ctx, tx); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if q := quantityOf(t, s, "FITA", "", model.NoStatus); q != 3 {
		t.Errorf("expected quantity 3, got %d", q)
	}

	list, _ := s.ListTransactions(ctx, model.KindSupply)
	if len(list) != 1 || list[0].Item != "FITA" || list[0].Size != model.SizeUnique {
		t.Errorf("unexpected supply rows %+v", list)
	}
}

func TestRecordReturnActions(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	ret := testHeader(model.KindReturn)
	ret.Reason = "Desligamento"
	ret.Status = model.StatusClean
	ret.Item = "BOTA"
	ret.Size = "40"
	ret.Quantity = 2

	ret.Action = model.ActionRestock
	if _, err := s.Record(ctx, ret); err != nil {
		t.Fatalf("Record repor: %v", err)
	}
	if q := quantityOf(t, s, "BOTA", "40", model.StatusClean); q != 2 {
		t.Errorf("expected restocked quantity 2, got %d", q)
	}

	ret.Action = model.ActionDiscard
	ret.Status = model.StatusBroken
	if _, err := s.Record(ctx, ret); err != nil {
		t.Fatalf("Record descartar: %v", err)
	}
	if q := quantityOf(t, s, "BOTA", "40", model.StatusBroken); q != -1 {
		t.Errorf("expected no ledger row for discarded items, got %d", q)
	}

	ret.Action = "perder"
	if _, err := s.Record(ctx, ret); err == nil {
		t.Error("expected error for unknown action")
	}

	list, _ := s.ListTransactions(ctx, model.KindReturn)
	if len(list) != 2 {
		t.Fatalf("expected 2 return rows, got %d", len(list))
	}
	if list[0].Action != model.ActionDiscard {
		t.Errorf("expected newest row first, got %q", list[0].Action)
	}
	if list[0].LoanID != nil {
		t.Error("expected no associated loan")
	}
}

func TestRecordRejectsBadInput(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	if _, err := s.Record(ctx, model.Transaction{Kind: "entradas", Item: "X", Quantity: 1}); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := s.Record(ctx, issuance("LUVA", "", 0)); err == nil {
		t.Error("expected error for zero quantity")
	}
}
