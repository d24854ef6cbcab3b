package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/almoxarifado/internal/model"
)

// logColumns lists each log table's columns after id, in the order fields
// returns its targets.
var logColumns = map[model.Kind][]string{
	model.KindIssuance: {"data", "colaborador", "cpf", "coordenador", "email_coordenador", "responsavel",
		"motivo", "status", "efetivo", "turno", "centro_de_custo", "item", "tamanho", "quantidade"},
	model.KindSupply: {"data", "cpf", "coordenador", "colaborador", "responsavel", "turno",
		"centro_de_custo", "insumo", "quantidade", "tamanho", "email_coordenador"},
	model.KindLoan: {"data", "cpf", "coordenador", "colaborador", "responsavel", "turno",
		"centro_de_custo", "status_item", "status_emprestimo", "item", "quantidade", "tamanho", "email_coordenador"},
	model.KindReturn: {"data", "cpf", "coordenador", "colaborador", "responsavel", "turno",
		"centro_de_custo", "motivo", "status_item", "acao", "item", "quantidade", "tamanho",
		"email_coordenador", "emprestimo_id_associado"},
}

// fields returns pointers to the transaction fields backing each log column.
func fields(t *model.Transaction, date *string, loanID *sql.NullInt64) []any {
	switch t.Kind {
	case model.KindIssuance:
		return []any{date, &t.Worker, &t.CPF, &t.Coordinator, &t.CoordinatorEmail, &t.Responsible,
			&t.Reason, &t.Status, &t.Workforce, &t.Shift, &t.CostCenter, &t.Item, &t.Size, &t.Quantity}
	case model.KindSupply:
		return []any{date, &t.CPF, &t.Coordinator, &t.Worker, &t.Responsible, &t.Shift,
			&t.CostCenter, &t.Item, &t.Quantity, &t.Size, &t.CoordinatorEmail}
	case model.KindLoan:
		return []any{date, &t.CPF, &t.Coordinator, &t.Worker, &t.Responsible, &t.Shift,
			&t.CostCenter, &t.Status, &t.LoanStatus, &t.Item, &t.Quantity, &t.Size, &t.CoordinatorEmail}
	case model.KindReturn:
		return []any{date, &t.CPF, &t.Coordinator, &t.Worker, &t.Responsible, &t.Shift,
			&t.CostCenter, &t.Reason, &t.Status, &t.Action, &t.Item, &t.Quantity, &t.Size,
			&t.CoordinatorEmail, loanID}
	}
	return nil
}

func values(ptrs []any) []any {
	out := make([]any, len(ptrs))
	for i, p := range ptrs {
		switch p := p.(type) {
		case *string:
			out[i] = *p
		case *int:
			out[i] = *p
		case *sql.NullInt64:
			out[i] = *p
		}
	}
	return out
}

// Record appends one log row and applies its ledger delta in one transaction.
//
// When the ledger rejects the delta the row is rolled back with it, unless
// KeepUnstockedLog is set and the item simply has no ledger row: then the row
// is committed and returned together with the ErrStockNotFound error.
func (s *Store) Record(ctx context.Context, t model.Transaction) (rec *model.Transaction, err error) {
	if _, ok := logColumns[t.Kind]; !ok {
		return nil, fmt.Errorf("recording transaction: unknown kind %q", t.Kind)
	}
	t.Item = strings.ToUpper(strings.TrimSpace(t.Item))
	t.Size = strings.ToUpper(strings.TrimSpace(t.Size))
	if t.Size == "" {
		t.Size = model.SizeUnique
	}
	if t.Date.IsZero() {
		t.Date = s.Now()
	}
	switch t.Kind {
	case model.KindLoan:
		t.LoanStatus = model.LoanPending
	case model.KindReturn:
		if t.Action != model.ActionRestock && t.Action != model.ActionDiscard {
			return nil, fmt.Errorf("recording return: invalid action %q", t.Action)
		}
	}
	if t.Quantity <= 0 {
		return nil, errors.New("recording transaction: quantity must be positive")
	}
	defer func() { s.cfg.Metrics.ObserveLine(string(t.Kind), err) }()

	var lineErr error
	err = s.withTx(ctx, []writer{s.stock}, func(tx *sql.Tx) error {
		if err := s.insertTransaction(ctx, tx, &t); err != nil {
			return err
		}
		d, ok := t.Delta()
		if !ok {
			return nil
		}
		if _, err := s.applyDelta(ctx, tx, d); err != nil {
			if s.cfg.KeepUnstockedLog && errors.Is(err, ErrStockNotFound) {
				lineErr = err
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, lineErr
}

// CreateLoan records a loan line as pending and takes the items out of stock.
func (s *Store) CreateLoan(ctx context.Context, t model.Transaction) (*model.Transaction, error) {
	t.Kind = model.KindLoan
	return s.Record(ctx, t)
}

func (s *Store) insertTransaction(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	cols := logColumns[t.Kind]
	date := s.formatTime(t.Date)
	var loanID sql.NullInt64
	if t.LoanID != nil {
		loanID = sql.NullInt64{Int64: *t.LoanID, Valid: true}
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
		t.Kind, strings.Join(cols, ", "), placeholders(len(cols)))
	err := tx.QueryRowContext(ctx, s.DB.Rebind(query), values(fields(t, &date, &loanID))...).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", t.Kind, err)
	}
	t.Date, _ = s.parseTime(date)
	return nil
}

// ListTransactions returns every row of one log, newest first.
func (s *Store) ListTransactions(ctx context.Context, kind model.Kind) ([]model.Transaction, error) {
	return s.queryTransactions(ctx, s.DB, kind, "", nil)
}

// GetTransaction returns one log row, or nil if there is none.
func (s *Store) GetTransaction(ctx context.Context, kind model.Kind, id int64) (*model.Transaction, error) {
	list, err := s.queryTransactions(ctx, s.DB, kind, "WHERE id = ?", []any{id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) queryTransactions(ctx context.Context, q querier, kind model.Kind, where string, args []any) ([]model.Transaction, error) {
	cols, ok := logColumns[kind]
	if !ok {
		return nil, fmt.Errorf("listing transactions: unknown kind %q", kind)
	}

	query := fmt.Sprintf(`SELECT id, %s FROM %s %s ORDER BY id DESC`, strings.Join(cols, ", "), kind, where)
	rows, err := q.QueryContext(ctx, s.DB.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	defer rows.Close()

	list := []model.Transaction{}
	for rows.Next() {
		t, err := s.scanTransaction(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", kind, err)
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

func (s *Store) scanTransaction(row scanner, kind model.Kind) (*model.Transaction, error) {
	t := &model.Transaction{Kind: kind}
	var date string
	var loanID sql.NullInt64

	dest := append([]any{&t.ID}, fields(t, &date, &loanID)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if t.Date, err = s.parseTime(date); err != nil {
		return nil, err
	}
	if loanID.Valid {
		id := loanID.Int64
		t.LoanID = &id
	}
	return t, nil
}
