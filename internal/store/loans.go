package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/almoxarifado/internal/model"
)

// DefaultLoanReturnReason is logged when a loan return gives no reason.
const DefaultLoanReturnReason = "DEVOLUÇÃO DE EMPRÉSTIMO"

// FindPendingLoans returns pending loans whose worker and item contain the
// given substrings, ignoring case. Empty filters match everything.
func (s *Store) FindPendingLoans(ctx context.Context, worker, item string) ([]model.Transaction, error) {
	loans, err := s.queryTransactions(ctx, s.DB, model.KindLoan,
		"WHERE status_emprestimo = ?", []any{model.LoanPending})
	if err != nil {
		return nil, err
	}

	worker = strings.ToUpper(strings.TrimSpace(worker))
	item = strings.ToUpper(strings.TrimSpace(item))

	matched := []model.Transaction{}
	for _, l := range loans {
		if worker != "" && !strings.Contains(strings.ToUpper(l.Worker), worker) {
			continue
		}
		if item != "" && !strings.Contains(strings.ToUpper(l.Item), item) {
			continue
		}
		matched = append(matched, l)
	}
	return matched, nil
}

// GetLoan returns a loan by id, or nil if there is none.
func (s *Store) GetLoan(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.GetTransaction(ctx, model.KindLoan, id)
}

// ReturnLoan closes a pending loan. In one transaction it puts the items back
// in stock, marks the loan DEVOLVIDO and appends a restocking row to the
// returns log that points at the loan. The new returns row is returned.
func (s *Store) ReturnLoan(ctx context.Context, id int64, responsible, reason string) (ret *model.Transaction, err error) {
	err = s.withTx(ctx, []writer{s.stock}, func(tx *sql.Tx) error {
		cols := logColumns[model.KindLoan]
		loan, err := s.scanTransaction(tx.QueryRowContext(ctx,
			s.DB.Rebind(fmt.Sprintf(`SELECT id, %s FROM emprestimos WHERE id = ?`, strings.Join(cols, ", "))+s.DB.ForUpdate()),
			id,
		), model.KindLoan)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLoanNotFound
		}
		if err != nil {
			return fmt.Errorf("reading loan: %w", err)
		}
		if loan.LoanStatus != model.LoanPending {
			return ErrNotPending
		}

		_, err = s.applyDelta(ctx, tx, model.Delta{
			Key:      model.StockKey{Item: loan.Item, Size: loan.Size, Status: loan.Status},
			Category: model.CategoryPPE,
			Quantity: loan.Quantity,
		})
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			s.DB.Rebind(`UPDATE emprestimos SET status_emprestimo = ? WHERE id = ? AND status_emprestimo = ?`),
			model.LoanReturned, id, model.LoanPending,
		)
		if err != nil {
			return fmt.Errorf("updating loan status: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("updating loan status: %w", err)
		} else if n != 1 {
			return ErrNotPending
		}

		ret = &model.Transaction{
			Kind:             model.KindReturn,
			Date:             s.Now(),
			CPF:              loan.CPF,
			Coordinator:      loan.Coordinator,
			CoordinatorEmail: loan.CoordinatorEmail,
			Worker:           loan.Worker,
			Responsible:      loan.Responsible,
			Shift:            loan.Shift,
			CostCenter:       loan.CostCenter,
			Item:             loan.Item,
			Size:             loan.Size,
			Quantity:         loan.Quantity,
			Status:           loan.Status,
			Reason:           DefaultLoanReturnReason,
			Action:           model.ActionRestock,
			LoanID:           &loan.ID,
		}
		if r := strings.TrimSpace(responsible); r != "" {
			ret.Responsible = r
		}
		if r := strings.TrimSpace(reason); r != "" {
			ret.Reason = r
		}
		return s.insertTransaction(ctx, tx, ret)
	})
	if err != nil {
		return nil, err
	}
	s.cfg.Metrics.ObserveLoanReturned()
	return ret, nil
}
