package store

import (
	"errors"
	"fmt"

	"github.com/erazemk/almoxarifado/internal/model"
)

var (
	// ErrAlreadyExists is returned when a unique key is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned when the row to delete or read does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStockNotFound is returned when an outbound delta has no ledger row.
	ErrStockNotFound = errors.New("stock entry not found")

	// ErrInsufficientStock is returned when an outbound delta would take a
	// balance below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrLoanNotFound is returned when a loan id does not exist.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrNotPending is returned when a loan was already returned.
	ErrNotPending = errors.New("loan is not pending")
)

// StockError describes a ledger delta that could not be applied. It unwraps
// to ErrStockNotFound or ErrInsufficientStock.
type StockError struct {
	Err       error
	Key       model.StockKey
	Available int
	Requested int
}

func (e *StockError) Error() string {
	if e.Err == ErrInsufficientStock {
		return fmt.Sprintf("Estoque insuficiente para '%s' (Tam: %s, Status: %s): disponível %d, solicitado %d.",
			e.Key.Item, e.Key.Size, e.Key.Status, e.Available, e.Requested)
	}
	return fmt.Sprintf("Item '%s' (Tam: %s, Status: %s) não encontrado no estoque para dar baixa.",
		e.Key.Item, e.Key.Size, e.Key.Status)
}

func (e *StockError) Unwrap() error {
	return e.Err
}
