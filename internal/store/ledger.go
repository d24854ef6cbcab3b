package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/almoxarifado/internal/model"
)

const stockColumns = `id, item_nome, tamanho, status, fornecedor, quantidade, valor_unitario, tipo, data_ultima_atualizacao`

// ApplyDelta changes one ledger balance in its own transaction.
func (s *Store) ApplyDelta(ctx context.Context, d model.Delta) (*model.StockEntry, error) {
	var entry *model.StockEntry
	err := s.withTx(ctx, []writer{s.stock}, func(tx *sql.Tx) error {
		var err error
		entry, err = s.applyDelta(ctx, tx, d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// applyDelta reads the row under lock and updates or creates it. A positive
// delta overwrites supplier and unit value. An outbound delta with no row
// fails with ErrStockNotFound and changes nothing.
func (s *Store) applyDelta(ctx context.Context, tx *sql.Tx, d model.Delta) (entry *model.StockEntry, err error) {
	d = d.Normalize()
	defer func() { s.cfg.Metrics.ObserveDelta(d.Quantity, err) }()

	now := s.formatTime(s.Now())

	e, err := s.scanStock(tx.QueryRowContext(ctx,
		s.DB.Rebind(`SELECT `+stockColumns+` FROM estoque
		 WHERE item_nome = ? AND tamanho = ? AND status = ?`+s.DB.ForUpdate()),
		d.Key.Item, d.Key.Size, d.Key.Status,
	))
	if errors.Is(err, sql.ErrNoRows) {
		if d.Quantity < 0 {
			return nil, &StockError{Err: ErrStockNotFound, Key: d.Key, Requested: -d.Quantity}
		}
		return s.insertStock(ctx, tx, d, now)
	}
	if err != nil {
		return nil, fmt.Errorf("reading stock entry: %w", err)
	}

	quantity := e.Quantity + d.Quantity
	if quantity < 0 && !s.cfg.AllowNegativeStock {
		return nil, &StockError{Err: ErrInsufficientStock, Key: d.Key, Available: e.Quantity, Requested: -d.Quantity}
	}
	if d.Quantity > 0 {
		e.Supplier = d.Supplier
		e.UnitValue = d.UnitValue.Round(2)
	}

	_, err = tx.ExecContext(ctx,
		s.DB.Rebind(`UPDATE estoque SET quantidade = ?, fornecedor = ?, valor_unitario = ?, data_ultima_atualizacao = ?
		 WHERE id = ?`),
		quantity, e.Supplier, e.UnitValue, now, e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating stock entry: %w", err)
	}

	e.Quantity = quantity
	e.UpdatedAt, _ = s.parseTime(now)
	return e, nil
}

func (s *Store) insertStock(ctx context.Context, tx *sql.Tx, d model.Delta, now string) (*model.StockEntry, error) {
	e := &model.StockEntry{
		ItemName:  d.Key.Item,
		Size:      d.Key.Size,
		Status:    d.Key.Status,
		Supplier:  d.Supplier,
		Quantity:  d.Quantity,
		UnitValue: d.UnitValue.Round(2),
		Category:  d.Category,
	}

	err := tx.QueryRowContext(ctx,
		s.DB.Rebind(`INSERT INTO estoque (item_nome, tamanho, status, fornecedor, quantidade, valor_unitario, tipo, data_ultima_atualizacao)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		e.ItemName, e.Size, e.Status, e.Supplier, e.Quantity, e.UnitValue, e.Category, now,
	).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("creating stock entry: %w", err)
	}

	e.UpdatedAt, _ = s.parseTime(now)
	return e, nil
}

// ListStock returns every ledger row ordered by item, size and status.
func (s *Store) ListStock(ctx context.Context) ([]model.StockEntry, error) {
	entries, err := s.stock.Load(ctx, "all", s.loadStock)
	if err != nil {
		return nil, err
	}
	return append([]model.StockEntry(nil), entries...), nil
}

func (s *Store) loadStock(ctx context.Context) ([]model.StockEntry, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+stockColumns+` FROM estoque ORDER BY item_nome, tamanho, status`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	defer rows.Close()

	entries := []model.StockEntry{}
	for rows.Next() {
		e, err := s.scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stock entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// StockEntryByKey returns the balance for one key, or nil if the key has no row.
func (s *Store) StockEntryByKey(ctx context.Context, key model.StockKey) (*model.StockEntry, error) {
	key = key.Normalize()
	e, err := s.scanStock(s.DB.QueryRowContext(ctx,
		s.DB.Rebind(`SELECT `+stockColumns+` FROM estoque WHERE item_nome = ? AND tamanho = ? AND status = ?`),
		key.Item, key.Size, key.Status,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting stock entry: %w", err)
	}
	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanStock(row scanner) (*model.StockEntry, error) {
	var e model.StockEntry
	var updated string
	err := row.Scan(&e.ID, &e.ItemName, &e.Size, &e.Status, &e.Supplier,
		&e.Quantity, &e.UnitValue, &e.Category, &updated)
	if err != nil {
		return nil, err
	}
	e.UnitValue = e.UnitValue.Round(2)
	if e.UpdatedAt, err = s.parseTime(updated); err != nil {
		return nil, err
	}
	return &e, nil
}
