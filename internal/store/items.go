package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/almoxarifado/internal/db"
	"github.com/erazemk/almoxarifado/internal/model"
)

// CreateItem adds an item to the catalog. Names are stored uppercased and are
// unique per category.
func (s *Store) CreateItem(ctx context.Context, name, category string) (*model.Item, error) {
	item := &model.Item{
		Name:     strings.ToUpper(strings.TrimSpace(name)),
		Category: strings.ToUpper(strings.TrimSpace(category)),
	}
	if item.Name == "" || !model.ValidCategory(item.Category) {
		return nil, errors.New("creating item: invalid name or category")
	}

	err := s.withTx(ctx, []writer{s.catalog}, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			s.DB.Rebind(`INSERT INTO itens (nome, categoria) VALUES (?, ?) RETURNING id`),
			item.Name, item.Category,
		).Scan(&item.ID)
	})
	if db.IsUniqueViolation(err) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	return item, nil
}

// DeleteItem removes a catalog item from one category, or from both when
// category is empty. Ledger rows and logs that mention it are kept.
func (s *Store) DeleteItem(ctx context.Context, name, category string) error {
	query := `DELETE FROM itens WHERE nome = ?`
	args := []any{strings.ToUpper(strings.TrimSpace(name))}
	if category = strings.ToUpper(strings.TrimSpace(category)); category != "" {
		query += ` AND categoria = ?`
		args = append(args, category)
	}

	return s.withTx(ctx, []writer{s.catalog}, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, s.DB.Rebind(query), args...)
		if err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListItems returns the catalog ordered by name, optionally for one category.
func (s *Store) ListItems(ctx context.Context, category string) ([]model.Item, error) {
	category = strings.ToUpper(strings.TrimSpace(category))
	key := "all"
	if category != "" {
		key = "categoria:" + category
	}

	items, err := s.catalog.Load(ctx, key, func(ctx context.Context) ([]model.Item, error) {
		return s.loadItems(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return append([]model.Item(nil), items...), nil
}

func (s *Store) loadItems(ctx context.Context, category string) ([]model.Item, error) {
	query := `SELECT id, nome, categoria FROM itens`
	var args []any
	if category != "" {
		query += ` WHERE categoria = ?`
		args = append(args, category)
	}
	query += ` ORDER BY nome`

	rows, err := s.DB.QueryContext(ctx, s.DB.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ItemNames returns the catalog names of one category, for pick lists.
func (s *Store) ItemNames(ctx context.Context, category string) ([]string, error) {
	items, err := s.ListItems(ctx, category)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names, nil
}
