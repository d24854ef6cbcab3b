// Package store implements the persistence layer: catalog, coordinators, the
// stock ledger, the transaction logs and loans, plus the account tables used
// by the back office.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/almoxarifado/internal/cache"
	"github.com/erazemk/almoxarifado/internal/db"
	"github.com/erazemk/almoxarifado/internal/metrics"
	"github.com/erazemk/almoxarifado/internal/model"
)

// timeLayout is how every timestamp column is stored, in the configured location.
const timeLayout = "2006-01-02 15:04:05"

// Config tunes the behaviour of a Store.
type Config struct {
	// Location is the timezone timestamps are stored in. Defaults to UTC.
	Location *time.Location

	// AllowNegativeStock lets outbound deltas take a balance below zero.
	AllowNegativeStock bool

	// KeepUnstockedLog commits a log row even when its item has no ledger
	// row to decrement. By default the line is rolled back as a whole.
	KeepUnstockedLog bool

	// Metrics is optional.
	Metrics *metrics.Metrics

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Store is safe for concurrent use.
type Store struct {
	DB *db.DB

	cfg     Config
	stock   *cache.Cache[[]model.StockEntry]
	catalog *cache.Cache[[]model.Item]
}

// New returns a Store over an already migrated database.
func New(database *db.DB, cfg Config) *Store {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		DB:      database,
		cfg:     cfg,
		stock:   cache.New[[]model.StockEntry](),
		catalog: cache.New[[]model.Item](),
	}
}

// Location returns the timezone timestamps are stored in.
func (s *Store) Location() *time.Location {
	return s.cfg.Location
}

// Now returns the current time in the store's location, truncated to seconds.
func (s *Store) Now() time.Time {
	return s.cfg.Now().In(s.cfg.Location).Truncate(time.Second)
}

func (s *Store) formatTime(t time.Time) string {
	if t.IsZero() {
		t = s.Now()
	}
	return t.In(s.cfg.Location).Format(timeLayout)
}

func (s *Store) parseTime(v string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, v, s.cfg.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", v, err)
	}
	return t, nil
}

// writer is a cache whose contents a transaction may change.
type writer interface {
	BeginWrite()
	EndWrite()
}

// withTx runs fn inside one database transaction. The given caches serve
// nothing until the transaction has committed or rolled back.
func (s *Store) withTx(ctx context.Context, caches []writer, fn func(tx *sql.Tx) error) error {
	for _, c := range caches {
		c.BeginWrite()
	}
	defer func() {
		for _, c := range caches {
			c.EndWrite()
		}
	}()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
