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

// CreateCoordinator registers a coordinator. E-mails are unique.
func (s *Store) CreateCoordinator(ctx context.Context, name, email string) (*model.Coordinator, error) {
	c := &model.Coordinator{
		Name:         strings.ToUpper(strings.TrimSpace(name)),
		Email:        strings.TrimSpace(email),
		RegisteredAt: s.formatTime(s.Now()),
	}

	err := s.DB.QueryRowContext(ctx,
		s.DB.Rebind(`INSERT INTO coordenadores (coordenador, email, data_cadastro) VALUES (?, ?, ?) RETURNING id`),
		c.Name, c.Email, c.RegisteredAt,
	).Scan(&c.ID)
	if db.IsUniqueViolation(err) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}
	return c, nil
}

// DeleteCoordinator removes a coordinator by e-mail.
func (s *Store) DeleteCoordinator(ctx context.Context, email string) error {
	result, err := s.DB.ExecContext(ctx,
		s.DB.Rebind(`DELETE FROM coordenadores WHERE email = ?`), strings.TrimSpace(email),
	)
	if err != nil {
		return fmt.Errorf("deleting coordinator: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting coordinator: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCoordinator returns a coordinator by e-mail, or nil if there is none.
func (s *Store) GetCoordinator(ctx context.Context, email string) (*model.Coordinator, error) {
	var c model.Coordinator
	err := s.DB.QueryRowContext(ctx,
		s.DB.Rebind(`SELECT id, coordenador, email, data_cadastro FROM coordenadores WHERE email = ?`), strings.TrimSpace(email),
	).Scan(&c.ID, &c.Name, &c.Email, &c.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting coordinator: %w", err)
	}
	return &c, nil
}

// ListCoordinators returns all coordinators ordered by name.
func (s *Store) ListCoordinators(ctx context.Context) ([]model.Coordinator, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, coordenador, email, data_cadastro FROM coordenadores ORDER BY coordenador, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing coordinators: %w", err)
	}
	defer rows.Close()

	coordinators := []model.Coordinator{}
	for rows.Next() {
		var c model.Coordinator
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scanning coordinator: %w", err)
		}
		coordinators = append(coordinators, c)
	}
	return coordinators, rows.Err()
}

// CoordinatorEmails returns every registered e-mail, for the form pick list.
func (s *Store) CoordinatorEmails(ctx context.Context) ([]string, error) {
	coordinators, err := s.ListCoordinators(ctx)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(coordinators))
	for _, c := range coordinators {
		emails = append(emails, c.Email)
	}
	return emails, nil
}
