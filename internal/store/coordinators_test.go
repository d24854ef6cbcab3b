package store

import (
	"context"
	"errors"
	"testing"
)

func TestCoordinators(t *testing.T) {
	s := newTestStore(t, Config{})
	ctx := context.Background()

	c, err := s.CreateCoordinator(ctx, "maria souza", " maria@example.com ")
	if err != nil {
		t.Fatalf("CreateCoordinator: %v", err)
	}
	if c.Name != "MARIA SOUZA" || c.Email != "maria@example.com" {
		t.Errorf("unexpected coordinator %+v", c)
	}
	if c.RegisteredAt == "" {
		t.Error("expected registration date")
	}

	if _, err := s.CreateCoordinator(ctx, "Outra", "maria@example.com"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	s.CreateCoordinator(ctx, "ANA", "ana@example.com")
	emails, _ := s.CoordinatorEmails(ctx)
	if len(emails) != 2 || emails[0] != "ana@example.com" {
		t.Errorf("expected emails ordered by name, got %v", emails)
	}

	got, _ := s.GetCoordinator(ctx, c.Email)
	if got == nil || got.Email != c.Email {
		t.Errorf("GetCoordinator returned %+v", got)
	}

	if err := s.DeleteCoordinator(ctx, c.Email); err != nil {
		t.Fatalf("DeleteCoordinator: %v", err)
	}
	if err := s.DeleteCoordinator(ctx, c.Email); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if got, _ := s.GetCoordinator(ctx, c.Email); got != nil {
		t.Error("expected nil after delete")
	}
}
