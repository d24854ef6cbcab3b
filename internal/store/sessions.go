package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// SessionSecret returns the key used to sign session tokens. The first call
// generates and stores one. The insert is conditional and always followed by
// a re-read so concurrent first runs agree on the same secret.
func (s *Store) SessionSecret(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := s.DB.ExecContext(ctx,
		s.DB.Rebind(`INSERT INTO configuracoes (chave, valor) VALUES ('session_secret', ?) ON CONFLICT (chave) DO NOTHING`),
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing session secret: %w", err)
	}

	var secret string
	err = s.DB.QueryRowContext(ctx,
		`SELECT valor FROM configuracoes WHERE chave = 'session_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying session secret: %w", err)
	}
	return secret, nil
}

// RevokeSession adds a token's JTI to the revocation list.
func (s *Store) RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.DB.ExecContext(ctx,
		s.DB.Rebind(`INSERT INTO tokens_revogados (jti, expira_em) VALUES (?, ?) ON CONFLICT (jti) DO NOTHING`),
		jti, s.formatTime(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}

	// Expired revocations can go; their tokens no longer verify anyway.
	_, _ = s.DB.ExecContext(ctx,
		s.DB.Rebind(`DELETE FROM tokens_revogados WHERE expira_em < ?`), s.formatTime(s.Now()),
	)
	return nil
}

// IsSessionRevoked checks if a token's JTI has been revoked.
func (s *Store) IsSessionRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		s.DB.Rebind(`SELECT COUNT(*) FROM tokens_revogados WHERE jti = ?`), jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking session revocation: %w", err)
	}
	return count > 0, nil
}
