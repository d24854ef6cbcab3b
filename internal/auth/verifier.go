package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/almoxarifado/internal/model"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Principal is an authenticated operator.
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Verifier checks a username and password.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (*Principal, error)
}

// StaticVerifier accepts a single configured credential. Hash is a bcrypt
// hash or, for existing deployments, the hex SHA-256 of the password.
type StaticVerifier struct {
	Username string
	Hash     string
	Role     string
}

func (v *StaticVerifier) Verify(_ context.Context, username, password string) (*Principal, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.Username)) == 1
	passOK := CheckPassword(v.Hash, password)
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	role := v.Role
	if role == "" {
		role = model.RoleAdmin
	}
	return &Principal{Username: v.Username, Role: role}, nil
}

// UserFinder looks accounts up by username.
type UserFinder interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// StoreVerifier checks credentials against the users table.
type StoreVerifier struct {
	Users UserFinder
}

func (v *StoreVerifier) Verify(ctx context.Context, username, password string) (*Principal, error) {
	user, err := v.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &Principal{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with a bcrypt or hex SHA-256 hash.
func CheckPassword(hash, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	sum := sha256.Sum256([]byte(password))
	want := strings.ToLower(strings.TrimSpace(hash))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(want)) == 1
}

// GeneratePassword returns a random password for first-run accounts.
func GeneratePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
