package account

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	SessionFromToken(token string) (*SessionObject, error)
	IdentityFromSession(ctx context.Context, session *SessionObject) (*User, error)
}

// TokenService mints and validates purpose scoped bearer tokens
type TokenService interface {
	Issue(email string, purpose Purpose, validity time.Duration) (string, error)
	Validate(token string) (*Claims, error)
}

// Users is the narrow user store consumed by account flows. The bun backed
// implementation lives in repo_users.go.
type Users interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	UpdateVerification(ctx context.Context, email string, verified bool, at time.Time) error
	UpdatePassword(ctx context.Context, email, passwordHash string, at time.Time) error
}

// LoginPayload is the credential pair handed to HTTP login
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
