package account

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload embedded in every token: the subject email, the
// purpose tag, and the validity window. Immutable once minted.
type Claims struct {
	jwt.RegisteredClaims
	TokenPurpose Purpose `json:"purpose"`
}

// Email returns the subject email the token was minted for
func (c *Claims) Email() string {
	return c.RegisteredClaims.Subject
}

// Purpose returns the purpose tag
func (c *Claims) Purpose() Purpose {
	return c.TokenPurpose
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// RequirePurpose rejects claims minted for a different operation. The
// verifier deliberately does not check purpose; each flow matches it
// against the purpose it expects.
func (c *Claims) RequirePurpose(expected Purpose) error {
	if c.TokenPurpose != expected {
		return ErrWrongPurpose
	}
	return nil
}
