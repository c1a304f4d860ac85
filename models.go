package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	ProfilePicture string     `bun:"profile_picture" json:"profile_picture,omitempty"`
	EmailValidated bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// Token validity windows per purpose. The auth cookie lifetime is
// configured separately; these bound the tokens themselves.
const (
	AuthTokenValidity          = 12 * time.Hour
	EmailVerifyTokenValidity   = time.Hour
	PasswordResetTokenValidity = time.Hour
)
