package account

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var UpdateUserVerificationSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = ?,
	"updated_at" = ?
WHERE
	"usr"."email" = ?
RETURNING *;`

var UpdateUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = ?
WHERE
	"usr"."email" = ?
RETURNING *;`

// UsersRepository is the bun backed user store. It extends the narrow
// Users interface with transactional variants for flow handlers that run
// inside RunInTx.
type UsersRepository interface {
	repository.Repository[*User]
	Users

	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	UpdateVerificationTx(ctx context.Context, tx bun.IDB, email string, verified bool, at time.Time) error
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, email, passwordHash string, at time.Time) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ UsersRepository              = (*users)(nil)
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) UsersRepository {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.ExistsByEmailTx(ctx, a.db, email)
}

func (a *users) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.ExistsByUsernameTx(ctx, a.db, username)
}

func (a *users) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) UpdateVerification(ctx context.Context, email string, verified bool, at time.Time) error {
	return a.UpdateVerificationTx(ctx, a.db, email, verified, at)
}

func (a *users) UpdateVerificationTx(ctx context.Context, tx bun.IDB, email string, verified bool, at time.Time) error {
	res, err := a.Repository.RawTx(ctx, tx, UpdateUserVerificationSQL, verified, at, email)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"email": email})
	}

	return nil
}

func (a *users) UpdatePassword(ctx context.Context, email, passwordHash string, at time.Time) error {
	return a.UpdatePasswordTx(ctx, a.db, email, passwordHash, at)
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, email, passwordHash string, at time.Time) error {
	res, err := a.Repository.RawTx(ctx, tx, UpdateUserPasswordSQL, passwordHash, at, email)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"email": email})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
}
