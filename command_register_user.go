package account

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	OnResponse func(r *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	Created       bool     `json:"created" doc:"Was the account created?"`
	EmailTaken    bool     `json:"email_taken" doc:"Is the email already registered?"`
	UsernameTaken bool     `json:"username_taken" doc:"Is the username already registered?"`
	VerifyToken   string   `json:"verify_token,omitempty" doc:"Email verification token for the new account."`
	Errors        []string `json:"errors" doc:"Error messages."`
}

// RegisterUserHandler creates an unverified account and mints the email
// verification token for it. Uniqueness checks and the insert run in one
// transaction so a concurrent signup cannot slip between them.
type RegisterUserHandler struct {
	repo   RepositoryManager
	tokens TokenService
}

func NewRegisterUserHandler(repo RepositoryManager, tokens TokenService) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, tokens: tokens}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	resp := &RegisterUserResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := h.repo.Users().ExistsByEmailTx(ctx, tx, event.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}
		if taken {
			resp.EmailTaken = true
			resp.Errors = append(resp.Errors, "Email already registered")
			return nil
		}

		taken, err = h.repo.Users().ExistsByUsernameTx(ctx, tx, event.Username)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
		}
		if taken {
			resp.UsernameTaken = true
			resp.Errors = append(resp.Errors, "Username already registered")
			return nil
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user := &User{
			Email:        event.Email,
			Username:     getUsername(event.Username, event.Email),
			PasswordHash: hash,
		}

		if id, err := hashid.NewUUID(event.Email); err == nil {
			user.ID = id
		}

		if _, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		resp.Created = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if resp.Created {
		token, err := h.tokens.Issue(event.Email, PurposeEmailVerify, EmailVerifyTokenValidity)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
		}
		resp.VerifyToken = token
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
