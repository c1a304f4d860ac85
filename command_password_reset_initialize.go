package account

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(r *InitializePasswordResetResponse)
}

func (e InitializePasswordResetMessage) Type() string { return "user.password_reset_init" }

type InitializePasswordResetResponse struct {
	Found      bool     `json:"found" doc:"Is the email registered?"`
	ResetToken string   `json:"reset_token,omitempty" doc:"Password reset token for the account."`
	Errors     []string `json:"errors" doc:"Error messages."`
}

// InitializePasswordResetHandler mints a reset token for a registered
// email. The token is the whole reset state; nothing is written to the
// store until the reset is finalized.
type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	tokens TokenService
}

func NewInitializePasswordResetHandler(repo RepositoryManager, tokens TokenService) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{repo: repo, tokens: tokens}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset request")
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().FindByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			resp.Errors = append(resp.Errors, "Email not found")
			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	resp.Found = true

	token, err := h.tokens.Issue(user.Email, PurposePasswordReset, PasswordResetTokenValidity)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
	}

	resp.ResetToken = token

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
