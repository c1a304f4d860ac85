package account

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(r *FinalizePasswordResetResponse)
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

type FinalizePasswordResetResponse struct {
	Updated bool     `json:"updated" doc:"Was the password replaced?"`
	Expired bool     `json:"expired" doc:"Has the token expired?"`
	Invalid bool     `json:"invalid" doc:"Was the token malformed, forged, or minted for another operation?"`
	Email   string   `json:"email,omitempty" doc:"Email the token was minted for."`
	Errors  []string `json:"errors" doc:"Error messages."`
}

// FinalizePasswordResetHandler replaces the password for the account
// named in a reset token. The old hash is gone once this commits; tokens
// already in the wild stay valid until they expire.
type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	tokens TokenService
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, tokens TokenService) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{repo: repo, tokens: tokens}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset")
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	resp := &FinalizePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	claims, err := h.tokens.Validate(event.Token)
	if err != nil {
		switch {
		case IsTokenExpiredError(err):
			resp.Expired = true
			resp.Errors = append(resp.Errors, "Reset link expired")
		default:
			resp.Invalid = true
			resp.Errors = append(resp.Errors, "Invalid reset link")
		}
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	if err := claims.RequirePurpose(PurposePasswordReset); err != nil {
		resp.Invalid = true
		resp.Errors = append(resp.Errors, "Invalid reset link")
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	resp.Email = claims.Email()

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().UpdatePasswordTx(ctx, tx, claims.Email(), hash, time.Now()); err != nil {
			if goerrors.IsNotFound(err) {
				resp.Invalid = true
				resp.Errors = append(resp.Errors, "Account no longer exists")
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
		}

		resp.Updated = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
