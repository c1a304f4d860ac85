package account

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(r *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "user.email_verify" }

type VerifyEmailResponse struct {
	Verified bool     `json:"verified" doc:"Was the email marked verified?"`
	Expired  bool     `json:"expired" doc:"Has the token expired?"`
	Invalid  bool     `json:"invalid" doc:"Was the token malformed, forged, or minted for another operation?"`
	Email    string   `json:"email,omitempty" doc:"Email the token was minted for."`
	Errors   []string `json:"errors" doc:"Error messages."`
}

// VerifyEmailHandler flips the verification flag for the account named in
// an email verify token. A token minted for any other purpose is rejected
// before the store is touched.
type VerifyEmailHandler struct {
	repo   RepositoryManager
	tokens TokenService
}

func NewVerifyEmailHandler(repo RepositoryManager, tokens TokenService) *VerifyEmailHandler {
	return &VerifyEmailHandler{repo: repo, tokens: tokens}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	resp := &VerifyEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	claims, err := h.tokens.Validate(event.Token)
	if err != nil {
		switch {
		case IsTokenExpiredError(err):
			resp.Expired = true
			resp.Errors = append(resp.Errors, "Verification link expired")
		default:
			resp.Invalid = true
			resp.Errors = append(resp.Errors, "Invalid verification link")
		}
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	if err := claims.RequirePurpose(PurposeEmailVerify); err != nil {
		resp.Invalid = true
		resp.Errors = append(resp.Errors, "Invalid verification link")
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	resp.Email = claims.Email()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().UpdateVerificationTx(ctx, tx, claims.Email(), true, time.Now()); err != nil {
			if goerrors.IsNotFound(err) {
				resp.Invalid = true
				resp.Errors = append(resp.Errors, "Account no longer exists")
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
		}

		resp.Verified = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email verification transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
