package account

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ResendVerificationMessage struct {
	Email      string `json:"email"`
	OnResponse func(r *ResendVerificationResponse)
}

func (e ResendVerificationMessage) Type() string { return "user.verification_resend" }

type ResendVerificationResponse struct {
	Found           bool     `json:"found" doc:"Is the email registered?"`
	AlreadyVerified bool     `json:"already_verified" doc:"Was the email verified before this request?"`
	VerifyToken     string   `json:"verify_token,omitempty" doc:"Fresh email verification token."`
	Errors          []string `json:"errors" doc:"Error messages."`
}

// ResendVerificationHandler mints a fresh verification token for an
// unverified account. An unknown email is reported back to the caller,
// the same way the original flow surfaces it.
type ResendVerificationHandler struct {
	repo   RepositoryManager
	tokens TokenService
}

func NewResendVerificationHandler(repo RepositoryManager, tokens TokenService) *ResendVerificationHandler {
	return &ResendVerificationHandler{repo: repo, tokens: tokens}
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during verification resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	resp := &ResendVerificationResponse{}

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

	if user.EmailValidated {
		resp.AlreadyVerified = true
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	token, err := h.tokens.Issue(user.Email, PurposeEmailVerify, EmailVerifyTokenValidity)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}

	resp.VerifyToken = token

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
