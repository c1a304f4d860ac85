package account

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Auther authenticates users against the store and mints bearer tokens.
type Auther struct {
	users  Users
	tokens TokenService
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, tokens TokenService) *Auther {
	return &Auther{
		users:  users,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies the email and password pair and, on success, mints an
// auth purpose token. An unverified email fails even when the password
// matches.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
			s.logger.Warn("Login identity not found", "email", email)
			return "", ErrIdentityNotFound
		}
		s.logger.Error("Login find identity error", "error", err)
		return "", err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Warn("Login password mismatch", "email", email)
		return "", err
	}

	if !user.EmailValidated {
		s.logger.Warn("Login blocked, email not verified", "email", email)
		return "", ErrEmailNotVerified
	}

	token, err := s.tokens.Issue(user.Email, PurposeAuth, AuthTokenValidity)
	if err != nil {
		s.logger.Error("Login token issue error", "error", err)
		return "", err
	}

	return token, nil
}

// SessionFromToken decodes a bearer token into a session. Any token the
// verifier accepts yields a session; purpose checks happen at the call
// site against the operation being performed.
func (s *Auther) SessionFromToken(token string) (*SessionObject, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	return sessionFromClaims(claims)
}

// IdentityFromSession resolves the session subject to a stored user.
func (s *Auther) IdentityFromSession(ctx context.Context, session *SessionObject) (*User, error) {
	if session == nil || session.Email == "" {
		return nil, ErrUnableToFindSession
	}

	user, err := s.users.FindByEmail(ctx, session.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return user, nil
}

var _ Authenticator = (*Auther)(nil)
