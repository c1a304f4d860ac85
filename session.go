package account

import (
	"time"
)

// SessionObject is the decoded view of a bearer token: who it was minted
// for, what operation it unlocks, and when it dies.
type SessionObject struct {
	Email          string     `json:"email,omitempty"`
	TokenPurpose   Purpose    `json:"purpose,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetEmail() string {
	return s.Email
}

func (s *SessionObject) GetPurpose() Purpose {
	return s.TokenPurpose
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpirationDate() *time.Time {
	return s.ExpirationDate
}

func sessionFromClaims(claims *Claims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToFindSession
	}

	session := &SessionObject{
		Email:        claims.Email(),
		TokenPurpose: claims.Purpose(),
		Issuer:       claims.RegisteredClaims.Issuer,
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		issuedAt := claims.RegisteredClaims.IssuedAt.Time
		session.IssuedAt = &issuedAt
	}

	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt := claims.RegisteredClaims.ExpiresAt.Time
		session.ExpirationDate = &expiresAt
	}

	return session, nil
}
