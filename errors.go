package account

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = errors.New("mismatched password and hash")

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password should not be an empty string")

// ErrEmailNotVerified blocks login until the address has been confirmed
var ErrEmailNotVerified = errors.New("email address not verified")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode token claims into a session
var ErrUnableToDecodeSession = errors.New("unable to decode session")

const (
	// TextCodeTokenExpired tags expired token errors
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed tags structurally invalid or forged tokens
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeTokenSignature tags signature mismatches
	TextCodeTokenSignature = "TOKEN_BAD_SIGNATURE"
	// TextCodeWrongPurpose tags tokens presented to the wrong flow
	TextCodeWrongPurpose = "TOKEN_WRONG_PURPOSE"
)

// ErrTokenExpired is returned for tokens past their expiry
var ErrTokenExpired = goerrors.New("authentication token expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenSignatureInvalid is returned when the MAC does not verify
var ErrTokenSignatureInvalid = goerrors.New("authentication token signature invalid", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenSignature)

// ErrTokenMalformed is returned for tokens we cannot decode
var ErrTokenMalformed = goerrors.New("authentication token malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrWrongPurpose is returned when a valid token is presented to a flow
// it was not minted for
var ErrWrongPurpose = goerrors.New("token purpose does not match operation", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeWrongPurpose)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) || goerrors.Is(err, ErrTokenSignatureInvalid) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
