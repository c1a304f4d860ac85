package account

import (
	"encoding/json"
	"fmt"
)

// Purpose restricts what operation a token may authorize. It is a closed
// set: decoding anything outside the known values fails, so a forged or
// future purpose can never round trip through a token silently.
type Purpose string

const (
	// PurposeAuth authorizes a login session
	PurposeAuth Purpose = "auth"
	// PurposeEmailVerify authorizes confirming an email address
	PurposeEmailVerify Purpose = "email-verify"
	// PurposePasswordReset authorizes changing a forgotten password
	PurposePasswordReset Purpose = "reset-password"
)

// ParsePurpose validates a raw purpose tag
func ParsePurpose(raw string) (Purpose, bool) {
	switch Purpose(raw) {
	case PurposeAuth, PurposeEmailVerify, PurposePasswordReset:
		return Purpose(raw), true
	default:
		return "", false
	}
}

// IsValid checks the purpose is one of the known values
func (p Purpose) IsValid() bool {
	_, ok := ParsePurpose(string(p))
	return ok
}

func (p Purpose) String() string {
	return string(p)
}

// MarshalJSON rejects unknown purposes at issue time
func (p Purpose) MarshalJSON() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("unknown token purpose: %q", string(p))
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON rejects unknown purposes at decode time
func (p *Purpose) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, ok := ParsePurpose(raw)
	if !ok {
		return fmt.Errorf("unknown token purpose: %q", raw)
	}

	*p = parsed
	return nil
}
