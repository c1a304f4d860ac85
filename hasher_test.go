package account_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	account "github.com/keeril/go-account"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := account.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

			err = account.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := account.HashPassword("same password")
	assert.NoError(t, err)

	second, err := account.HashPassword("same password")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := account.HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  nil,
		},
		{
			name:     "Wrong password",
			password: "not the password",
			hash:     hash,
			wantErr:  account.ErrMismatchedHashAndPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := account.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHashMalformed(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{name: "Empty hash", hash: ""},
		{name: "Not a PHC string", hash: "plainly-not-a-hash"},
		{name: "Wrong algorithm", hash: "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{name: "Bad salt encoding", hash: "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := account.ComparePasswordAndHash("whatever", tt.hash)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, account.ErrMismatchedHashAndPassword)
		})
	}
}

func TestRandomPasswordHash(t *testing.T) {
	first := account.RandomPasswordHash()
	second := account.RandomPasswordHash()

	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}
