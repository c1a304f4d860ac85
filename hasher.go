package account

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Encoded in every hash so verification re-derives
// with the parameters the hash was created with, not the current ones.
const (
	hashMemoryKB    uint32 = 64 * 1024
	hashTimeCost    uint32 = 3
	hashParallelism uint8  = 4
	hashSaltLength  uint32 = 16
	hashKeyLength   uint32 = 32
)

// HashPassword will generate a salted argon2id hash in PHC string format:
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	salt := make([]byte, hashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate password salt")
	}

	hash := argon2.IDKey([]byte(password), salt, hashTimeCost, hashMemoryKB, hashParallelism, hashKeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hashMemoryKB,
		hashTimeCost,
		hashParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// ComparePasswordAndHash will validate the given cleartext password
// matches the hashed password. A mismatch returns
// ErrMismatchedHashAndPassword; a hash we cannot parse is an internal
// error, never a silent mismatch.
func ComparePasswordAndHash(password, encodedHash string) error {
	salt, hash, timeCost, memoryKB, parallelism, err := decodeHash(encodedHash)
	if err != nil {
		return err
	}

	computed := argon2.IDKey([]byte(password), salt, timeCost, memoryKB, parallelism, uint32(len(hash)))

	if subtle.ConstantTimeCompare(computed, hash) != 1 {
		return ErrMismatchedHashAndPassword
	}

	return nil
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

func decodeHash(encodedHash string) (salt, hash []byte, timeCost, memoryKB uint32, parallelism uint8, err error) {
	malformed := func(reason string) error {
		return errors.New("malformed password hash: "+reason, errors.CategoryInternal)
	}

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, nil, 0, 0, 0, malformed("wrong segment count")
	}

	if parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, malformed("unsupported algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, malformed("missing version")
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, malformed("unsupported argon2 version")
	}

	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, nil, 0, 0, 0, malformed("invalid parameter entry")
		}

		v, perr := strconv.ParseUint(kv[1], 10, 32)
		if perr != nil {
			return nil, nil, 0, 0, 0, malformed("invalid parameter value")
		}

		switch kv[0] {
		case "m":
			memoryKB = uint32(v)
		case "t":
			timeCost = uint32(v)
		case "p":
			if v > 255 {
				return nil, nil, 0, 0, 0, malformed("invalid parallelism")
			}
			parallelism = uint8(v)
		default:
			return nil, nil, 0, 0, 0, malformed("unknown parameter")
		}
	}

	if memoryKB == 0 || timeCost == 0 || parallelism == 0 {
		return nil, nil, 0, 0, 0, malformed("missing parameters")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, malformed("invalid salt encoding")
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return nil, nil, 0, 0, 0, malformed("invalid hash encoding")
	}

	return salt, hash, timeCost, memoryKB, parallelism, nil
}
