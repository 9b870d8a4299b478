// Package auth provides authentication primitives for souschef.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/souschef/souschef/internal/constants"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters used for new password hashes. Verification reads the
// parameters back from the encoded hash, so these can change without
// invalidating stored credentials.
const (
	argonTime      = uint32(2)
	argonMemoryKB  = uint32(64 * 1024)
	argonThreads   = uint8(1)
	argonKeyLength = uint32(32)
)

// HashToken creates a SHA-256 hash of the auth token for secure storage.
// NOTICE: we never store plain tokens in the database.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))

	return base64.StdEncoding.EncodeToString(hash[:])
}

// GenerateToken creates a cryptographically secure random auth token.
// The token is base64-encoded and approximately 32 characters long.
func GenerateToken() (string, error) {
	b := make([]byte, constants.TokenByteSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b), nil
}

// GeneratePassword creates a random password for CLI-provisioned users.
func GeneratePassword() (string, error) {
	b := make([]byte, constants.GeneratedPasswordByteSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b), nil
}

// HashPassword derives an argon2id key from the password and returns it in
// PHC string format with the salt and parameters embedded.
func HashPassword(password string) (string, error) {
	salt := make([]byte, constants.PasswordSaltByteSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate password salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemoryKB, argonThreads, argonKeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemoryKB, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// VerifyPassword reports whether the password matches an encoded argon2id
// hash produced by HashPassword. The comparison is constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("unsupported password hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("failed to parse password hash version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version: %d", version)
	}

	var memoryKB, timeCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memoryKB, &timeCost, &threads); err != nil {
		return false, fmt.Errorf("failed to parse password hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode password salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode password hash: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, timeCost, memoryKB, threads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}
