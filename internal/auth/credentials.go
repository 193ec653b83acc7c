package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/go-crypt/crypt"
	"github.com/go-crypt/crypt/algorithm/argon2"

	"certer/internal/config"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// HashPassword returns an argon2id digest in crypt(3) format.
func HashPassword(password string) (string, error) {
	hasher, err := argon2.New(
		argon2.WithProfileRFC9106LowMemory(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create argon2 hasher: %w", err)
	}

	digest, err := hasher.Hash(password)
	if err != nil {
		return "", err
	}

	return digest.Encode(), nil
}

func VerifyPassword(password, hash string) (bool, error) {
	decoder := crypt.NewDecoder()
	if err := argon2.RegisterDecoderArgon2id(decoder); err != nil {
		return false, fmt.Errorf("failed to register argon2 decoder: %w", err)
	}

	digest, err := decoder.Decode(hash)
	if err != nil {
		return false, err
	}

	return digest.MatchAdvanced(password)
}

// CheckCredentials compares a login attempt with the configured operator.
// The password hash is evaluated even when the username does not match.
func CheckCredentials(cfg config.AuthConfig, username, password string) error {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1

	passwordOK, err := VerifyPassword(password, cfg.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}

	if !usernameOK || !passwordOK {
		return ErrInvalidCredentials
	}

	return nil
}
