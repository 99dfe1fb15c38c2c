// Package encryption protects credentials stored in the local database.
package encryption

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

// tokenTTL is effectively unlimited; stored API keys must not expire.
const tokenTTL = time.Hour * 24 * 365 * 100

// Service encrypts and decrypts strings with a fernet key.
type Service struct {
	key *fernet.Key
}

// NewService creates a Service from an encoded fernet key.
func NewService(keyString string) (*Service, error) {
	if keyString == "" {
		return nil, errors.New("encryption key cannot be empty")
	}

	key, err := fernet.DecodeKey(keyString)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	return &Service{key: key}, nil
}

// GenerateKey returns a new random fernet key in its encoded form.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}
	return key.Encode(), nil
}

// Encrypt returns a base64-encoded token for plaintext. Empty input stays empty.
func (s *Service) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	token, err := fernet.EncryptAndSign([]byte(plaintext), s.key)
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(token), nil
}

// Decrypt reverses Encrypt.
func (s *Service) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("invalid token format: %w", err)
	}

	plaintext := fernet.VerifyAndDecrypt(raw, tokenTTL, []*fernet.Key{s.key})
	if plaintext == nil {
		return "", errors.New("failed to decrypt token: invalid key or corrupted data")
	}

	return string(plaintext), nil
}
