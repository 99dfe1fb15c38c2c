package encryption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	svc, err := NewService(key)
	require.NoError(t, err)
	return svc
}

func TestGenerateKey(t *testing.T) {
	key1, err := GenerateKey()
	require.NoError(t, err)
	key2, err := GenerateKey()
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2)

	_, err = NewService(key1)
	assert.NoError(t, err)
}

func TestNewService(t *testing.T) {
	validKey, err := GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{
			name:    "valid key",
			key:     validKey,
			wantErr: false,
		},
		{
			name:    "empty key",
			key:     "",
			wantErr: true,
		},
		{
			name:    "invalid key",
			key:     "invalid-key",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestService_EncryptDecrypt(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{
			name:      "api key",
			plaintext: "0123456789abcdef0123456789abcdef",
		},
		{
			name:      "empty string",
			plaintext: "",
		},
		{
			name:      "unicode",
			plaintext: "clé secrète ✓",
		},
		{
			name:      "long value",
			plaintext: strings.Repeat("k", 4096),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.Encrypt(tt.plaintext)
			require.NoError(t, err)

			if tt.plaintext == "" {
				assert.Empty(t, token)
			} else {
				assert.NotEqual(t, tt.plaintext, token)
			}

			decrypted, err := svc.Decrypt(token)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestService_DecryptWithWrongKey(t *testing.T) {
	token, err := newTestService(t).Encrypt("secret")
	require.NoError(t, err)

	_, err = newTestService(t).Decrypt(token)
	assert.Error(t, err)
}

func TestService_DecryptInvalidToken(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Decrypt("not base64!")
	assert.ErrorContains(t, err, "invalid token format")

	_, err = svc.Decrypt("aGVsbG8=")
	assert.Error(t, err)
}
