package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const apiKeyPrefix = "pk_"

// GenerateAPIKey returns an unguessable site key: 24 random bytes, base64url.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes for API key: %w", err)
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}
