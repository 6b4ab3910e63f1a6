package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// keyBytes gives 256 bits of entropy per session key.
const keyBytes = 32

// Generator mints cryptographically random session keys.
type Generator struct{}

func NewGenerator() Generator {
	return Generator{}
}

func (Generator) NewKey(ctx context.Context) (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session key: %w", err)
	}
	// URL-safe base64 without padding keeps the key cookie-friendly.
	return strings.TrimRight(base64.URLEncoding.EncodeToString(buf), "="), nil
}
