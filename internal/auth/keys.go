// Package auth provides password hashing and access tokens.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// keyLength is the PASETO v4 symmetric key size.
const keyLength = 32

// LoadOrGenerateKey returns the token key stored hex-encoded in
// <dataPath>/auth.key, creating the file with a fresh random key on first run.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, "auth.key")

	//#nosec G304 -- path is derived from the configured data directory
	if raw, err := os.ReadFile(keyPath); err == nil {
		keyHex := strings.TrimSpace(string(raw))
		if len(keyHex) != keyLength*2 {
			return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", keyLength*2, len(keyHex))
		}
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid auth key format: not valid hex: %w", err)
		}
		return key, nil
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}

	return key, nil
}
