package auth

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

// GeneratePepper returns a new random pepper.
func GeneratePepper() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate pepper: %w", err)
	}
	return key, nil
}

// EncodePepper returns the URL-safe base64 form written to pepper files.
func EncodePepper(key []byte) string {
	return base64.URLEncoding.EncodeToString(key)
}

// ParsePepper accepts 32 raw bytes or 32 bytes in standard or URL-safe
// base64, padded or not. Surrounding whitespace is ignored for the encoded
// forms.
func ParsePepper(data []byte) ([]byte, error) {
	if len(data) == keySize {
		return bytes.Clone(data), nil
	}

	text := string(bytes.TrimSpace(data))
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawURLEncoding,
		base64.RawStdEncoding,
	} {
		if key, err := enc.DecodeString(text); err == nil && len(key) == keySize {
			return key, nil
		}
	}
	return nil, fmt.Errorf("pepper must be %d raw bytes or their base64 encoding", keySize)
}

// LoadPepper reads and parses the pepper file at path.
func LoadPepper(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //#nosec 304 -- intentional file read for the pepper
	if err != nil {
		return nil, fmt.Errorf("failed to read pepper file %q: %w", path, err)
	}
	key, err := ParsePepper(data)
	if err != nil {
		return nil, fmt.Errorf("invalid pepper file %q: %w", path, err)
	}
	return key, nil
}

// WritePepper writes a new pepper to path with mode 0600. It refuses to
// overwrite an existing file.
func WritePepper(path string) error {
	key, err := GeneratePepper()
	if err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //nolint:gosec // User-specified path is intentional
	if err != nil {
		return fmt.Errorf("failed to create pepper file: %w", err)
	}
	if _, err := file.WriteString(EncodePepper(key) + "\n"); err != nil {
		_ = file.Close() //nolint:errcheck // Write error takes precedence
		return fmt.Errorf("failed to write pepper file: %w", err)
	}
	return file.Close()
}
