package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	nonceSize = 24
	keySize   = 32

	// Upper bounds accepted when parsing a stored digest.
	maxMemoryKiB = 1 << 21
	maxTime      = 64
)

// Params are the Argon2id cost parameters. Memory is in KiB.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultParams is t=3, m=64MiB, p=4 with a 32-byte key and 16-byte salt.
var DefaultParams = Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// Hasher produces and verifies password blobs. A blob is an Argon2id PHC
// string sealed with a server-wide pepper: nonce(24) || secretbox.
// A Hasher is safe for concurrent use.
type Hasher struct {
	pepper [keySize]byte
	params Params
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithParams overrides the Argon2id parameters used for new hashes.
// Existing blobs are verified with the parameters they were created with.
func WithParams(p Params) Option {
	return func(h *Hasher) {
		h.params = p
	}
}

// NewHasher creates a Hasher sealing with a 32-byte pepper.
func NewHasher(pepper []byte, opts ...Option) (*Hasher, error) {
	if len(pepper) != keySize {
		return nil, fmt.Errorf("pepper must be %d bytes, got %d", keySize, len(pepper))
	}
	h := &Hasher{params: DefaultParams}
	copy(h.pepper[:], pepper)
	for _, opt := range opts {
		opt(h)
	}
	if h.params.Time == 0 || h.params.Memory == 0 || h.params.Threads == 0 || h.params.KeyLen == 0 || h.params.SaltLen == 0 {
		return nil, errors.New("argon2 parameters must be positive")
	}
	return h, nil
}

// Hash digests plaintext and seals the digest with the pepper.
func (h *Hasher) Hash(plaintext string) ([]byte, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	phc := encodePHC(h.params, salt, key)

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(phc), &nonce, &h.pepper), nil
}

// Check reports whether plaintext matches blob. Any malformed or foreign
// blob is a mismatch.
func (h *Hasher) Check(plaintext string, blob []byte) bool {
	if len(blob) < nonceSize+secretbox.Overhead {
		return false
	}
	var nonce [nonceSize]byte
	copy(nonce[:], blob[:nonceSize])

	phc, ok := secretbox.Open(nil, blob[nonceSize:], &nonce, &h.pepper)
	if !ok {
		return false
	}
	params, salt, want, err := decodePHC(string(phc))
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(plaintext), salt, params.Time, params.Memory, params.Threads, uint32(len(want))) //nolint:gosec // Bounded by decodePHC
	return subtle.ConstantTimeCompare(got, want) == 1
}

var b64 = base64.RawStdEncoding

func encodePHC(p Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads, b64.EncodeToString(salt), b64.EncodeToString(key))
}

func decodePHC(phc string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errors.New("not an argon2id digest")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("bad version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, fmt.Errorf("bad parameters: %w", err)
	}
	if p.Memory == 0 || p.Memory > maxMemoryKiB || p.Time == 0 || p.Time > maxTime || p.Threads == 0 {
		return p, nil, nil, errors.New("argon2 parameters out of range")
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errors.New("bad salt")
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errors.New("bad digest")
	}
	p.SaltLen = uint32(len(salt)) //nolint:gosec // Length of a decoded PHC field
	p.KeyLen = uint32(len(key))   //nolint:gosec // Length of a decoded PHC field
	return p, salt, key, nil
}
