package auth

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 32, SaltLen: 16}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bytes.Repeat([]byte{7}, keySize), WithParams(testParams))
	require.NoError(t, err)
	return h
}

func TestHasher_HashAndCheck(t *testing.T) {
	h := newTestHasher(t)

	blob, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, h.Check("correct horse", blob))
	assert.False(t, h.Check("correct horsE", blob))
	assert.False(t, h.Check("", blob))
}

func TestHasher_SaltedAndOpaque(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("same password")
	require.NoError(t, err)
	b, err := h.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "each hash uses a fresh salt and nonce")
	assert.NotContains(t, string(a), "argon2id", "the PHC string is sealed")
}

func TestHasher_OtherPepperFails(t *testing.T) {
	h := newTestHasher(t)
	blob, err := h.Hash("secret")
	require.NoError(t, err)

	other, err := NewHasher(bytes.Repeat([]byte{8}, keySize), WithParams(testParams))
	require.NoError(t, err)
	assert.False(t, other.Check("secret", blob))
}

func TestHasher_ParamsTravelWithBlob(t *testing.T) {
	h := newTestHasher(t)
	blob, err := h.Hash("secret")
	require.NoError(t, err)

	stronger, err := NewHasher(bytes.Repeat([]byte{7}, keySize),
		WithParams(Params{Time: 2, Memory: 128, Threads: 2, KeyLen: 32, SaltLen: 16}))
	require.NoError(t, err)
	assert.True(t, stronger.Check("secret", blob))
}

func TestHasher_MalformedBlobs(t *testing.T) {
	h := newTestHasher(t)
	blob, err := h.Hash("secret")
	require.NoError(t, err)

	tampered := bytes.Clone(blob)
	tampered[len(tampered)-1] ^= 0xff

	for name, candidate := range map[string][]byte{
		"nil":       nil,
		"short":     blob[:nonceSize],
		"truncated": blob[:len(blob)-1],
		"tampered":  tampered,
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Check("secret", candidate))
			})
		})
	}
}

func TestDecodePHC(t *testing.T) {
	salt := b64.EncodeToString([]byte("0123456789abcdef"))
	key := b64.EncodeToString(bytes.Repeat([]byte{1}, 32))

	good := "$argon2id$v=19$m=64,t=1,p=1$" + salt + "$" + key
	p, gotSalt, gotKey, err := decodePHC(good)
	require.NoError(t, err)
	assert.Equal(t, uint32(64), p.Memory)
	assert.Equal(t, uint32(1), p.Time)
	assert.Equal(t, uint8(1), p.Threads)
	assert.Len(t, gotSalt, 16)
	assert.Len(t, gotKey, 32)

	bad := []string{
		"",
		"$argon2i$v=19$m=64,t=1,p=1$" + salt + "$" + key,
		"$argon2id$v=16$m=64,t=1,p=1$" + salt + "$" + key,
		"$argon2id$v=19$m=0,t=1,p=1$" + salt + "$" + key,
		"$argon2id$v=19$m=64,t=1,p=0$" + salt + "$" + key,
		"$argon2id$v=19$m=99999999,t=1,p=1$" + salt + "$" + key,
		"$argon2id$v=19$m=64,t=1,p=1$!!!$" + key,
		"$argon2id$v=19$m=64,t=1,p=1$" + salt + "$",
		strings.Repeat("$", 5),
	}
	for _, phc := range bad {
		_, _, _, err := decodePHC(phc)
		assert.Error(t, err, phc)
	}
}

func TestNewHasher_Validation(t *testing.T) {
	_, err := NewHasher([]byte("short"))
	assert.Error(t, err)

	_, err = NewHasher(bytes.Repeat([]byte{1}, keySize), WithParams(Params{}))
	assert.Error(t, err)
}
