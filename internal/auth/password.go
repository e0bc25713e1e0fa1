// Package auth implements password credentials and bearer tokens.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/semaphore"
)

const (
	saltLen = 16
	keyLen  = 32
)

// ScryptParams is the scrypt work factor. N must be a power of two.
type ScryptParams struct {
	N int
	R int
	P int
}

// DefaultScryptParams costs roughly 32 MiB and tens of milliseconds per derivation.
var DefaultScryptParams = ScryptParams{N: 1 << 15, R: 8, P: 1}

// PasswordHasher derives and verifies password credentials.
type PasswordHasher interface {
	// Hash returns a fresh "hex(salt):hex(key)" credential for password.
	Hash(ctx context.Context, password string) (string, error)
	// Verify reports whether password matches credential. A malformed credential is a
	// mismatch, not an error; err is only set when ctx ends before derivation starts.
	Verify(ctx context.Context, password, credential string) (bool, error)
}

// ScryptHasher is a PasswordHasher backed by scrypt. Each derivation holds a slot of
// the semaphore and about N*R*128 bytes of memory.
type ScryptHasher struct {
	params ScryptParams
	slots  *semaphore.Weighted
}

// NewScryptHasher returns a hasher allowing at most concurrency derivations at once.
func NewScryptHasher(params ScryptParams, concurrency int) *ScryptHasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ScryptHasher{
		params: params,
		slots:  semaphore.NewWeighted(int64(concurrency)),
	}
}

func (h *ScryptHasher) Hash(ctx context.Context, password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "generate salt")
	}
	key, err := h.derive(ctx, password, salt)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

func (h *ScryptHasher) Verify(ctx context.Context, password, credential string) (bool, error) {
	salt, want, ok := parseCredential(credential)
	if !ok {
		return false, nil
	}
	got, err := h.derive(ctx, password, salt)
	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		return false, nil
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (h *ScryptHasher) derive(ctx context.Context, password string, salt []byte) ([]byte, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "wait for hashing slot")
	}
	defer h.slots.Release(1)

	key, err := scrypt.Key([]byte(password), salt, h.params.N, h.params.R, h.params.P, keyLen)
	if err != nil {
		return nil, errors.Wrap(err, "scrypt")
	}
	return key, nil
}

func parseCredential(credential string) (salt, key []byte, ok bool) {
	saltHex, keyHex, found := strings.Cut(credential, ":")
	if !found || saltHex == "" || keyHex == "" {
		return nil, nil, false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, nil, false
	}
	key, err = hex.DecodeString(keyHex)
	if err != nil || len(key) != keyLen {
		return nil, nil, false
	}
	return salt, key, true
}
