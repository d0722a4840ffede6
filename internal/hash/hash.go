// Package hash stores passwords as salted bcrypt hashes.
package hash

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords over bcrypt's 72 byte input limit.
var ErrPasswordTooLong = errors.New("password too long")

type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

// New returns a Hasher with the given bcrypt cost; out of range costs fall
// back to bcrypt.DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a bcrypt hash with an embedded random salt, so two calls on
// the same password differ but both verify.
func (h *Hasher) Hash(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hashbytes), nil
}

// MaxPasswordLen is the most bcrypt reads of a plaintext.
const MaxPasswordLen = 72

// Verify reports whether password matches hash. The comparison is constant
// time; a malformed or foreign hash never matches. bcrypt ignores input past
// MaxPasswordLen bytes, so longer passwords are rejected outright after a
// compare against the dummy hash.
func (h *Hasher) Verify(password, hash string) bool {
	if len(password) > MaxPasswordLen {
		_ = bcrypt.CompareHashAndPassword([]byte(h.Dummy()), []byte(password[:MaxPasswordLen]))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Dummy returns a valid hash of a random-looking string at this hasher's
// cost. Verifying against it costs the same as a real check.
func (h *Hasher) Dummy() string {
	h.dummyOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), h.cost)
		if err == nil {
			h.dummy = string(b)
		}
	})
	return h.dummy
}
