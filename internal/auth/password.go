// Password hashing utilities.
//
// STORED FORMAT:
//
//	<salt>,<hex sha256(name + password + salt)>
//	  ^
//	  5 random ASCII letters
//
// The username is mixed into the digest, so the same password gives
// different hashes for different accounts even with the same salt. The flip
// side: renaming a user would invalidate their password. Names are immutable
// after signup, so that never happens.

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	saltLength   = 5
	saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// PasswordHasher salts and hashes credentials.
//
// It's a struct (not free functions) so that the randomness source can be
// injected in tests to get a predictable salt.
type PasswordHasher struct {
	rand io.Reader
}

// NewPasswordHasher creates a PasswordHasher backed by crypto/rand.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{rand: rand.Reader}
}

// Hash returns the storable hash for name+password with a fresh salt.
func (p *PasswordHasher) Hash(name, password string) (string, error) {
	salt, err := p.salt()
	if err != nil {
		return "", err
	}
	return HashWithSalt(name, password, salt), nil
}

// HashWithSalt returns "<salt>,<digest>" for an explicit salt.
func HashWithSalt(name, password, salt string) string {
	sum := sha256.Sum256([]byte(name + password + salt))
	return salt + "," + hex.EncodeToString(sum[:])
}

// Verify reports whether password is the one stored for name.
//
// The salt is taken from the stored value, the digest recomputed, and the
// whole "<salt>,<digest>" string compared in constant time.
func (p *PasswordHasher) Verify(name, password, stored string) bool {
	salt, _, ok := strings.Cut(stored, ",")
	if !ok {
		return false
	}
	want := HashWithSalt(name, password, salt)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(want)) == 1
}

func (p *PasswordHasher) salt() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(saltAlphabet)))
	for i := 0; i < saltLength; i++ {
		n, err := rand.Int(p.rand, limit)
		if err != nil {
			return "", fmt.Errorf("auth: generating salt: %w", err)
		}
		b.WriteByte(saltAlphabet[n.Int64()])
	}
	return b.String(), nil
}
