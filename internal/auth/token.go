// Package auth provides the session cookie codec, password hashing and the
// session middleware for the blog.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User signs up or logs in with name + password (PasswordHasher)
//  2. Server sets the cookie user_id=<id>|<hmac> (SecureCodec.Seal)
//  3. On every request, LoadUser reads the cookie, checks the tag
//     (SecureCodec.Unseal) and loads the user into the request context
//  4. Logout overwrites the cookie with an empty value
//
// TOKEN FORMAT:
// "value|tag", where tag is the hex HMAC-SHA256 of value under the server
// secret. The value stays readable. There is no expiry: a cookie stays valid
// until it is cleared or the secret changes.
package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Unseal for malformed or tampered tokens.
var ErrInvalidToken = errors.New("auth: invalid token")

// separator splits the value from its tag. Tags are hex, so the LAST
// separator in a token always starts the tag, even if the value contains one.
const separator = "|"

// SecureCodec seals values with a keyed hash and checks them again.
//
// The keyed hash is HMAC-SHA256, computed with jwt.SigningMethodHS256 so the
// same primitive (and the same key-type checks) the JWT library uses for its
// signatures signs our cookies.
type SecureCodec struct {
	secret []byte
}

// NewSecureCodec creates a SecureCodec with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: SECRET=$(openssl rand -hex 32)
func NewSecureCodec(secret string) (*SecureCodec, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: secret must be at least 16 characters")
	}
	return &SecureCodec{secret: []byte(secret)}, nil
}

// Seal returns "<value>|<hex tag>".
func (c *SecureCodec) Seal(value string) string {
	return value + separator + c.tag(value)
}

// Unseal returns the value inside a sealed token.
//
// The tag is recomputed over the extracted value and compared with the
// token's tag as a string, in constant time. Comparing strings (not decoded
// bytes) matters: hex decoding accepts "AB" and "ab" alike, so decoding first
// would let a case-flipped token through.
func (c *SecureCodec) Unseal(token string) (string, error) {
	i := strings.LastIndex(token, separator)
	if i < 0 {
		return "", ErrInvalidToken
	}
	value, got := token[:i], token[i+len(separator):]

	want := c.tag(value)
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return "", ErrInvalidToken
	}
	return value, nil
}

func (c *SecureCodec) tag(value string) string {
	sig, err := jwt.SigningMethodHS256.Sign(value, c.secret)
	if err != nil {
		// Sign only fails for a non-[]byte or empty key, which NewSecureCodec rules out.
		panic(fmt.Sprintf("auth: signing value: %v", err))
	}
	return hex.EncodeToString(sig)
}
