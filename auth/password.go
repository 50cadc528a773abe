// Package auth verifies operator credentials and carries the signed-in
// operator through a request.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Skryldev/portfolio/db"
	"github.com/Skryldev/portfolio/models"
	"github.com/Skryldev/portfolio/repo"
)

// ErrInvalidCredentials is returned for an unknown username and for a wrong
// password alike.
var ErrInvalidCredentials = errors.New("auth: invalid username or password")

// HashPassword returns the lowercase hex SHA-256 digest of plain's UTF-8
// bytes. No salt is applied; stored digests are produced the same way.
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether plain hashes to u's stored digest.
func Verify(u *models.User, plain string) bool {
	if u == nil {
		return false
	}
	got := HashPassword(plain)
	return subtle.ConstantTimeCompare([]byte(got), []byte(u.PasswordHash)) == 1
}

// Authenticate looks username up and checks plain against it.
//
// Store failures other than "not found" are returned as-is so the caller can
// tell an outage from bad credentials.
func Authenticate(ctx context.Context, users repo.UserRepository, username, plain string) (*models.User, error) {
	u, err := users.GetByUsername(ctx, username)
	switch {
	case db.IsNotFound(err):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("auth: lookup %q: %w", username, err)
	}
	if !Verify(u, plain) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
