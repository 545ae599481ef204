// Package passwd hashes and verifies user passwords with bcrypt.
package passwd

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned by Verify when the secret does not match.
var ErrMismatch = errors.New("password does not match")

// Hasher derives and checks password digests.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) error
}

// Bcrypt implements Hasher with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a Hasher using cost, or bcrypt.DefaultCost when cost is
// outside the accepted range.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports ErrMismatch for a wrong secret. A secret longer than bcrypt
// accepts can never have produced digest, so it is a mismatch too.
func (b *Bcrypt) Verify(secret, digest string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return ErrMismatch
	}
	return err
}

var _ Hasher = (*Bcrypt)(nil)
