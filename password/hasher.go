package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	minCost     = bcrypt.MinCost
	defaultCost = 10
	maxLength   = 128
)

// Hasher hashes and verifies passwords with bcrypt. Instances are
// immutable and safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. A cost of zero
// selects the default (10).
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = defaultCost
	}
	if cost < minCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}

	return &Hasher{cost: cost}, nil
}

// Hash returns the bcrypt hash of password with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	if len(password) > maxLength {
		return "", errors.New("password exceeds maximum length")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether password matches encodedHash. A malformed hash
// verifies false without error detail: callers treat it exactly like a
// wrong password.
func (h *Hasher) Verify(password, encodedHash string) bool {
	if password == "" || encodedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}
