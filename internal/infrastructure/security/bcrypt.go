package security

import (
	"strings"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the work factor used when none is configured.
const DefaultCost = 10

// HashMarker prefixes every bcrypt digest ($2a$, $2b$, $2y$).
const HashMarker = "$2"

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int { return h.cost }

// Hash salts and hashes a plaintext password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", domain.ErrHashFailed(err)
	}
	return string(b), nil
}

// Compare returns nil when password matches hash.
func (h *BcryptHasher) Compare(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// LooksHashed reports whether v carries the bcrypt marker prefix.
// Content sniffing only: a plaintext that starts with "$2" also matches.
func LooksHashed(v string) bool {
	return strings.HasPrefix(v, HashMarker)
}

// IsHash reports whether v parses as a bcrypt digest.
func IsHash(v string) bool {
	_, err := bcrypt.Cost([]byte(v))
	return err == nil
}
