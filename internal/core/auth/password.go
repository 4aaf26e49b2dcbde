package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies staff passwords with bcrypt. The bcrypt output
// carries its own algorithm tag, cost and salt.
type Hasher struct {
	cost int

	decoyOnce sync.Once
	decoy     []byte
}

// NewHasher returns a Hasher using cost, or bcrypt.DefaultCost when cost is
// outside bcrypt's accepted range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a freshly salted hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether secret matches hash. A malformed hash never matches.
func (h *Hasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// VerifyDecoy spends the same bcrypt work as Verify against a throwaway hash
// and always reports false. Login calls it for unknown usernames so both
// failure paths take the same time.
func (h *Hasher) VerifyDecoy(secret string) bool {
	_ = bcrypt.CompareHashAndPassword(h.decoyHash(), []byte(secret))
	return false
}

func (h *Hasher) decoyHash() []byte {
	h.decoyOnce.Do(func() {
		// Only GenerateFromPassword's cost and length checks can fail here.
		h.decoy, _ = bcrypt.GenerateFromPassword([]byte("decoy-password"), h.cost)
	})
	return h.decoy
}
