// Package auth holds the credential primitives: password hashing and
// signed bearer tokens.
package auth

import "golang.org/x/crypto/bcrypt"

// Verification is the outcome of checking a plaintext password against a
// stored hash. Stale means the hash was produced with a cost below the
// current default and should be regenerated on a successful login.
type Verification struct {
	Match bool
	Stale bool
}

// Hasher produces and verifies salted bcrypt hashes. The salt and cost are
// embedded in the hash itself, so verification needs no extra parameters.
type Hasher struct {
	cost int
}

func NewHasher() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost}
}

// Hash generates a salted hash from a plaintext password. The salt is
// randomized per call, so hashing the same plaintext twice yields two
// different records.
func (h *Hasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

// Verify reports whether plaintext matches the stored hash. A corrupt or
// foreign hash record counts as a mismatch, never a fault.
func (h *Hasher) Verify(hash, password string) Verification {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Verification{}
	}
	cost, err := bcrypt.Cost([]byte(hash))
	return Verification{Match: true, Stale: err == nil && cost < h.cost}
}
