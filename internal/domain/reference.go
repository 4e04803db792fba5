package domain

import (
	"crypto/rand"
	"fmt"
)

// referenceAlphabet drops characters passengers confuse when reading a code
// aloud (I, O, 0, 1). 32 characters at 10 positions gives a 2^50 space.
const (
	referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referenceLength   = 10
)

// NewBookingReference generates an opaque booking reference. Uniqueness is
// enforced by the storage layer; callers retry on ErrReferenceTaken.
func NewBookingReference() (string, error) {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate booking reference: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(buf), nil
}
