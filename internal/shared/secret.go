// Package shared holds helpers for handling key material.
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomHex returns n random bytes hex encoded, so the result has 2n
// characters. It is used for generated encryption keys.
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("random hex: invalid length %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random hex: %w", err)
	}
	defer Wipe(b)
	return hex.EncodeToString(b), nil
}

// Wipe zeroes every buffer. Nil buffers are skipped.
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}
