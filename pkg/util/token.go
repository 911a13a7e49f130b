package util

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrTokenSize = errors.New("token size must be positive")

// GenerateToken returns n random bytes, hex encoded. The result is 2n
// characters long.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		return "", ErrTokenSize
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes, %w", err)
	}

	return hex.EncodeToString(b), nil
}
