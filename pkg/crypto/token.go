package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewToken returns n random bytes encoded as unpadded URL-safe base64, so the
// result can be embedded in a path segment.
func NewToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
