package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const defaultTokenBytes = 32

// RandomTokenGenerator mints unguessable capability tokens, used for calendar
// export URLs. The URL-safe alphabet keeps tokens copy-pasteable into feed
// readers without escaping.
type RandomTokenGenerator struct {
	// Size is the entropy in bytes; zero means defaultTokenBytes.
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	n := g.Size
	if n <= 0 {
		n = defaultTokenBytes
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("security: token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
