package storage

import (
	"fmt"
	"strings"
)

// MaxKeyLength is the longest accepted object key, in bytes.
const MaxKeyLength = 1024

// forbiddenSequences are rejected anywhere in a key. The resolver would stop
// an actual escape anyway; rejecting early keeps obviously malformed keys out
// of the catalog.
var forbiddenSequences = []string{"../", "./", "//"}

// ValidateKey checks an object key against the accepted grammar: non-empty,
// at most MaxKeyLength bytes, no dot-segment or empty-segment sequences, no
// ASCII control characters. A trailing slash is legal (directory keys).
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("object key must not be empty")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("object key exceeds %d bytes", MaxKeyLength)
	}
	for _, seq := range forbiddenSequences {
		if strings.Contains(key, seq) {
			return fmt.Errorf("object key contains forbidden sequence %q", seq)
		}
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x20 || key[i] == 0x7f {
			return fmt.Errorf("object key contains control characters")
		}
	}
	return nil
}
