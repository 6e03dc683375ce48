package random

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// GetUUID returns a new random UUID without hyphens.
func GetUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewRequestID returns a canonical (hyphenated) UUID, the format stored request ids use.
func NewRequestID() string {
	return uuid.NewString()
}

const keyChars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GetRandomString generates a random alphanumeric string of the given length using crypto/rand.
func GetRandomString(length int) string {
	key := make([]byte, length)
	for i := range length {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(keyChars))))
		if err != nil {
			panic(err)
		}
		key[i] = keyChars[n.Int64()]
	}
	return string(key)
}
