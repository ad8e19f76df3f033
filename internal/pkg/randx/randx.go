/*
Package randx generates identifiers with crypto/rand.

Message keys follow the push-id layout: eight characters encoding the millisecond
timestamp followed by twelve random characters, all from a 64-character alphabet whose
ASCII order matches its numeric order. Keys therefore sort lexicographically by creation
time.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	// PushChars is the key alphabet, in ascending ASCII order.
	PushChars = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

	// MessageKeyLength is the total length of a message key.
	MessageKeyLength = 20

	timestampChars = 8
)

var pushCharsLen = big.NewInt(int64(len(PushChars)))

// MessageKey returns a new time-ordered key for a message created at now.
func MessageKey(now time.Time) (string, error) {
	key := make([]byte, MessageKeyLength)

	ms := now.UnixMilli()
	for i := timestampChars - 1; i >= 0; i-- {
		key[i] = PushChars[ms%64]
		ms /= 64
	}

	for i := timestampChars; i < MessageKeyLength; i++ {
		num, err := rand.Int(rand.Reader, pushCharsLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for message key: %w", err)
		}
		key[i] = PushChars[num.Int64()]
	}

	return string(key), nil
}

// IsValidMessageKey reports whether key has the message key length and alphabet.
func IsValidMessageKey(key string) bool {
	if len(key) != MessageKeyLength {
		return false
	}

	for _, char := range key {
		if !strings.ContainsRune(PushChars, char) {
			return false
		}
	}

	return true
}
