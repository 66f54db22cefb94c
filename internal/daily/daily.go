// Package daily derives the deterministic seed behind "today's challenge".
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic generator seed for a date using HMAC(key, YYYY-MM-DD).
// Everyone sharing the key and dataset gets the same challenge for that date.
func Seed(date time.Time, key []byte) int64 {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as the seed
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
