package orders

import (
	"crypto/rand"
	"fmt"
	"time"
)

// numberAlphabet excludes easily confused characters (0/O, 1/I/L).
const numberAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// GenerateOrderNumber produces a human-readable order number of the form
// ORD-20260901-8F3K2A. The suffix is random, so collisions are possible and
// callers retry on a unique violation rather than assuming success.
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), randomSuffix(6))
}

func randomSuffix(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a timestamp-derived suffix instead of panicking.
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return string(out)
}
