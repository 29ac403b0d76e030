package orders

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateOrderNumber_format(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	number := GenerateOrderNumber(now)

	if !strings.HasPrefix(number, "ORD-20260901-") {
		t.Fatalf("unexpected prefix: %s", number)
	}
	suffix := strings.TrimPrefix(number, "ORD-20260901-")
	if len(suffix) != 6 {
		t.Fatalf("unexpected suffix length: %s", suffix)
	}
	for _, r := range suffix {
		if !strings.ContainsRune(numberAlphabet, r) {
			t.Fatalf("suffix char %q outside alphabet", r)
		}
	}
}

func TestGenerateOrderNumber_varies(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[GenerateOrderNumber(now)] = true
	}
	// Collisions are possible but 50 identical draws would mean a broken
	// random source.
	if len(seen) < 2 {
		t.Fatal("expected varying order numbers")
	}
}
