package experiment

import (
	"net/http"
	"testing"
	"time"
)

func fixedCoin(v int) func() int {
	return func() int { return v }
}

func TestAssignKeepsValidExistingBucket(t *testing.T) {
	a, err := NewAssigner(Config{Coin: fixedCoin(1)})
	if err != nil {
		t.Fatalf("NewAssigner failed: %v", err)
	}

	for _, existing := range []string{"A", "B"} {
		b, fresh := a.Assign(existing)
		if fresh {
			t.Fatalf("valid bucket %q must not be re-rolled", existing)
		}
		if string(b) != existing {
			t.Fatalf("bucket changed from %q to %q", existing, b)
		}
	}
}

func TestAssignDrawsOnMissingOrInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		coin int
		want Bucket
	}{
		{"absent cookie coin zero", "", 0, BucketA},
		{"absent cookie coin one", "", 1, BucketB},
		{"lowercase is invalid", "a", 0, BucketA},
		{"garbage is invalid", "C", 1, BucketB},
		{"stale multi-char value", "AB", 0, BucketA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAssigner(Config{Coin: fixedCoin(tt.coin)})
			if err != nil {
				t.Fatalf("NewAssigner failed: %v", err)
			}
			b, fresh := a.Assign(tt.raw)
			if !fresh {
				t.Fatal("expected a fresh assignment")
			}
			if b != tt.want {
				t.Fatalf("Assign(%q) = %q, want %q", tt.raw, b, tt.want)
			}
		})
	}
}

func TestAssignIdempotentOncePersisted(t *testing.T) {
	a, err := NewAssigner(Config{Coin: fixedCoin(1)})
	if err != nil {
		t.Fatalf("NewAssigner failed: %v", err)
	}

	first, fresh := a.Assign("")
	if !fresh {
		t.Fatal("first request must assign")
	}

	// Replay the assigned value: it must survive even against a coin that
	// would draw the other arm.
	a2, err := NewAssigner(Config{Coin: fixedCoin(0)})
	if err != nil {
		t.Fatalf("NewAssigner failed: %v", err)
	}
	second, fresh := a2.Assign(string(first))
	if fresh || second != first {
		t.Fatalf("replayed bucket changed: %q -> %q (fresh=%v)", first, second, fresh)
	}
}

func TestDefaultCoinProducesOnlyValidBuckets(t *testing.T) {
	a, err := NewAssigner(Config{})
	if err != nil {
		t.Fatalf("NewAssigner failed: %v", err)
	}
	seen := map[Bucket]bool{}
	for range 256 {
		b, fresh := a.Assign("")
		if !fresh {
			t.Fatal("expected fresh assignment for empty value")
		}
		if b != BucketA && b != BucketB {
			t.Fatalf("invalid bucket %q", b)
		}
		seen[b] = true
	}
	// 256 draws landing on one arm only would be a broken coin.
	if !seen[BucketA] || !seen[BucketB] {
		t.Fatalf("coin never produced both arms: %v", seen)
	}
}

func TestCookieAttributes(t *testing.T) {
	a, err := NewAssigner(Config{Coin: fixedCoin(0)})
	if err != nil {
		t.Fatalf("NewAssigner failed: %v", err)
	}

	c := a.Cookie(BucketB)
	if c.Name != DefaultCookieName {
		t.Fatalf("cookie name = %q, want %q", c.Name, DefaultCookieName)
	}
	if c.Value != "B" {
		t.Fatalf("cookie value = %q", c.Value)
	}
	if c.Path != "/" {
		t.Fatalf("cookie path = %q", c.Path)
	}
	if c.MaxAge != 15552000 {
		t.Fatalf("cookie max-age = %d, want 15552000", c.MaxAge)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie samesite = %v, want lax", c.SameSite)
	}
	if c.HttpOnly {
		t.Fatal("experiment cookie must be readable client-side")
	}
}

func TestNewAssignerValidation(t *testing.T) {
	if _, err := NewAssigner(Config{MaxAge: -time.Hour}); err == nil {
		t.Fatal("negative retention window must be rejected")
	}

	a, err := NewAssigner(Config{CookieName: "exp", MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("NewAssigner failed: %v", err)
	}
	if a.CookieName() != "exp" {
		t.Fatalf("cookie name override lost: %q", a.CookieName())
	}
	if got := a.Cookie(BucketA).MaxAge; got != 3600 {
		t.Fatalf("max-age override = %d, want 3600", got)
	}
}
