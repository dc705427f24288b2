package experiment

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"time"
)

// Bucket is one arm of the presentation experiment.
type Bucket string

const (
	// BucketA is the control arm.
	BucketA Bucket = "A"
	// BucketB is the variant arm.
	BucketB Bucket = "B"
)

// DefaultCookieName is the fixed cookie the web tier reads for hero-section
// variant selection.
const DefaultCookieName = "cw-ab-hero"

// DefaultMaxAge is the assignment retention window.
const DefaultMaxAge = 180 * 24 * time.Hour

// ErrInvalidConfig is returned by NewAssigner for a non-positive retention
// window or a blank cookie name.
var ErrInvalidConfig = errors.New("invalid experiment configuration")

// ParseBucket reports whether raw is a valid bucket value.
func ParseBucket(raw string) (Bucket, bool) {
	switch Bucket(raw) {
	case BucketA, BucketB:
		return Bucket(raw), true
	default:
		return "", false
	}
}

// Config controls cookie identity and the random source.
type Config struct {
	// CookieName defaults to [DefaultCookieName] when blank.
	CookieName string
	// MaxAge defaults to [DefaultMaxAge] when zero.
	MaxAge time.Duration
	// Coin returns 0 or 1. Defaults to the shared math/rand/v2 generator.
	// Inject a deterministic coin in tests.
	Coin func() int
}

// Assigner decides the bucket for each request. Safe for concurrent use
// when its coin is.
type Assigner struct {
	cookieName string
	maxAge     time.Duration
	coin       func() int
}

// NewAssigner validates cfg and fills defaults.
func NewAssigner(cfg Config) (*Assigner, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.MaxAge < 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.Coin == nil {
		cfg.Coin = func() int { return rand.IntN(2) }
	}
	return &Assigner{
		cookieName: cfg.CookieName,
		maxAge:     cfg.MaxAge,
		coin:       cfg.Coin,
	}, nil
}

// CookieName returns the configured cookie name.
func (a *Assigner) CookieName() string {
	return a.cookieName
}

// Assign returns the bucket for a client that presented raw as its cookie
// value, and whether that bucket is a fresh assignment the caller must
// persist. A valid existing value is returned unchanged.
func (a *Assigner) Assign(raw string) (Bucket, bool) {
	if b, ok := ParseBucket(raw); ok {
		return b, false
	}
	if a.coin()&1 == 1 {
		return BucketB, true
	}
	return BucketA, true
}

// Cookie builds the Set-Cookie payload for a fresh assignment. The cookie
// is deliberately not HTTP-only: the web tier reads it client-side to pick
// the rendered variant.
func (a *Assigner) Cookie(b Bucket) *http.Cookie {
	return &http.Cookie{
		Name:     a.cookieName,
		Value:    string(b),
		Path:     "/",
		MaxAge:   int(a.maxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
		HttpOnly: false,
	}
}
