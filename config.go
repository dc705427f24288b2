package accessgate

import (
	"fmt"
	"strings"
	"time"

	"github.com/civicworks/accessgate/policy"
)

// Config defines the gate's complete policy and tuning surface. Instances
// are configured during initialization and treated as immutable afterwards.
type Config struct {
	Routes     RouteConfig
	Redirects  RedirectConfig
	Experiment ExperimentConfig
	Session    SessionConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
ROUTE CONFIG
====================================
*/

// RouteRule is the serializable form of one policy table entry.
type RouteRule struct {
	// Prefix is the literal path prefix this rule gates.
	Prefix string
	// Require is "none", "role", or "organisation".
	Require string
	// Roles is the permitted set for a "role" rule.
	Roles []string
}

// RouteConfig holds the ordered rule list and the exclusion patterns
// evaluated before any gating.
type RouteConfig struct {
	Rules      []RouteRule
	Exclusions []string
}

/*
====================================
REDIRECT CONFIG
====================================
*/

// RedirectConfig names the three fixed redirect targets.
type RedirectConfig struct {
	SignIn       string
	Unauthorized string
	Onboarding   string
}

/*
====================================
EXPERIMENT CONFIG
====================================
*/

// ExperimentConfig tunes A/B bucket assignment.
type ExperimentConfig struct {
	Enabled    bool
	CookieName string
	MaxAge     time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes credential extraction and the Redis-backed verifier.
type SessionConfig struct {
	// CookieName is the session cookie the middleware falls back to when
	// no Authorization header is present.
	CookieName string
	// RedisPrefix namespaces the session keys.
	RedisPrefix string
	// TTL is the lifetime of sessions created through the store.
	TTL time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig tunes the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: the admin and dashboard
// prefixes gated, the standard static-asset exclusions, and the fixed
// redirect targets of the web application.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Routes: RouteConfig{
			Rules: []RouteRule{
				{Prefix: "/admin", Require: "role", Roles: []string{string(RoleAdmin)}},
				{Prefix: "/dashboard", Require: "organisation"},
			},
			Exclusions: []string{"/_next/static", "/_next/image", "/favicon.ico"},
		},
		Redirects: RedirectConfig{
			SignIn:       "/auth/sign-in",
			Unauthorized: "/unauthorized",
			Onboarding:   "/onboarding/welcome",
		},
		Experiment: ExperimentConfig{
			Enabled:    true,
			CookieName: "cw-ab-hero",
			MaxAge:     180 * 24 * time.Hour,
		},
		Session: SessionConfig{
			CookieName:  "cw-session",
			RedisPrefix: "cw:gate",
			TTL:         24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Routes.Rules = make([]RouteRule, len(cfg.Routes.Rules))
	for i, r := range cfg.Routes.Rules {
		out.Routes.Rules[i] = r
		out.Routes.Rules[i].Roles = append([]string(nil), r.Roles...)
	}
	out.Routes.Exclusions = append([]string(nil), cfg.Routes.Exclusions...)
	return out
}

// Validate checks the config for contradictions. Build calls it; callers
// loading external config may want to call it earlier for better errors.
func (c *Config) Validate() error {
	for _, target := range []struct {
		name  string
		value string
	}{
		{"sign_in", c.Redirects.SignIn},
		{"unauthorized", c.Redirects.Unauthorized},
		{"onboarding", c.Redirects.Onboarding},
	} {
		if !strings.HasPrefix(target.value, "/") {
			return fmt.Errorf("redirect %s %q: %w", target.name, target.value, ErrInvalidRedirect)
		}
	}
	for i, r := range c.Routes.Rules {
		if _, err := requirementFromString(r.Require); err != nil {
			return fmt.Errorf("rule %d (%q): %w", i, r.Prefix, err)
		}
	}
	if _, err := c.Routes.table(); err != nil {
		return err
	}
	if c.Experiment.MaxAge < 0 {
		return fmt.Errorf("experiment max_age must not be negative")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session ttl must not be negative")
	}
	return nil
}

func requirementFromString(s string) (policy.Requirement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return policy.RequireNone, nil
	case "role":
		return policy.RequireRole, nil
	case "organisation", "org":
		return policy.RequireOrganisation, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidRequirement)
	}
}

func (rc RouteConfig) table() (*policy.Table, error) {
	rules := make([]policy.Rule, 0, len(rc.Rules))
	for _, r := range rc.Rules {
		req, err := requirementFromString(r.Require)
		if err != nil {
			return nil, err
		}
		rules = append(rules, policy.Rule{
			Prefix:  r.Prefix,
			Require: req,
			Roles:   append([]string(nil), r.Roles...),
		})
	}
	return policy.NewTable(rules)
}
