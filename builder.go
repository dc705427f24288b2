package accessgate

import (
	"github.com/redis/go-redis/v9"

	"github.com/civicworks/accessgate/experiment"
	"github.com/civicworks/accessgate/session"
	"github.com/civicworks/accessgate/token"
)

// Builder assembles a [Gate]. Zero I/O happens before Build; construction
// is allocation-only.
type Builder struct {
	config Config

	verifier     Verifier
	tokenManager *token.Manager
	redis        *redis.Client

	auditSink AuditSink
	coin      func() int

	built bool
}

// New starts a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire config.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithVerifier installs a custom claims verifier, bypassing the built-in
// token and session backends.
func (b *Builder) WithVerifier(v Verifier) *Builder {
	b.verifier = v
	return b
}

// WithTokenManager selects stateless JWT verification.
func (b *Builder) WithTokenManager(m *token.Manager) *Builder {
	b.tokenManager = m
	return b
}

// WithRedis selects strict verification against Redis-backed opaque
// sessions.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink installs the audit destination. Audit must also be enabled
// in the config to take effect.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithCoin overrides the experiment random source with a function
// returning 0 or 1. Intended for deterministic tests.
func (b *Builder) WithCoin(coin func() int) *Builder {
	b.coin = coin
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Evaluate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the selected verification
// backend, and returns a ready Gate. A Builder can build once.
func (b *Builder) Build() (*Gate, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	table, err := cfg.Routes.table()
	if err != nil {
		return nil, err
	}

	verifier, err := b.selectVerifier(cfg)
	if err != nil {
		return nil, err
	}

	var assigner *experiment.Assigner
	if cfg.Experiment.Enabled {
		assigner, err = experiment.NewAssigner(experiment.Config{
			CookieName: cfg.Experiment.CookieName,
			MaxAge:     cfg.Experiment.MaxAge,
			Coin:       b.coin,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Gate{
		config:     cfg,
		table:      table,
		exclusions: policyExclusions(cfg),
		assigner:   assigner,
		verifier:   verifier,
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
	}, nil
}

func (b *Builder) selectVerifier(cfg Config) (Verifier, error) {
	configured := 0
	if b.verifier != nil {
		configured++
	}
	if b.tokenManager != nil {
		configured++
	}
	if b.redis != nil {
		configured++
	}
	switch {
	case configured == 0:
		return nil, ErrNoVerifier
	case configured > 1:
		return nil, ErrAmbiguousVerifier
	}

	if b.verifier != nil {
		return b.verifier, nil
	}
	if b.tokenManager != nil {
		return tokenVerifier{manager: b.tokenManager}, nil
	}
	return sessionVerifier{
		store: session.NewStore(b.redis, cfg.Session.RedisPrefix),
	}, nil
}
