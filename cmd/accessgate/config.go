package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	accessgate "github.com/civicworks/accessgate"
)

// fileConfig is the on-disk schema. It mirrors accessgate.Config but keeps
// durations as strings ("24h", "4320h") and adds the server-only settings
// the library has no business knowing.
type fileConfig struct {
	Listen string `yaml:"listen"`

	Redis struct {
		Addr   string `yaml:"addr"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	Token struct {
		Secret   string `yaml:"secret"`
		Issuer   string `yaml:"issuer"`
		Audience string `yaml:"audience"`
		TTL      string `yaml:"ttl"`
	} `yaml:"token"`

	Routes struct {
		Rules []struct {
			Prefix  string   `yaml:"prefix"`
			Require string   `yaml:"require"`
			Roles   []string `yaml:"roles"`
		} `yaml:"rules"`
		Exclusions []string `yaml:"exclusions"`
	} `yaml:"routes"`

	Redirects struct {
		SignIn       string `yaml:"sign_in"`
		Unauthorized string `yaml:"unauthorized"`
		Onboarding   string `yaml:"onboarding"`
	} `yaml:"redirects"`

	Experiment struct {
		Enabled    *bool  `yaml:"enabled"`
		CookieName string `yaml:"cookie_name"`
		MaxAge     string `yaml:"max_age"`
	} `yaml:"experiment"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		TTL        string `yaml:"ttl"`
	} `yaml:"session"`

	Audit struct {
		Enabled    bool   `yaml:"enabled"`
		BufferSize int    `yaml:"buffer_size"`
		DropIfFull *bool  `yaml:"drop_if_full"`
		Output     string `yaml:"output"`
	} `yaml:"audit"`

	Metrics struct {
		Enabled           *bool `yaml:"enabled"`
		LatencyHistograms bool  `yaml:"latency_histograms"`
	} `yaml:"metrics"`
}

// loadConfig reads path (when non-empty) and folds it over the library
// defaults. A missing file is an error; an empty path means pure defaults.
func loadConfig(path string) (accessgate.Config, fileConfig, error) {
	cfg := accessgate.DefaultConfig()
	var fc fileConfig
	fc.Listen = ":8080"

	if path == "" {
		return cfg, fc, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fc, fmt.Errorf("parse config: %w", err)
	}
	if fc.Listen == "" {
		fc.Listen = ":8080"
	}

	if len(fc.Routes.Rules) > 0 {
		cfg.Routes.Rules = cfg.Routes.Rules[:0]
		for _, r := range fc.Routes.Rules {
			cfg.Routes.Rules = append(cfg.Routes.Rules, accessgate.RouteRule{
				Prefix:  r.Prefix,
				Require: r.Require,
				Roles:   r.Roles,
			})
		}
	}
	if len(fc.Routes.Exclusions) > 0 {
		cfg.Routes.Exclusions = fc.Routes.Exclusions
	}

	if fc.Redirects.SignIn != "" {
		cfg.Redirects.SignIn = fc.Redirects.SignIn
	}
	if fc.Redirects.Unauthorized != "" {
		cfg.Redirects.Unauthorized = fc.Redirects.Unauthorized
	}
	if fc.Redirects.Onboarding != "" {
		cfg.Redirects.Onboarding = fc.Redirects.Onboarding
	}

	if fc.Experiment.Enabled != nil {
		cfg.Experiment.Enabled = *fc.Experiment.Enabled
	}
	if fc.Experiment.CookieName != "" {
		cfg.Experiment.CookieName = fc.Experiment.CookieName
	}
	if cfg.Experiment.MaxAge, err = overrideDuration(cfg.Experiment.MaxAge, fc.Experiment.MaxAge); err != nil {
		return cfg, fc, fmt.Errorf("experiment.max_age: %w", err)
	}

	if fc.Session.CookieName != "" {
		cfg.Session.CookieName = fc.Session.CookieName
	}
	if fc.Redis.Prefix != "" {
		cfg.Session.RedisPrefix = fc.Redis.Prefix
	}
	if cfg.Session.TTL, err = overrideDuration(cfg.Session.TTL, fc.Session.TTL); err != nil {
		return cfg, fc, fmt.Errorf("session.ttl: %w", err)
	}

	cfg.Audit.Enabled = fc.Audit.Enabled
	if fc.Audit.BufferSize > 0 {
		cfg.Audit.BufferSize = fc.Audit.BufferSize
	}
	if fc.Audit.DropIfFull != nil {
		cfg.Audit.DropIfFull = *fc.Audit.DropIfFull
	}

	if fc.Metrics.Enabled != nil {
		cfg.Metrics.Enabled = *fc.Metrics.Enabled
	}
	cfg.Metrics.EnableLatencyHistograms = fc.Metrics.LatencyHistograms

	if err := cfg.Validate(); err != nil {
		return cfg, fc, err
	}
	return cfg, fc, nil
}

func overrideDuration(current time.Duration, raw string) (time.Duration, error) {
	if raw == "" {
		return current, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return current, err
	}
	return d, nil
}
