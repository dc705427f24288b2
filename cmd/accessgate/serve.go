package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	accessgate "github.com/civicworks/accessgate"
	gatemw "github.com/civicworks/accessgate/middleware"
	"github.com/civicworks/accessgate/token"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gate in front of stub application routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return runServe(configPath)
		},
	}
	return cmd
}

func runServe(configPath string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, fc, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	auditOut, closeAudit, err := auditWriter(fc)
	if err != nil {
		return err
	}
	defer closeAudit()

	gate, cleanup, err := buildGate(cfg, fc, auditOut, false)
	if err != nil {
		return err
	}
	defer cleanup()

	router := chi.NewRouter()
	router.Use(requestLogger(logger))
	router.Use(gatemw.Interceptor(gate))
	mountStubRoutes(router, gate)

	server := &http.Server{
		Addr:              fc.Listen,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gate listening", zap.String("addr", fc.Listen))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

// auditWriter resolves the audit.output setting to an open file. "stdout",
// "stderr", and "" map to the process streams; anything else is an
// append-mode file path.
func auditWriter(fc fileConfig) (*os.File, func(), error) {
	switch fc.Audit.Output {
	case "", "stdout":
		return os.Stdout, func() {}, nil
	case "stderr":
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(fc.Audit.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("audit.output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// buildGate wires the verification backend the config selects: a Redis
// address means strict opaque sessions, otherwise a token secret is
// required for stateless verification.
func buildGate(cfg accessgate.Config, fc fileConfig, auditOut *os.File, allowAnonymous bool) (*accessgate.Gate, func(), error) {
	builder := accessgate.New().WithConfig(cfg)

	cleanup := func() {}
	switch {
	case fc.Redis.Addr != "":
		client := redis.NewClient(&redis.Options{Addr: fc.Redis.Addr})
		builder = builder.WithRedis(client)
		cleanup = func() { _ = client.Close() }
	case fc.Token.Secret != "":
		ttl := time.Hour
		if fc.Token.TTL != "" {
			parsed, err := time.ParseDuration(fc.Token.TTL)
			if err != nil {
				return nil, nil, fmt.Errorf("token.ttl: %w", err)
			}
			ttl = parsed
		}
		manager, err := token.NewManager(token.Config{
			TTL:           ttl,
			SigningMethod: token.MethodHS256,
			Key:           []byte(fc.Token.Secret),
			Issuer:        fc.Token.Issuer,
			Audience:      fc.Token.Audience,
		})
		if err != nil {
			return nil, nil, err
		}
		builder = builder.WithTokenManager(manager)
	case allowAnonymous:
		// No backend: every credential is unverifiable and degrades to
		// absent claims. Good enough for offline policy checks.
		builder = builder.WithVerifier(accessgate.VerifierFunc(
			func(context.Context, string) (*accessgate.Claims, error) {
				return nil, accessgate.ErrUnknownRole
			}))
	default:
		return nil, nil, errors.New("config needs either redis.addr or token.secret")
	}

	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(accessgate.NewJSONWriterSink(auditOut))
	}

	gate, err := builder.Build()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closeAll := func() {
		gate.Close()
		cleanup()
	}
	return gate, closeAll, nil
}

// mountStubRoutes stands in for the real application router so the gate
// can be exercised end to end with curl.
func mountStubRoutes(router chi.Router, gate *accessgate.Gate) {
	page := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			body := map[string]any{"page": name}
			if claims, ok := gatemw.ClaimsFromContext(r.Context()); ok {
				body["subject"] = claims.Subject
				body["role"] = string(claims.Role)
			}
			if bucket, ok := gatemw.BucketFromContext(r.Context()); ok {
				body["bucket"] = string(bucket)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
		}
	}

	router.Get("/", page("marketing"))
	router.Get("/auth/sign-in", page("sign-in"))
	router.Get("/unauthorized", page("unauthorized"))
	router.Get("/onboarding/welcome", page("onboarding"))
	router.Get("/dashboard", page("dashboard"))
	router.Get("/dashboard/*", page("dashboard"))
	router.Get("/admin", page("admin"))
	router.Get("/admin/*", page("admin"))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Get("/metricz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gate.MetricsSnapshot())
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
