// Package accessgate provides the request-interception gate that fronts the
// CivicWorks web application: role-based route protection, session
// bootstrap checks, and stable A/B experiment bucketing, evaluated once per
// inbound request.
//
// The gate is a pure function of three explicit inputs — the request path,
// the experiment cookie the client presented, and the claims resolved from
// its session credential — and produces exactly one [Decision]: forward the
// request, forward it with a fresh experiment cookie, or redirect it to the
// sign-in, unauthorized, or onboarding page. It never answers a request
// with an error status; verification failures degrade to "no claims" and
// the most restrictive applicable redirect.
//
// The package is designed for concurrent server workloads: Gate methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// accessgate is the public surface. It exposes [Gate], [Builder], [Config],
// and value types (Decision, Claims, AuditEvent, MetricsSnapshot). Route
// policy lives in the policy subpackage, bucketing in experiment, and the
// two claim verifiers in token (stateless JWT) and session (Redis-backed
// opaque identifiers). The middleware subpackage adapts a Gate to net/http.
//
// # What this package must NOT do
//
//   - Render pages, touch the application database, or know route handlers.
//   - Persist anything itself; the only write it requests is the Set-Cookie
//     the caller attaches to the response.
//   - Surface a verifier failure to the client as an error response.
//
// # Performance contract
//
// Evaluate is the hot path. Policy matching and bucket assignment are pure
// local computation; the single suspension point is claims resolution,
// which inherits cancellation from the request context and is attempted
// exactly once per request.
package accessgate
