// Package middleware adapts an accessgate.Gate to net/http. The
// [Interceptor] wraps a handler chain, extracts the gate's three inputs
// from each request (path, experiment cookie, session credential), and
// applies the resulting decision: forward, forward with a Set-Cookie, or
// short-circuit with a 302.
//
// Validated claims and the experiment bucket are injected into the request
// context for downstream handlers via [ClaimsFromContext] and
// [BucketFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Gate calls. It does NOT
// implement access-control logic itself — all decisions are delegated to
// Gate.Evaluate.
//
// # What this package must NOT do
//
//   - Parse or verify tokens directly (delegates to the Gate's verifier).
//   - Answer a gated request with a 4xx/5xx body; redirects only.
//   - Skip the experiment cookie on redirect responses.
package middleware
