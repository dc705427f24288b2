// Package policy implements the ordered prefix-rule table that decides what
// each request path requires from the caller's session claims.
//
// A [Table] is pure data: rules are evaluated top-to-bottom and the first rule
// whose prefix matches the path decides the outcome. Prefix matching is a
// literal string-prefix test, never a glob or pattern match. A path that
// matches no rule is always allowed.
//
// # Architecture boundaries
//
// policy knows nothing about HTTP, cookies, tokens, or Redis. It consumes a
// path string and an already-resolved [Subject] and produces an [Outcome].
// Resolving credentials into a Subject is the gate's job.
//
// # What this package must NOT do
//
//   - Perform I/O of any kind.
//   - Inspect request headers or cookies.
//   - Construct redirect URLs (outcomes are symbolic; targets live in the
//     gate configuration).
package policy
