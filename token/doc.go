// Package token mints and verifies the signed session tokens the gate
// inspects. Tokens are standard JWTs carrying the caller's role and an
// optional organisation binding alongside the registered claims.
//
// Verification is stateless: a [Manager] holds only key material and parser
// options, so Verify never performs I/O and is safe for concurrent use.
//
// # What this package must NOT do
//
//   - Decide anything about routes. It reports claims; the policy table
//     judges them.
//   - Swallow verification errors. Fail-soft degradation is the gate's
//     responsibility, not the verifier's.
package token
