// Package experiment assigns and preserves the per-client A/B presentation
// bucket carried in a browser cookie.
//
// An [Assigner] is a pure decision function: given the cookie value the
// client presented, it either keeps a valid existing bucket untouched or
// draws a fresh one from its coin. Assignment is opportunistic and never
// blocks or fails a request. Once a client holds a valid bucket it is never
// re-rolled for the cookie's retention window.
//
// The coin is injected so tests can drive deterministic sequences; the
// default coin is the shared math/rand/v2 generator, which is safe for
// concurrent use.
package experiment
