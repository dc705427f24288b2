// Package session provides the Redis-backed store behind the gate's strict
// verification mode, where the session credential is an opaque identifier
// and the claims live server-side.
//
// A [Store] persists one [Session] record per identifier under a
// configurable key prefix with a TTL. Records are immutable once written;
// sign-out deletes them. Redis transport failures surface as
// [ErrRedisUnavailable] so the gate can degrade fail-soft without
// inspecting driver errors.
//
// # Architecture boundaries
//
// session owns the Redis key layout and record encoding. It does not parse
// HTTP requests and it does not judge paths; it resolves an identifier to a
// record, nothing more.
package session
