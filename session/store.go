package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civicworks/accessgate/internal"
)

var (
	// ErrNotFound is returned by Get for an unknown or expired identifier.
	ErrNotFound = errors.New("session not found")
	// ErrRedisUnavailable wraps transport-level Redis failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrCorruptRecord is returned when a stored blob does not decode.
	ErrCorruptRecord = errors.New("session record corrupt")
	// ErrInvalidTTL is returned by Create for a non-positive lifetime.
	ErrInvalidTTL = errors.New("invalid session TTL")
)

const defaultPrefix = "cw:gate"

// Store persists session records in Redis. Safe for concurrent use.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore wraps client with the given key prefix. An empty prefix falls
// back to "cw:gate".
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

// Create mints a fresh identifier, stamps the record, and writes it with
// the given TTL. The populated record is returned with ID, CreatedAt, and
// ExpiresAt set.
func (s *Store) Create(ctx context.Context, sess Session, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("mint session id: %w", err)
	}

	now := time.Now()
	sess.ID = sid.String()
	sess.CreatedAt = now.Unix()
	sess.ExpiresAt = now.Add(ttl).Unix()

	blob, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), blob, ttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return &sess, nil
}

// Get resolves an opaque identifier to its record. The identifier is
// validated before Redis is consulted so malformed credentials never cost
// a round-trip.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := internal.ParseSessionID(id); err != nil {
		return nil, ErrNotFound
	}

	blob, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return &sess, nil
}

// Delete removes a record. Deleting an unknown identifier is not an error;
// sign-out must be idempotent.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := internal.ParseSessionID(id); err != nil {
		return nil
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping checks Redis liveness and reports the round-trip time.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
