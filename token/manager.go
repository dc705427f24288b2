package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the JWT signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a shared HMAC secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrInvalidTTL is returned by NewManager for a non-positive token
	// lifetime.
	ErrInvalidTTL = errors.New("invalid token TTL")
	// ErrInvalidLeeway is returned for a negative or excessive clock-skew
	// allowance.
	ErrInvalidLeeway = errors.New("invalid clock-skew leeway")
	// ErrMissingKey is returned when the configured method has no usable
	// key material.
	ErrMissingKey = errors.New("signing method requires key material")
	// ErrUnsupportedMethod is returned for an unknown signing method.
	ErrUnsupportedMethod = errors.New("unsupported signing method")
)

const maxLeeway = 2 * time.Minute

// SessionClaims is the decoded payload of a session token.
type SessionClaims struct {
	// Role is the caller's access level, one of the closed role set the
	// gate's policy table references.
	Role string `json:"role"`
	// Org is the caller's organisation binding. Empty means the account
	// has not completed onboarding.
	Org string `json:"org,omitempty"`
	jwt.RegisteredClaims
}

// Config holds key material and parser constraints for a [Manager].
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	// Key is the HMAC secret for hs256 or the seed/private key for
	// ed25519 minting.
	Key []byte
	// PublicKey is the ed25519 verification key. Ignored for hs256.
	PublicKey []byte
	Issuer    string
	Audience  string
	Leeway    time.Duration
}

// Manager mints and verifies session tokens. Immutable after construction.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, ErrInvalidLeeway
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Key) == 0 {
			return nil, ErrMissingKey
		}
	case MethodEd25519:
		if len(cfg.Key) > 0 {
			if _, err := edPrivateKey(cfg.Key); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) == 0 {
			return nil, ErrMissingKey
		}
		if _, err := edPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedMethod
	}
	return &Manager{config: cfg}, nil
}

// Mint signs a session token for subject with the given role and
// organisation binding. org may be empty for accounts that have not been
// bound to a tenant yet.
func (m *Manager) Mint(subject, role, org string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Role: role,
		Org:  org,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	tok := jwt.NewWithClaims(m.method(), claims)
	key, err := m.signKey()
	if err != nil {
		return "", err
	}
	return tok.SignedString(key)
}

// Verify parses and validates raw and returns its claims.
func (m *Manager) Verify(raw string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey()
	})
	if err != nil {
		return nil, err
	}

	claims, ok := tok.Claims.(*SessionClaims)
	if !ok || !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (m *Manager) signKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.Key, nil
	default:
		return edPrivateKey(m.config.Key)
	}
}

func (m *Manager) verifyKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.Key, nil
	default:
		return edPublicKey(m.config.PublicKey)
	}
}

func edPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func edPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
