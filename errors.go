package accessgate

import "errors"

var (
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrNoVerifier is returned by Build when no claims verifier was
	// configured.
	ErrNoVerifier = errors.New("gate requires a claims verifier")
	// ErrAmbiguousVerifier is returned by Build when more than one
	// verification backend was configured.
	ErrAmbiguousVerifier = errors.New("configure exactly one verification backend")
	// ErrUnknownRole is returned by the built-in verifiers for a token
	// whose role is outside the closed role set.
	ErrUnknownRole = errors.New("unknown role in session claims")
	// ErrInvalidRedirect is returned by Config validation for a redirect
	// target that is not an absolute path.
	ErrInvalidRedirect = errors.New("redirect target must start with /")
	// ErrInvalidRequirement is returned by Config validation for an
	// unrecognized rule requirement.
	ErrInvalidRequirement = errors.New("unknown rule requirement")
)
