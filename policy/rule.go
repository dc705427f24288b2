package policy

import (
	"errors"
	"fmt"
	"strings"
)

// Requirement names what a matched prefix demands from the caller.
type Requirement uint8

const (
	// RequireNone matches without gating. Useful to punch an open hole
	// above a broader gated prefix.
	RequireNone Requirement = iota
	// RequireRole demands an authenticated session whose role is in the
	// rule's permitted set.
	RequireRole
	// RequireOrganisation demands an authenticated session bound to an
	// organisation.
	RequireOrganisation
)

// Outcome is the symbolic result of evaluating a path against a table.
type Outcome uint8

const (
	// OutcomeAllow forwards the request unchanged.
	OutcomeAllow Outcome = iota
	// OutcomeSignIn redirects an unauthenticated caller to sign-in.
	OutcomeSignIn
	// OutcomeUnauthorized redirects an authenticated caller whose role is
	// outside the permitted set.
	OutcomeUnauthorized
	// OutcomeOnboarding redirects an authenticated caller that lacks an
	// organisation binding.
	OutcomeOnboarding
)

// String returns a stable lowercase name used in audit events and metrics
// labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeSignIn:
		return "sign_in"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeOnboarding:
		return "onboarding"
	default:
		return "allow"
	}
}

// Subject is the gate's already-resolved view of the caller. A nil Subject
// pointer is never used; absence of claims is Authenticated == false.
type Subject struct {
	Authenticated   bool
	Role            string
	HasOrganisation bool
}

// Rule binds one literal path prefix to a requirement. Roles is consulted
// only when Require is [RequireRole].
type Rule struct {
	Prefix  string
	Require Requirement
	Roles   []string
}

var (
	// ErrEmptyPrefix is returned by Table validation for a rule whose
	// prefix is blank.
	ErrEmptyPrefix = errors.New("rule prefix must not be empty")
	// ErrRelativePrefix is returned for a prefix that does not start
	// with "/".
	ErrRelativePrefix = errors.New("rule prefix must start with /")
	// ErrNoRoles is returned for a RequireRole rule with an empty
	// permitted set.
	ErrNoRoles = errors.New("role rule requires at least one permitted role")
)

// Table is an ordered list of rules. Order is the only precedence mechanism:
// the first matching rule decides and later rules are never consulted.
type Table struct {
	rules []Rule
}

// NewTable copies rules into a Table after validating each one.
func NewTable(rules []Rule) (*Table, error) {
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, r.Prefix, err)
		}
	}
	t := &Table{rules: make([]Rule, len(rules))}
	copy(t.rules, rules)
	return t, nil
}

func validateRule(r Rule) error {
	if r.Prefix == "" {
		return ErrEmptyPrefix
	}
	if !strings.HasPrefix(r.Prefix, "/") {
		return ErrRelativePrefix
	}
	if r.Require == RequireRole && len(r.Roles) == 0 {
		return ErrNoRoles
	}
	return nil
}

// Len reports the number of rules in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Evaluate walks the table top-to-bottom and returns the outcome of the
// first rule whose prefix matches path. Exactly one rule applies per
// request, so a caller can never accumulate more than one redirect.
func (t *Table) Evaluate(path string, sub Subject) Outcome {
	if t == nil {
		return OutcomeAllow
	}
	for _, r := range t.rules {
		if !strings.HasPrefix(path, r.Prefix) {
			continue
		}
		return apply(r, sub)
	}
	return OutcomeAllow
}

func apply(r Rule, sub Subject) Outcome {
	switch r.Require {
	case RequireRole:
		if !sub.Authenticated {
			return OutcomeSignIn
		}
		for _, role := range r.Roles {
			if sub.Role == role {
				return OutcomeAllow
			}
		}
		return OutcomeUnauthorized
	case RequireOrganisation:
		if !sub.Authenticated {
			return OutcomeSignIn
		}
		if !sub.HasOrganisation {
			return OutcomeOnboarding
		}
		return OutcomeAllow
	default:
		return OutcomeAllow
	}
}
