package accessgate

import (
	"context"

	"github.com/civicworks/accessgate/experiment"
)

// Role is one of the closed set of access levels minted into session
// claims by the authentication service.
type Role string

const (
	// RoleAdmin can reach the back-office admin surfaces.
	RoleAdmin Role = "ADMIN"
	// RoleManager administers a single organisation's assets.
	RoleManager Role = "MANAGER"
	// RoleTechnician works assigned maintenance jobs.
	RoleTechnician Role = "TECHNICIAN"
	// RoleCitizen is a public reporter account.
	RoleCitizen Role = "CITIZEN"
)

// Valid reports whether r is in the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTechnician, RoleCitizen:
		return true
	default:
		return false
	}
}

// Claims is the gate's read-only view of a verified session token.
type Claims struct {
	// Subject identifies the account.
	Subject string
	// Role is the account's access level.
	Role Role
	// OrganisationID is the tenant binding. Empty means the account has
	// not completed onboarding.
	OrganisationID string
}

// HasOrganisation reports whether the claims carry a tenant binding.
func (c *Claims) HasOrganisation() bool {
	return c != nil && c.OrganisationID != ""
}

// Verifier resolves a raw request credential into session claims. The gate
// calls Verify at most once per request and treats any error as absent
// claims; implementations should return their real error and let the gate
// degrade.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Claims, error)
}

// VerifierFunc adapts a function to the [Verifier] interface.
type VerifierFunc func(ctx context.Context, credential string) (*Claims, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, credential string) (*Claims, error) {
	return f(ctx, credential)
}

// Action says what the caller must do with the request.
type Action uint8

const (
	// ActionAllow forwards the request to the downstream router.
	ActionAllow Action = iota
	// ActionRedirect short-circuits the request with a 302 to
	// Decision.Location.
	ActionRedirect
)

// Decision is the gate's complete verdict for one request.
type Decision struct {
	Action Action
	// Location is the redirect target when Action is ActionRedirect.
	Location string
	// Reason is the symbolic outcome name: "allow", "sign_in",
	// "unauthorized", "onboarding", or "excluded".
	Reason string
	// Excluded reports that the path matched the static-asset exclusion
	// list and the gate skipped evaluation entirely.
	Excluded bool
	// Bucket is the caller's experiment arm.
	Bucket experiment.Bucket
	// AssignBucket reports that Bucket is a fresh assignment the caller
	// must persist via [Gate.AssignmentCookie].
	AssignBucket bool
	// Claims are the resolved session claims, nil when absent.
	Claims *Claims
}

// Request carries the three explicit gate inputs. Extracting them from an
// HTTP request is the middleware's job.
type Request struct {
	// Path is the URL path, without query string.
	Path string
	// Credential is the raw session credential (bearer token or opaque
	// session identifier). Empty when the client presented none.
	Credential string
	// ExperimentCookie is the raw experiment cookie value. Empty when the
	// client presented none.
	ExperimentCookie string
}
