package session

// Session is one server-side session record. Written once at sign-in,
// read-only afterwards.
type Session struct {
	// ID is the opaque identifier presented by the client, the base64url
	// form of a 128-bit random value.
	ID string `json:"id"`
	// UserID identifies the account the session belongs to.
	UserID string `json:"user_id"`
	// Role is the account's access level at sign-in time.
	Role string `json:"role"`
	// OrganisationID is the tenant binding. Empty until the account
	// completes onboarding.
	OrganisationID string `json:"organisation_id,omitempty"`
	// CreatedAt and ExpiresAt are Unix seconds.
	CreatedAt int64 `json:"created_at"`
	ExpiresAt int64 `json:"expires_at"`
}
