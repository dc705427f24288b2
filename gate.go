package accessgate

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/accessgate/experiment"
	"github.com/civicworks/accessgate/policy"
	"github.com/civicworks/accessgate/session"
	"github.com/civicworks/accessgate/token"
)

// Gate evaluates every intercepted request against the exclusion list, the
// experiment assigner, and the policy table. Immutable after Build; safe
// for concurrent use.
type Gate struct {
	config     Config
	table      *policy.Table
	exclusions *policy.ExclusionList
	assigner   *experiment.Assigner
	verifier   Verifier
	audit      *auditDispatcher
	metrics    *Metrics
}

func policyExclusions(cfg Config) *policy.ExclusionList {
	return policy.NewExclusionList(cfg.Routes.Exclusions)
}

// Evaluate runs the full per-request algorithm: exclusion match, bucket
// assignment, fail-soft claims resolution, then the ordered prefix rules.
// It never returns an error; every failure mode collapses into the most
// restrictive applicable redirect.
func (g *Gate) Evaluate(ctx context.Context, req Request) Decision {
	if g == nil {
		return Decision{Action: ActionAllow, Reason: "allow"}
	}
	start := time.Now()

	if g.exclusions.Match(req.Path) {
		g.metrics.Inc(MetricRequestExcluded)
		return Decision{Action: ActionAllow, Reason: "excluded", Excluded: true}
	}

	decisionID := ""
	if g.audit != nil {
		decisionID = uuid.NewString()
	}

	var (
		bucket experiment.Bucket
		fresh  bool
	)
	if g.assigner != nil {
		bucket, fresh = g.assigner.Assign(req.ExperimentCookie)
		if fresh {
			g.metrics.Inc(MetricBucketAssigned)
			g.audit.Emit(ctx, AuditEvent{
				Timestamp:  time.Now(),
				EventType:  "experiment.assign",
				DecisionID: decisionID,
				Path:       req.Path,
				Bucket:     string(bucket),
				Allowed:    true,
			})
		}
	}

	claims, verifyErr := g.resolveClaims(ctx, req.Credential)

	outcome := g.table.Evaluate(req.Path, subjectOf(claims))
	decision := Decision{
		Reason:       outcome.String(),
		Bucket:       bucket,
		AssignBucket: fresh,
		Claims:       claims,
	}
	switch outcome {
	case policy.OutcomeSignIn:
		decision.Action = ActionRedirect
		decision.Location = g.config.Redirects.SignIn
		g.metrics.Inc(MetricRedirectSignIn)
	case policy.OutcomeUnauthorized:
		decision.Action = ActionRedirect
		decision.Location = g.config.Redirects.Unauthorized
		g.metrics.Inc(MetricRedirectUnauthorized)
	case policy.OutcomeOnboarding:
		decision.Action = ActionRedirect
		decision.Location = g.config.Redirects.Onboarding
		g.metrics.Inc(MetricRedirectOnboarding)
	default:
		decision.Action = ActionAllow
		g.metrics.Inc(MetricRequestAllowed)
	}

	g.emitDecision(ctx, decisionID, req, decision, verifyErr)
	g.metrics.Observe(MetricEvaluateLatency, time.Since(start))
	return decision
}

// resolveClaims performs the single-shot, fail-soft verifier call. Any
// error, including an out-of-set role, degrades to absent claims.
func (g *Gate) resolveClaims(ctx context.Context, credential string) (*Claims, error) {
	if credential == "" || g.verifier == nil {
		return nil, nil
	}
	claims, err := g.verifier.Verify(ctx, credential)
	if err != nil {
		g.metrics.Inc(MetricVerifyFailSoft)
		return nil, err
	}
	if claims == nil || !claims.Role.Valid() {
		g.metrics.Inc(MetricVerifyFailSoft)
		return nil, ErrUnknownRole
	}
	return claims, nil
}

func subjectOf(claims *Claims) policy.Subject {
	if claims == nil {
		return policy.Subject{}
	}
	return policy.Subject{
		Authenticated:   true,
		Role:            string(claims.Role),
		HasOrganisation: claims.HasOrganisation(),
	}
}

func (g *Gate) emitDecision(ctx context.Context, decisionID string, req Request, d Decision, verifyErr error) {
	if g.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp:  time.Now(),
		DecisionID: decisionID,
		Path:       req.Path,
		Bucket:     string(d.Bucket),
		Reason:     d.Reason,
		Allowed:    d.Action == ActionAllow,
	}
	if d.Action == ActionAllow {
		event.EventType = "gate.allow"
	} else {
		event.EventType = "gate.redirect"
		event.Redirect = d.Location
	}
	if d.Claims != nil {
		event.Subject = d.Claims.Subject
		event.Role = string(d.Claims.Role)
		event.Organisation = d.Claims.OrganisationID
	}
	if verifyErr != nil {
		event.Error = verifyErr.Error()
	}
	g.audit.Emit(ctx, event)
}

// AssignmentCookie builds the Set-Cookie payload for a fresh bucket
// assignment.
func (g *Gate) AssignmentCookie(b experiment.Bucket) *http.Cookie {
	if g == nil || g.assigner == nil {
		return nil
	}
	return g.assigner.Cookie(b)
}

// AssignmentCookieName returns the experiment cookie name, or "" when the
// experiment is disabled.
func (g *Gate) AssignmentCookieName() string {
	if g == nil || g.assigner == nil {
		return ""
	}
	return g.assigner.CookieName()
}

// SessionCookieName returns the cookie the middleware reads as a fallback
// credential source.
func (g *Gate) SessionCookieName() string {
	if g == nil {
		return ""
	}
	return g.config.Session.CookieName
}

// MetricsSnapshot deep-copies the gate's counters.
func (g *Gate) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}

// AuditDropped reports how many audit events the dispatcher dropped under
// pressure.
func (g *Gate) AuditDropped() uint64 {
	if g == nil {
		return 0
	}
	return g.audit.Dropped()
}

// Close flushes and stops the audit dispatcher.
func (g *Gate) Close() {
	if g == nil {
		return
	}
	g.audit.Close()
}

/*
====================================
BUILT-IN VERIFIERS
====================================
*/

// tokenVerifier adapts token.Manager to the Verifier interface.
type tokenVerifier struct {
	manager *token.Manager
}

func (v tokenVerifier) Verify(_ context.Context, credential string) (*Claims, error) {
	claims, err := v.manager.Verify(credential)
	if err != nil {
		return nil, err
	}
	return &Claims{
		Subject:        claims.Subject,
		Role:           Role(claims.Role),
		OrganisationID: claims.Org,
	}, nil
}

// sessionVerifier adapts the Redis session store to the Verifier interface.
type sessionVerifier struct {
	store *session.Store
}

func (v sessionVerifier) Verify(ctx context.Context, credential string) (*Claims, error) {
	sess, err := v.store.Get(ctx, credential)
	if err != nil {
		return nil, err
	}
	return &Claims{
		Subject:        sess.UserID,
		Role:           Role(sess.Role),
		OrganisationID: sess.OrganisationID,
	}, nil
}
