package middleware

import (
	"context"
	"net/http"
	"strings"

	accessgate "github.com/civicworks/accessgate"
	"github.com/civicworks/accessgate/experiment"
)

type claimsContextKey struct{}
type bucketContextKey struct{}

// ClaimsFromContext returns the claims the gate resolved for this request.
// Absent for unauthenticated and excluded requests.
func ClaimsFromContext(ctx context.Context) (*accessgate.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*accessgate.Claims)
	return claims, ok
}

// BucketFromContext returns the experiment bucket bound to this request's
// client, whether carried in or freshly assigned.
func BucketFromContext(ctx context.Context) (experiment.Bucket, bool) {
	bucket, ok := ctx.Value(bucketContextKey{}).(experiment.Bucket)
	return bucket, ok
}

// Interceptor gates every request through gate. A nil gate passes all
// requests through untouched.
func Interceptor(gate *accessgate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate == nil {
				next.ServeHTTP(w, r)
				return
			}

			decision := gate.Evaluate(r.Context(), accessgate.Request{
				Path:             r.URL.Path,
				Credential:       credential(gate, r),
				ExperimentCookie: cookieValue(r, gate.AssignmentCookieName()),
			})

			if decision.AssignBucket {
				if c := gate.AssignmentCookie(decision.Bucket); c != nil {
					http.SetCookie(w, c)
				}
			}

			if decision.Action == accessgate.ActionRedirect {
				http.Redirect(w, r, decision.Location, http.StatusFound)
				return
			}

			ctx := r.Context()
			if decision.Claims != nil {
				ctx = context.WithValue(ctx, claimsContextKey{}, decision.Claims)
			}
			if decision.Bucket != "" {
				ctx = context.WithValue(ctx, bucketContextKey{}, decision.Bucket)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// credential pulls the session credential from the Authorization header,
// falling back to the session cookie.
func credential(gate *accessgate.Gate, r *http.Request) string {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return cookieValue(r, gate.SessionCookieName())
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
