package policy

import (
	"errors"
	"testing"
)

func defaultTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable([]Rule{
		{Prefix: "/admin", Require: RequireRole, Roles: []string{"ADMIN"}},
		{Prefix: "/dashboard", Require: RequireOrganisation},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func TestTableEvaluateOrdering(t *testing.T) {
	table := defaultTestTable(t)

	tests := []struct {
		name string
		path string
		sub  Subject
		want Outcome
	}{
		{
			name: "ungated path never redirects",
			path: "/",
			sub:  Subject{},
			want: OutcomeAllow,
		},
		{
			name: "ungated path with claims never redirects",
			path: "/about/pricing",
			sub:  Subject{Authenticated: true, Role: "CITIZEN"},
			want: OutcomeAllow,
		},
		{
			name: "admin without claims goes to sign-in",
			path: "/admin/triage",
			sub:  Subject{},
			want: OutcomeSignIn,
		},
		{
			name: "admin with wrong role is unauthorized",
			path: "/admin/notifications",
			sub:  Subject{Authenticated: true, Role: "MANAGER", HasOrganisation: true},
			want: OutcomeUnauthorized,
		},
		{
			name: "admin with admin role passes",
			path: "/admin",
			sub:  Subject{Authenticated: true, Role: "ADMIN"},
			want: OutcomeAllow,
		},
		{
			name: "dashboard without claims goes to sign-in",
			path: "/dashboard",
			sub:  Subject{},
			want: OutcomeSignIn,
		},
		{
			name: "dashboard without organisation goes to onboarding",
			path: "/dashboard",
			sub:  Subject{Authenticated: true, Role: "MANAGER"},
			want: OutcomeOnboarding,
		},
		{
			name: "dashboard with organisation passes",
			path: "/dashboard/assets/42",
			sub:  Subject{Authenticated: true, Role: "MANAGER", HasOrganisation: true},
			want: OutcomeAllow,
		},
		{
			name: "prefix match is literal not segment-aware",
			path: "/administrator",
			sub:  Subject{},
			want: OutcomeSignIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Evaluate(tt.path, tt.sub)
			if got != tt.want {
				t.Fatalf("Evaluate(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestTableFirstMatchWins(t *testing.T) {
	// Overlapping prefixes: the earlier role rule must shadow the later
	// organisation rule so only one redirect can ever apply.
	table, err := NewTable([]Rule{
		{Prefix: "/dashboard/admin", Require: RequireRole, Roles: []string{"ADMIN"}},
		{Prefix: "/dashboard", Require: RequireOrganisation},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	// Wrong role AND missing organisation: role precedence applies.
	sub := Subject{Authenticated: true, Role: "MANAGER"}
	if got := table.Evaluate("/dashboard/admin/users", sub); got != OutcomeUnauthorized {
		t.Fatalf("expected unauthorized from the earlier rule, got %v", got)
	}
	if got := table.Evaluate("/dashboard/home", sub); got != OutcomeOnboarding {
		t.Fatalf("expected onboarding from the later rule, got %v", got)
	}
}

func TestTableRequireNonePunchesHole(t *testing.T) {
	table, err := NewTable([]Rule{
		{Prefix: "/admin/health", Require: RequireNone},
		{Prefix: "/admin", Require: RequireRole, Roles: []string{"ADMIN"}},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	if got := table.Evaluate("/admin/health", Subject{}); got != OutcomeAllow {
		t.Fatalf("expected hole to allow, got %v", got)
	}
	if got := table.Evaluate("/admin/users", Subject{}); got != OutcomeSignIn {
		t.Fatalf("expected sign-in below the hole, got %v", got)
	}
}

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want error
	}{
		{"empty prefix", Rule{Prefix: "", Require: RequireOrganisation}, ErrEmptyPrefix},
		{"relative prefix", Rule{Prefix: "admin", Require: RequireOrganisation}, ErrRelativePrefix},
		{"role rule without roles", Rule{Prefix: "/admin", Require: RequireRole}, ErrNoRoles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable([]Rule{tt.rule})
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewTable error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewTableCopiesInput(t *testing.T) {
	rules := []Rule{{Prefix: "/admin", Require: RequireRole, Roles: []string{"ADMIN"}}}
	table, err := NewTable(rules)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	rules[0].Prefix = "/mutated"
	if got := table.Evaluate("/admin/x", Subject{}); got != OutcomeSignIn {
		t.Fatalf("table must not observe caller mutation, got %v", got)
	}
}

func TestNilTableAllowsEverything(t *testing.T) {
	var table *Table
	if got := table.Evaluate("/admin", Subject{}); got != OutcomeAllow {
		t.Fatalf("nil table must allow, got %v", got)
	}
	if table.Len() != 0 {
		t.Fatalf("nil table length = %d", table.Len())
	}
}

func TestExclusionList(t *testing.T) {
	l := NewExclusionList([]string{"/_next/static", "/_next/image", "/favicon.ico", "  ", ""})

	tests := []struct {
		path string
		want bool
	}{
		{"/_next/static/chunks/main.js", true},
		{"/_next/image", true},
		{"/_next/image/", true},
		{"/favicon.ico", true},
		{"/favicon.ico.bak", false},
		{"/admin", false},
		{"/", false},
	}
	for _, tt := range tests {
		if got := l.Match(tt.path); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNilExclusionListMatchesNothing(t *testing.T) {
	var l *ExclusionList
	if l.Match("/_next/static/x") {
		t.Fatal("nil exclusion list must not match")
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OutcomeAllow, "allow"},
		{OutcomeSignIn, "sign_in"},
		{OutcomeUnauthorized, "unauthorized"},
		{OutcomeOnboarding, "onboarding"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}
