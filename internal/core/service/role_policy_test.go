package service

import (
	"testing"

	"github.com/jaibharat/management-hub/internal/core/domain"
)

var testAdmins = []string{"admin@jbi.ac.in", "testadmin@example.com"}

func TestRolePolicy_AdminAllowList(t *testing.T) {
	policy := NewRolePolicy(testAdmins)

	cases := []struct {
		name  string
		email string
		want  bool
	}{
		{"exact entry", "testadmin@example.com", true},
		{"second entry", "admin@jbi.ac.in", true},
		{"differs only in case", "TestAdmin@example.com", false},
		{"upper-cased domain", "admin@JBI.ac.in", false},
		{"not listed", "random@x.com", false},
		{"same domain wildcard", "other@jbi.ac.in", false},
		{"missing email", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := domain.Identity{UID: "u1", Email: tc.email}
			if got := policy.IsAuthorized(domain.AdminGroup.Roles, id); got != tc.want {
				t.Fatalf("IsAuthorized(%q) = %v, want %v", tc.email, got, tc.want)
			}
		})
	}
}

func TestRolePolicy_StudentGroupAcceptsAnyIdentity(t *testing.T) {
	policy := NewRolePolicy(testAdmins)

	for _, id := range []domain.Identity{
		{UID: "s1", Email: "student@example.com"},
		{UID: "s2"},
		{UID: "a1", Email: "admin@jbi.ac.in"},
	} {
		if !policy.IsAuthorized(domain.StudentGroup.Roles, id) {
			t.Fatalf("expected %+v to be authorized for the student group", id)
		}
	}
}

func TestRolePolicy_EmptyRolesAcceptAuthenticated(t *testing.T) {
	policy := NewRolePolicy(nil)
	if !policy.IsAuthorized(nil, domain.Identity{UID: "u"}) {
		t.Fatalf("empty role set should accept any authenticated identity")
	}
}

func TestRolePolicy_EmptyAllowListFailsClosed(t *testing.T) {
	for _, list := range [][]string{nil, {}, {""}, {" ", ""}} {
		policy := NewRolePolicy(list)
		if policy.AdminCount() != 0 {
			t.Fatalf("expected no admins for %q, got %d", list, policy.AdminCount())
		}
		if policy.IsAuthorized(domain.AdminGroup.Roles, domain.Identity{UID: "u", Email: "admin@jbi.ac.in"}) {
			t.Fatalf("empty allow-list must not authorize admins")
		}
	}
}

func TestRolePolicy_TrimsConfiguredEntries(t *testing.T) {
	policy := NewRolePolicy([]string{" admin@jbi.ac.in ", "testadmin@example.com"})
	if !policy.IsAdmin(domain.Identity{Email: "admin@jbi.ac.in"}) {
		t.Fatalf("expected trimmed entry to match")
	}
	if policy.IsAdmin(domain.Identity{Email: " admin@jbi.ac.in "}) {
		t.Fatalf("identity email must match exactly")
	}
}
