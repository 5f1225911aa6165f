package service

import (
	"strings"

	"github.com/jaibharat/management-hub/internal/core/domain"
)

// RolePolicy decides whether an identity may enter a route group.
//
// The identity provider issues no role claim, so "admin" is inferred from
// membership of a static email allow-list. Membership is an exact,
// case-sensitive match; a missing list means nobody is an admin.
type RolePolicy struct {
	admins map[string]struct{}
}

// NewRolePolicy builds the policy from the configured allow-list. Entries
// are trimmed of surrounding whitespace and blanks are dropped.
func NewRolePolicy(adminEmails []string) *RolePolicy {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		admins[e] = struct{}{}
	}
	return &RolePolicy{admins: admins}
}

// IsAdmin reports allow-list membership for the identity's email.
func (p *RolePolicy) IsAdmin(id domain.Identity) bool {
	if !id.HasEmail() {
		return false
	}
	_, ok := p.admins[id.Email]
	return ok
}

// IsAuthorized reports whether id satisfies at least one accepted role.
// Admin is satisfied by allow-list membership only; student by any
// authenticated identity. An empty role set accepts any identity.
func (p *RolePolicy) IsAuthorized(roles []domain.Role, id domain.Identity) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		switch r {
		case domain.RoleAdmin:
			if p.IsAdmin(id) {
				return true
			}
		case domain.RoleStudent:
			return true
		}
	}
	return false
}

// AdminCount is the size of the allow-list.
func (p *RolePolicy) AdminCount() int {
	return len(p.admins)
}
