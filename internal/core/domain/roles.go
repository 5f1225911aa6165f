package domain

// Role is an access level a route group may accept.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// RouteGroup is a set of protected routes sharing one accepted-role set.
type RouteGroup struct {
	Name  string
	Roles []Role
}

var (
	AdminGroup   = RouteGroup{Name: "admin", Roles: []Role{RoleAdmin}}
	StudentGroup = RouteGroup{Name: "student", Roles: []Role{RoleStudent, RoleAdmin}}
)

// Accepts reports whether r is in the group's role set.
func (g RouteGroup) Accepts(r Role) bool {
	for _, accepted := range g.Roles {
		if accepted == r {
			return true
		}
	}
	return false
}

// LoginRole picks the login entry point for the group: the student tab
// whenever students may enter, the admin tab for admin-only groups.
func (g RouteGroup) LoginRole() Role {
	if g.Accepts(RoleStudent) || !g.Accepts(RoleAdmin) {
		return RoleStudent
	}
	return RoleAdmin
}

// GroupByName resolves one of the static route groups.
func GroupByName(name string) (RouteGroup, bool) {
	switch name {
	case AdminGroup.Name:
		return AdminGroup, true
	case StudentGroup.Name:
		return StudentGroup, true
	}
	return RouteGroup{}, false
}
