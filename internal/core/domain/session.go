package domain

// SessionKind tags the variant held by a SessionState.
type SessionKind int

const (
	SessionLoading SessionKind = iota
	SessionUnauthenticated
	SessionAuthenticated
)

func (k SessionKind) String() string {
	switch k {
	case SessionLoading:
		return "loading"
	case SessionUnauthenticated:
		return "unauthenticated"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SessionState is a tagged union: Loading, Unauthenticated or
// Authenticated(Identity). The identity is only meaningful for the
// Authenticated kind; construct values with the helpers below.
type SessionState struct {
	kind     SessionKind
	identity Identity
}

func Loading() SessionState { return SessionState{kind: SessionLoading} }

func Unauthenticated() SessionState { return SessionState{kind: SessionUnauthenticated} }

func Authenticated(id Identity) SessionState {
	return SessionState{kind: SessionAuthenticated, identity: id}
}

// StateFor maps an optional identity onto Authenticated or Unauthenticated.
func StateFor(id *Identity) SessionState {
	if id == nil {
		return Unauthenticated()
	}
	return Authenticated(*id)
}

func (s SessionState) Kind() SessionKind { return s.kind }

func (s SessionState) IsLoading() bool { return s.kind == SessionLoading }

// Identity returns the principal and true only for the Authenticated kind.
func (s SessionState) Identity() (Identity, bool) {
	if s.kind != SessionAuthenticated {
		return Identity{}, false
	}
	return s.identity, true
}

func (s SessionState) Equal(other SessionState) bool {
	return s == other
}

func (s SessionState) String() string {
	return s.kind.String()
}
