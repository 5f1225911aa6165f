package service

import (
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
)

const loginEntryPoint = "/auth/login"

// OutcomeKind is what a guard decided for one session state.
type OutcomeKind int

const (
	OutcomeLoading OutcomeKind = iota
	OutcomeRedirect
	OutcomeDenied
	OutcomeRender
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeDenied:
		return "denied"
	case OutcomeRender:
		return "render"
	default:
		return "unknown"
	}
}

// Outcome is the result of one guard evaluation.
//   - Redirect: Target is the login URL carrying the return path.
//   - Denied: LoginPath is the entry point offered on the denial view.
//   - Render: Identity is the authorised principal.
type Outcome struct {
	Kind      OutcomeKind
	Target    string
	LoginPath string
	Identity  domain.Identity
}

// AccessGuard gates a route group behind the role policy.
type AccessGuard struct {
	group  domain.RouteGroup
	policy *RolePolicy
}

func NewAccessGuard(group domain.RouteGroup, policy *RolePolicy) *AccessGuard {
	return &AccessGuard{group: group, policy: policy}
}

func (g *AccessGuard) Group() domain.RouteGroup { return g.group }

// Evaluate maps a session state observed at currentPath onto an outcome.
// It has no side effects.
func (g *AccessGuard) Evaluate(state domain.SessionState, currentPath string) Outcome {
	switch state.Kind() {
	case domain.SessionLoading:
		return Outcome{Kind: OutcomeLoading}
	case domain.SessionAuthenticated:
		id, _ := state.Identity()
		if g.policy.IsAuthorized(g.group.Roles, id) {
			return Outcome{Kind: OutcomeRender, Identity: id}
		}
		return Outcome{Kind: OutcomeDenied, LoginPath: LoginPath(g.deniedLoginRole()), Identity: id}
	default:
		return Outcome{Kind: OutcomeRedirect, Target: RedirectTarget(g.group.LoginRole(), currentPath)}
	}
}

// deniedLoginRole points a signed-in but unauthorised viewer at the admin
// login whenever the group accepts admins.
func (g *AccessGuard) deniedLoginRole() domain.Role {
	if g.group.Accepts(domain.RoleAdmin) {
		return domain.RoleAdmin
	}
	return domain.RoleStudent
}

// LoginPath is the login entry point for a role tab.
func LoginPath(role domain.Role) string {
	return loginEntryPoint + "?role=" + url.QueryEscape(string(role))
}

// RedirectTarget builds the login URL that returns to currentPath after a
// successful sign-in.
func RedirectTarget(role domain.Role, currentPath string) string {
	return LoginPath(role) + "&redirect=" + url.QueryEscape(currentPath)
}

// SafeRedirect returns the post-login destination: raw when it is a local
// absolute path, otherwise the role's landing page.
func SafeRedirect(raw string, role domain.Role) string {
	if raw != "" && strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.HasPrefix(raw, "/\\") {
		if u, err := url.Parse(raw); err == nil && u.Scheme == "" && u.Host == "" {
			return raw
		}
	}
	return LandingPath(role)
}

// LandingPath is where a role lands after login without a return target.
func LandingPath(role domain.Role) string {
	if role == domain.RoleAdmin {
		return "/admin/dashboard"
	}
	return "/student/profile"
}

// SessionSource is the read side of a SessionContext.
type SessionSource interface {
	Current() domain.SessionState
	Subscribe(l Listener) (unsubscribe func())
}

// GuardViews are the views a mounted guard switches between. Loading and
// Denied are optional; Denied receives {"login_path": ...}.
type GuardViews struct {
	Protected ports.View
	Loading   ports.View
	Denied    ports.View
}

// Mount is a guard attached to a live session. It re-evaluates on every
// state change until Unmount.
type Mount struct {
	guard *AccessGuard
	nav   ports.Navigator
	views GuardViews
	props map[string]any

	// mu serialises evaluations; views and navigation run under it.
	mu          sync.Mutex
	unmounted   atomic.Bool
	unsubscribe func()
	once        sync.Once

	lastMu sync.Mutex
	last   Outcome
}

// Mount subscribes to session, evaluates the current state immediately and
// then again on every change.
func (g *AccessGuard) Mount(session SessionSource, nav ports.Navigator, views GuardViews, props map[string]any) *Mount {
	m := g.newMount(nav, views, props)
	m.attach(session)
	return m
}

func (g *AccessGuard) newMount(nav ports.Navigator, views GuardViews, props map[string]any) *Mount {
	return &Mount{guard: g, nav: nav, views: views, props: props, unsubscribe: func() {}}
}

func (m *Mount) attach(session SessionSource) {
	// Holding mu across subscribe and the first read keeps a concurrent
	// notification from being applied before the initial evaluation.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribe = session.Subscribe(m.observe)
	m.applyLocked(session.Current())
}

// Outcome is the most recent evaluation.
func (m *Mount) Outcome() Outcome {
	m.lastMu.Lock()
	defer m.lastMu.Unlock()
	return m.last
}

// Unmount releases the subscription. Idempotent; no view or navigation is
// triggered afterwards.
func (m *Mount) Unmount() {
	m.once.Do(func() {
		m.unmounted.Store(true)
		m.unsubscribe()
	})
}

func (m *Mount) observe(state domain.SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyLocked(state)
}

func (m *Mount) applyLocked(state domain.SessionState) {
	if m.unmounted.Load() {
		return
	}
	out := m.guard.Evaluate(state, m.nav.CurrentPath())
	m.lastMu.Lock()
	m.last = out
	m.lastMu.Unlock()

	switch out.Kind {
	case OutcomeLoading:
		if m.views.Loading != nil {
			m.views.Loading.Render(nil)
		}
	case OutcomeRedirect:
		m.nav.Navigate(out.Target, ports.NavigateOptions{Replace: true})
	case OutcomeDenied:
		if m.views.Denied != nil {
			m.views.Denied.Render(map[string]any{"login_path": out.LoginPath})
		}
	case OutcomeRender:
		m.views.Protected.Render(m.props)
	}
}

// GuardedView is a protected view bound to a guard, ready to be mounted.
type GuardedView struct {
	guard *AccessGuard
	views GuardViews
}

// Guard composes view with a role gate for group.
func Guard(view ports.View, group domain.RouteGroup, policy *RolePolicy) *GuardedView {
	return &GuardedView{
		guard: NewAccessGuard(group, policy),
		views: GuardViews{Protected: view},
	}
}

// WithLoading sets the loading indicator view.
func (v *GuardedView) WithLoading(loading ports.View) *GuardedView {
	v.views.Loading = loading
	return v
}

// WithDenied sets the access denied view.
func (v *GuardedView) WithDenied(denied ports.View) *GuardedView {
	v.views.Denied = denied
	return v
}

// Mount attaches the guarded view to a live session, forwarding props to
// the protected view unchanged.
func (v *GuardedView) Mount(session SessionSource, nav ports.Navigator, props map[string]any) *Mount {
	return v.guard.Mount(session, nav, v.views, props)
}
