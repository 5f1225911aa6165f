package service

import (
	"context"
	"sync"
	"time"

	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
)

// fakeProvider is an in-memory identity provider driven by the tests.
type fakeProvider struct {
	mu         sync.Mutex
	identity   *domain.Identity
	resolveErr error
	delay      time.Duration
	release    chan struct{}
	signOutErr error
	signInErr  error
	signOuts   int
	watchers   map[int]func(*domain.Identity)
	nextID     int
}

func newFakeProvider(id *domain.Identity) *fakeProvider {
	return &fakeProvider{identity: id, watchers: make(map[int]func(*domain.Identity))}
}

func (p *fakeProvider) CurrentIdentity(ctx context.Context) (*domain.Identity, error) {
	p.mu.Lock()
	delay, release := p.delay, p.release
	p.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolveErr != nil {
		return nil, p.resolveErr
	}
	if p.identity == nil {
		return nil, nil
	}
	id := *p.identity
	return &id, nil
}

func (p *fakeProvider) OnIdentityChanged(cb func(*domain.Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.watchers, id)
	}
}

func (p *fakeProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signOutErr != nil {
		return p.signOutErr
	}
	p.signOuts++
	p.identity = nil
	return nil
}

func (p *fakeProvider) SignIn(_ context.Context, creds domain.Credentials) (*domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	id := domain.Identity{UID: "uid-" + creds.Email, Email: creds.Email}
	p.identity = &id
	out := id
	return &out, nil
}

// emit simulates an external sign-in or sign-out notification.
func (p *fakeProvider) emit(id *domain.Identity) {
	p.mu.Lock()
	p.identity = id
	cbs := make([]func(*domain.Identity), 0, len(p.watchers))
	for _, cb := range p.watchers {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(id)
	}
}

func (p *fakeProvider) watcherCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.watchers)
}

// fakeNavigator records navigation requests.
type fakeNavigator struct {
	mu      sync.Mutex
	path    string
	targets []string
	replace []bool
}

func (n *fakeNavigator) Navigate(path string, opts ports.NavigateOptions) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, path)
	n.replace = append(n.replace, opts.Replace)
}

func (n *fakeNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *fakeNavigator) navigations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

// recordingView counts renders and keeps the last props.
type recordingView struct {
	mu    sync.Mutex
	calls int
	props map[string]any
}

func (v *recordingView) Render(props map[string]any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	v.props = props
}

func (v *recordingView) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

func (v *recordingView) lastProps() map[string]any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.props
}
