package redis

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
)

type recordingSink struct {
	mu      sync.Mutex
	changes []ports.IdentityChange
}

func (s *recordingSink) Enqueue(change ports.IdentityChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, change)
}

func (s *recordingSink) snapshot() []ports.IdentityChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.IdentityChange(nil), s.changes...)
}

var boundIdentity = domain.Identity{UID: "u1", Email: "testadmin@example.com", DisplayName: "Test Admin"}

func TestSessionBindings_PutGetDelete(t *testing.T) {
	mr, client := newTestClient(t)
	b := NewSessionBindings(client, zerolog.Nop())
	ctx := context.Background()

	got, version, err := b.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Zero(t, version)

	version, err = b.Put(ctx, "sid-1", boundIdentity, time.Hour)
	require.NoError(t, err)
	require.Equal(t, uint64(1), version)
	require.Equal(t, time.Hour, mr.TTL("session:sid-1"))

	got, version, err = b.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, boundIdentity, *got)
	require.Equal(t, uint64(1), version)

	version, err = b.Delete(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, uint64(2), version)

	got, version, err = b.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, uint64(2), version)
}

func TestSessionBindings_VersionsAreMonotonic(t *testing.T) {
	mr, client := newTestClient(t)
	b := NewSessionBindings(client, zerolog.Nop())
	ctx := context.Background()

	var last uint64
	for i := 0; i < 3; i++ {
		v, err := b.Put(ctx, "sid-1", boundIdentity, time.Hour)
		require.NoError(t, err)
		require.Greater(t, v, last)
		last = v

		v, err = b.Delete(ctx, "sid-1")
		require.NoError(t, err)
		require.Greater(t, v, last)
		last = v
	}
	require.Equal(t, uint64(6), last)
	require.Equal(t, versionTTL, mr.TTL("session_ver:sid-1"))

	// Counters are per session.
	v, err := b.Put(ctx, "sid-2", boundIdentity, time.Hour)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)
	require.Equal(t, time.Hour+versionTTL, mr.TTL("session_ver:sid-2"))
}

func TestSessionBindings_PutRejectsBadInput(t *testing.T) {
	_, client := newTestClient(t)
	b := NewSessionBindings(client, zerolog.Nop())

	_, err := b.Put(context.Background(), "", boundIdentity, time.Hour)
	require.Error(t, err)
	_, err = b.Put(context.Background(), "sid", boundIdentity, 0)
	require.Error(t, err)
}

func TestSessionBindings_BindingExpires(t *testing.T) {
	mr, client := newTestClient(t)
	b := NewSessionBindings(client, zerolog.Nop())
	ctx := context.Background()

	_, err := b.Put(ctx, "sid-1", boundIdentity, time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	got, _, err := b.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSessionBindings_ListenForwardsChanges(t *testing.T) {
	_, client := newTestClient(t)
	b := NewSessionBindings(client, zerolog.Nop())
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- b.Listen(ctx, sink, ready) }()

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("listener did not subscribe")
	}

	_, err := b.Put(context.Background(), "sid-7", boundIdentity, time.Hour)
	require.NoError(t, err)
	_, err = b.Delete(context.Background(), "sid-7")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, time.Second, 10*time.Millisecond)

	changes := sink.snapshot()
	require.Equal(t, "sid-7", changes[0].SessionID)
	require.NotNil(t, changes[0].Identity)
	require.Equal(t, boundIdentity, *changes[0].Identity)
	require.Equal(t, uint64(1), changes[0].Version)
	require.Equal(t, "sid-7", changes[1].SessionID)
	require.Nil(t, changes[1].Identity)
	require.Equal(t, uint64(2), changes[1].Version)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestSessionBindings_DeliverReachesWatchersInOrder(t *testing.T) {
	b := NewSessionBindings(nil, zerolog.Nop())

	var order []string
	b.Watch("sid-1", func(ports.IdentityChange) { order = append(order, "first") })
	unsub := b.Watch("sid-1", func(ports.IdentityChange) { order = append(order, "second") })
	b.Watch("sid-1", func(ports.IdentityChange) { order = append(order, "third") })
	b.Watch("sid-2", func(ports.IdentityChange) { order = append(order, "other") })

	require.NoError(t, b.Deliver(context.Background(), ports.IdentityChange{SessionID: "sid-1", Identity: &boundIdentity}))
	require.Equal(t, []string{"first", "second", "third"}, order)

	unsub()
	unsub()
	order = nil
	require.NoError(t, b.Deliver(context.Background(), ports.IdentityChange{SessionID: "sid-1"}))
	require.Equal(t, []string{"first", "third"}, order)
}

func TestSessionBindings_UnwatchDropsEmptySession(t *testing.T) {
	b := NewSessionBindings(nil, zerolog.Nop())
	unsub := b.Watch("sid-1", func(ports.IdentityChange) {})
	unsub()

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Empty(t, b.watchers)
}

// failPublish makes every PUBLISH fail while leaving other commands alone.
type failPublish struct{}

func (failPublish) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (failPublish) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "publish" {
			err := errors.New("publish refused")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (failPublish) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestSessionBindings_PublishFailureKeepsWrite(t *testing.T) {
	_, client := newTestClient(t)
	client.AddHook(failPublish{})

	var logs bytes.Buffer
	b := NewSessionBindings(client, zerolog.New(&logs))
	ctx := context.Background()

	version, err := b.Put(ctx, "sid-1", boundIdentity, time.Hour)
	require.NoError(t, err)
	require.Equal(t, uint64(1), version)

	got, _, err := b.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Contains(t, logs.String(), "identity change not published")

	logs.Reset()
	version, err = b.Delete(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, uint64(2), version)

	got, _, err = b.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Contains(t, logs.String(), "identity change not published")
	require.Contains(t, logs.String(), `"session_id":"sid-1"`)
}
