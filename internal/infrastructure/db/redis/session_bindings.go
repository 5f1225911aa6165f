package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
)

const (
	bindingPrefix = "session:"
	versionPrefix = "session_ver:"
	channelPrefix = "identity:"

	// versionTTL keeps a session's version counter alive past its binding
	// so late notifications can still be ordered.
	versionTTL = 24 * time.Hour
)

// Enqueuer accepts identity changes for ordered delivery.
type Enqueuer interface {
	Enqueue(change ports.IdentityChange)
}

type changeMessage struct {
	Identity *domain.Identity `json:"identity"`
	Version  uint64           `json:"version"`
}

// SessionBindings stores the identity signed in on each browser session and
// publishes every change on identity:<session_id>.
// Key format:
//   - session:<session_id>     → JSON identity, expiring with the session
//   - session_ver:<session_id> → write counter, bumped with every Put/Delete
type SessionBindings struct {
	client *redis.Client
	log    zerolog.Logger

	mu       sync.Mutex
	watchers map[string]map[uint64]func(ports.IdentityChange)
	nextID   uint64
}

func NewSessionBindings(client *redis.Client, log zerolog.Logger) *SessionBindings {
	return &SessionBindings{
		client:   client,
		log:      log,
		watchers: make(map[string]map[uint64]func(ports.IdentityChange)),
	}
}

func (b *SessionBindings) Get(ctx context.Context, sessionID string) (*domain.Identity, uint64, error) {
	var bindCmd *redis.StringCmd
	var verCmd *redis.StringCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		bindCmd = pipe.Get(ctx, bindingPrefix+sessionID)
		verCmd = pipe.Get(ctx, versionPrefix+sessionID)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("get session binding: %w", err)
	}

	version, err := verCmd.Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("get session version: %w", err)
	}

	val, err := bindCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get session binding: %w", err)
	}

	var id domain.Identity
	if err := json.Unmarshal(val, &id); err != nil {
		return nil, 0, fmt.Errorf("decode session binding: %w", err)
	}
	return &id, version, nil
}

// Put binds id to sessionID. The returned version is authoritative even
// when the change notification could not be published.
func (b *SessionBindings) Put(ctx context.Context, sessionID string, id domain.Identity, ttl time.Duration) (uint64, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("session binding: missing session id")
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("session binding: ttl must be positive")
	}

	data, err := json.Marshal(id)
	if err != nil {
		return 0, fmt.Errorf("encode session binding: %w", err)
	}

	var verCmd *redis.IntCmd
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		verCmd = pipe.Incr(ctx, versionPrefix+sessionID)
		pipe.Expire(ctx, versionPrefix+sessionID, ttl+versionTTL)
		pipe.Set(ctx, bindingPrefix+sessionID, data, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("set session binding: %w", err)
	}

	version := uint64(verCmd.Val())
	b.publish(ctx, sessionID, &id, version)
	return version, nil
}

// Delete removes the binding of sessionID; see Put for the returned version.
func (b *SessionBindings) Delete(ctx context.Context, sessionID string) (uint64, error) {
	var verCmd *redis.IntCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		verCmd = pipe.Incr(ctx, versionPrefix+sessionID)
		pipe.Expire(ctx, versionPrefix+sessionID, versionTTL)
		pipe.Del(ctx, bindingPrefix+sessionID)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete session binding: %w", err)
	}

	version := uint64(verCmd.Val())
	b.publish(ctx, sessionID, nil, version)
	return version, nil
}

// publish announces a committed change. Failures are logged only: the
// binding is already written and other instances pick it up on their next
// resolution.
func (b *SessionBindings) publish(ctx context.Context, sessionID string, id *domain.Identity, version uint64) {
	payload, err := json.Marshal(changeMessage{Identity: id, Version: version})
	if err == nil {
		err = b.client.Publish(ctx, channelPrefix+sessionID, payload).Err()
	}
	if err != nil {
		b.log.Warn().Err(err).
			Str("session_id", sessionID).
			Uint64("version", version).
			Msg("identity change not published")
	}
}

// Watch registers cb for changes of sessionID. The returned func is idempotent.
func (b *SessionBindings) Watch(sessionID string, cb func(ports.IdentityChange)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.watchers[sessionID] == nil {
		b.watchers[sessionID] = make(map[uint64]func(ports.IdentityChange))
	}
	b.watchers[sessionID][id] = cb
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.watchers[sessionID], id)
			if len(b.watchers[sessionID]) == 0 {
				delete(b.watchers, sessionID)
			}
		})
	}
}

// Deliver hands a change to the watchers of its session.
func (b *SessionBindings) Deliver(_ context.Context, change ports.IdentityChange) error {
	b.mu.Lock()
	ws := b.watchers[change.SessionID]
	ids := make([]uint64, 0, len(ws))
	for id := range ws {
		ids = append(ids, id)
	}
	cbs := make([]func(ports.IdentityChange), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		cbs = append(cbs, ws[id])
	}
	b.mu.Unlock()

	for _, cb := range cbs {
		cb(change)
	}
	return nil
}

// Listen follows identity:* and forwards each change to sink until ctx is
// cancelled. ready, when non-nil, is closed once the subscription is live.
func (b *SessionBindings) Listen(ctx context.Context, sink Enqueuer, ready chan<- struct{}) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe identity changes: %w", err)
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			change, err := decodeChange(msg)
			if err != nil {
				b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed identity change")
				continue
			}
			sink.Enqueue(change)
		}
	}
}

func decodeChange(msg *redis.Message) (ports.IdentityChange, error) {
	var m changeMessage
	if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
		return ports.IdentityChange{}, fmt.Errorf("decode identity change: %w", err)
	}
	return ports.IdentityChange{
		SessionID: strings.TrimPrefix(msg.Channel, channelPrefix),
		Identity:  m.Identity,
		Version:   m.Version,
	}, nil
}
