package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/jaibharat/management-hub/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher fans identity changes out to a fixed set of workers, hashing on
// the session ID so changes for one session are delivered in publish order.
type Dispatcher struct {
	workers []chan ports.IdentityChange
	handler ports.IdentityChangeHandler
	log     zerolog.Logger
	stopped chan struct{}
}

// NewDispatcher creates numWorkers sharded workers. If numWorkers <= 0,
// defaultWorkers is used.
func NewDispatcher(numWorkers int, handler ports.IdentityChangeHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.IdentityChange, numWorkers),
		handler: handler,
		log:     log,
		stopped: make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.IdentityChange, channelBuffer)
	}
	return d
}

// Start launches the workers. They stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		close(d.stopped)
	}()
}

// Enqueue hands change to the worker owning its session. It blocks once that
// worker's buffer is full, and drops change once the workers have stopped.
func (d *Dispatcher) Enqueue(change ports.IdentityChange) {
	select {
	case d.workers[d.shardIndex(change.SessionID)] <- change:
	case <-d.stopped:
		d.log.Debug().Str("session_id", change.SessionID).Msg("dispatcher stopped, identity change dropped")
	}
}

func (d *Dispatcher) shardIndex(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.IdentityChange) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			if err := d.handler.Deliver(ctx, change); err != nil {
				d.log.Error().Err(err).
					Str("session_id", change.SessionID).
					Int("worker_id", id).
					Msg("identity change delivery failed")
			}
		}
	}
}
