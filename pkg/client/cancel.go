package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// NewCancellable returns a context that callers manage themselves, outside
// the client's registry. Errors caused by calling cancel satisfy IsCancelled.
func NewCancellable(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	return ctx, func() { cancel(ErrCancelled) }
}

// idGenerator produces process-unique request IDs of the form
// req_<unix-ms>_<counter>.
type idGenerator struct {
	counter atomic.Uint64
	now     func() time.Time
}

func (g *idGenerator) next() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("req_%d_%d", g.now().UnixMilli(), n)
}

// cancelRegistry maps request IDs to the cancel funcs of their contexts.
// Every handle leaves the registry exactly once.
type cancelRegistry struct {
	mu      sync.Mutex
	handles map[string]context.CancelCauseFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{handles: make(map[string]context.CancelCauseFunc)}
}

func (r *cancelRegistry) register(id string, cancel context.CancelCauseFunc) {
	r.mu.Lock()
	r.handles[id] = cancel
	r.mu.Unlock()
}

// remove drops the handle without cancelling it.
func (r *cancelRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[id]; !ok {
		return false
	}
	delete(r.handles, id)
	return true
}

func (r *cancelRegistry) cancel(id string) bool {
	r.mu.Lock()
	fn, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()

	if ok {
		fn(ErrCancelled)
	}
	return ok
}

func (r *cancelRegistry) cancelAll() int {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]context.CancelCauseFunc)
	r.mu.Unlock()

	for _, fn := range handles {
		fn(ErrCancelled)
	}
	return len(handles)
}

func (r *cancelRegistry) ids() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// contextError classifies a failure that happened while ctx was done.
// Cancellation wraps ErrCancelled; deadlines are reported as-is so they are
// translated like any other transport failure.
func contextError(ctx context.Context, op string, err error) error {
	if !errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrCancelled) {
		return fmt.Errorf("%s: %w", op, cause)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrCancelled, cause)
}
