package client

import (
	"context"
	"sync"
	"sync/atomic"
)

type decisionKind int

const (
	decisionDispatch decisionKind = iota
	decisionCacheHit
	decisionJoinPending
)

func (k decisionKind) String() string {
	switch k {
	case decisionCacheHit:
		return "cache_hit"
	case decisionJoinPending:
		return "join_pending"
	default:
		return "dispatch"
	}
}

// decision is the outcome of the pre-dispatch stage for a GET.
type decision struct {
	kind     decisionKind
	response *Response       // decisionCacheHit
	pending  *pendingRequest // decisionJoinPending, decisionDispatch
}

// pendingRequest is the shared future of one in-flight GET.
type pendingRequest struct {
	done     chan struct{}
	response *Response
	err      error
	waiters  atomic.Int32
}

// wait blocks until the owner settles p or ctx is done. Giving up only
// affects the caller.
func (p *pendingRequest) wait(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		if p.err != nil {
			return nil, p.err
		}
		return p.response.clone(), nil
	case <-ctx.Done():
		return nil, contextError(ctx, "wait for in-flight request", ctx.Err())
	}
}

// inflightRegistry holds at most one pendingRequest per signature.
type inflightRegistry struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{pending: make(map[string]*pendingRequest)}
}

// claim joins the pending request for sig, or, when none exists, runs recheck
// and registers a new pending request owned by the caller. Both steps happen
// under one lock so no second dispatch can slip in between.
func (r *inflightRegistry) claim(sig string, recheck func() (*Response, bool)) decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pending[sig]; ok {
		p.waiters.Add(1)
		return decision{kind: decisionJoinPending, pending: p}
	}

	if resp, ok := recheck(); ok {
		return decision{kind: decisionCacheHit, response: resp}
	}

	p := &pendingRequest{done: make(chan struct{})}
	r.pending[sig] = p
	return decision{kind: decisionDispatch, pending: p}
}

// settle publishes the final outcome to every waiter and removes p. Callers
// must write the cache entry first.
func (r *inflightRegistry) settle(sig string, p *pendingRequest, resp *Response, err error) {
	p.response, p.err = resp, err

	r.mu.Lock()
	if r.pending[sig] == p {
		delete(r.pending, sig)
	}
	r.mu.Unlock()

	close(p.done)
}

// waiters reports how many callers joined the pending request for sig.
func (r *inflightRegistry) waiters(sig string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pending[sig]; ok {
		return int(p.waiters.Load())
	}
	return 0
}

func (r *inflightRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
