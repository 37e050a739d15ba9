package client

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator(t *testing.T) {
	g := &idGenerator{now: func() time.Time { return time.UnixMilli(1700000000123) }}

	assert.Equal(t, "req_1700000000123_1", g.next())
	assert.Equal(t, "req_1700000000123_2", g.next())

	g = &idGenerator{now: time.Now}
	assert.Regexp(t, regexp.MustCompile(`^req_\d+_\d+$`), g.next())
}

func TestCancelRegistry(t *testing.T) {
	r := newCancelRegistry()

	ctxA, cancelA := context.WithCancelCause(context.Background())
	ctxB, cancelB := context.WithCancelCause(context.Background())
	r.register("b", cancelB)
	r.register("a", cancelA)

	assert.Equal(t, []string{"a", "b"}, r.ids())

	assert.True(t, r.cancel("a"))
	assert.ErrorIs(t, context.Cause(ctxA), ErrCancelled)
	assert.False(t, r.cancel("a"), "handle must leave the registry once")
	assert.False(t, r.remove("a"))

	assert.True(t, r.remove("b"))
	assert.NoError(t, ctxB.Err(), "remove must not cancel")
	assert.Empty(t, r.ids())
}

func TestCancelRegistry_CancelAll(t *testing.T) {
	r := newCancelRegistry()
	assert.Equal(t, 0, r.cancelAll())

	var ctxs []context.Context
	for _, id := range []string{"a", "b", "c"} {
		ctx, cancel := context.WithCancelCause(context.Background())
		r.register(id, cancel)
		ctxs = append(ctxs, ctx)
	}

	assert.Equal(t, 3, r.cancelAll())
	assert.Empty(t, r.ids())
	for _, ctx := range ctxs {
		assert.ErrorIs(t, context.Cause(ctx), ErrCancelled)
	}
	assert.Equal(t, 0, r.cancelAll())
}

func TestNewCancellable(t *testing.T) {
	ctx, cancel := NewCancellable(context.Background())
	require.NoError(t, ctx.Err())

	cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, IsCancelled(context.Cause(ctx)))
}

func TestIsCancelled(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrCancelled, true},
		{"wrapped sentinel", errors.Join(errors.New("x"), ErrCancelled), true},
		{"context canceled", context.Canceled, true},
		{"deadline", context.DeadlineExceeded, false},
		{"api error", NewAPIError("x", "", nil, 500, ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCancelled(tt.err))
		})
	}
}

func TestContextError(t *testing.T) {
	t.Run("registry cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(ErrCancelled)
		assert.True(t, IsCancelled(contextError(ctx, "op", ctx.Err())))
	})

	t.Run("parent cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := contextError(ctx, "op", ctx.Err())
		assert.ErrorIs(t, err, ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("deadline is not a cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		err := contextError(ctx, "op", ctx.Err())
		assert.False(t, IsCancelled(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestInflightRegistry_ClaimAndSettle(t *testing.T) {
	r := newInflightRegistry()
	miss := func() (*Response, bool) { return nil, false }

	owner := r.claim("GET:/cafes/:", miss)
	require.Equal(t, decisionDispatch, owner.kind)
	require.NotNil(t, owner.pending)

	joined := r.claim("GET:/cafes/:", func() (*Response, bool) {
		t.Fatal("recheck must not run while a request is pending")
		return nil, false
	})
	require.Equal(t, decisionJoinPending, joined.kind)
	assert.Same(t, owner.pending, joined.pending)
	assert.Equal(t, 1, r.waiters("GET:/cafes/:"))

	other := r.claim("GET:/stats/:", miss)
	assert.Equal(t, decisionDispatch, other.kind)
	assert.Equal(t, 2, r.len())

	resp := &Response{StatusCode: 200, Body: []byte(`{"ok":true}`)}
	r.settle("GET:/cafes/:", owner.pending, resp, nil)
	assert.Equal(t, 1, r.len())

	got, err := joined.pending.wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resp.Body, got.Body)
	assert.NotSame(t, resp, got, "waiters receive copies")
}

func TestInflightRegistry_RecheckHit(t *testing.T) {
	r := newInflightRegistry()
	cached := &Response{StatusCode: 200, Cached: true}

	d := r.claim("sig", func() (*Response, bool) { return cached, true })
	assert.Equal(t, decisionCacheHit, d.kind)
	assert.Same(t, cached, d.response)
	assert.Equal(t, 0, r.len())
}

func TestInflightRegistry_SharedError(t *testing.T) {
	r := newInflightRegistry()
	owner := r.claim("sig", func() (*Response, bool) { return nil, false })
	joined := r.claim("sig", nil)

	failure := NewAPIError("Boom", "", nil, 500, "")
	r.settle("sig", owner.pending, nil, failure)

	_, err := joined.pending.wait(context.Background())
	assert.Same(t, failure, err)
}

func TestPendingRequest_WaiterCancel(t *testing.T) {
	r := newInflightRegistry()
	owner := r.claim("sig", func() (*Response, bool) { return nil, false })

	ctx, cancel := NewCancellable(context.Background())
	cancel()

	_, err := owner.pending.wait(ctx)
	assert.True(t, IsCancelled(err))
	assert.Equal(t, 1, r.len(), "waiter giving up must not settle the request")
}

func TestDecisionKindString(t *testing.T) {
	assert.Equal(t, "dispatch", decisionDispatch.String())
	assert.Equal(t, "cache_hit", decisionCacheHit.String())
	assert.Equal(t, "join_pending", decisionJoinPending.String())
}
