package rating

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/domain"
)

// unavailableUntil отказывает до заданного момента, потом принимает сигналы.
type unavailableUntil struct {
	mu       sync.Mutex
	until    time.Time
	attempts int
	handled  []Signal
}

func (h *unavailableUntil) Handle(_ context.Context, sig Signal) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts++
	if time.Now().Before(h.until) {
		return errors.New("connection refused")
	}
	h.handled = append(h.handled, sig)
	return nil
}

func (h *unavailableUntil) handledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

type recordingHandler struct {
	mu       sync.Mutex
	handled  []Signal
	failures int
}

func (h *recordingHandler) Handle(_ context.Context, sig Signal) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failures > 0 {
		h.failures--
		return errors.New("storage unavailable")
	}
	h.handled = append(h.handled, sig)
	return nil
}

func (h *recordingHandler) movieIDs() []domain.ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]domain.ID, 0, len(h.handled))
	for _, s := range h.handled {
		ids = append(ids, s.MovieID)
	}
	return ids
}

func newTestQueue(t *testing.T, h Handler, opts ...QueueOption) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	q, err := NewRedisQueue(rdb, "test:signals", h, discardLogger(), opts...)
	require.NoError(t, err)
	return q, mr
}

func TestRedisQueue_ProcessesInFIFOOrderAndAcks(t *testing.T) {
	h := &recordingHandler{}
	q, mr := newTestQueue(t, h)
	ctx := context.Background()

	require.NoError(t, q.Notify(ctx, NewSignal(1)))
	require.NoError(t, q.Notify(ctx, NewSignal(2)))

	for i := 0; i < 2; i++ {
		ok, err := q.processNext(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := q.processNext(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []domain.ID{1, 2}, h.movieIDs())
	assert.False(t, mr.Exists("test:signals:processing"))
	assert.False(t, mr.Exists("test:signals"))
}

func TestRedisQueue_FailedSignalIsRetriedThenDeadLettered(t *testing.T) {
	h := &recordingHandler{failures: 10}
	q, mr := newTestQueue(t, h, WithMaxAttempts(2))
	ctx := context.Background()

	sig := NewSignal(7)
	require.NoError(t, q.Notify(ctx, sig))

	_, err := q.processNext(ctx)
	var retry *retryScheduled
	require.ErrorAs(t, err, &retry)
	assert.Equal(t, 1, retry.attempts)
	queued, err := mr.List("test:signals")
	require.NoError(t, err)
	require.Len(t, queued, 1)

	var item queuedSignal
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &item))
	assert.Equal(t, 1, item.Attempts)
	assert.Equal(t, sig.EventID, item.Signal.EventID)

	_, err = q.processNext(ctx)
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:signals"))
	assert.False(t, mr.Exists("test:signals:processing"))

	dead, err := mr.List("test:signals:dead")
	require.NoError(t, err)
	assert.Len(t, dead, 1)
	assert.Empty(t, h.movieIDs())
}

func TestRedisQueue_RecoversInFlightSignals(t *testing.T) {
	h := &recordingHandler{}
	q, mr := newTestQueue(t, h)
	ctx := context.Background()

	raw, err := json.Marshal(queuedSignal{Signal: NewSignal(3)})
	require.NoError(t, err)
	_, err = mr.Lpush("test:signals:processing", string(raw))
	require.NoError(t, err)

	n, err := q.requeueInFlight(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := q.processNext(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []domain.ID{3}, h.movieIDs())
}

func TestRedisQueue_MalformedPayloadIsDeadLettered(t *testing.T) {
	h := &recordingHandler{}
	q, mr := newTestQueue(t, h)

	_, err := mr.Lpush("test:signals", "{not json")
	require.NoError(t, err)

	ok, err := q.processNext(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	dead, err := mr.List("test:signals:dead")
	require.NoError(t, err)
	assert.Equal(t, []string{"{not json"}, dead)
	assert.Empty(t, h.movieIDs())
}

func TestRedisQueue_RunStopsOnCancel(t *testing.T) {
	h := &recordingHandler{}
	q, _ := newTestQueue(t, h)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, q.Notify(ctx, NewSignal(11)))

	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	require.Eventually(t, func() bool { return len(h.movieIDs()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRedisQueue_RunRetriesTransientFailureWithBackoff(t *testing.T) {
	h := &unavailableUntil{until: time.Now().Add(200 * time.Millisecond)}
	q, mr := newTestQueue(t, h, WithRetryDelay(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Notify(ctx, NewSignal(21)))

	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	require.Eventually(t, func() bool { return h.handledCount() == 1 }, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !mr.Exists("test:signals:processing") }, time.Second, 10*time.Millisecond)
	assert.False(t, mr.Exists("test:signals:dead"))

	h.mu.Lock()
	attempts := h.attempts
	h.mu.Unlock()
	assert.Greater(t, attempts, 1)
	assert.LessOrEqual(t, attempts, defaultMaxAttempts)

	cancel()
	require.NoError(t, <-done)
}

func TestRedisQueue_Backoff(t *testing.T) {
	q, _ := newTestQueue(t, &recordingHandler{}, WithRetryDelay(100*time.Millisecond))

	assert.Equal(t, 100*time.Millisecond, q.backoff(1))
	assert.Equal(t, 200*time.Millisecond, q.backoff(2))
	assert.Equal(t, 400*time.Millisecond, q.backoff(3))
	assert.Equal(t, maxRetryDelay, q.backoff(20))
}

func TestNewRedisQueue_ClampsPollTimeout(t *testing.T) {
	q, _ := newTestQueue(t, &recordingHandler{}, WithPollTimeout(50*time.Millisecond))
	assert.Equal(t, time.Second, q.pollTimeout)

	q, _ = newTestQueue(t, &recordingHandler{}, WithPollTimeout(3*time.Second))
	assert.Equal(t, 3*time.Second, q.pollTimeout)
}
