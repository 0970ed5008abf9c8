package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultQueueKey    = "catalog:rating-signals"
	defaultPollTimeout = 2 * time.Second
	defaultMaxAttempts = 5
	defaultRetryDelay  = 500 * time.Millisecond

	// BLMOVE не поддерживает таймаут меньше секунды.
	minPollTimeout = time.Second
	maxRetryDelay  = 30 * time.Second
)

// retryScheduled возвращается processNext, когда неудачный сигнал вернулся
// в очередь. Воркер выдерживает паузу перед следующей попыткой.
type retryScheduled struct {
	attempts int
}

func (e *retryScheduled) Error() string {
	return fmt.Sprintf("rating signal requeued after attempt %d", e.attempts)
}

// queuedSignal - запись в списке Redis.
type queuedSignal struct {
	Signal   Signal `json:"signal"`
	Attempts int    `json:"attempts,omitempty"`
}

// RedisQueue - надежная очередь сигналов на списках Redis. Notify кладет сигнал
// в голову списка, воркер атомарно перекладывает его из хвоста в список
// обработки (BLMOVE) и удаляет оттуда только после успешной обработки.
// Записи, оставшиеся в списке обработки после падения, возвращаются в очередь
// при старте воркера.
type RedisQueue struct {
	rdb           redis.UniversalClient
	key           string
	processingKey string
	deadKey       string
	handler       Handler
	metrics       *Metrics
	logger        *slog.Logger

	pollTimeout time.Duration
	retryDelay  time.Duration
	maxAttempts int
}

type QueueOption func(*RedisQueue)

func WithPollTimeout(d time.Duration) QueueOption {
	return func(q *RedisQueue) { q.pollTimeout = d }
}

// WithRetryDelay задает паузу после первой неудачи. Каждая следующая пауза
// вдвое длиннее, но не больше 30s.
func WithRetryDelay(d time.Duration) QueueOption {
	return func(q *RedisQueue) { q.retryDelay = d }
}

func WithMaxAttempts(n int) QueueOption {
	return func(q *RedisQueue) { q.maxAttempts = n }
}

func WithQueueMetrics(m *Metrics) QueueOption {
	return func(q *RedisQueue) { q.metrics = m }
}

func NewRedisQueue(rdb redis.UniversalClient, key string, handler Handler, logger *slog.Logger, opts ...QueueOption) (*RedisQueue, error) {
	if rdb == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if handler == nil {
		return nil, errors.New("signal handler cannot be nil")
	}
	if key == "" {
		key = defaultQueueKey
	}
	q := &RedisQueue{
		rdb:           rdb,
		key:           key,
		processingKey: key + ":processing",
		deadKey:       key + ":dead",
		handler:       handler,
		logger:        logger.With(slog.String("queue", key)),
		pollTimeout:   defaultPollTimeout,
		retryDelay:    defaultRetryDelay,
		maxAttempts:   defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.pollTimeout < minPollTimeout {
		q.pollTimeout = minPollTimeout
	}
	if q.retryDelay <= 0 {
		q.retryDelay = defaultRetryDelay
	}
	if q.maxAttempts < 1 {
		q.maxAttempts = 1
	}
	return q, nil
}

// Notify ставит сигнал в очередь.
func (q *RedisQueue) Notify(ctx context.Context, sig Signal) error {
	raw, err := json.Marshal(queuedSignal{Signal: sig})
	if err != nil {
		return fmt.Errorf("failed to encode rating signal: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("failed to enqueue rating signal: %w", err)
	}
	q.metrics.incEnqueued()
	q.logger.DebugContext(ctx, "Rating signal enqueued", slog.String("eventID", sig.EventID.String()), slog.Int64("movieID", int64(sig.MovieID)))
	return nil
}

// Run обрабатывает сигналы по одному, пока не отменен ctx.
func (q *RedisQueue) Run(ctx context.Context) error {
	n, err := q.requeueInFlight(ctx)
	if err != nil {
		return err
	}
	q.logger.InfoContext(ctx, "Rating queue worker started", slog.Int("recovered", n))

	for {
		_, err := q.processNext(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			q.logger.InfoContext(context.Background(), "Rating queue worker stopped")
			return nil
		}

		delay := q.retryDelay
		var retry *retryScheduled
		if errors.As(err, &retry) {
			delay = q.backoff(retry.attempts)
		} else {
			q.logger.ErrorContext(ctx, "Rating queue failure", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			q.logger.InfoContext(context.Background(), "Rating queue worker stopped")
			return nil
		case <-time.After(delay):
		}
	}
}

// backoff - пауза перед попыткой attempts+1: retryDelay * 2^(attempts-1).
func (q *RedisQueue) backoff(attempts int) time.Duration {
	delay := q.retryDelay
	for i := 1; i < attempts && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// requeueInFlight возвращает в очередь записи, взятые предыдущим воркером,
// но не подтвержденные.
func (q *RedisQueue) requeueInFlight(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.rdb.LMove(ctx, q.processingKey, q.key, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("failed to recover in-flight rating signals: %w", err)
		}
		moved++
	}
}

// processNext ждет одну запись не дольше pollTimeout и обрабатывает ее.
// Возвращает false, если очередь была пуста, и *retryScheduled, если
// сигнал не обработан и возвращен в очередь.
func (q *RedisQueue) processNext(ctx context.Context) (bool, error) {
	raw, err := q.rdb.BLMove(ctx, q.key, q.processingKey, "RIGHT", "LEFT", q.pollTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to take rating signal: %w", err)
	}

	var item queuedSignal
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		q.logger.ErrorContext(ctx, "Dropping malformed rating signal", slog.String("payload", raw), slog.String("error", err.Error()))
		return true, q.moveToDead(ctx, raw, raw)
	}

	if err := q.handler.Handle(ctx, item.Signal); err != nil {
		item.Attempts++
		q.logger.WarnContext(ctx, "Rating signal handling failed",
			slog.String("eventID", item.Signal.EventID.String()),
			slog.Int("attempt", item.Attempts),
			slog.String("error", err.Error()))
		retry, encErr := json.Marshal(item)
		if encErr != nil {
			return true, fmt.Errorf("failed to encode rating signal: %w", encErr)
		}
		if item.Attempts >= q.maxAttempts {
			return true, q.moveToDead(ctx, raw, string(retry))
		}
		if err := q.requeue(ctx, raw, string(retry)); err != nil {
			return true, err
		}
		return true, &retryScheduled{attempts: item.Attempts}
	}

	if err := q.rdb.LRem(ctx, q.processingKey, 1, raw).Err(); err != nil {
		return true, fmt.Errorf("failed to acknowledge rating signal: %w", err)
	}
	return true, nil
}

func (q *RedisQueue) requeue(ctx context.Context, taken, retry string) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processingKey, 1, taken)
		pipe.LPush(ctx, q.key, retry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to requeue rating signal: %w", err)
	}
	q.metrics.incRequeued()
	return nil
}

func (q *RedisQueue) moveToDead(ctx context.Context, taken, payload string) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processingKey, 1, taken)
		pipe.LPush(ctx, q.deadKey, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to dead-letter rating signal: %w", err)
	}
	q.metrics.incDeadLetters()
	return nil
}
