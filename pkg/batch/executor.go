// Package batch provides a bounded task queue that runs its queued tasks
// concurrently whenever the queue fills up, returning results in submission
// order.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/pairscan/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidLimit is returned for a batch limit below one.
var ErrInvalidLimit = errors.New("batch limit must be at least 1")

// Task is one deferred unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// Call binds arg to fn, producing a Task.
func Call[A, T any](fn func(context.Context, A) (T, error), arg A) Task[T] {
	return func(ctx context.Context) (T, error) {
		return fn(ctx, arg)
	}
}

// ExecutionError reports a failed flush. No results of that flush are returned.
type ExecutionError struct {
	Size int
	Err  error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("batch of %d tasks failed: %v", e.Size, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

type options struct {
	taskTimeout time.Duration
	logger      zerolog.Logger
}

// Option configures an Executor.
type Option func(*options)

// WithTaskTimeout bounds each task of a flush. Zero disables the bound.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *options) {
		o.taskTimeout = d
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Executor queues tasks and flushes them concurrently once limit tasks are pending.
type Executor[T any] struct {
	limit int
	opts  options

	mu      sync.Mutex
	pending []Task[T]
	flushes int
}

// NewExecutor creates an executor that flushes automatically at limit pending tasks.
func NewExecutor[T any](limit int, opts ...Option) (*Executor[T], error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	o := options{logger: logging.NewLogger("batch-executor")}
	for _, opt := range opts {
		opt(&o)
	}

	return &Executor[T]{
		limit:   limit,
		opts:    o,
		pending: make([]Task[T], 0, limit),
	}, nil
}

// Limit returns the configured batch limit.
func (e *Executor[T]) Limit() int {
	return e.limit
}

// Pending returns the number of queued tasks.
func (e *Executor[T]) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Flushes returns the number of non-empty flushes performed so far.
func (e *Executor[T]) Flushes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushes
}

// Submit queues task. When the queue reaches the limit it is flushed at once
// and flushed is true; results then holds the flushed batch in submission order.
func (e *Executor[T]) Submit(ctx context.Context, task Task[T]) (results []T, flushed bool, err error) {
	e.mu.Lock()
	e.pending = append(e.pending, task)
	if len(e.pending) < e.limit {
		e.mu.Unlock()
		return nil, false, nil
	}
	tasks := e.take()
	e.mu.Unlock()

	results, err = e.run(ctx, tasks, "auto")
	return results, true, err
}

// Flush runs every queued task concurrently and returns their results in
// submission order. An empty queue yields an empty result and no flush.
func (e *Executor[T]) Flush(ctx context.Context) ([]T, error) {
	e.mu.Lock()
	if len(e.pending) == 0 {
		e.mu.Unlock()
		return []T{}, nil
	}
	tasks := e.take()
	e.mu.Unlock()

	return e.run(ctx, tasks, "manual")
}

// take must be called with e.mu held.
func (e *Executor[T]) take() []Task[T] {
	tasks := e.pending
	e.pending = make([]Task[T], 0, e.limit)
	e.flushes++
	return tasks
}

func (e *Executor[T]) run(ctx context.Context, tasks []Task[T], trigger string) ([]T, error) {
	start := time.Now()
	batchFlushes.WithLabelValues(trigger).Inc()
	batchTasks.Add(float64(len(tasks)))

	results := make([]T, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			taskCtx := gctx
			if e.opts.taskTimeout > 0 {
				var cancel context.CancelFunc
				taskCtx, cancel = context.WithTimeout(gctx, e.opts.taskTimeout)
				defer cancel()
			}

			v, err := task(taskCtx)
			if err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}
			results[i] = v
			return nil
		})
	}

	err := g.Wait()
	batchFlushDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		batchFailures.Inc()
		e.opts.logger.Warn().
			Err(err).
			Int(logging.FieldBatchSize, len(tasks)).
			Str("trigger", trigger).
			Msg("Batch flush failed")
		return nil, &ExecutionError{Size: len(tasks), Err: err}
	}

	e.opts.logger.Debug().
		Int(logging.FieldBatchSize, len(tasks)).
		Str("trigger", trigger).
		Dur("duration", time.Since(start)).
		Msg("Batch flushed")

	return results, nil
}
