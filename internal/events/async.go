package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrPublisherClosed = errors.New("publisher closed")
	ErrQueueFull       = errors.New("event queue full")
)

const (
	defaultAsyncWorkers = 4
	defaultAsyncQueue   = 256
	defaultAsyncTimeout = 10 * time.Second
)

type asyncJob struct {
	ctx   context.Context
	event Event
}

// Async hands events to a fixed pool of workers so slow sinks (webhooks,
// brokers) stay off the request path. Publish never blocks: a full queue
// drops the event and reports ErrQueueFull.
type Async struct {
	inner   Publisher
	logger  *slog.Logger
	timeout time.Duration
	queue   chan asyncJob
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type AsyncOptions struct {
	Workers   int
	QueueSize int
	// Timeout bounds one delivery to the wrapped sink.
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewAsync(inner Publisher, opts AsyncOptions) *Async {
	if opts.Workers <= 0 {
		opts.Workers = defaultAsyncWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultAsyncQueue
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultAsyncTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	a := &Async{
		inner:   inner,
		logger:  opts.Logger,
		timeout: opts.Timeout,
		queue:   make(chan asyncJob, opts.QueueSize),
	}
	for range opts.Workers {
		a.wg.Add(1)
		go a.run()
	}
	return a
}

func (a *Async) Publish(ctx context.Context, event Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrPublisherClosed
	}

	// The request context ends with the response; keep its values only.
	job := asyncJob{ctx: context.WithoutCancel(ctx), event: event}
	select {
	case a.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued deliveries to finish.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
	return nil
}

func (a *Async) run() {
	defer a.wg.Done()
	for job := range a.queue {
		ctx, cancel := context.WithTimeout(job.ctx, a.timeout)
		if err := a.inner.Publish(ctx, job.event); err != nil {
			a.logger.WarnContext(ctx, "async event delivery failed",
				"event_type", string(job.event.Type),
				"project_id", job.event.Project.ID,
				"error", err.Error(),
			)
		}
		cancel()
	}
}
