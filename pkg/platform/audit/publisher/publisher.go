// Package publisher emits audit events to a store, optionally through an
// async buffer so request paths never wait on audit persistence.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	id "talaty/pkg/domain"
	audit "talaty/pkg/platform/audit"
	"talaty/pkg/requestcontext"
)

var ErrBufferFull = errors.New("audit buffer full")

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	buffer         chan audit.Event
	persistTimeout time.Duration
	dropped        atomic.Int64
	wg             sync.WaitGroup
	once           sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission through a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan audit.Event, n)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithPersistTimeout bounds each background write. Defaults to 5s.
func WithPersistTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.persistTimeout = d
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default(), persistTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event stamped with the request time. In async mode a full
// buffer returns ErrBufferFull and the event is dropped.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	event = audit.Enrich(ctx, event)

	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.dropped.Add(1)
		p.logger.Warn("audit buffer full, dropping event",
			"action", event.Action,
			"user_id", event.UserID.String(),
		)
		return ErrBufferFull
	}
}

// List returns the events recorded for a user.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Dropped counts events rejected because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting async events and drains what is buffered.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer == nil {
			return
		}
		close(p.buffer)
		p.wg.Wait()
		if n := p.dropped.Load(); n > 0 {
			p.logger.Warn("audit publisher closed with dropped events", "dropped", n)
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		ctx, cancel := context.WithTimeout(context.Background(), p.persistTimeout)
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.Error("failed to persist audit event",
				"action", event.Action,
				"user_id", event.UserID.String(),
				"error", err,
			)
		}
		cancel()
	}
}
