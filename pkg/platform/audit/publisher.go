package audit

import (
	"context"
	"sync"
	"time"
)

// Publisher captures structured audit events. It runs synchronously by
// default; WithAsyncBuffer switches to a buffered channel drained by a
// background goroutine. Emit never blocks the caller in async mode, at the
// cost of dropping events when the buffer is full.
type Publisher struct {
	store Store

	inbox  chan Event
	quit   chan struct{}
	done   chan struct{}
	closed sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Event, size)
		}
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, quit: make(chan struct{}), done: make(chan struct{})}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.inbox != nil {
		go p.run()
	}
	return p
}

// Emit records one audit event, stamping the timestamp and category when the
// caller left them unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case <-p.quit:
		// Already closed. A late emit from an in-flight request is dropped.
		return nil
	default:
	}
	select {
	case p.inbox <- event:
	default:
		// Buffer full. Audit must never block or fail the request path.
	}
	return nil
}

// List returns the events recorded for one account.
func (p *Publisher) List(ctx context.Context, accountID string) ([]Event, error) {
	return p.store.ListByAccount(ctx, accountID)
}

// Close drains any buffered events and stops the background worker. The inbox
// is never closed so an Emit racing Close cannot panic; it is dropped instead.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		close(p.quit)
		if p.inbox == nil {
			return
		}
		<-p.done
	})
}

func (p *Publisher) run() {
	defer close(p.done)
	for {
		select {
		case event := <-p.inbox:
			// Persistence failures are dropped: the async path is best-effort.
			_ = p.store.Append(context.Background(), event)
		case <-p.quit:
			for {
				select {
				case event := <-p.inbox:
					_ = p.store.Append(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}
