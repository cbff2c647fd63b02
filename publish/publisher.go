// Package publish delivers trajectories to the downstream controller without letting a slow
// consumer stall the producer. At most one undelivered item is held; a newer offer replaces it.
package publish

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/trajectory/logging"
)

// A Sink is the downstream consumer. Deliver may block; it must return when ctx is cancelled.
type Sink[T any] interface {
	Deliver(ctx context.Context, item T) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc[T any] func(ctx context.Context, item T) error

// Deliver calls f.
func (f SinkFunc[T]) Deliver(ctx context.Context, item T) error {
	return f(ctx, item)
}

// Stats are lifetime counters. Offered = Delivered + Dropped + (at most one pending or in flight).
type Stats struct {
	Offered   uint64
	Delivered uint64
	Dropped   uint64
}

// Publisher hands items to a Sink from a single background worker.
type Publisher[T any] struct {
	sink   Sink[T]
	logger logging.Logger

	// offerMu serializes the drain-and-replace in Offer so a send on slot never blocks.
	offerMu sync.Mutex
	slot    chan T

	offered   atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64

	failOnce sync.Once
	failed   chan struct{}
	err      atomic.Error

	workers *goutils.StoppableWorkers
}

// New starts a publisher delivering to sink.
func New[T any](sink Sink[T], logger logging.Logger) *Publisher[T] {
	p := &Publisher[T]{
		sink:   sink,
		logger: logger,
		slot:   make(chan T, 1),
		failed: make(chan struct{}),
	}
	p.workers = goutils.NewBackgroundStoppableWorkers(p.deliverLoop)
	return p
}

// Offer queues item for delivery and never blocks. It reports whether an older undelivered item
// was discarded to make room. After a delivery failure every offer is dropped.
func (p *Publisher[T]) Offer(item T) (replaced bool) {
	p.offerMu.Lock()
	defer p.offerMu.Unlock()

	p.offered.Inc()
	select {
	case <-p.failed:
		p.dropped.Inc()
		return false
	default:
	}

	select {
	case p.slot <- item:
		return false
	default:
	}

	select {
	case <-p.slot:
		p.dropped.Inc()
		replaced = true
	default:
		// the worker took the pending item between the two selects
	}
	p.slot <- item
	return replaced
}

func (p *Publisher[T]) deliverLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-p.slot:
			if err := p.sink.Deliver(ctx, item); err != nil {
				if ctx.Err() != nil {
					return
				}
				p.fail(err)
				return
			}
			p.delivered.Inc()
		}
	}
}

func (p *Publisher[T]) fail(err error) {
	p.failOnce.Do(func() {
		p.err.Store(errors.Wrap(err, "trajectory delivery failed"))
		p.logger.Errorw("delivery failed, no further trajectories will be published", "error", err)
		close(p.failed)
	})
}

// Failed is closed when a delivery fails.
func (p *Publisher[T]) Failed() <-chan struct{} {
	return p.failed
}

// Err returns the delivery failure, if any.
func (p *Publisher[T]) Err() error {
	return p.err.Load()
}

// Stats returns a snapshot of the counters.
func (p *Publisher[T]) Stats() Stats {
	return Stats{
		Offered:   p.offered.Load(),
		Delivered: p.delivered.Load(),
		Dropped:   p.dropped.Load(),
	}
}

// Flush waits until every offered item has been delivered or dropped. It returns the delivery
// failure if one happens first.
func (p *Publisher[T]) Flush(ctx context.Context) error {
	for {
		s := p.Stats()
		if s.Offered == s.Delivered+s.Dropped {
			return nil
		}
		select {
		case <-p.failed:
			return p.Err()
		default:
		}
		if !goutils.SelectContextOrWait(ctx, time.Millisecond) {
			return ctx.Err()
		}
	}
}

// Close stops the worker. A delivery in progress sees its context cancelled.
func (p *Publisher[T]) Close() {
	p.workers.Stop()
}
