// Package events implements the in-process publish/subscribe bus that
// decouples the booking engine from its side effects.
package events

import (
	"context"
	"fmt"
	"sync"

	"barberly/models"

	"go.uber.org/zap"
)

// HandlerFunc consumes one published event. A handler that returns an error
// or panics never affects sibling handlers or the publisher.
type HandlerFunc func(ctx context.Context, evt models.Event) error

// Result tags the outcome of one handler invocation. A sink receiving these
// keeps handler failures observable instead of silently swallowed.
type Result struct {
	Handler string
	Event   models.Event
	Err     error
}

type delivery struct {
	ctx context.Context
	evt models.Event
}

// subscriptionQueueSize bounds how far a slow handler may fall behind before
// Publish blocks on it.
const subscriptionQueueSize = 64

type subscription struct {
	name    string
	handler HandlerFunc
	queue   chan delivery
}

// Bus is the process-wide event bus. Publish is fire-and-forget: it does not
// wait for subscriber completion and never propagates subscriber errors to
// the caller. Each subscription owns one worker goroutine, so a handler
// processes events of its type strictly in publish order, never concurrently
// with itself.
type Bus struct {
	mu       sync.RWMutex
	handlers map[models.EventType][]*subscription
	sink     chan<- Result

	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[models.EventType][]*subscription),
		logger:   logger,
	}
}

// Subscribe registers a named handler for an event type and starts its worker.
func (b *Bus) Subscribe(t models.EventType, name string, h HandlerFunc) {
	sub := &subscription{
		name:    name,
		handler: h,
		queue:   make(chan delivery, subscriptionQueueSize),
	}
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], sub)
	b.mu.Unlock()

	go b.run(sub)
}

// SetResultSink wires a channel receiving one Result per handler invocation.
// Production wiring leaves this nil; tests use it to observe handler outcomes.
func (b *Bus) SetResultSink(ch chan<- Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = ch
}

// Publish hands evt to the worker of every subscriber of its type, in
// registration order. The handed-off context is detached from the caller's
// cancellation: the HTTP server cancels a request context the moment its
// handler returns, and side effects must outlive the request that triggered
// them. Publish only blocks when a handler's queue is full.
func (b *Bus) Publish(ctx context.Context, evt models.Event) {
	ctx = context.WithoutCancel(ctx)

	b.mu.RLock()
	subs := b.handlers[evt.Type]
	b.mu.RUnlock()

	for _, sub := range subs {
		b.wg.Add(1)
		sub.queue <- delivery{ctx: ctx, evt: evt}
	}
}

func (b *Bus) run(sub *subscription) {
	for d := range sub.queue {
		err := b.invoke(d.ctx, sub, d.evt)
		if err != nil {
			b.logger.Warn("event handler failed",
				zap.String("handler", sub.name),
				zap.String("event", string(d.evt.Type)),
				zap.Error(err),
			)
		}

		b.mu.RLock()
		sink := b.sink
		b.mu.RUnlock()
		if sink != nil {
			sink <- Result{Handler: sub.name, Event: d.evt, Err: err}
		}
		b.wg.Done()
	}
}

func (b *Bus) invoke(ctx context.Context, sub *subscription, evt models.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", sub.name, r)
		}
	}()
	return sub.handler(ctx, evt)
}

// Wait blocks until all queued deliveries finish. Used by graceful shutdown
// and tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
