package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var failureCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vcgate",
	Subsystem: "notify",
	Name:      "failures_total",
	Help:      "The total number of failed notifications",
}, []string{"subscriber"})

// Subscriber receives broadcast events.
type Subscriber interface {
	Notify(ctx context.Context, e Event) error
}

// SubscriberFunc is an adapter to allow the use of ordinary functions as
// subscribers.
type SubscriberFunc func(ctx context.Context, e Event) error

// Notify calls f(ctx, e).
func (f SubscriberFunc) Notify(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// SubscriberError is a failure of a single subscriber.
type SubscriberError struct {
	Name string
	Err  error
}

// Error implements error.
func (e *SubscriberError) Error() string {
	return fmt.Sprintf("subscriber %s: %v", e.Name, e.Err)
}

// Unwrap returns the subscriber error.
func (e *SubscriberError) Unwrap() error {
	return e.Err
}

type namedSubscriber struct {
	name string
	sub  Subscriber
}

// Notifier broadcasts events to subscribers in registration order.
type Notifier struct {
	mu   sync.RWMutex
	subs []namedSubscriber
}

// NewNotifier returns a notifier without subscribers.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe appends a subscriber.
func (n *Notifier) Subscribe(name string, s Subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, namedSubscriber{name: name, sub: s})
}

// Subscribers returns the subscriber names in registration order.
func (n *Notifier) Subscribers() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, len(n.subs))
	for i, s := range n.subs {
		names[i] = s.name
	}
	return names
}

// Publish calls every subscriber with e. A failing subscriber doesn't stop
// the others. The returned error joins a *SubscriberError per failure.
func (n *Notifier) Publish(ctx context.Context, e Event) error {
	n.mu.RLock()
	subs := make([]namedSubscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	logger := log.FromContext(ctx).WithPrefix("notify")
	var errs []error
	for _, s := range subs {
		if err := deliver(ctx, s, e); err != nil {
			logger.Error("subscriber failed", "subscriber", s.name, "scope", e.Scope, "action", e.Action, "err", err)
			failureCounter.WithLabelValues(s.name).Inc()
			errs = append(errs, &SubscriberError{Name: s.name, Err: err})
		}
	}

	return errors.Join(errs...)
}

func deliver(ctx context.Context, s namedSubscriber, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.sub.Notify(ctx, e)
}
