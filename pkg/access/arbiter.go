package access

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vcgate/vcgate/pkg/proto"
)

var decisionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vcgate",
	Subsystem: "access",
	Name:      "decisions_total",
	Help:      "The total number of access decisions",
}, []string{"verdict"})

// Check decides whether a proposed operation may be recorded.
type Check interface {
	Check(ctx context.Context, op *proto.Operation, items []proto.Item) Result
}

// CheckFunc is an adapter to allow the use of ordinary functions as checks.
type CheckFunc func(ctx context.Context, op *proto.Operation, items []proto.Item) Result

// Check calls f(ctx, op, items).
func (f CheckFunc) Check(ctx context.Context, op *proto.Operation, items []proto.Item) Result {
	return f(ctx, op, items)
}

type namedCheck struct {
	name  string
	check Check
}

// Arbiter polls registered checks in registration order.
type Arbiter struct {
	mu     sync.RWMutex
	checks []namedCheck
}

// NewArbiter returns an arbiter without checks.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// Register appends a check.
func (a *Arbiter) Register(name string, c Check) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checks = append(a.checks, namedCheck{name: name, check: c})
}

// Checks returns the check names in registration order.
func (a *Arbiter) Checks() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, len(a.checks))
	for i, c := range a.checks {
		names[i] = c.name
	}
	return names
}

// Evaluate runs every check against the proposal.
//
// All checks run even after a force allow, so each outcome gets logged.
// A force allow wins over any denial. Otherwise the operation is denied
// when any check returned messages, in check order then message order.
func (a *Arbiter) Evaluate(ctx context.Context, op *proto.Operation, items []proto.Item) Decision {
	a.mu.RLock()
	checks := make([]namedCheck, len(a.checks))
	copy(checks, a.checks)
	a.mu.RUnlock()

	logger := log.FromContext(ctx).WithPrefix("access")
	d := Decision{Messages: []string{}}
	var denials []string
	for _, c := range checks {
		res := run(ctx, c, op, items)
		logger.Debug("access check", "check", c.name, "verdict", res.Verdict(),
			"repo", op.RepositoryName(), "type", op.Type, "author", op.Author.Username)

		d.Outcomes = append(d.Outcomes, Outcome{
			Check:    c.name,
			Verdict:  res.Verdict(),
			Messages: res.Messages(),
		})
		switch res.Verdict() {
		case VerdictForceAllow:
			d.Forced = true
		case VerdictDeny:
			denials = append(denials, res.Messages()...)
		}
	}

	switch {
	case d.Forced:
		d.Allowed = true
		d.Suppressed = denials
		decisionCounter.WithLabelValues("force-allow").Inc()
	case len(denials) > 0:
		d.Messages = denials
		decisionCounter.WithLabelValues("deny").Inc()
	default:
		d.Allowed = true
		decisionCounter.WithLabelValues("allow").Inc()
	}

	logger.Info("access decision", "repo", op.RepositoryName(), "type", op.Type,
		"author", op.Author.Username, "allowed", d.Allowed, "forced", d.Forced)

	return d
}

// run calls the check and turns a panic into a denial.
func run(ctx context.Context, c namedCheck, op *proto.Operation, items []proto.Item) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.FromContext(ctx).WithPrefix("access").Error("access check panic", "check", c.name, "panic", r)
			res = Deny(fmt.Sprintf("** ERROR: access check %s failed.", c.name))
		}
	}()
	return c.check.Check(ctx, op, items)
}
