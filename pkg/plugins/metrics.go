package plugins

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/notify"
)

var (
	operationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vcgate",
		Subsystem: "operations",
		Name:      "recorded_total",
		Help:      "The total number of recorded operations",
	}, []string{"vcs", "type"})

	labelCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vcgate",
		Subsystem: "operations",
		Name:      "labels_total",
		Help:      "The total number of labels touched by recorded operations",
	}, []string{"type", "action"})

	itemCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vcgate",
		Subsystem: "operations",
		Name:      "items_total",
		Help:      "The total number of items touched by recorded operations",
	}, []string{"action"})

	changeCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vcgate",
		Subsystem: "registry",
		Name:      "changes_total",
		Help:      "The total number of repository and account changes",
	}, []string{"scope", "action"})
)

func countEvent(_ context.Context, e notify.Event) error {
	if e.Scope != notify.ScopeOperation {
		changeCounter.WithLabelValues(e.Scope.String(), e.Action.String()).Inc()
		return nil
	}
	if e.Action != notify.ActionInsert || e.Operation == nil {
		return nil
	}

	kind := ""
	if e.Repository != nil {
		kind = e.Repository.VCS
	}
	operationCounter.WithLabelValues(kind, e.Operation.Type.String()).Inc()
	for _, l := range e.Operation.Labels {
		labelCounter.WithLabelValues(l.Type.String(), l.Action.String()).Inc()
	}
	for _, it := range e.Items {
		itemCounter.WithLabelValues(it.Action.String()).Inc()
	}
	return nil
}

func initMetrics(_ context.Context, r *extension.Registry) error {
	r.RegisterNotificationSubscriber("metrics", notify.SubscriberFunc(countEvent))
	return nil
}
