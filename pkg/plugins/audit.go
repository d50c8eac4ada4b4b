package plugins

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/notify"
)

// auditEvent writes one log line per event.
func auditEvent(logger *log.Logger) notify.SubscriberFunc {
	return func(_ context.Context, e notify.Event) error {
		kv := []interface{}{"scope", e.Scope, "action", e.Action}
		if e.Repository != nil {
			kv = append(kv, "repo", e.Repository.Name)
		}
		switch e.Scope {
		case notify.ScopeOperation:
			if e.Operation != nil {
				kv = append(kv,
					"id", e.Operation.ID,
					"type", e.Operation.Type,
					"author", e.Operation.Author.Username,
					"labels", len(e.Operation.Labels),
					"items", len(e.Items),
				)
			}
		case notify.ScopeAccount:
			if e.Account != nil {
				kv = append(kv, "username", e.Account.Username, "bound", e.Account.UserID > 0)
			}
		}
		logger.Info("change", kv...)
		return nil
	}
}

func initAudit(ctx context.Context, r *extension.Registry) error {
	r.RegisterNotificationSubscriber("audit", auditEvent(log.FromContext(ctx).WithPrefix("audit")))
	return nil
}
