package plugins

import (
	"context"

	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/webhook"
)

func initWebhook(ctx context.Context, r *extension.Registry) error {
	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}
	be, err := backendFrom(ctx)
	if err != nil {
		return err
	}

	sub := webhook.NewSubscriber(be.DB(), be.Store())
	r.RegisterNotificationSubscriber("webhook", notify.SubscriberFunc(func(ctx context.Context, e notify.Event) error {
		if config.FromContext(ctx) == nil {
			ctx = config.WithContext(ctx, cfg)
		}
		return sub.Notify(ctx, e)
	}))
	return nil
}
