// Package webhook implements the repository webhook commands.
package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/webhook"
)

// Command is the command for managing repository webhooks.
var Command = &cobra.Command{
	Use:                "webhook",
	Aliases:            []string{"webhooks"},
	Short:              "Manage repository webhooks",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

var webhookEvents []string

func init() {
	events := webhook.Events()
	webhookEvents = make([]string, len(events))
	for i, e := range events {
		webhookEvents[i] = e.String()
	}

	Command.AddCommand(
		webhookListCommand(),
		webhookCreateCommand(),
		webhookDeleteCommand(),
		webhookUpdateCommand(),
		webhookDeliveriesCommand(),
	)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid webhook ID: %w", err)
	}
	return id, nil
}

func parseEvents(events []string) ([]webhook.Event, error) {
	evs := make([]webhook.Event, 0, len(events))
	for _, e := range events {
		ev, err := webhook.ParseEvent(strings.TrimSpace(e))
		if err != nil {
			return nil, fmt.Errorf("invalid event: %w", err)
		}

		evs = append(evs, ev)
	}
	return evs, nil
}

func webhookListCommand() *cobra.Command {
	wc := &cobra.Command{
		Use:   "list REPOSITORY",
		Short: "List repository webhooks",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			webhooks, err := be.ListWebhooks(ctx, args[0])
			if err != nil {
				return err
			}

			t := cmd.NewTable("ID", "URL", "Events", "Content Type", "Active", "Created At", "Updated At")
			for _, h := range webhooks {
				events := make([]string, len(h.Events))
				for i, e := range h.Events {
					events[i] = e.String()
				}

				t.Row(
					strconv.FormatInt(h.ID, 10),
					h.URL,
					strings.Join(events, ","),
					h.ContentType.String(),
					strconv.FormatBool(h.Active),
					humanize.Time(h.CreatedAt),
					humanize.Time(h.UpdatedAt),
				)
			}
			c.Println(t)
			return nil
		},
	}

	return wc
}

func webhookCreateCommand() *cobra.Command {
	var events []string
	var secret string
	var active bool
	var contentType string
	wc := &cobra.Command{
		Use:   "create REPOSITORY URL",
		Short: "Create a repository webhook",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			evs, err := parseEvents(events)
			if err != nil {
				return err
			}

			ct, err := webhook.ParseContentType(contentType)
			if err != nil {
				return err
			}

			h, err := be.CreateWebhook(ctx, args[0], strings.TrimSpace(args[1]), ct, secret, evs, active)
			if err != nil {
				return err
			}

			c.Println(h.ID)
			return nil
		},
	}

	wc.Flags().StringSliceVarP(&events, "events", "e", webhookEvents, fmt.Sprintf("events to trigger the webhook, available events are (%s)", strings.Join(webhookEvents, ", ")))
	wc.Flags().StringVarP(&secret, "secret", "s", "", "secret to sign the webhook payload")
	wc.Flags().BoolVarP(&active, "active", "a", true, "whether the webhook is active")
	wc.Flags().StringVarP(&contentType, "content-type", "c", "json", "content type of the webhook payload, one of `json`, `form` or `yaml`")

	return wc
}

func webhookDeleteCommand() *cobra.Command {
	wc := &cobra.Command{
		Use:   "delete REPOSITORY WEBHOOK_ID",
		Short: "Delete a repository webhook",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			return be.DeleteWebhook(ctx, args[0], id)
		},
	}

	return wc
}

func webhookUpdateCommand() *cobra.Command {
	var events []string
	var secret string
	var active string
	var contentType string
	var url string
	wc := &cobra.Command{
		Use:   "update REPOSITORY WEBHOOK_ID",
		Short: "Update a repository webhook",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			repo := args[0]
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			wh, err := be.Webhook(ctx, repo, id)
			if err != nil {
				return err
			}

			newURL := wh.URL
			if url != "" {
				newURL = url
			}

			newSecret := wh.Secret
			if secret != "" {
				newSecret = secret
			}

			newActive := wh.Active
			if active != "" {
				active, err := strconv.ParseBool(active)
				if err != nil {
					return fmt.Errorf("invalid active value: %w", err)
				}

				newActive = active
			}

			newContentType := wh.ContentType
			if contentType != "" {
				newContentType, err = webhook.ParseContentType(contentType)
				if err != nil {
					return err
				}
			}

			newEvents := wh.Events
			if len(events) > 0 {
				newEvents, err = parseEvents(events)
				if err != nil {
					return err
				}
			}

			_, err = be.UpdateWebhook(ctx, repo, id, newURL, newContentType, newSecret, newEvents, newActive)
			return err
		},
	}

	wc.Flags().StringSliceVarP(&events, "events", "e", nil, fmt.Sprintf("events to trigger the webhook, available events are (%s)", strings.Join(webhookEvents, ", ")))
	wc.Flags().StringVarP(&secret, "secret", "s", "", "secret to sign the webhook payload")
	wc.Flags().StringVarP(&active, "active", "a", "", "whether the webhook is active")
	wc.Flags().StringVarP(&contentType, "content-type", "c", "", "content type of the webhook payload, one of `json`, `form` or `yaml`")
	wc.Flags().StringVarP(&url, "url", "u", "", "webhook URL")

	return wc
}

func webhookDeliveriesCommand() *cobra.Command {
	wc := &cobra.Command{
		Use:     "deliveries",
		Short:   "Manage webhook deliveries",
		Aliases: []string{"delivery", "deliver"},
	}

	wc.AddCommand(
		webhookDeliveriesListCommand(),
		webhookDeliveriesRedeliverCommand(),
		webhookDeliveriesGetCommand(),
	)

	return wc
}

func webhookDeliveriesListCommand() *cobra.Command {
	wc := &cobra.Command{
		Use:   "list REPOSITORY WEBHOOK_ID",
		Short: "List webhook deliveries",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			dels, err := be.ListWebhookDeliveries(ctx, args[0], id)
			if err != nil {
				return err
			}

			t := cmd.NewTable("Status", "ID", "Event", "Created At")
			for _, d := range dels {
				status := "failed"
				if d.ResponseStatus >= 200 && d.ResponseStatus < 300 {
					status = "ok"
				}
				t.Row(
					status,
					d.ID.String(),
					d.Event.String(),
					humanize.Time(d.CreatedAt),
				)
			}
			c.Println(t)
			return nil
		},
	}

	return wc
}

func parseDelivery(args []string) (int64, uuid.UUID, error) {
	id, err := parseID(args[1])
	if err != nil {
		return 0, uuid.Nil, err
	}

	delID, err := uuid.Parse(args[2])
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("invalid delivery ID: %w", err)
	}

	return id, delID, nil
}

func webhookDeliveriesRedeliverCommand() *cobra.Command {
	wc := &cobra.Command{
		Use:   "redeliver REPOSITORY WEBHOOK_ID DELIVERY_ID",
		Short: "Redeliver a webhook delivery",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			id, delID, err := parseDelivery(args)
			if err != nil {
				return err
			}

			return be.RedeliverWebhookDelivery(ctx, args[0], id, delID)
		},
	}

	return wc
}

func webhookDeliveriesGetCommand() *cobra.Command {
	wc := &cobra.Command{
		Use:   "get REPOSITORY WEBHOOK_ID DELIVERY_ID",
		Short: "Get a webhook delivery",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			id, delID, err := parseDelivery(args)
			if err != nil {
				return err
			}

			del, err := be.WebhookDelivery(ctx, args[0], id, delID)
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "ID: %s\n", del.ID)                             //nolint:errcheck
			fmt.Fprintf(out, "Event: %s\n", del.Event)                       //nolint:errcheck
			fmt.Fprintf(out, "Request URL: %s\n", del.RequestURL)            //nolint:errcheck
			fmt.Fprintf(out, "Request Method: %s\n", del.RequestMethod)      //nolint:errcheck
			fmt.Fprintf(out, "Request Error: %s\n", del.RequestError.String) //nolint:errcheck
			printIndented(c, "Request Headers", del.RequestHeaders)
			printIndented(c, "Request Body", del.RequestBody)
			fmt.Fprintf(out, "Response Status: %d\n", del.ResponseStatus) //nolint:errcheck
			printIndented(c, "Response Headers", del.ResponseHeaders)
			printIndented(c, "Response Body", del.ResponseBody)

			return nil
		},
	}

	return wc
}

func printIndented(c *cobra.Command, title string, s string) {
	out := c.OutOrStdout()
	fmt.Fprintf(out, "%s:\n", title) //nolint:errcheck
	for _, l := range strings.Split(s, "\n") {
		fmt.Fprintf(out, "  %s\n", l) //nolint:errcheck
	}
}
