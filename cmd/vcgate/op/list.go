package op

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/proto"
)

// parseTime parses an RFC 3339 date or a duration relative to now.
func parseTime(now time.Time, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := duration.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want an RFC 3339 date or a duration", s)
	}
	return now.Add(-d), nil
}

func listCommand() *cobra.Command {
	var (
		asJSON bool
		filter backend.OperationFilter
		types  []string
		since  string
		until  string
	)

	lc := &cobra.Command{
		Use:     "list [REPOSITORY]",
		Aliases: []string{"ls", "log"},
		Short:   "List recorded operations, newest first",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			if len(args) > 0 {
				filter.Repository = args[0]
			}

			for _, s := range types {
				var t proto.OperationType
				if err := t.UnmarshalText([]byte(s)); err != nil {
					return err
				}
				filter.Types = append(filter.Types, t)
			}

			now := time.Now()
			var err error
			if filter.Since, err = parseTime(now, since); err != nil {
				return err
			}
			if filter.Until, err = parseTime(now, until); err != nil {
				return err
			}

			ops, err := be.Operations(ctx, filter)
			if err != nil {
				return err
			}

			if asJSON {
				return cmd.PrintJSON(c.OutOrStdout(), ops)
			}

			t := cmd.NewTable("ID", "Type", "Repository", "Author", "Revision", "Labels", "Date", "Message")
			for _, op := range ops {
				labels := make([]string, len(op.Labels))
				for i, l := range op.Labels {
					labels[i] = l.Name
				}
				msg, _, _ := strings.Cut(strings.TrimSpace(op.Message), "\n")
				t.Row(
					strconv.FormatInt(op.ID, 10),
					op.Type.String(),
					op.RepositoryName(),
					op.Author.Username,
					op.Revision,
					strings.Join(labels, ","),
					humanize.Time(op.Date),
					msg,
				)
			}
			c.Println(t)

			return nil
		},
	}

	lc.Flags().BoolVarP(&asJSON, "json", "j", false, "print the operations as JSON")
	lc.Flags().StringSliceVarP(&types, "type", "t", nil, "operation types: commit, branch or tag")
	lc.Flags().StringVarP(&filter.Author, "author", "a", "", "VCS username of the author")
	lc.Flags().StringVarP(&filter.Label, "label", "l", "", "branch or tag name")
	lc.Flags().StringVar(&since, "since", "", `oldest date, RFC 3339 or a duration such as "7d"`)
	lc.Flags().StringVar(&until, "until", "", "newest date, RFC 3339 or a duration")
	lc.Flags().IntVarP(&filter.Limit, "limit", "n", 0, "maximum number of operations")
	lc.Flags().IntVar(&filter.Offset, "offset", 0, "number of operations to skip")

	return lc
}
