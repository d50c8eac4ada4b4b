package op

import (
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/pkg/backend"
)

// ingestCommand arbitrates a proposal and records it when allowed.
func ingestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest REPOSITORY [FILE]",
		Short: "Arbitrate and record an operation",
		Long:  "Arbitrate and record an operation. The proposal is read as JSON or YAML from FILE or stdin.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			path := "-"
			if len(args) > 1 {
				path = args[1]
			}

			op, items, err := readProposal(c, args[0], path)
			if err != nil {
				return err
			}

			if _, err := be.Ingest(ctx, op, items); err != nil {
				return err
			}

			c.Println(op.ID)
			return nil
		},
	}
}
