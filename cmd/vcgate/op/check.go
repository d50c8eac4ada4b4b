package op

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/backend"
)

// checkCommand arbitrates a proposal without recording it. The command
// fails when the proposal is denied.
func checkCommand() *cobra.Command {
	var asJSON bool

	cc := &cobra.Command{
		Use:   "check REPOSITORY [FILE]",
		Short: "Check whether an operation would be allowed",
		Long:  "Check whether an operation would be allowed. The proposal is read as JSON or YAML from FILE or stdin.",
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

			dec, err := be.AuthorizeOperation(ctx, op, items)
			if err != nil {
				return err
			}

			if asJSON {
				if err := cmd.PrintJSON(c.OutOrStdout(), dec); err != nil {
					return err
				}
			} else {
				printDecision(c, dec)
			}

			return dec.Err()
		},
	}

	cc.Flags().BoolVarP(&asJSON, "json", "j", false, "print the decision as JSON")

	return cc
}

// printDecision prints the verdict of every check.
func printDecision(c *cobra.Command, dec access.Decision) {
	t := cmd.NewTable("Check", "Verdict", "Message")
	for _, o := range dec.Outcomes {
		t.Row(o.Check, o.Verdict.String(), strings.Join(o.Messages, "\n"))
	}
	c.Println(t)

	status := lipgloss.NewStyle().Bold(true)
	switch {
	case dec.Forced:
		c.Println(status.Render("Allowed (forced)"))
	case dec.Allowed:
		c.Println(status.Render("Allowed"))
	default:
		c.Println(status.Render("Denied"))
	}
}
