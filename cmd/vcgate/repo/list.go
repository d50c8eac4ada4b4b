package repo

import (
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/proto"
)

// listCommand returns a command that lists the repositories.
func listCommand() *cobra.Command {
	var asJSON bool
	var filters []string

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List repositories",
		Args:    cobra.NoArgs,
		RunE: func(co *cobra.Command, _ []string) error {
			ctx := co.Context()
			be := backend.FromContext(ctx)
			fs, err := cmd.ParseFields(filters)
			if err != nil {
				return err
			}

			l, err := be.Repositories(ctx, extension.ListOptions{Filters: fs})
			if err != nil {
				return err
			}

			if asJSON {
				return cmd.PrintJSON(co.OutOrStdout(), l)
			}

			t := cmd.ListingTable(l, []string{"Name", "VCS", "Method", "Root"}, func(r *proto.Repository) []string {
				return []string{r.Name, r.VCS, r.AuthorizationMethod, r.Root}
			})
			co.Println(t)

			return nil
		},
	}

	listCmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print the listing as JSON")
	listCmd.Flags().StringArrayVar(&filters, "filter", nil, "listing filters as key=value")

	return listCmd
}
