package repo

import (
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/proto"
)

// updateCommand changes the settings of a repository. Unset flags leave
// the current values.
func updateCommand() *cobra.Command {
	var root string
	var method string
	var fields []string

	uc := &cobra.Command{
		Use:   "update REPOSITORY",
		Short: "Update a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(co *cobra.Command, args []string) error {
			ctx := co.Context()
			be := backend.FromContext(ctx)
			fs, err := cmd.ParseFields(fields)
			if err != nil {
				return err
			}

			r, err := be.UpdateRepository(ctx, args[0], proto.RepositoryOptions{
				Root:                root,
				AuthorizationMethod: method,
				Fields:              fs,
			})
			if err != nil {
				return err
			}

			co.PrintErrf("Updated repository %s\n", r.Name)

			return nil
		},
	}

	uc.Flags().StringVarP(&root, "root", "r", "", "the location of the repository")
	uc.Flags().StringVarP(&method, "method", "m", "", "the authorization method")
	uc.Flags().StringArrayVarP(&fields, "field", "f", nil, "plugin fields as key=value")

	return uc
}
