package repo

import (
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/hooks"
	"github.com/vcgate/vcgate/pkg/proto"
	vcsgit "github.com/vcgate/vcgate/pkg/vcs/git"
)

// createCommand is the command for registering a repository.
func createCommand() *cobra.Command {
	var vcs string
	var root string
	var method string
	var fields []string

	cc := &cobra.Command{
		Use:   "create REPOSITORY",
		Short: "Register a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(co *cobra.Command, args []string) error {
			ctx := co.Context()
			cfg := config.FromContext(ctx)
			be := backend.FromContext(ctx)
			fs, err := cmd.ParseFields(fields)
			if err != nil {
				return err
			}

			r, err := be.CreateRepository(ctx, args[0], proto.RepositoryOptions{
				VCS:                 vcs,
				Root:                root,
				AuthorizationMethod: method,
				Fields:              fs,
			})
			if err != nil {
				return err
			}

			if r.VCS == vcsgit.Kind && r.Root != "" {
				if err := hooks.GenerateHooks(ctx, cfg, r.Name, r.Root); err != nil {
					return err
				}
			}

			co.PrintErrf("Created repository %s\n", r.Name)

			return nil
		},
	}

	cc.Flags().StringVarP(&vcs, "vcs", "v", vcsgit.Kind, "the version control system of the repository")
	cc.Flags().StringVarP(&root, "root", "r", "", "the location of the repository")
	cc.Flags().StringVarP(&method, "method", "m", "", "the authorization method, defaults to the configured one")
	cc.Flags().StringArrayVarP(&fields, "field", "f", nil, "plugin fields as key=value")

	return cc
}
