package repo

import (
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/hooks"
)

// hooksCommand (re)writes the hook scripts of one or every git
// repository.
func hooksCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "hooks [REPOSITORY]",
		Short: "Update repository hooks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(co *cobra.Command, args []string) error {
			ctx := co.Context()
			cfg := config.FromContext(ctx)
			be := backend.FromContext(ctx)

			if len(args) == 0 {
				return cmd.InitializeHooks(ctx, cfg, be)
			}

			r, err := be.Repository(ctx, args[0])
			if err != nil {
				return err
			}

			return hooks.GenerateHooks(ctx, cfg, r.Name, r.Root)
		},
	}

	return c
}
