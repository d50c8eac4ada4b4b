package repo

import (
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/pkg/backend"
)

func deleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete REPOSITORY",
		Aliases: []string{"del", "remove", "rm"},
		Short:   "Delete a repository",
		Long:    "Delete a repository with its accounts, operations and webhooks.",
		Args:    cobra.ExactArgs(1),
		RunE: func(co *cobra.Command, args []string) error {
			ctx := co.Context()
			be := backend.FromContext(ctx)

			return be.DeleteRepository(ctx, args[0])
		},
	}

	return cmd
}
