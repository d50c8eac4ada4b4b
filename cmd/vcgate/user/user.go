// Package user implements the user registry commands.
package user

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/proto"
)

// Command is the user subcommand.
var Command = &cobra.Command{
	Use:                "user",
	Aliases:            []string{"users"},
	Short:              "Manage users",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

func init() {
	var admin bool
	userCreateCommand := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			be := backend.FromContext(ctx)
			_, err := be.CreateUser(ctx, args[0], proto.UserOptions{
				Admin: admin,
			})
			return err
		},
	}

	userCreateCommand.Flags().BoolVarP(&admin, "admin", "a", false, "make the user an admin")

	userDeleteCommand := &cobra.Command{
		Use:   "delete USERNAME",
		Short: "Delete a user",
		Long:  "Delete a user. Accounts bound to the user become unbound.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			be := backend.FromContext(ctx)

			return be.DeleteUser(ctx, args[0])
		},
	}

	userListCommand := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			be := backend.FromContext(ctx)
			users, err := be.Users(ctx)
			if err != nil {
				return err
			}

			sort.Slice(users, func(i, j int) bool {
				return users[i].Username < users[j].Username
			})
			for _, u := range users {
				cmd.Println(u.Username)
			}

			return nil
		},
	}

	userSetAdminCommand := &cobra.Command{
		Use:   "set-admin USERNAME [true|false]",
		Short: "Make a user an admin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			be := backend.FromContext(ctx)
			isAdmin, err := strconv.ParseBool(args[1])
			if err != nil {
				return err
			}

			return be.SetAdmin(ctx, args[0], isAdmin)
		},
	}

	userInfoCommand := &cobra.Command{
		Use:   "info USERNAME",
		Short: "Show information about a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			be := backend.FromContext(ctx)
			user, err := be.User(ctx, args[0])
			if err != nil {
				return err
			}

			accounts, err := be.UserAccounts(ctx, user.Username)
			if err != nil {
				return err
			}

			cmd.Printf("Username: %s\n", user.Username)
			cmd.Printf("Admin: %t\n", user.Admin)
			cmd.Printf("Accounts:\n")
			for _, acc := range accounts {
				repo := strconv.FormatInt(acc.RepoID, 10)
				if r, err := be.RepositoryByID(ctx, acc.RepoID); err == nil {
					repo = r.Name
				}
				cmd.Printf("  %s: %s\n", repo, acc.Username)
			}

			return nil
		},
	}

	Command.AddCommand(
		userCreateCommand,
		userInfoCommand,
		userListCommand,
		userDeleteCommand,
		userSetAdminCommand,
	)
}
