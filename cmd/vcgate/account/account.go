// Package account implements the repository account commands.
package account

import (
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/proto"
)

// Command is the command for managing the accounts of a repository.
var Command = &cobra.Command{
	Use:                "account",
	Aliases:            []string{"accounts"},
	Short:              "Manage repository accounts",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

func init() {
	var (
		user   string
		unbind bool
		fields []string
	)

	createCmd := &cobra.Command{
		Use:   "create REPOSITORY USERNAME",
		Short: "Register an account in a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			fs, err := cmd.ParseFields(fields)
			if err != nil {
				return err
			}

			acc, err := be.CreateAccount(ctx, args[0], args[1], proto.AccountOptions{
				User:   user,
				Fields: fs,
			})
			if err != nil {
				return err
			}

			c.PrintErrf("Created account %s in %s\n", acc.Username, args[0])
			return nil
		},
	}
	createCmd.Flags().StringVarP(&user, "user", "u", "", "bind the account to a registered user")
	createCmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "plugin fields as key=value")

	updateCmd := &cobra.Command{
		Use:   "update REPOSITORY USERNAME",
		Short: "Update an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			fs, err := cmd.ParseFields(fields)
			if err != nil {
				return err
			}

			_, err = be.UpdateAccount(ctx, args[0], args[1], proto.AccountOptions{
				User:   user,
				Unbind: unbind,
				Fields: fs,
			})
			return err
		},
	}
	updateCmd.Flags().StringVarP(&user, "user", "u", "", "bind the account to a registered user")
	updateCmd.Flags().BoolVar(&unbind, "unbind", false, "remove the user binding")
	updateCmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "plugin fields as key=value")
	updateCmd.MarkFlagsMutuallyExclusive("user", "unbind")

	deleteCmd := &cobra.Command{
		Use:     "delete REPOSITORY USERNAME",
		Aliases: []string{"del", "remove", "rm"},
		Short:   "Delete an account",
		Args:    cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			return be.DeleteAccount(ctx, args[0], args[1])
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info REPOSITORY USERNAME",
		Short: "Get information about an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			acc, err := be.Account(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			c.Println("Username:", acc.Username)
			c.Println("Repository:", args[0])
			if acc.UserID > 0 {
				u, err := be.UserByID(ctx, acc.UserID)
				if err != nil {
					return err
				}
				c.Println("User:", u.Username)
			}
			c.Println("Created:", humanize.Time(acc.CreatedAt))
			ns := make([]string, 0, len(acc.Data))
			for k := range acc.Data {
				ns = append(ns, k)
			}
			sort.Strings(ns)
			for _, k := range ns {
				c.Printf("Data %s: %s\n", k, acc.Data[k])
			}

			return nil
		},
	}

	var (
		asJSON  bool
		filters []string
	)
	listCmd := &cobra.Command{
		Use:     "list REPOSITORY",
		Aliases: []string{"ls"},
		Short:   "List the accounts of a repository",
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			fs, err := cmd.ParseFields(filters)
			if err != nil {
				return err
			}

			l, err := be.Accounts(ctx, args[0], extension.ListOptions{Filters: fs})
			if err != nil {
				return err
			}

			if asJSON {
				return cmd.PrintJSON(c.OutOrStdout(), l)
			}

			users := map[int64]string{}
			t := cmd.ListingTable(l, []string{"Username", "User", "Created"}, func(a *proto.Account) []string {
				u := ""
				if a.UserID > 0 {
					if _, ok := users[a.UserID]; !ok {
						users[a.UserID] = strconv.FormatInt(a.UserID, 10)
						if ru, err := be.UserByID(ctx, a.UserID); err == nil {
							users[a.UserID] = ru.Username
						}
					}
					u = users[a.UserID]
				}
				return []string{a.Username, u, humanize.Time(a.CreatedAt)}
			})
			c.Println(t)

			return nil
		},
	}
	listCmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print the listing as JSON")
	listCmd.Flags().StringArrayVar(&filters, "filter", nil, "listing filters as key=value, e.g. bound=no")

	Command.AddCommand(
		createCmd,
		deleteCmd,
		infoCmd,
		listCmd,
		updateCmd,
	)
}
