// Package repo implements the repository commands.
package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/proto"
)

// Command is the command for managing repositories.
var Command = &cobra.Command{
	Use:                "repo",
	Aliases:            []string{"repos", "repository", "repositories"},
	Short:              "Manage repositories",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

func init() {
	Command.AddCommand(
		createCommand(),
		deleteCommand(),
		hooksCommand(),
		infoCommand(),
		listCommand(),
		updateCommand(),
	)
}

func infoCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info REPOSITORY",
		Short: "Get information about a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			r, err := be.Repository(ctx, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(c, r)
			}

			c.Println("Repository:", r.Name)
			c.Println("VCS:", r.VCS)
			c.Println(strings.TrimSpace(fmt.Sprint("Root: ", r.Root)))
			c.Println("Authorization Method:", r.AuthorizationMethod)
			c.Println("Created:", humanize.Time(r.CreatedAt))
			printData(c, r.Data)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print the repository as JSON")

	return cmd
}

func printJSON(c *cobra.Command, v any) error {
	return cmd.PrintJSON(c.OutOrStdout(), v)
}

// printData prints plugin data sorted by namespace.
func printData(c *cobra.Command, data proto.ExtraData) {
	if len(data) == 0 {
		return
	}
	ns := make([]string, 0, len(data))
	for k := range data {
		ns = append(ns, k)
	}
	sort.Strings(ns)

	key := lipgloss.NewStyle().Bold(true)
	c.Println("Data:")
	for _, k := range ns {
		c.Printf("  %s: %s\n", key.Render(k), data[k])
	}
}
