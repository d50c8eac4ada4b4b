// Package op implements the operation commands.
package op

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/proto"
	"gopkg.in/yaml.v3"
)

// Command is the command for checking, ingesting and browsing
// operations.
var Command = &cobra.Command{
	Use:                "op",
	Aliases:            []string{"ops", "operation", "operations"},
	Short:              "Manage operations",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

func init() {
	Command.AddCommand(
		checkCommand(),
		deleteCommand(),
		infoCommand(),
		ingestCommand(),
		listCommand(),
	)
}

// proposal is the document read by check and ingest. JSON documents are
// valid YAML.
type proposal struct {
	Operation proto.Operation `json:"operation" yaml:"operation"`
	Items     []proto.Item    `json:"items" yaml:"items"`
}

// readProposal reads a proposal for repo from path, "-" is stdin.
func readProposal(c *cobra.Command, repo string, path string) (*proto.Operation, []proto.Item, error) {
	var r io.Reader = c.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close() // nolint: errcheck
		r = f
	}

	var p proposal
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", proto.ErrMalformedOperation, err)
	}

	op := p.Operation
	op.Repository = &proto.Repository{Name: repo}
	return &op, p.Items, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid operation ID: %w", err)
	}
	return id, nil
}

func infoCommand() *cobra.Command {
	var asJSON bool

	ic := &cobra.Command{
		Use:   "info OPERATION_ID",
		Short: "Show an operation with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			op, err := be.Operation(ctx, id)
			if err != nil {
				return err
			}

			items, err := be.OperationItems(ctx, id)
			if err != nil {
				return err
			}

			if asJSON {
				return cmd.PrintJSON(c.OutOrStdout(), proposal{Operation: *op, Items: items})
			}

			c.Println("ID:", op.ID)
			c.Println("Type:", op.Type)
			c.Println("Repository:", op.RepositoryName())
			c.Println("Author:", op.Author.Username)
			if op.Committer != "" {
				c.Println("Committer:", op.Committer)
			}
			c.Println("Date:", op.Date.UTC().Format("2006-01-02 15:04:05 MST"))
			if op.Revision != "" {
				c.Println("Revision:", op.Revision)
			}
			if op.Directory != "" {
				c.Println("Directory:", op.Directory)
			}
			if len(op.Labels) > 0 {
				c.Println("Labels:")
				for _, l := range op.Labels {
					c.Printf("  %s %s (%s)\n", l.Type, l.Name, l.Action)
				}
			}
			if msg := strings.TrimSpace(op.Message); msg != "" {
				c.Println("Message:")
				for _, l := range strings.Split(msg, "\n") {
					c.Println("  " + l)
				}
			}
			if len(items) > 0 {
				c.Println("Items:")
				for _, it := range items {
					printItem(c, it, "  ")
				}
			}

			return nil
		},
	}

	ic.Flags().BoolVarP(&asJSON, "json", "j", false, "print the operation as JSON")

	return ic
}

func printItem(c *cobra.Command, it proto.Item, indent string) {
	line := fmt.Sprintf("%s%s %s", indent, it.Action, it.Path)
	if it.Type.IsDirectory() {
		line += "/"
	}
	if it.Modified {
		line += " (modified)"
	}
	c.Println(line)
	for _, src := range it.SourceItems {
		printItem(c, src, indent+"  from ")
	}
	if it.ReplacedItem != nil {
		printItem(c, *it.ReplacedItem, indent+"  replaces ")
	}
}

func deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete OPERATION_ID",
		Aliases: []string{"del", "remove", "rm"},
		Short:   "Delete a recorded operation",
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return be.DeleteOperation(ctx, id)
		},
	}
}
