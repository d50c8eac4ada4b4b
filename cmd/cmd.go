// Package cmd holds the helpers shared by the vcgate commands.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/hooks"
	"github.com/vcgate/vcgate/pkg/store"
	"github.com/vcgate/vcgate/pkg/store/database"
	vcsgit "github.com/vcgate/vcgate/pkg/vcs/git"

	// Built-in plugins register themselves.
	_ "github.com/vcgate/vcgate/pkg/plugins"
)

// InitDBContext opens the database and attaches it to the command
// context.
func InitDBContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return config.ErrNilConfig
	}
	if _, err := os.Stat(cfg.DataPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(cfg.DataPath, os.ModePerm); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	dbx, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.DataSource)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	cmd.SetContext(db.WithContext(ctx, dbx))

	return nil
}

// InitBackendContext opens the database, creates the backend and loads
// the configured plugins into its registry. The schema must be up to
// date, see the migrate command.
func InitBackendContext(cmd *cobra.Command, args []string) error {
	if err := InitDBContext(cmd, args); err != nil {
		return err
	}

	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	dbx := db.FromContext(ctx)
	dbstore := database.New(ctx, dbx)
	ctx = store.WithContext(ctx, dbstore)
	reg := extension.NewRegistry()
	ctx = extension.WithContext(ctx, reg)
	be := backend.New(ctx, cfg, dbx, dbstore, reg)
	ctx = backend.WithContext(ctx, be)

	if err := extension.Load(ctx, reg, cfg.Plugins); err != nil {
		dbx.Close() // nolint: errcheck
		return fmt.Errorf("load plugins: %w", err)
	}

	cmd.SetContext(ctx)

	return nil
}

// CloseDBContext closes the database context.
func CloseDBContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	dbx := db.FromContext(ctx)
	if dbx != nil {
		if err := dbx.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	return nil
}

// InitializeHooks writes the hooks of every git repository that has a
// root.
func InitializeHooks(ctx context.Context, cfg *config.Config, be *backend.Backend) error {
	l, err := be.Repositories(ctx, extension.ListOptions{
		Filters: map[string]string{"vcs": vcsgit.Kind},
	})
	if err != nil {
		return err
	}

	logger := log.FromContext(ctx).WithPrefix("hooks")
	for _, repo := range l.Items() {
		if repo.Root == "" {
			logger.Debug("skipping repository without root", "repo", repo.Name)
			continue
		}
		if err := hooks.GenerateHooks(ctx, cfg, repo.Name, repo.Root); err != nil {
			return err
		}
	}

	return nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewTable returns a table with the given headers styled for the
// terminal.
func NewTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return lipgloss.NewStyle()
		})
}

// ListingTable renders a listing with the base columns returned by cells
// followed by the columns added by plugins.
func ListingTable[T any](l *extension.Listing[T], headers []string, cells func(T) []string) *table.Table {
	t := NewTable(append(headers, l.Columns...)...)
	for _, r := range l.Rows {
		row := cells(r.Item)
		for _, c := range l.Columns {
			row = append(row, r.Cells[c])
		}
		t.Row(row...)
	}
	return t
}

// ParseFields parses key=value pairs. Values may contain commas and
// equal signs.
func ParseFields(kvs []string) (map[string]string, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%q must be formatted as key=value", kv)
		}
		fields[k] = v
	}
	return fields, nil
}
