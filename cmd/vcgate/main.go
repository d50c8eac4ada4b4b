package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd/vcgate/account"
	"github.com/vcgate/vcgate/cmd/vcgate/hook"
	"github.com/vcgate/vcgate/cmd/vcgate/op"
	"github.com/vcgate/vcgate/cmd/vcgate/repo"
	"github.com/vcgate/vcgate/cmd/vcgate/serve"
	"github.com/vcgate/vcgate/cmd/vcgate/token"
	"github.com/vcgate/vcgate/cmd/vcgate/user"
	"github.com/vcgate/vcgate/cmd/vcgate/webhook"
	"github.com/vcgate/vcgate/pkg/config"
	logr "github.com/vcgate/vcgate/pkg/log"
	"github.com/vcgate/vcgate/pkg/version"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	// CommitDate contains the date of the commit that this application was
	// built against. It's set via ldflags when building.
	CommitDate = ""

	rootCmd = &cobra.Command{
		Use:          "vcgate",
		Short:        "Access arbitration and change notification for version control",
		Long:         "vcgate decides whether proposed version control operations are allowed, records the allowed ones and tells subscribers about every change.",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(
		manCmd,
		migrateCmd,
		serve.Command,
		hook.Command,
		repo.Command,
		account.Command,
		user.Command,
		op.Command,
		webhook.Command,
		token.Command,
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			Version = info.Main.Version
		} else {
			Version = "unknown (built from source)"
		}
	}
	if CommitSHA != "" {
		version.CommitSHA = CommitSHA
	}
	if CommitDate != "" {
		version.CommitDate = CommitDate
	}
	version.Version = Version
	rootCmd.Version = Version
}

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code.
func run() int {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	if cfg.Exist() {
		if err := cfg.ParseFile(); err != nil {
			log.Fatal("failed to parse config file", "err", err)
		}
	}

	if err := cfg.ParseEnv(); err != nil {
		log.Fatal("failed to parse environment variables", "err", err)
	}

	ctx = config.WithContext(ctx, cfg)
	logger, f, err := logr.NewLogger(cfg)
	if err != nil {
		log.Errorf("failed to create logger: %v", err)
	} else {
		ctx = log.WithContext(ctx, logger)
		log.SetDefault(logger)
	}
	if f != nil {
		defer f.Close() // nolint: errcheck
	}

	// Set the max number of processes to the number of CPUs
	// This is useful when running vcgate in a container
	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.Warn("couldn't set automaxprocs", "error", err)
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
