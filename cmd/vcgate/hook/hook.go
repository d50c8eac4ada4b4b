// Package hook runs the vcgate git hooks.
package hook

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/hooks"
)

var (
	// ErrInternalServerError indicates that an internal server error occurred.
	ErrInternalServerError = errors.New("internal server error")

	// Command is the hook command.
	Command = &cobra.Command{
		Use:    "hook",
		Short:  "Run git server hooks",
		Long:   "Handles vcgate git server hooks.",
		Hidden: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			logger := log.FromContext(c.Context())
			if err := cmd.InitBackendContext(c, args); err != nil {
				logger.Error("failed to initialize backend context", "err", err)
				return ErrInternalServerError
			}

			return nil
		},
		PersistentPostRunE: func(c *cobra.Command, args []string) error {
			logger := log.FromContext(c.Context())
			if err := cmd.CloseDBContext(c, args); err != nil {
				logger.Error("failed to close backend", "err", err)
				return ErrInternalServerError
			}

			return nil
		},
	}

	// Hooks get the repository from the environment written by the hook
	// scripts. The pusher falls back to the system user.
	hooksRunE = func(c *cobra.Command, args []string) error {
		ctx := c.Context()
		be := backend.FromContext(ctx)
		cfg := config.FromContext(ctx)

		repoName := os.Getenv(hooks.RepoNameEnv)
		pusher := Pusher()

		logger := log.FromContext(ctx).With("repo", repoName, "pusher", pusher)

		stdin := c.InOrStdin()
		stdout := c.OutOrStdout()
		stderr := c.ErrOrStderr()

		name := c.Name()
		customHookPath := filepath.Join(cfg.DataPath, "hooks", name)

		var buf bytes.Buffer
		var err error

		switch name {
		case hooks.PreReceiveHook, hooks.PostReceiveHook:
			var opts []hooks.HookArg
			opts, err = readArgs(io.TeeReader(stdin, &buf), logger, name)
			if err != nil {
				return err
			}

			switch name {
			case hooks.PreReceiveHook:
				err = be.PreReceive(ctx, stdout, stderr, repoName, pusher, opts)
			case hooks.PostReceiveHook:
				err = be.PostReceive(ctx, stdout, stderr, repoName, pusher, opts)
			}
		case hooks.UpdateHook:
			err = be.Update(ctx, stdout, stderr, repoName, pusher, hooks.HookArg{
				RefName: args[0],
				OldSha:  args[1],
				NewSha:  args[2],
			})
		}

		if err != nil {
			if !errors.Is(err, hooks.ErrDenied) {
				logger.Error("hook failed", "hook", name, "err", err)
			}
			return err
		}

		// Custom hooks run once vcgate has accepted the push.
		if stat, err := os.Stat(customHookPath); err == nil && !stat.IsDir() && stat.Mode()&0o111 != 0 {
			if err := runCommand(ctx, &buf, stdout, stderr, customHookPath, args...); err != nil {
				logger.Error("failed to run custom hook", "err", err)
				return err
			}
		}

		return nil
	}

	preReceiveCmd = &cobra.Command{
		Use:   "pre-receive",
		Short: "Run git pre-receive hook",
		Args:  cobra.NoArgs,
		RunE:  hooksRunE,

		// Denials are already reported to the pusher.
		SilenceErrors: true,
	}

	updateCmd = &cobra.Command{
		Use:   "update REFNAME OLD NEW",
		Short: "Run git update hook",
		Args:  cobra.ExactArgs(3),
		RunE:  hooksRunE,

		// Denials are already reported to the pusher.
		SilenceErrors: true,
	}

	postReceiveCmd = &cobra.Command{
		Use:   "post-receive",
		Short: "Run git post-receive hook",
		Args:  cobra.NoArgs,
		RunE:  hooksRunE,

		// Denials are already reported to the pusher.
		SilenceErrors: true,
	}
)

func init() {
	Command.AddCommand(
		preReceiveCmd,
		updateCmd,
		postReceiveCmd,
	)
}

// Pusher returns the VCS username of whoever runs the push.
func Pusher() string {
	if u := os.Getenv(hooks.UsernameEnv); u != "" {
		return u
	}
	return os.Getenv("USER")
}

// readArgs reads "old new ref" lines. Malformed lines are logged and
// skipped.
func readArgs(r io.Reader, logger *log.Logger, name string) ([]hooks.HookArg, error) {
	opts := make([]hooks.HookArg, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			logger.Error(fmt.Sprintf("invalid %s hook input", name), "input", scanner.Text())
			continue
		}
		opts = append(opts, hooks.HookArg{
			OldSha:  fields[0],
			NewSha:  fields[1],
			RefName: fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hook input: %w", err)
	}
	return opts, nil
}

func runCommand(ctx context.Context, in io.Reader, out io.Writer, err io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = err
	return cmd.Run()
}
