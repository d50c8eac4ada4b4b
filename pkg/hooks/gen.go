package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/config"
)

// The names of git server-side hooks.
const (
	PreReceiveHook  = "pre-receive"
	UpdateHook      = "update"
	PostReceiveHook = "post-receive"
)

// Hook environment variables.
const (
	// RepoNameEnv is the repository name the hook runs for.
	RepoNameEnv = "VCGATE_REPO_NAME"
	// UsernameEnv is the VCS username of the pusher.
	UsernameEnv = "VCGATE_USERNAME"
)

// ErrNoRoot is returned when generating hooks for a repository without a
// root path.
var ErrNoRoot = errors.New("repository has no root path")

// HooksPath returns the hooks directory of the git repository at root.
func HooksPath(root string) string {
	if st, err := os.Stat(filepath.Join(root, ".git")); err == nil && st.IsDir() {
		return filepath.Join(root, ".git", "hooks")
	}
	return filepath.Join(root, "hooks")
}

// GenerateHooks writes the vcgate hooks into the git repository at root.
// Each hook is a runner executing every script of its "<hook>.d"
// directory, so existing hooks can be moved there and keep running.
//
// Pushes are arbitrated by pre-receive only. A vcgate update script left
// by an earlier version is removed so refs aren't checked twice.
func GenerateHooks(ctx context.Context, cfg *config.Config, repo string, root string) error {
	if cfg == nil {
		return config.ErrNilConfig
	}
	if root == "" {
		return ErrNoRoot
	}

	logger := log.FromContext(ctx).WithPrefix("hooks")
	hooksPath := HooksPath(root)
	if err := os.MkdirAll(hooksPath, os.ModePerm); err != nil {
		return err
	}

	ex, err := os.Executable()
	if err != nil {
		return err
	}

	environ := append(cfg.Environ(), RepoNameEnv+"="+repo)
	envs := make([]string, len(environ))
	for i, e := range environ {
		k, v, _ := strings.Cut(e, "=")
		envs[i] = fmt.Sprintf("%s=%q", k, v)
	}

	stale := filepath.Join(hooksPath, UpdateHook+".d", "vcgate")
	if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	for _, hook := range []string{PreReceiveHook, PostReceiveHook} {
		var data bytes.Buffer

		// Hooks script/directory path
		hp := filepath.Join(hooksPath, hook)

		// Write the hooks primary script
		if err := os.WriteFile(hp, []byte(hookTemplate), os.ModePerm); err != nil { //nolint:gosec
			return err
		}

		// Create ${hook}.d directory.
		hp += ".d"
		if err := os.MkdirAll(hp, os.ModePerm); err != nil {
			return err
		}

		if err := hooksTmpl.Execute(&data, struct {
			Executable string
			Envs       []string
			Hook       string
		}{
			Executable: ex,
			Envs:       envs,
			Hook:       hook,
		}); err != nil {
			logger.Error("failed to execute hook template", "err", err)
			continue
		}

		// Write the vcgate hook inside ${hook}.d directory.
		hp = filepath.Join(hp, "vcgate")
		if err := os.WriteFile(hp, data.Bytes(), os.ModePerm); err != nil { //nolint:gosec
			logger.Error("failed to write hook", "err", err)
			continue
		}
	}

	return nil
}

// hookTemplate allows us to run multiple hooks from a directory. It
// proxies both stdin and arguments.
const hookTemplate = `#!/usr/bin/env bash
# AUTO GENERATED BY VCGATE, DO NOT MODIFY
data=$(cat)
exitcodes=""
hookname=$(basename $0)
GIT_DIR=${GIT_DIR:-$(dirname $0)/..}
for hook in ${GIT_DIR}/hooks/${hookname}.d/*; do
  # Avoid running non-executable hooks
  test -x "${hook}" && test -f "${hook}" || continue

  # Run the actual hook
  echo "${data}" | "${hook}" "$@"

  # Store the exit code for later use
  exitcodes="${exitcodes} $?"
done

# Exit on the first non-zero exit code.
for i in ${exitcodes}; do
  [ ${i} -eq 0 ] || exit ${i}
done
`

var hooksTmpl = template.Must(template.New("hooks").Parse(`#!/usr/bin/env bash
# AUTO GENERATED BY VCGATE, DO NOT MODIFY
{{ range $_, $env := .Envs }}
{{ $env }} \{{ end }}
"{{ .Executable }}" hook {{ .Hook }}
`))
