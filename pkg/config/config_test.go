package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestParseEnvPatterns(t *testing.T) {
	is := is.New(t)
	is.NoErr(os.Setenv("VCGATE_ACCESS_BRANCHES", "^main$, glob:release/*,,^main$"))
	is.NoErr(os.Setenv("VCGATE_DATA_PATH", t.TempDir()))
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("VCGATE_ACCESS_BRANCHES"))
		is.NoErr(os.Unsetenv("VCGATE_DATA_PATH"))
	})
	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.Access.Branches, []string{"^main$", "glob:release/*"})
}

func TestParseMultiplePlugins(t *testing.T) {
	is := is.New(t)
	is.NoErr(os.Setenv("VCGATE_PLUGINS", "identity,webhook"))
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("VCGATE_PLUGINS"))
	})
	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.Plugins, []string{"identity", "webhook"})
}

func TestWriteAndParse(t *testing.T) {
	is := is.New(t)
	cfg := &Config{
		DataPath: t.TempDir(),
		Name:     "roundtrip",
		Access: AccessConfig{
			RequireIdentity: true,
			Tags:            []string{`^DRUPAL-[56]--(\d+)-(\d+)(-[A-Z0-9]+)?$`},
		},
		Plugins: []string{"labels"},
	}
	is.NoErr(cfg.WriteConfig())

	parsed := &Config{DataPath: cfg.DataPath}
	is.NoErr(parsed.Parse())
	is.Equal(parsed.Name, "roundtrip")
	is.True(parsed.Access.RequireIdentity)
	is.Equal(parsed.Access.Tags, cfg.Access.Tags)
	is.Equal(len(parsed.Access.Branches), 0)
	is.Equal(parsed.Plugins, []string{"labels"})
}

func TestValidateAbsolutePaths(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataPath = td
	is.NoErr(cfg.Validate())
	is.Equal(cfg.JWT.KeyPath, filepath.Join(td, "keys", "vcgate_ed25519"))
	is.True(filepath.IsAbs(cfg.DB.DataSource))
}

func TestValidateBadExpiry(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.JWT.Expiry = -1
	is.True(cfg.Validate() != nil)
}

func TestValidateRetention(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Webhook.Retention = "1w"
	is.NoErr(cfg.Validate())
	cfg.Webhook.Retention = "forever"
	is.True(cfg.Validate() != nil)
}

func TestCustomConfigLocation(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("VCGATE_CONFIG_LOCATION"))
		is.NoErr(os.Unsetenv("VCGATE_DATA_PATH"))
	})

	// Test that we get data from the custom file location, and not from the data dir.
	is.NoErr(os.Setenv("VCGATE_CONFIG_LOCATION", "testdata/config.yaml"))
	is.NoErr(os.Setenv("VCGATE_DATA_PATH", td))
	cfg := DefaultConfig()
	is.NoErr(cfg.Parse())
	is.Equal(cfg.Name, "Test server name")
	is.True(!cfg.Access.RequireIdentity)
	is.Equal(len(cfg.Access.Branches), 3)
	is.Equal(cfg.Access.Tags, []string{`^DRUPAL-[56]--(\d+)-(\d+)(-[A-Z0-9]+)?$`})

	// If we unset the custom location, then use the default location.
	is.NoErr(os.Unsetenv("VCGATE_CONFIG_LOCATION"))
	cfg = DefaultConfig()
	is.Equal(cfg.ConfigPath(), filepath.Join(td, "config.yaml"))

	// Test that if the custom config location doesn't exist, default to datapath config.
	is.NoErr(os.Setenv("VCGATE_CONFIG_LOCATION", "testdata/config_nonexistent.yaml"))
	cfg = DefaultConfig()
	is.Equal(cfg.ConfigPath(), filepath.Join(td, "config.yaml"))
}

func TestEnviron(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	envs := cfg.Environ()
	is.True(len(envs) > 1)
	is.Equal(len((*Config)(nil).Environ()), 1)
}
