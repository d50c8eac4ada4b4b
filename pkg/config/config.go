package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var binPath = "vcgate"

// ErrNilConfig is returned when a nil config is passed to a function.
var ErrNilConfig = errors.New("nil config")

// HTTPConfig is the HTTP configuration for the server.
type HTTPConfig struct {
	// Enabled toggles the HTTP API server.
	Enabled bool `env:"ENABLED" yaml:"enabled"`

	// ListenAddr is the address on which the HTTP server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`

	// TLSKeyPath is the path to the TLS private key.
	TLSKeyPath string `env:"TLS_KEY_PATH" yaml:"tls_key_path"`

	// TLSCertPath is the path to the TLS certificate.
	TLSCertPath string `env:"TLS_CERT_PATH" yaml:"tls_cert_path"`

	// PublicURL is the public URL of the HTTP server.
	PublicURL string `env:"PUBLIC_URL" yaml:"public_url"`
}

// StatsConfig is the configuration for the stats server.
type StatsConfig struct {
	// Enabled toggles the stats server.
	Enabled bool `env:"ENABLED" yaml:"enabled"`

	// ListenAddr is the address on which the stats server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Format is the format of the logs.
	// Valid values are "json", "logfmt", and "text".
	Format string `env:"FORMAT" yaml:"format"`

	// Time format for the log `ts` field.
	// Format must be described in Golang's time format.
	TimeFormat string `env:"TIME_FORMAT" yaml:"time_format"`

	// Path to a file to write logs to.
	// If not set, logs will be written to stderr.
	Path string `env:"PATH" yaml:"path"`

	// Level is the minimum log level, e.g. "info" or "debug".
	Level string `env:"LEVEL" yaml:"level"`
}

// DBConfig is the database connection configuration.
type DBConfig struct {
	// Driver is the driver for the database.
	Driver string `env:"DRIVER" yaml:"driver"`

	// DataSource is the database data source name.
	DataSource string `env:"DATA_SOURCE" yaml:"data_source"`
}

// JobsConfig is the configuration for cron jobs.
type JobsConfig struct {
	// PruneDeliveries is the schedule of the webhook delivery pruning job.
	PruneDeliveries string `env:"PRUNE_DELIVERIES" yaml:"prune_deliveries"`

	// ResolveAuthors is the schedule of the author resolution job.
	ResolveAuthors string `env:"RESOLVE_AUTHORS" yaml:"resolve_authors"`
}

// WebhookConfig is the webhook delivery configuration.
type WebhookConfig struct {
	// Retention is how long webhook deliveries are kept, e.g. "30d".
	Retention string `env:"RETENTION" yaml:"retention"`
}

// AccessConfig is the configuration of the built-in access checks.
type AccessConfig struct {
	// RequireIdentity denies operations whose author has no registered user.
	RequireIdentity bool `env:"REQUIRE_IDENTITY" yaml:"require_identity"`

	// UserRegistry is the name of the user registry used in messages.
	UserRegistry string `env:"USER_REGISTRY" yaml:"user_registry"`

	// DefaultMethod is the authorization method of new repositories.
	DefaultMethod string `env:"DEFAULT_METHOD" yaml:"default_method"`

	// Branches is the allow-list of branch name patterns.
	Branches []string `env:"BRANCHES" envSeparator:"," yaml:"branches"`

	// Tags is the allow-list of tag name patterns.
	Tags []string `env:"TAGS" envSeparator:"," yaml:"tags"`
}

// JWTConfig is the API token configuration.
type JWTConfig struct {
	// KeyPath is the path to the Ed25519 key used to sign tokens.
	KeyPath string `env:"KEY_PATH" yaml:"key_path"`

	// Expiry is the default token lifetime in seconds.
	Expiry int `env:"EXPIRY" yaml:"expiry"`
}

// Config is the configuration for vcgate.
type Config struct {
	// Name is the name of the server.
	Name string `env:"NAME" yaml:"name"`

	// HTTP is the configuration for the HTTP server.
	HTTP HTTPConfig `envPrefix:"HTTP_" yaml:"http"`

	// Stats is the configuration for the stats server.
	Stats StatsConfig `envPrefix:"STATS_" yaml:"stats"`

	// Log is the logger configuration.
	Log LogConfig `envPrefix:"LOG_" yaml:"log"`

	// DB is the database configuration.
	DB DBConfig `envPrefix:"DB_" yaml:"db"`

	// Jobs is the configuration for cron jobs
	Jobs JobsConfig `envPrefix:"JOBS_" yaml:"jobs"`

	// Webhook is the webhook delivery configuration.
	Webhook WebhookConfig `envPrefix:"WEBHOOK_" yaml:"webhook"`

	// Access is the configuration of the built-in access checks.
	Access AccessConfig `envPrefix:"ACCESS_" yaml:"access"`

	// JWT is the API token configuration.
	JWT JWTConfig `envPrefix:"JWT_" yaml:"jwt"`

	// Plugins is the ordered list of enabled plugins.
	Plugins []string `env:"PLUGINS" envSeparator:"," yaml:"plugins"`

	// DataPath is the path to the directory where vcgate will store its data.
	DataPath string `env:"DATA_PATH" yaml:"-"`
}

// Environ returns the config as a list of environment variables.
func (c *Config) Environ() []string {
	envs := []string{
		fmt.Sprintf("VCGATE_BIN_PATH=%s", binPath),
	}
	if c == nil {
		return envs
	}

	envs = append(envs, []string{
		fmt.Sprintf("VCGATE_DATA_PATH=%s", c.DataPath),
		fmt.Sprintf("VCGATE_NAME=%s", c.Name),
		fmt.Sprintf("VCGATE_HTTP_ENABLED=%t", c.HTTP.Enabled),
		fmt.Sprintf("VCGATE_HTTP_LISTEN_ADDR=%s", c.HTTP.ListenAddr),
		fmt.Sprintf("VCGATE_HTTP_TLS_KEY_PATH=%s", c.HTTP.TLSKeyPath),
		fmt.Sprintf("VCGATE_HTTP_TLS_CERT_PATH=%s", c.HTTP.TLSCertPath),
		fmt.Sprintf("VCGATE_HTTP_PUBLIC_URL=%s", c.HTTP.PublicURL),
		fmt.Sprintf("VCGATE_STATS_ENABLED=%t", c.Stats.Enabled),
		fmt.Sprintf("VCGATE_STATS_LISTEN_ADDR=%s", c.Stats.ListenAddr),
		fmt.Sprintf("VCGATE_LOG_FORMAT=%s", c.Log.Format),
		fmt.Sprintf("VCGATE_LOG_TIME_FORMAT=%s", c.Log.TimeFormat),
		fmt.Sprintf("VCGATE_LOG_LEVEL=%s", c.Log.Level),
		fmt.Sprintf("VCGATE_DB_DRIVER=%s", c.DB.Driver),
		fmt.Sprintf("VCGATE_DB_DATA_SOURCE=%s", c.DB.DataSource),
		fmt.Sprintf("VCGATE_JOBS_PRUNE_DELIVERIES=%s", c.Jobs.PruneDeliveries),
		fmt.Sprintf("VCGATE_JOBS_RESOLVE_AUTHORS=%s", c.Jobs.ResolveAuthors),
		fmt.Sprintf("VCGATE_WEBHOOK_RETENTION=%s", c.Webhook.Retention),
		fmt.Sprintf("VCGATE_ACCESS_REQUIRE_IDENTITY=%t", c.Access.RequireIdentity),
		fmt.Sprintf("VCGATE_ACCESS_USER_REGISTRY=%s", c.Access.UserRegistry),
		fmt.Sprintf("VCGATE_ACCESS_DEFAULT_METHOD=%s", c.Access.DefaultMethod),
		fmt.Sprintf("VCGATE_ACCESS_BRANCHES=%s", strings.Join(c.Access.Branches, ",")),
		fmt.Sprintf("VCGATE_ACCESS_TAGS=%s", strings.Join(c.Access.Tags, ",")),
		fmt.Sprintf("VCGATE_JWT_KEY_PATH=%s", c.JWT.KeyPath),
		fmt.Sprintf("VCGATE_JWT_EXPIRY=%d", c.JWT.Expiry),
		fmt.Sprintf("VCGATE_PLUGINS=%s", strings.Join(c.Plugins, ",")),
	}...)

	return envs
}

// IsDebug returns true if the server is running in debug mode.
func IsDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("VCGATE_DEBUG"))
	return debug
}

// IsVerbose returns true if the server is running in verbose mode.
// Verbose mode is only enabled if debug mode is enabled.
func IsVerbose() bool {
	verbose, _ := strconv.ParseBool(os.Getenv("VCGATE_VERBOSE"))
	return IsDebug() && verbose
}

// parseFile parses the given file as a configuration file.
// The file must be in YAML format.
func parseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer f.Close() // nolint: errcheck
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	return cfg.Validate()
}

// ParseFile parses the config from the default file path.
// This also calls Validate() on the config.
func (c *Config) ParseFile() error {
	return parseFile(c, c.ConfigPath())
}

// parseEnv parses the environment variables as a configuration file.
func parseEnv(cfg *Config) error {
	// Override with environment variables
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix: "VCGATE_",
	}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}

	return cfg.Validate()
}

// ParseEnv parses the config from the environment variables.
// This also calls Validate() on the config.
func (c *Config) ParseEnv() error {
	return parseEnv(c)
}

// Parse parses the config from the default file path and environment variables.
// This also calls Validate() on the config.
func (c *Config) Parse() error {
	if err := c.ParseFile(); err != nil {
		return err
	}

	return c.ParseEnv()
}

// writeConfig writes the configuration to the given file.
func writeConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(newConfigFile(cfg)), 0o644) // nolint: errcheck, gosec
}

// WriteConfig writes the configuration to the default file.
func (c *Config) WriteConfig() error {
	return writeConfig(c, c.ConfigPath())
}

// DefaultDataPath returns the path to the data directory.
// It uses the VCGATE_DATA_PATH environment variable if set, otherwise it
// uses "data".
func DefaultDataPath() string {
	dp := os.Getenv("VCGATE_DATA_PATH")
	if dp == "" {
		dp = "data"
	}

	return dp
}

// ConfigPath returns the path to the config file.
// VCGATE_CONFIG_LOCATION takes precedence when it points to an existing file.
func (c *Config) ConfigPath() string { // nolint:revive
	if path := os.Getenv("VCGATE_CONFIG_LOCATION"); exist(path) {
		return path
	}

	return filepath.Join(c.DataPath, "config.yaml")
}

func exist(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Exist returns true if the config file exists.
func (c *Config) Exist() bool {
	return exist(c.ConfigPath())
}

// DefaultPlugins is the list of plugins enabled by default.
var DefaultPlugins = []string{
	"identity",
	"labels",
	"ffa",
	"approval",
	"audit",
	"metrics",
	"webhook",
}

// DefaultConfig returns the default Config. All the path values are relative
// to the data directory.
// Use Validate() to validate the config and ensure absolute paths.
func DefaultConfig() *Config {
	return &Config{
		Name:     "vcgate",
		DataPath: DefaultDataPath(),
		HTTP: HTTPConfig{
			Enabled:    true,
			ListenAddr: ":23240",
			PublicURL:  "http://localhost:23240",
		},
		Stats: StatsConfig{
			Enabled:    true,
			ListenAddr: "localhost:23241",
		},
		Log: LogConfig{
			Format:     "text",
			TimeFormat: time.DateTime,
			Level:      "info",
		},
		DB: DBConfig{
			Driver: "sqlite",
			DataSource: "vcgate.db" +
				"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite",
		},
		Jobs: JobsConfig{
			PruneDeliveries: "@every 24h",
			ResolveAuthors:  "@every 10m",
		},
		Webhook: WebhookConfig{
			Retention: "30d",
		},
		Access: AccessConfig{
			RequireIdentity: true,
			UserRegistry:    "vcgate",
			DefaultMethod:   "ffa",
		},
		JWT: JWTConfig{
			KeyPath: filepath.Join("keys", "vcgate_ed25519"),
			Expiry:  60 * 60 * 24 * 30, // 30 days
		},
		Plugins: append([]string{}, DefaultPlugins...),
	}
}

// Validate validates the configuration.
// It updates the configuration with absolute paths.
func (c *Config) Validate() error {
	// Use absolute paths
	if !filepath.IsAbs(c.DataPath) {
		dp, err := filepath.Abs(c.DataPath)
		if err != nil {
			return err
		}
		c.DataPath = dp
	}

	c.HTTP.PublicURL = strings.TrimSuffix(c.HTTP.PublicURL, "/")

	if c.HTTP.TLSKeyPath != "" && !filepath.IsAbs(c.HTTP.TLSKeyPath) {
		c.HTTP.TLSKeyPath = filepath.Join(c.DataPath, c.HTTP.TLSKeyPath)
	}

	if c.HTTP.TLSCertPath != "" && !filepath.IsAbs(c.HTTP.TLSCertPath) {
		c.HTTP.TLSCertPath = filepath.Join(c.DataPath, c.HTTP.TLSCertPath)
	}

	if c.JWT.KeyPath != "" && !filepath.IsAbs(c.JWT.KeyPath) {
		c.JWT.KeyPath = filepath.Join(c.DataPath, c.JWT.KeyPath)
	}

	if strings.HasPrefix(c.DB.Driver, "sqlite") && !filepath.IsAbs(c.DB.DataSource) {
		c.DB.DataSource = filepath.Join(c.DataPath, c.DB.DataSource)
	}

	if c.JWT.Expiry < 0 {
		return fmt.Errorf("invalid jwt expiry: %d", c.JWT.Expiry)
	}

	if c.Webhook.Retention != "" {
		if _, err := duration.Parse(c.Webhook.Retention); err != nil {
			return fmt.Errorf("invalid webhook retention %q: %w", c.Webhook.Retention, err)
		}
	}

	c.Access.Branches = compact(c.Access.Branches)
	c.Access.Tags = compact(c.Access.Tags)
	c.Plugins = compact(c.Plugins)

	return nil
}

// compact trims the values and drops empty and repeated ones.
func compact(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func init() {
	ex, err := os.Executable()
	if err != nil {
		ex = "vcgate"
	}
	ex = filepath.ToSlash(ex)
	binPath = ex
}
