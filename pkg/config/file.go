package config

import (
	"bytes"
	"text/template"
)

var configFileTmpl = template.Must(template.New("config").Parse(`# vcgate server configuration

# The name of the server.
# This is the name that will be displayed in messages and payloads.
name: "{{ .Name }}"

# Logging configuration.
log:
  # Log format to use. Valid values are "json", "logfmt", and "text".
  format: "{{ .Log.Format }}"
  # Time format for the log "timestamp" field.
  # Should be described in Golang's time format.
  time_format: "{{ .Log.TimeFormat }}"
  # Minimum log level. Valid values are "debug", "info", "warn" and "error".
  level: "{{ .Log.Level }}"
  # Path to the log file. Leave empty to write to stderr.
  #path: "{{ .Log.Path }}"

# The HTTP API configuration.
http:
  # Enable the HTTP API.
  enabled: {{ .HTTP.Enabled }}

  # The address on which the HTTP server will listen.
  listen_addr: "{{ .HTTP.ListenAddr }}"

  # The path to the TLS private key.
  tls_key_path: "{{ .HTTP.TLSKeyPath }}"

  # The path to the TLS certificate.
  tls_cert_path: "{{ .HTTP.TLSCertPath }}"

  # The public URL of the HTTP server.
  # Make sure to use https:// if you are using TLS.
  public_url: "{{ .HTTP.PublicURL }}"

# The stats server configuration.
stats:
  # Enable the stats server.
  enabled: {{ .Stats.Enabled }}

  # The address on which the stats server will listen.
  listen_addr: "{{ .Stats.ListenAddr }}"

# The database configuration.
db:
  # The database driver to use.
  # Valid values are "sqlite" and "postgres".
  driver: "{{ .DB.Driver }}"
  # The database data source name.
  # This is driver specific and can be a file path or connection string.
  data_source: "{{ .DB.DataSource }}"

# Background jobs schedules.
jobs:
  # Remove webhook deliveries older than the webhook retention.
  prune_deliveries: "{{ .Jobs.PruneDeliveries }}"
  # Link recorded operations to users once their accounts are registered.
  resolve_authors: "{{ .Jobs.ResolveAuthors }}"

# Webhook deliveries.
webhook:
  # How long deliveries are kept, e.g. "72h", "30d", "1w".
  retention: "{{ .Webhook.Retention }}"

# Built-in access checks.
access:
  # Deny operations whose author is not bound to a registered user.
  require_identity: {{ .Access.RequireIdentity }}

  # The name of the user registry shown in denial messages.
  user_registry: "{{ .Access.UserRegistry }}"

  # The authorization method of new repositories.
  default_method: "{{ .Access.DefaultMethod }}"

  # Allowed branch and tag names. Patterns are regular expressions, use a
  # "glob:" prefix for glob patterns. Leave empty to allow any name.
  branches:{{ range .Access.Branches }}
    - '{{ . }}'{{ else }} []{{ end }}
  tags:{{ range .Access.Tags }}
    - '{{ . }}'{{ else }} []{{ end }}

# API tokens.
jwt:
  # The path to the Ed25519 key used to sign tokens.
  key_path: "{{ .JWT.KeyPath }}"
  # Default token lifetime in seconds.
  expiry: {{ .JWT.Expiry }}

# Enabled plugins, in registration order.
plugins:{{ range .Plugins }}
  - "{{ . }}"{{ else }} []{{ end }}
`))

func newConfigFile(cfg *Config) string {
	var b bytes.Buffer
	configFileTmpl.Execute(&b, cfg) // nolint: errcheck
	return b.String()
}
