package mihari

import "log/slog"

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger   *slog.Logger
	version  string
	stateDir string
	catalog  Catalog
	channels []NotificationChannel
	rules    []AlertRule
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in logs and telemetry.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithStateDir overrides the snapshot directory from config (MIHARI_STATE_DIR env var).
func WithStateDir(dir string) Option {
	return func(o *resolvedOptions) { o.stateDir = dir }
}

// WithCatalog replaces the built-in static technology catalog.
func WithCatalog(c Catalog) Option {
	return func(o *resolvedOptions) { o.catalog = c }
}

// WithChannel registers an external notification channel.
// Multiple channels may be registered; each becomes addressable by its
// Name() from alert rule channel lists.
func WithChannel(ch NotificationChannel) Option {
	return func(o *resolvedOptions) { o.channels = append(o.channels, ch) }
}

// WithAlertRule installs an alert rule beyond the built-in defaults.
// A rule with an existing RuleID replaces the default. Rules loaded from
// the persisted snapshot are applied after options and win on conflict.
func WithAlertRule(r AlertRule) Option {
	return func(o *resolvedOptions) { o.rules = append(o.rules, r) }
}
