package mihari

import "context"

// Catalog resolves technology names to known catalog entries.
// When provided via WithCatalog, replaces the built-in static catalog for
// coverage scoring. Lookup must be safe for concurrent use.
type Catalog interface {
	Lookup(name string) (CatalogEntry, bool)
}

// NotificationChannel delivers alert notifications to an external system.
// When registered via WithChannel, the channel becomes addressable by name
// from alert rules. Notify runs concurrently with other channels; failures
// are logged and never fail alert creation. Implementations must respect
// ctx cancellation.
type NotificationChannel interface {
	Name() string
	Notify(ctx context.Context, n AlertNotification) error
}
