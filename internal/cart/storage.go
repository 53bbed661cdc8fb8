package cart

import "context"

// DefaultInstance is the instance used when none is named.
const DefaultInstance = "default"

// Snapshot is the persisted state of one (identifier, instance) cart.
type Snapshot struct {
	Items      []ItemRecord         `json:"items"`
	Metadata   map[string]any       `json:"metadata"`
	Conditions map[string]Condition `json:"conditions"`
}

// Storage persists snapshots keyed by (identifier, instance).
type Storage interface {
	// Get returns nil, nil when no active snapshot exists.
	Get(ctx context.Context, identifier, instance string) (*Snapshot, error)
	Put(ctx context.Context, identifier string, snapshot Snapshot, instance string) error
	Has(ctx context.Context, identifier, instance string) (bool, error)
	Forget(ctx context.Context, identifier, instance string) error
	// Flush drops every cart held by the backend.
	Flush(ctx context.Context) error
}

// InstanceOrDefault returns instance, or DefaultInstance when blank.
func InstanceOrDefault(instance string) string {
	if instance == "" {
		return DefaultInstance
	}
	return instance
}
