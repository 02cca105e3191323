package store

import "context"

const (
	TournamentsKey = "tournaments"
	SettingsKey    = "app:settings"
)

// KV is the persistence collaborator. Get reports false when the key was
// never written.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, blob string) error
}
