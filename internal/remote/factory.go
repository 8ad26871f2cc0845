package remote

import (
	"context"
	"fmt"

	"gymtrack/internal/config"
	"gymtrack/internal/gym"
)

// NewRemoteFromConfig creates a RemoteStore implementation based on the
// remote config type. Type "none" returns nil: the app runs fully offline
// and sync is unavailable.
func NewRemoteFromConfig(ctx context.Context, cfg config.RemoteConfig) (gym.RemoteStore, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return NewMemoryRemote(), nil
	case "postgres":
		if cfg.URL == "" {
			return nil, fmt.Errorf("postgres remote requires url to be set")
		}
		return NewPostgresRemote(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}
