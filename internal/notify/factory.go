package notify

import (
	"fmt"

	"gymtrack/internal/config"
	"gymtrack/internal/gym"
)

// NewNotifierFromConfig creates a Notifier implementation based on the
// notify config type.
func NewNotifierFromConfig(cfg config.NotifyConfig, logger gym.Logger) (gym.Notifier, error) {
	switch cfg.Type {
	case "none", "":
		return gym.NewNopNotifier(), nil
	case "log":
		return NewLogNotifier(logger), nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook notifier requires webhook_url to be set")
		}
		return NewWebhookNotifier(cfg.WebhookURL, cfg.Token), nil
	default:
		return nil, fmt.Errorf("unknown notify type: %s", cfg.Type)
	}
}
