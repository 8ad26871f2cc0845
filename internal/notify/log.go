package notify

import (
	"context"
	"time"

	"gymtrack/internal/gym"
)

// LogNotifier writes notifications to the application log instead of
// delivering them anywhere. It is the default backend for headless use.
type LogNotifier struct {
	logger gym.Logger
}

// NewLogNotifier creates a notifier that logs every notification.
func NewLogNotifier(logger gym.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, title, body string) error {
	n.logger.Info("notification", "title", title, "body", body)
	return nil
}

func (n *LogNotifier) Schedule(ctx context.Context, delay time.Duration, title, body string) error {
	n.logger.Info("notification scheduled", "delay", delay.String(), "title", title, "body", body)
	return nil
}

// Compile-time check that LogNotifier implements the Notifier interface
var _ gym.Notifier = (*LogNotifier)(nil)
