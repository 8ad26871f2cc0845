package gym

import (
	"context"
	"time"
)

// Notifier delivers workout notifications (rest-timer expiry, workout
// completion). The sync engine does not depend on it; only the service
// layer does.
type Notifier interface {
	// Notify shows an immediate notification.
	Notify(ctx context.Context, title, body string) error

	// Schedule requests a notification after the given delay. Delivery
	// is the backend's responsibility; the call returns once the
	// request has been accepted.
	Schedule(ctx context.Context, delay time.Duration, title, body string) error
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func NewNopNotifier() *NopNotifier { return &NopNotifier{} }

func (*NopNotifier) Notify(context.Context, string, string) error { return nil }

func (*NopNotifier) Schedule(context.Context, time.Duration, string, string) error { return nil }
