package testutil

import (
	"context"
	"sync"
	"time"
)

// Notification records one delivered or scheduled notification.
type Notification struct {
	Title string
	Body  string
	Delay time.Duration // zero for immediate notifications
}

// SpyNotifier records every notification for test assertions.
// Safe for concurrent use.
type SpyNotifier struct {
	mu   sync.Mutex
	sent []Notification

	// FailWith, when set, is returned by every call.
	FailWith error
}

// NewSpyNotifier creates an empty SpyNotifier.
func NewSpyNotifier() *SpyNotifier {
	return &SpyNotifier{}
}

func (n *SpyNotifier) Notify(_ context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailWith != nil {
		return n.FailWith
	}
	n.sent = append(n.sent, Notification{Title: title, Body: body})
	return nil
}

func (n *SpyNotifier) Schedule(_ context.Context, delay time.Duration, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailWith != nil {
		return n.FailWith
	}
	n.sent = append(n.sent, Notification{Title: title, Body: body, Delay: delay})
	return nil
}

// Sent returns a copy of all recorded notifications.
func (n *SpyNotifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.sent))
	copy(out, n.sent)
	return out
}
