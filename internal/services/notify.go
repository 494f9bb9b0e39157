package services

import (
	"context"
	"log/slog"
	"sync"

	"contas/internal/core"
)

// EventPublisher delivers committed ledger changes to other processes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev core.LedgerEvent) error
}

// ChangeHook runs in-process after a write commits.
type ChangeHook func(ctx context.Context, ev core.LedgerEvent)

// notifier fans a committed change out to hooks and the publisher. Failures
// are logged and never fail the write that triggered them.
type notifier struct {
	mu        sync.RWMutex
	hooks     []ChangeHook
	publisher EventPublisher
}

// OnChange registers h to run after every committed write.
func (n *notifier) OnChange(h ChangeHook) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hooks = append(n.hooks, h)
}

// SetPublisher replaces the event publisher. nil disables publishing.
func (n *notifier) SetPublisher(p EventPublisher) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.publisher = p
}

func (n *notifier) notify(ctx context.Context, ev core.LedgerEvent) {
	n.mu.RLock()
	hooks := append([]ChangeHook(nil), n.hooks...)
	publisher := n.publisher
	n.mu.RUnlock()

	for _, h := range hooks {
		h(ctx, ev)
	}

	if publisher == nil {
		slog.DebugContext(ctx, "No event publisher, skipping ledger event", "reason", ev.Reason)
		return
	}
	if err := publisher.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"user_id", ev.UserID,
			"reason", ev.Reason,
			"error", err)
	}
}
