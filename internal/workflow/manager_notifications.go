package workflow

import (
	"context"

	"reelcast/internal/logging"
)

// notify delivers a notification detached from run cancellation and only logs
// delivery failures.
func (m *Manager) notify(ctx context.Context, label string, send func(context.Context) error) {
	if m.deps.Notifier == nil {
		return
	}
	if err := send(context.WithoutCancel(ctx)); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "notification failed", "notification_failed",
			logging.String("notification", label),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "operator was not notified"),
		)
	}
}
