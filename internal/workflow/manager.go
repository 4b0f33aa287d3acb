package workflow

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reelcast/internal/config"
	"reelcast/internal/logging"
	"reelcast/internal/notifications"
)

// Collaborators bundles the services a run drives.
type Collaborators struct {
	Store     Store
	Story     StoryGenerator
	Producer  Producer
	Publisher Publisher
	Notifier  notifications.Service
}

// Manager runs episode workflows.
type Manager struct {
	cfg    *config.Config
	deps   Collaborators
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock overrides the time source used for run timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(newID func() string) ManagerOption {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// NewManager constructs a workflow manager. A nil notifier is replaced by a
// no-op service.
func NewManager(cfg *config.Config, deps Collaborators, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(config.Notifications{})
	}
	m := &Manager{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "workflow"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
