package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/mealsmith/mealsmith-api/internal/domain"
)

// TickEnqueuer submits one scheduling tick for a user. Implemented by the
// application wiring, which builds a ScheduledGenerationTask and enqueues
// it on the scheduling queue.
type TickEnqueuer interface {
	EnqueueTick(userID uuid.UUID, firedAt time.Time) error
}

// Scheduler maintains one recurring cron trigger per enabled schedule
// policy. Firing is fire-and-enqueue: the trigger never blocks on
// generation work.
type Scheduler struct {
	cron     *cron.Cron
	enqueuer TickEnqueuer
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]cron.EntryID
}

// New creates a Scheduler. Triggers fire in UTC.
func New(enqueuer TickEnqueuer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		enqueuer: enqueuer,
		logger:   logger.With("component", "scheduler"),
		entries:  make(map[uuid.UUID]cron.EntryID),
	}
}

// Start begins firing registered triggers.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts trigger firing, waiting for any running trigger callbacks.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Resync tears down every registered trigger and rebuilds the set from the
// given policies, so stale triggers never persist past a policy change.
// Disabled policies register no trigger. Invalid policies are logged and
// skipped rather than aborting the resync.
func (s *Scheduler) Resync(policies []domain.SchedulePolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.entries)
	for userID, entryID := range s.entries {
		s.cron.Remove(entryID)
		delete(s.entries, userID)
	}
	if removed > 0 {
		s.logger.Info("removed existing triggers", "count", removed)
	}

	added := 0
	for _, policy := range policies {
		if !policy.Enabled {
			s.logger.Debug("skipping disabled schedule", "user_id", policy.UserID)
			continue
		}

		spec := TriggerSpec{
			Minute:    policy.Minute,
			Hour:      policy.Hour,
			DayOfWeek: policy.DayOfWeek,
		}
		if err := spec.Validate(); err != nil {
			s.logger.Error("invalid schedule policy, skipping",
				"user_id", policy.UserID, "error", err)
			continue
		}

		userID := policy.UserID
		entryID, err := s.cron.AddFunc(spec.CronExpr(), func() {
			s.fire(userID)
		})
		if err != nil {
			s.logger.Error("failed to register trigger",
				"user_id", userID, "cron", spec.CronExpr(), "error", err)
			continue
		}

		s.entries[userID] = entryID
		added++
		s.logger.Info("registered weekly trigger",
			"user_id", userID, "cron", spec.CronExpr())
	}

	s.logger.Info("scheduler resynced", "active_triggers", added)
}

// TriggerCount returns the number of currently registered triggers.
func (s *Scheduler) TriggerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Scheduler) fire(userID uuid.UUID) {
	if err := s.enqueuer.EnqueueTick(userID, time.Now().UTC()); err != nil {
		s.logger.Error("failed to enqueue scheduling tick",
			"user_id", userID, "error", err)
	}
}
