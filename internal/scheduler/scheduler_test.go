package scheduler

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsmith/mealsmith-api/internal/domain"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	ticks []uuid.UUID
}

func (r *recordingEnqueuer) EnqueueTick(userID uuid.UUID, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, userID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResyncRegistersEnabledPolicies(t *testing.T) {
	t.Parallel()

	s := New(&recordingEnqueuer{}, testLogger())

	policies := []domain.SchedulePolicy{
		{UserID: uuid.New(), DayOfWeek: 0, Hour: 8, Minute: 0, Enabled: true},
		{UserID: uuid.New(), DayOfWeek: 3, Hour: 17, Minute: 30, Enabled: true},
		{UserID: uuid.New(), DayOfWeek: 5, Hour: 9, Minute: 0, Enabled: false},
	}

	s.Resync(policies)
	assert.Equal(t, 2, s.TriggerCount())
}

func TestResyncTearsDownStaleTriggers(t *testing.T) {
	t.Parallel()

	s := New(&recordingEnqueuer{}, testLogger())

	oldUser := uuid.New()
	newUser := uuid.New()

	s.Resync([]domain.SchedulePolicy{
		{UserID: oldUser, DayOfWeek: 0, Hour: 8, Minute: 0, Enabled: true},
	})
	require.Equal(t, 1, s.TriggerCount())

	s.Resync([]domain.SchedulePolicy{
		{UserID: newUser, DayOfWeek: 2, Hour: 12, Minute: 0, Enabled: true},
	})
	assert.Equal(t, 1, s.TriggerCount())

	s.mu.Lock()
	_, oldPresent := s.entries[oldUser]
	_, newPresent := s.entries[newUser]
	s.mu.Unlock()
	assert.False(t, oldPresent)
	assert.True(t, newPresent)
}

func TestResyncSkipsInvalidPolicies(t *testing.T) {
	t.Parallel()

	s := New(&recordingEnqueuer{}, testLogger())

	s.Resync([]domain.SchedulePolicy{
		{UserID: uuid.New(), DayOfWeek: 9, Hour: 8, Minute: 0, Enabled: true},
		{UserID: uuid.New(), DayOfWeek: 1, Hour: 8, Minute: 0, Enabled: true},
	})
	assert.Equal(t, 1, s.TriggerCount())
}

func TestResyncWithEmptyPolicySetClearsAll(t *testing.T) {
	t.Parallel()

	s := New(&recordingEnqueuer{}, testLogger())

	s.Resync([]domain.SchedulePolicy{
		{UserID: uuid.New(), DayOfWeek: 0, Hour: 8, Minute: 0, Enabled: true},
	})
	require.Equal(t, 1, s.TriggerCount())

	s.Resync(nil)
	assert.Equal(t, 0, s.TriggerCount())
}

func TestFireForwardsToEnqueuer(t *testing.T) {
	t.Parallel()

	enq := &recordingEnqueuer{}
	s := New(enq, testLogger())

	userID := uuid.New()
	s.fire(userID)

	enq.mu.Lock()
	defer enq.mu.Unlock()
	require.Len(t, enq.ticks, 1)
	assert.Equal(t, userID, enq.ticks[0])
}
