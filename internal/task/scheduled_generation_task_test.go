package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWeeklyPlanService struct {
	outcome EnsureOutcome
	err     error
	calls   int
	lastID  uuid.UUID
}

func (s *stubWeeklyPlanService) EnsureWeeklyPlan(_ context.Context, userID uuid.UUID) (EnsureOutcome, error) {
	s.calls++
	s.lastID = userID
	return s.outcome, s.err
}

func TestScheduledGenerationTaskIDIsPerFiring(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	service := &stubWeeklyPlanService{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, err := NewScheduledGenerationTask(userID, time.Unix(1700000000, 0), service, logger)
	require.NoError(t, err)
	second, err := NewScheduledGenerationTask(userID, time.Unix(1700604800, 0), service, logger)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("scheduled-%s-1700000000", userID), first.ID())
	assert.NotEqual(t, first.ID(), second.ID(), "each firing must get its own job identity")
}

func TestScheduledGenerationTaskExecute(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	service := &stubWeeklyPlanService{
		outcome: EnsureOutcome{PlanID: uuid.New(), JobID: "plan-x"},
	}

	task, err := NewScheduledGenerationTask(userID, time.Now(), service,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	require.NoError(t, task.Execute(context.Background(), noopReport))
	assert.Equal(t, 1, service.calls)
	assert.Equal(t, userID, service.lastID)
}

func TestScheduledGenerationTaskSkipIsNotAnError(t *testing.T) {
	t.Parallel()

	service := &stubWeeklyPlanService{
		outcome: EnsureOutcome{Skipped: true, Reason: "plan already completed for week of 2025-03-09"},
	}

	task, err := NewScheduledGenerationTask(uuid.New(), time.Now(), service,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.NoError(t, task.Execute(context.Background(), noopReport))
}

func TestScheduledGenerationTaskServiceErrorPropagates(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("preference store down")
	service := &stubWeeklyPlanService{err: wantErr}

	task, err := NewScheduledGenerationTask(uuid.New(), time.Now(), service,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.ErrorIs(t, task.Execute(context.Background(), noopReport), wantErr)
}

func TestNewScheduledGenerationTaskValidation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewScheduledGenerationTask(uuid.New(), time.Now(), nil, logger)
	assert.ErrorIs(t, err, ErrNilPlanService)

	_, err = NewScheduledGenerationTask(uuid.Nil, time.Now(), &stubWeeklyPlanService{}, logger)
	assert.ErrorIs(t, err, ErrEmptyJobUser)
}
