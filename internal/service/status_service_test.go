package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsmith/mealsmith-api/internal/task"
)

type fakeInspector struct {
	jobs      map[string]task.Job
	cancelled []string
}

func (f *fakeInspector) GetJob(id string) (task.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return task.Job{}, task.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeInspector) Cancel(id string) error {
	job, ok := f.jobs[id]
	if !ok {
		return task.ErrJobNotFound
	}
	if job.State != task.JobStateWaiting {
		return task.ErrJobNotWaiting
	}
	delete(f.jobs, id)
	f.cancelled = append(f.cancelled, id)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetStatusSearchesQueuesInOrder(t *testing.T) {
	t.Parallel()

	created := time.Now().UTC()
	genQ := &fakeInspector{jobs: map[string]task.Job{
		"plan-abc": {ID: "plan-abc", Type: task.TypePlanGeneration, State: task.JobStateActive, Progress: 45, AttemptsMade: 1, CreatedAt: created},
	}}
	schedQ := &fakeInspector{jobs: map[string]task.Job{
		"scheduled-xyz-1": {ID: "scheduled-xyz-1", Type: task.TypeScheduledGeneration, State: task.JobStateCompleted, Progress: 100, CreatedAt: created},
	}}

	svc, err := NewStatusService(discardLogger(), genQ, schedQ)
	require.NoError(t, err)

	status, err := svc.GetStatus("plan-abc")
	require.NoError(t, err)
	assert.Equal(t, task.JobStateActive, status.State)
	assert.Equal(t, 45, status.Progress)

	status, err = svc.GetStatus("scheduled-xyz-1")
	require.NoError(t, err)
	assert.Equal(t, task.JobStateCompleted, status.State)
}

func TestGetStatusUnknownJob(t *testing.T) {
	t.Parallel()

	svc, err := NewStatusService(discardLogger(), &fakeInspector{jobs: map[string]task.Job{}})
	require.NoError(t, err)

	_, err = svc.GetStatus("plan-missing")
	assert.ErrorIs(t, err, task.ErrJobNotFound)
}

func TestCancelJob(t *testing.T) {
	t.Parallel()

	genQ := &fakeInspector{jobs: map[string]task.Job{
		"plan-waiting": {ID: "plan-waiting", State: task.JobStateWaiting},
		"plan-active":  {ID: "plan-active", State: task.JobStateActive},
	}}

	svc, err := NewStatusService(discardLogger(), genQ)
	require.NoError(t, err)

	require.NoError(t, svc.CancelJob("plan-waiting"))
	assert.Equal(t, []string{"plan-waiting"}, genQ.cancelled)

	assert.ErrorIs(t, svc.CancelJob("plan-active"), task.ErrJobNotWaiting)
	assert.ErrorIs(t, svc.CancelJob("plan-gone"), task.ErrJobNotFound)
}
