package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsmith/mealsmith-api/internal/service"
	"github.com/mealsmith/mealsmith-api/internal/store"
	"github.com/mealsmith/mealsmith-api/internal/task"
)

type stubGenerationService struct {
	receipt service.GenerationReceipt
	err     error
	lastReq service.GenerationRequest
}

func (s *stubGenerationService) RequestGeneration(_ context.Context, req service.GenerationRequest) (service.GenerationReceipt, error) {
	s.lastReq = req
	if s.err != nil {
		return service.GenerationReceipt{}, s.err
	}
	return s.receipt, nil
}

type stubStatusService struct {
	status    service.JobStatus
	getErr    error
	cancelErr error
}

func (s *stubStatusService) GetStatus(string) (service.JobStatus, error) {
	if s.getErr != nil {
		return service.JobStatus{}, s.getErr
	}
	return s.status, nil
}

func (s *stubStatusService) CancelJob(string) error {
	return s.cancelErr
}

func newTestRouter(plans GenerationService, status JobStatusService) http.Handler {
	h := NewPlanHandler(plans, status)

	r := chi.NewRouter()
	r.Post("/api/plans/generate", h.Generate)
	r.Get("/api/jobs/{jobID}", h.GetJobStatus)
	r.Delete("/api/jobs/{jobID}", h.CancelJob)
	return r
}

func TestGenerateAccepted(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	planID := uuid.New()
	plans := &stubGenerationService{
		receipt: service.GenerationReceipt{
			PlanID:    planID,
			JobID:     "plan-" + planID.String(),
			WeekStart: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		},
	}
	router := newTestRouter(plans, &stubStatusService{})

	body, _ := json.Marshal(GenerateRequest{UserID: userID, NumberOfMeals: 5})
	req := httptest.NewRequest(http.MethodPost, "/api/plans/generate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, planID, resp.PlanID)
	assert.Equal(t, "plan-"+planID.String(), resp.JobID)

	assert.Equal(t, userID, plans.lastReq.UserID)
	assert.Equal(t, 5, plans.lastReq.NumberOfMeals)
}

func TestGenerateRejectsInvalidBody(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubGenerationService{}, &stubStatusService{})

	req := httptest.NewRequest(http.MethodPost, "/api/plans/generate", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRejectsMissingUserID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubGenerationService{}, &stubStatusService{})

	body, _ := json.Marshal(GenerateRequest{NumberOfMeals: 5})
	req := httptest.NewRequest(http.MethodPost, "/api/plans/generate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"week conflict", service.ErrPlanConflict, http.StatusConflict},
		{"concurrent insert race", store.ErrPlanExists, http.StatusConflict},
		{"missing preferences", store.ErrPreferencesNotFound, http.StatusNotFound},
		{"queue full", task.ErrQueueFull, http.StatusServiceUnavailable},
		{"internal failure", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(&stubGenerationService{err: tc.err}, &stubStatusService{})

			body, _ := json.Marshal(GenerateRequest{UserID: uuid.New()})
			req := httptest.NewRequest(http.MethodPost, "/api/plans/generate", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestGetJobStatus(t *testing.T) {
	t.Parallel()

	status := &stubStatusService{
		status: service.JobStatus{
			JobID:        "plan-abc",
			Type:         task.TypePlanGeneration,
			State:        task.JobStateActive,
			Progress:     45,
			AttemptsMade: 2,
			CreatedAt:    time.Now().UTC(),
		},
	}
	router := newTestRouter(&stubGenerationService{}, status)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/plan-abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp JobStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, task.JobStateActive, resp.State)
	assert.Equal(t, 45, resp.Progress)
	assert.Equal(t, 2, resp.AttemptsMade)
}

func TestGetJobStatusNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubGenerationService{}, &stubStatusService{getErr: task.ErrJobNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/plan-missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"cancelled", nil, http.StatusNoContent},
		{"not found", task.ErrJobNotFound, http.StatusNotFound},
		{"already started", task.ErrJobNotWaiting, http.StatusConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(&stubGenerationService{}, &stubStatusService{cancelErr: tc.err})

			req := httptest.NewRequest(http.MethodDelete, "/api/jobs/plan-abc", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}
