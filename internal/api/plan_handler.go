package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mealsmith/mealsmith-api/internal/service"
	"github.com/mealsmith/mealsmith-api/internal/store"
	"github.com/mealsmith/mealsmith-api/internal/task"
)

// GenerationService starts on-demand plan generations.
type GenerationService interface {
	RequestGeneration(ctx context.Context, req service.GenerationRequest) (service.GenerationReceipt, error)
}

// JobStatusService answers job status queries and cancellations.
type JobStatusService interface {
	GetStatus(jobID string) (service.JobStatus, error)
	CancelJob(jobID string) error
}

// PlanHandler handles meal-plan generation API requests.
type PlanHandler struct {
	plans     GenerationService
	status    JobStatusService
	validator *validator.Validate
}

// NewPlanHandler creates a new PlanHandler with the given dependencies.
func NewPlanHandler(plans GenerationService, status JobStatusService) *PlanHandler {
	return &PlanHandler{
		plans:     plans,
		status:    status,
		validator: validator.New(),
	}
}

// Generate handles POST /plans/generate. A successful request is accepted,
// not completed: generation continues in the background and the returned
// job ID is the handle for polling.
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	receipt, err := h.plans.RequestGeneration(r.Context(), service.GenerationRequest{
		UserID:              req.UserID,
		NumberOfMeals:       req.NumberOfMeals,
		ServingsPerMeal:     req.ServingsPerMeal,
		MinProteinPerMeal:   req.MinProteinPerMeal,
		MaxCaloriesPerMeal:  req.MaxCaloriesPerMeal,
		DietaryRestrictions: req.DietaryRestrictions,
		ModelID:             req.ModelID,
		TestMode:            req.TestMode,
	})
	if err != nil {
		switch {
		// ErrPlanExists covers the insert race where a concurrent request
		// wins the unique index between the coverage check and CreatePlan.
		case errors.Is(err, service.ErrPlanConflict), errors.Is(err, store.ErrPlanExists):
			RespondWithError(w, r, http.StatusConflict, "A plan already exists for the upcoming week")
		case errors.Is(err, store.ErrPreferencesNotFound):
			RespondWithError(w, r, http.StatusNotFound, "No preferences configured for user")
		case errors.Is(err, task.ErrQueueFull):
			RespondWithError(w, r, http.StatusServiceUnavailable, "Generation queue is full, try again later")
		default:
			slog.Error("failed to start generation", "error", err, "user_id", req.UserID)
			RespondWithError(w, r, http.StatusInternalServerError, "Failed to start generation")
		}
		return
	}

	RespondWithJSON(w, r, http.StatusAccepted, GenerateResponse{
		PlanID:    receipt.PlanID,
		JobID:     receipt.JobID,
		WeekStart: receipt.WeekStart,
	})
}

// GetJobStatus handles GET /jobs/{jobID}.
func (h *PlanHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		RespondWithError(w, r, http.StatusBadRequest, "Job ID is required")
		return
	}

	status, err := h.status.GetStatus(jobID)
	if err != nil {
		if errors.Is(err, task.ErrJobNotFound) {
			RespondWithError(w, r, http.StatusNotFound, "Job not found")
			return
		}
		slog.Error("failed to get job status", "error", err, "job_id", jobID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to get job status")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, JobStatusResponse{
		JobID:        status.JobID,
		Type:         status.Type,
		State:        status.State,
		Progress:     status.Progress,
		AttemptsMade: status.AttemptsMade,
		FailedReason: status.FailedReason,
		CreatedAt:    status.CreatedAt,
		ProcessedOn:  status.ProcessedOn,
		FinishedOn:   status.FinishedOn,
	})
}

// CancelJob handles DELETE /jobs/{jobID}. Only jobs that have not started
// can be cancelled.
func (h *PlanHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		RespondWithError(w, r, http.StatusBadRequest, "Job ID is required")
		return
	}

	if err := h.status.CancelJob(jobID); err != nil {
		switch {
		case errors.Is(err, task.ErrJobNotFound):
			RespondWithError(w, r, http.StatusNotFound, "Job not found")
		case errors.Is(err, task.ErrJobNotWaiting):
			RespondWithError(w, r, http.StatusConflict, "Job has already started and cannot be cancelled")
		default:
			slog.Error("failed to cancel job", "error", err, "job_id", jobID)
			RespondWithError(w, r, http.StatusInternalServerError, "Failed to cancel job")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
