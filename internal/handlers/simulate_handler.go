package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lucasmv/backtestsim/internal/dto"
	"github.com/lucasmv/backtestsim/internal/jobmanager"
	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/repository"
	"github.com/lucasmv/backtestsim/internal/worker"
)

const dateLayout = "2006-01-02"

// SimulateHandler exposes the trigger and status endpoints.
type SimulateHandler struct {
	manager        *jobmanager.Manager
	jobs           repository.JobRepository
	jobDetails     repository.JobDetailRepository
	worker         *worker.Worker
	maxDays        int
	defaultModels  []string
	logger         zerolog.Logger
}

// NewSimulateHandler constructs a SimulateHandler.
func NewSimulateHandler(manager *jobmanager.Manager, jobs repository.JobRepository, jobDetails repository.JobDetailRepository, w *worker.Worker, maxDays int, defaultModels []string, logger zerolog.Logger) *SimulateHandler {
	return &SimulateHandler{
		manager:       manager,
		jobs:          jobs,
		jobDetails:    jobDetails,
		worker:        w,
		maxDays:       maxDays,
		defaultModels: defaultModels,
		logger:        logger,
	}
}

// Trigger handles POST /simulate/trigger.
func (h *SimulateHandler) Trigger(c *gin.Context) {
	var req dto.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body: " + err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid end_date", Code: "VALIDATION_ERROR"})
		return
	}
	if endDate.After(time.Now().UTC().Truncate(24 * time.Hour)) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "end_date cannot be in the future", Code: "VALIDATION_ERROR"})
		return
	}

	modelNames := req.Models
	if len(modelNames) == 0 {
		modelNames = h.defaultModels
	}
	if len(modelNames) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "no models specified", Code: "VALIDATION_ERROR"})
		return
	}

	var startDate time.Time
	var resumeWarnings []string
	if req.StartDate != nil {
		startDate, err = time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid start_date", Code: "VALIDATION_ERROR"})
			return
		}
	} else {
		startDate = endDate
		for _, model := range modelNames {
			resume, err := h.manager.ResumeDateFor(model, endDate)
			if err != nil {
				c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to resolve resume date", Code: "INTERNAL_ERROR"})
				return
			}
			if resume.Before(startDate) {
				startDate = resume
			}
		}
	}

	if startDate.After(endDate) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "start_date must not be after end_date", Code: "VALIDATION_ERROR"})
		return
	}

	var dates []time.Time
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	if h.maxDays > 0 && len(dates) > h.maxDays {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "date range exceeds maximum simulation days", Code: "VALIDATION_ERROR"})
		return
	}

	result, err := h.manager.CreateJob(jobmanager.CreateRequest{
		Dates:         dates,
		Models:        modelNames,
		SkipCompleted: true,
	})
	if err != nil {
		h.writeJobManagerError(c, err)
		return
	}

	warnings := append(resumeWarnings, result.Warnings...)

	go h.runWorker(result.JobID)

	c.JSON(http.StatusOK, dto.TriggerResponse{
		JobID:          result.JobID.String(),
		Status:         string(models.JobStatusPending),
		TotalModelDays: len(dates) * len(modelNames),
		Message:        "simulation job created",
		Warnings:       warnings,
	})
}

func (h *SimulateHandler) runWorker(jobID uuid.UUID) {
	ctx := context.Background()
	if err := h.worker.Run(ctx, jobID); err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID.String()).Msg("worker run failed")
	}
}

func (h *SimulateHandler) writeJobManagerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrJobAlreadyActive), errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "CONFLICT"})
	case errors.Is(err, models.ErrInvalidDateRange), errors.Is(err, models.ErrNoModelsSpecified):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create job", Code: "INTERNAL_ERROR"})
	}
}

// Status handles GET /simulate/status/:job_id.
func (h *SimulateHandler) Status(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.jobs.FindByID(jobID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "job not found", Code: "JOB_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to load job", Code: "INTERNAL_ERROR"})
		return
	}

	details, err := h.jobDetails.FindByJobID(jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to load job details", Code: "INTERNAL_ERROR"})
		return
	}

	progress := dto.JobProgress{Total: int64(len(details))}
	for _, d := range details {
		switch d.Status {
		case models.JobDetailStatusCompleted:
			progress.Completed++
		case models.JobDetailStatusFailed:
			progress.Failed++
		default:
			progress.Pending++
		}
	}

	c.JSON(http.StatusOK, dto.ToStatusResponse(job, progress, details))
}
