package dto

import "github.com/lucasmv/backtestsim/internal/models"

// TriggerRequest is POST /simulate/trigger's request body.
type TriggerRequest struct {
	StartDate       *string  `json:"start_date"`
	EndDate         string   `json:"end_date" binding:"required"`
	Models          []string `json:"models"`
	ReplaceExisting bool     `json:"replace_existing,omitempty"`
}

// TriggerResponse is POST /simulate/trigger's 200 response body.
type TriggerResponse struct {
	JobID          string   `json:"job_id"`
	Status         string   `json:"status"`
	TotalModelDays int      `json:"total_model_days"`
	Message        string   `json:"message"`
	Warnings       []string `json:"warnings,omitempty"`
}

// JobProgress is the embedded progress summary in the status response.
type JobProgress struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Pending   int64 `json:"pending"`
}

// JobDetailStatus is one (model, date) unit of work's status in a job's
// status response.
type JobDetailStatus struct {
	Date         string   `json:"date"`
	Model        string   `json:"model"`
	Status       string   `json:"status"`
	StartedAt    *string  `json:"started_at,omitempty"`
	CompletedAt  *string  `json:"completed_at,omitempty"`
	DurationSecs *float64 `json:"duration_seconds,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// StatusResponse is GET /simulate/status/{job_id}'s response body.
type StatusResponse struct {
	JobID             string            `json:"job_id"`
	Status            string            `json:"status"`
	Progress          JobProgress       `json:"progress"`
	DateRange         []string          `json:"date_range"`
	Models            []string          `json:"models"`
	CreatedAt         string            `json:"created_at"`
	StartedAt         *string           `json:"started_at"`
	CompletedAt       *string           `json:"completed_at"`
	TotalDurationSecs *float64          `json:"total_duration_seconds"`
	Error             *string           `json:"error"`
	Warnings          []string          `json:"warnings,omitempty"`
	Details           []JobDetailStatus `json:"details"`
}

// ToStatusResponse assembles a StatusResponse from a Job, its aggregated
// progress counts, and its JobDetail rows.
func ToStatusResponse(job *models.Job, progress JobProgress, details []*models.JobDetail) *StatusResponse {
	resp := &StatusResponse{
		JobID:             job.ID.String(),
		Status:            string(job.Status),
		Progress:          progress,
		Models:            []string(job.Models),
		CreatedAt:         job.CreatedAt.Format("2006-01-02T15:04:05Z"),
		TotalDurationSecs: job.TotalDurationSecs,
		Warnings:          []string(job.Warnings),
	}

	for _, d := range job.DateRange {
		resp.DateRange = append(resp.DateRange, d.Format("2006-01-02"))
	}

	if job.StartedAt != nil {
		s := job.StartedAt.Format("2006-01-02T15:04:05Z")
		resp.StartedAt = &s
	}
	if job.CompletedAt != nil {
		s := job.CompletedAt.Format("2006-01-02T15:04:05Z")
		resp.CompletedAt = &s
	}
	if job.Error != "" {
		resp.Error = &job.Error
	}

	for _, d := range details {
		status := JobDetailStatus{
			Date:         d.Date.Format("2006-01-02"),
			Model:        d.Model,
			Status:       string(d.Status),
			DurationSecs: d.DurationSecs,
			Error:        d.Error,
		}
		if d.StartedAt != nil {
			s := d.StartedAt.Format("2006-01-02T15:04:05Z")
			status.StartedAt = &s
		}
		if d.CompletedAt != nil {
			s := d.CompletedAt.Format("2006-01-02T15:04:05Z")
			status.CompletedAt = &s
		}
		resp.Details = append(resp.Details, status)
	}

	return resp
}
