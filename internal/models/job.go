package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobStatus represents the lifecycle state of a simulation job
type JobStatus string

const (
	JobStatusPending         JobStatus = "pending"
	JobStatusDownloadingData JobStatus = "downloading_data"
	JobStatusRunning         JobStatus = "running"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusPartial         JobStatus = "partial"
	JobStatusFailed          JobStatus = "failed"
)

// ActiveJobStatuses are the statuses that count against the single-active-job invariant
var ActiveJobStatuses = []JobStatus{JobStatusPending, JobStatusDownloadingData, JobStatusRunning}

// IsTerminal reports whether a job status is terminal
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusPartial, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsActive reports whether a job status counts toward the single-active-job invariant
func (s JobStatus) IsActive() bool {
	switch s {
	case JobStatusPending, JobStatusDownloadingData, JobStatusRunning:
		return true
	default:
		return false
	}
}

// Job represents one client simulation request
type Job struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConfigRef         string     `gorm:"type:varchar(255)" json:"config_ref,omitempty"`
	Status            JobStatus  `gorm:"type:varchar(20);not null;index" json:"status" validate:"required"`
	DateRange         DateList   `gorm:"type:text;not null" json:"date_range" validate:"required"`
	Models            StringList `gorm:"type:text;not null" json:"models" validate:"required"`
	Warnings          StringList `gorm:"type:text" json:"warnings,omitempty"`
	Error             string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	TotalDurationSecs *float64   `json:"total_duration_seconds,omitempty"`

	JobDetails  []JobDetail  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
	TradingDays []TradingDay `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for the Job model
func (Job) TableName() string {
	return "jobs"
}

// BeforeCreate generates an ID and timestamps before inserting a job
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return nil
}

// JobDetailStatus represents the lifecycle state of one (job, date, model)
type JobDetailStatus string

const (
	JobDetailStatusPending   JobDetailStatus = "pending"
	JobDetailStatusRunning   JobDetailStatus = "running"
	JobDetailStatusCompleted JobDetailStatus = "completed"
	JobDetailStatusFailed    JobDetailStatus = "failed"
	JobDetailStatusSkipped   JobDetailStatus = "skipped"
)

// IsTerminal reports whether a job detail status no longer changes
func (s JobDetailStatus) IsTerminal() bool {
	switch s {
	case JobDetailStatusCompleted, JobDetailStatusFailed, JobDetailStatusSkipped:
		return true
	default:
		return false
	}
}

// JobDetail represents one (job, date, model) unit of work
type JobDetail struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	JobID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_job_details_job_id" json:"job_id" validate:"required"`
	Date         time.Time       `gorm:"not null;index:idx_job_details_model_date" json:"date" validate:"required"`
	Model        string          `gorm:"type:varchar(100);not null;index:idx_job_details_model_date" json:"model" validate:"required"`
	Status       JobDetailStatus `gorm:"type:varchar(20);not null;index" json:"status" validate:"required"`
	Error        string          `gorm:"type:text" json:"error,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	DurationSecs *float64        `json:"duration_seconds,omitempty"`

	Job *Job `gorm:"foreignKey:JobID" json:"-"`
}

// TableName specifies the table name for the JobDetail model
func (JobDetail) TableName() string {
	return "job_details"
}

// BeforeCreate generates an ID before inserting a job detail
func (d *JobDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = JobDetailStatusPending
	}
	return nil
}
