package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
)

// CoverageRepository defines the interface for coverage span data operations
type CoverageRepository interface {
	Upsert(span *models.CoverageSpan) error
	FindByDate(date time.Time) (*models.CoverageSpan, error)
	FindCompletedDates(start, end time.Time) ([]time.Time, error)
}

// coverageRepository implements CoverageRepository interface
type coverageRepository struct {
	db *gorm.DB
}

// NewCoverageRepository creates a new CoverageRepository instance
func NewCoverageRepository(db *gorm.DB) CoverageRepository {
	return &coverageRepository{db: db}
}

// Upsert stores the recalculated coverage status for a date
func (r *coverageRepository) Upsert(span *models.CoverageSpan) error {
	if span == nil {
		return fmt.Errorf("coverage span cannot be nil")
	}

	var existing models.CoverageSpan
	err := r.db.Where("date = ?", span.Date).First(&existing).Error
	if err == nil {
		existing.Status = span.Status
		existing.SymbolsPresent = span.SymbolsPresent
		existing.SymbolsTotal = span.SymbolsTotal
		if err := r.db.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update coverage span: %w", err)
		}
		span.ID = existing.ID
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to look up coverage span: %w", err)
	}

	if err := r.db.Create(span).Error; err != nil {
		return fmt.Errorf("failed to create coverage span: %w", err)
	}
	return nil
}

// FindByDate returns the coverage span for a single date, if tracked
func (r *coverageRepository) FindByDate(date time.Time) (*models.CoverageSpan, error) {
	var span models.CoverageSpan
	if err := r.db.Where("date = ?", date).First(&span).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find coverage span: %w", err)
	}
	return &span, nil
}

// FindCompletedDates returns the dates within a window whose coverage is complete
func (r *coverageRepository) FindCompletedDates(start, end time.Time) ([]time.Time, error) {
	var spans []models.CoverageSpan
	if err := r.db.Select("date").
		Where("date >= ? AND date <= ? AND status = ?", start, end, models.CoverageStatusComplete).
		Order("date ASC").
		Find(&spans).Error; err != nil {
		return nil, fmt.Errorf("failed to find completed dates: %w", err)
	}

	dates := make([]time.Time, len(spans))
	for i, s := range spans {
		dates[i] = s.Date
	}
	return dates, nil
}
