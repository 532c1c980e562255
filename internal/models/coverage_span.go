package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CoverageStatus reports whether every tracked symbol has a price point for a date
type CoverageStatus string

const (
	CoverageStatusComplete CoverageStatus = "complete"
	CoverageStatusPartial  CoverageStatus = "partial"
)

// CoverageSpan records, for one calendar date, how many of the tracked symbols
// have a downloaded price point. It lets the price cache skip re-downloading
// dates it has already fully covered and lets the worker surface partial-data
// warnings without re-scanning the price_points table.
type CoverageSpan struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Date           time.Time      `gorm:"not null;uniqueIndex" json:"date" validate:"required"`
	Status         CoverageStatus `gorm:"type:varchar(10);not null" json:"status" validate:"required"`
	SymbolsPresent int            `gorm:"not null" json:"symbols_present"`
	SymbolsTotal   int            `gorm:"not null" json:"symbols_total"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName specifies the table name for the CoverageSpan model
func (CoverageSpan) TableName() string {
	return "coverage_spans"
}

// BeforeCreate generates a UUID before inserting a coverage span
func (c *CoverageSpan) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate refreshes the UpdatedAt timestamp
func (c *CoverageSpan) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Recalculate derives the coverage status from the present/total symbol counts
func (c *CoverageSpan) Recalculate() {
	if c.SymbolsTotal > 0 && c.SymbolsPresent >= c.SymbolsTotal {
		c.Status = CoverageStatusComplete
	} else {
		c.Status = CoverageStatusPartial
	}
}

// IsComplete reports whether every tracked symbol was downloaded for this date
func (c *CoverageSpan) IsComplete() bool {
	return c.Status == CoverageStatusComplete
}
