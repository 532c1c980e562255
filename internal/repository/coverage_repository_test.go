package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
)

func setupCoverageTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.CoverageSpan{})
	assert.NoError(t, err)

	return db
}

func TestCoverageRepository_Upsert(t *testing.T) {
	db := setupCoverageTestDB(t)
	repo := NewCoverageRepository(db)
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	span := &models.CoverageSpan{Date: date, SymbolsPresent: 3, SymbolsTotal: 5}
	span.Recalculate()

	assert.NoError(t, repo.Upsert(span))

	found, err := repo.FindByDate(date)
	assert.NoError(t, err)
	assert.Equal(t, models.CoverageStatusPartial, found.Status)

	span.SymbolsPresent = 5
	span.Recalculate()
	assert.NoError(t, repo.Upsert(span))

	found, err = repo.FindByDate(date)
	assert.NoError(t, err)
	assert.Equal(t, models.CoverageStatusComplete, found.Status)
}

func TestCoverageRepository_FindCompletedDates(t *testing.T) {
	db := setupCoverageTestDB(t)
	repo := NewCoverageRepository(db)

	complete := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	partial := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	completeSpan := &models.CoverageSpan{Date: complete, SymbolsPresent: 5, SymbolsTotal: 5}
	completeSpan.Recalculate()
	partialSpan := &models.CoverageSpan{Date: partial, SymbolsPresent: 2, SymbolsTotal: 5}
	partialSpan.Recalculate()

	assert.NoError(t, repo.Upsert(completeSpan))
	assert.NoError(t, repo.Upsert(partialSpan))

	dates, err := repo.FindCompletedDates(complete, partial)

	assert.NoError(t, err)
	assert.Equal(t, []time.Time{complete}, dates)
}
