package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/repository"
)

func setupHealthTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Job{}, &models.JobDetail{}))
	return db
}

func TestHealthHandler_Check_Healthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupHealthTestDB(t)
	jobs := repository.NewJobRepository(db)
	handler := NewHealthHandler(db, jobs, time.Hour)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.Check(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"database":"connected"`)
}

func TestHealthHandler_Check_Degraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupHealthTestDB(t)
	jobs := repository.NewJobRepository(db)

	stuck := &models.Job{DateRange: models.DateList{}, Models: models.StringList{"mock"}}
	assert.NoError(t, jobs.Create(stuck))
	started := time.Now().Add(-2 * time.Hour)
	assert.NoError(t, db.Model(stuck).Updates(map[string]interface{}{
		"status":     models.JobStatusRunning,
		"started_at": started,
	}).Error)

	handler := NewHealthHandler(db, jobs, time.Hour)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.Check(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}
