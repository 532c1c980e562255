package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/dto"
	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/repository"
)

func setupResultsTestDB(t *testing.T) (*gorm.DB, *models.Job) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Job{}, &models.TradingDay{}, &models.Holding{}, &models.Action{}))

	job := &models.Job{DateRange: models.DateList{}, Models: models.StringList{"mock"}}
	assert.NoError(t, db.Create(job).Error)
	return db, job
}

func TestResultsHandler_Get_SingleDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, job := setupResultsTestDB(t)
	tradingDays := repository.NewTradingDayRepository(db)

	date := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, tradingDays.Create(&models.TradingDay{
		JobID: job.ID, Model: "mock", Date: date,
		StartingCash: decimal.NewFromInt(10000), EndingCash: decimal.NewFromInt(9000),
		EndingPortfolioVal: decimal.NewFromInt(10050),
	}))

	handler := NewResultsHandler(tradingDays)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/results?start_date=2025-01-16&model=mock", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var raw map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "results")
}

func TestResultsHandler_Get_SingleDate_StartingHoldingsFromPreviousDay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, job := setupResultsTestDB(t)
	tradingDays := repository.NewTradingDayRepository(db)

	day1 := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)

	firstDay := &models.TradingDay{
		JobID: job.ID, Model: "mock", Date: day1,
		StartingCash: decimal.NewFromInt(10000), EndingCash: decimal.NewFromInt(9000),
		StartingPortfolioVal: decimal.NewFromInt(10000), EndingPortfolioVal: decimal.NewFromInt(10000),
		Holdings: []models.Holding{{Symbol: "AAPL", Quantity: 10}},
	}
	assert.NoError(t, tradingDays.Create(firstDay))

	assert.NoError(t, tradingDays.Create(&models.TradingDay{
		JobID: job.ID, Model: "mock", Date: day2,
		StartingCash: decimal.NewFromInt(9000), EndingCash: decimal.NewFromInt(9000),
		StartingPortfolioVal: decimal.NewFromInt(10050), EndingPortfolioVal: decimal.NewFromInt(10050),
	}))

	handler := NewResultsHandler(tradingDays)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/results?start_date=2025-01-17&model=mock", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var raw struct {
		Results []dto.SingleDateResult `json:"results"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Len(t, raw.Results, 1)
	assert.Equal(t, map[string]int{"AAPL": 10}, raw.Results[0].StartingPosition.Holdings)
	assert.Empty(t, raw.Results[0].FinalPosition.Holdings)
}

func TestResultsHandler_Get_SingleDate_FirstDayHasEmptyStartingHoldings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, job := setupResultsTestDB(t)
	tradingDays := repository.NewTradingDayRepository(db)

	date := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, tradingDays.Create(&models.TradingDay{
		JobID: job.ID, Model: "mock", Date: date,
		StartingCash: decimal.NewFromInt(10000), EndingCash: decimal.NewFromInt(10000),
		StartingPortfolioVal: decimal.NewFromInt(10000), EndingPortfolioVal: decimal.NewFromInt(10000),
	}))

	handler := NewResultsHandler(tradingDays)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/results?start_date=2025-01-16&model=mock", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var raw struct {
		Results []dto.SingleDateResult `json:"results"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Len(t, raw.Results, 1)
	assert.Empty(t, raw.Results[0].StartingPosition.Holdings)
}

func TestResultsHandler_Get_Range(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, job := setupResultsTestDB(t)
	tradingDays := repository.NewTradingDayRepository(db)

	day1 := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, tradingDays.Create(&models.TradingDay{
		JobID: job.ID, Model: "mock", Date: day1,
		StartingPortfolioVal: decimal.NewFromInt(10000), EndingPortfolioVal: decimal.NewFromInt(10000),
	}))
	assert.NoError(t, tradingDays.Create(&models.TradingDay{
		JobID: job.ID, Model: "mock", Date: day2,
		StartingPortfolioVal: decimal.NewFromInt(10000), EndingPortfolioVal: decimal.NewFromInt(10050),
	}))

	handler := NewResultsHandler(tradingDays)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/results?start_date=2025-01-16&end_date=2025-01-17&model=mock", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResultsHandler_Get_NoMatches(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, _ := setupResultsTestDB(t)
	tradingDays := repository.NewTradingDayRepository(db)
	handler := NewResultsHandler(tradingDays)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/results?start_date=2025-01-16&end_date=2025-01-17", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultsHandler_Get_InvalidRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, _ := setupResultsTestDB(t)
	tradingDays := repository.NewTradingDayRepository(db)
	handler := NewResultsHandler(tradingDays)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/results?start_date=2025-01-17&end_date=2025-01-16", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultsHandler_Get_InvalidJobID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, _ := setupResultsTestDB(t)
	tradingDays := repository.NewTradingDayRepository(db)
	handler := NewResultsHandler(tradingDays)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/results?job_id=not-a-uuid", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
