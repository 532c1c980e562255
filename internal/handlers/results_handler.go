package handlers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lucasmv/backtestsim/internal/dto"
	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/repository"
)

// ResultsHandler exposes GET /results.
type ResultsHandler struct {
	tradingDays repository.TradingDayRepository
}

// NewResultsHandler constructs a ResultsHandler.
func NewResultsHandler(tradingDays repository.TradingDayRepository) *ResultsHandler {
	return &ResultsHandler{tradingDays: tradingDays}
}

// Get handles GET /results. See the external interface contract for the
// query parameters and the single-date vs range dispatch rule: neither date
// present defaults to the last 30 calendar days, exactly one present is a
// single-date query, both present is a range query.
func (h *ResultsHandler) Get(c *gin.Context) {
	filter := repository.TradingDayFilter{}

	if jobIDParam := c.Query("job_id"); jobIDParam != "" {
		jobID, err := uuid.Parse(jobIDParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid job_id", Code: "VALIDATION_ERROR"})
			return
		}
		filter.JobID = &jobID
	}
	if model := c.Query("model"); model != "" {
		filter.Model = &model
	}

	startParam := c.Query("start_date")
	endParam := c.Query("end_date")
	isRange := startParam != "" && endParam != ""

	start, end, err := resolveDateWindow(startParam, endParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid date range", Code: "VALIDATION_ERROR"})
		return
	}
	if start.After(end) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "start_date must not be after end_date", Code: "VALIDATION_ERROR"})
		return
	}
	filter.Start = start
	filter.End = end

	days, err := h.tradingDays.Query(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to query results", Code: "INTERNAL_ERROR"})
		return
	}
	if len(days) == 0 {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "no matching results", Code: "NOT_FOUND"})
		return
	}

	if !isRange {
		mode := dto.ParseReasoningMode(c.Query("reasoning"))
		results := make([]*dto.SingleDateResult, 0, len(days))
		for _, day := range days {
			startingHoldings, err := h.startingHoldingsFor(day)
			if err != nil {
				c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to load previous trading day", Code: "INTERNAL_ERROR"})
				return
			}
			results = append(results, dto.ToSingleDateResult(day, startingHoldings, mode))
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": buildRangeResults(days, start, end)})
}

// startingHoldingsFor looks up the model's ending holdings from the trading
// day immediately before day.Date, across all jobs, mirroring
// dayexecutor.Executor.loadPrevious. Returns nil on a model's first-ever
// day, per the portfolio-continuity invariant.
func (h *ResultsHandler) startingHoldingsFor(day *models.TradingDay) (map[string]int, error) {
	prev, err := h.tradingDays.FindPreviousByModel(day.Model, day.Date)
	if err != nil {
		if errors.Is(err, models.ErrTradingDayNotFound) {
			return nil, nil
		}
		return nil, err
	}

	holdings := make(map[string]int, len(prev.Holdings))
	for _, holding := range prev.Holdings {
		holdings[holding.Symbol] = holding.Quantity
	}
	return holdings, nil
}

// resolveDateWindow applies the date-presence rule from the external
// interface contract: neither param present defaults to the trailing 30
// calendar days up to today; exactly one present collapses start and end to
// that single date; both present parse independently.
func resolveDateWindow(startParam, endParam string) (time.Time, time.Time, error) {
	switch {
	case startParam == "" && endParam == "":
		end := time.Now().UTC().Truncate(24 * time.Hour)
		return end.AddDate(0, 0, -30), end, nil
	case startParam != "" && endParam == "":
		d, err := time.Parse(dateLayout, startParam)
		return d, d, err
	case startParam == "" && endParam != "":
		d, err := time.Parse(dateLayout, endParam)
		return d, d, err
	default:
		start, err := time.Parse(dateLayout, startParam)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := time.Parse(dateLayout, endParam)
		return start, end, err
	}
}

// buildRangeResults groups trading days by model and produces one
// dto.RangeResult per model, using each model's own first/last matching
// date for the response's start_date/end_date rather than the query window.
func buildRangeResults(days []*models.TradingDay, start, end time.Time) []*dto.RangeResult {
	byModel := make(map[string][]*models.TradingDay)
	for _, day := range days {
		byModel[day.Model] = append(byModel[day.Model], day)
	}

	names := make([]string, 0, len(byModel))
	for m := range byModel {
		names = append(names, m)
	}
	sort.Strings(names)

	results := make([]*dto.RangeResult, 0, len(names))
	for _, m := range names {
		modelDays := byModel[m]
		results = append(results, dto.ToRangeResult(m, modelDays[0].Date.Format(dateLayout), modelDays[len(modelDays)-1].Date.Format(dateLayout), modelDays))
	}
	return results
}
