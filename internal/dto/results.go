package dto

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/lucasmv/backtestsim/internal/models"
)

// Position describes a portfolio's holdings, cash, and total value at a
// point in time.
type Position struct {
	Holdings        map[string]int  `json:"holdings"`
	Cash            decimal.Decimal `json:"cash"`
	PortfolioValue  decimal.Decimal `json:"portfolio_value"`
}

// DailyMetrics summarizes one session's P&L.
type DailyMetrics struct {
	Profit               decimal.Decimal `json:"profit"`
	ReturnPct            decimal.Decimal `json:"return_pct"`
	DaysSinceLastTrading int             `json:"days_since_last_trading"`
}

// Trade is one buy/sell action within a session.
type Trade struct {
	Type           string          `json:"type"`
	Symbol         string          `json:"symbol"`
	Quantity       int             `json:"quantity"`
	ExecutionPrice decimal.Decimal `json:"execution_price"`
}

// SessionMetadata carries bookkeeping fields orthogonal to P&L.
type SessionMetadata struct {
	TotalActions          int     `json:"total_actions"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
	CompletedAt            *string `json:"completed_at"`
}

// SingleDateResult is one (model, date) entry in GET /results' single-date
// response.
type SingleDateResult struct {
	Date            string          `json:"date"`
	Model           string          `json:"model"`
	JobID           string          `json:"job_id"`
	StartingPosition Position       `json:"starting_position"`
	DailyMetrics    DailyMetrics    `json:"daily_metrics"`
	Trades          []Trade         `json:"trades"`
	FinalPosition   Position        `json:"final_position"`
	Metadata        SessionMetadata `json:"metadata"`
	Reasoning       interface{}     `json:"reasoning"`
}

// DailyPortfolioValue is one point on a range result's value series.
type DailyPortfolioValue struct {
	Date           string          `json:"date"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
}

// PeriodMetrics summarizes a model's performance over a date range.
type PeriodMetrics struct {
	StartingPortfolioValue decimal.Decimal `json:"starting_portfolio_value"`
	EndingPortfolioValue   decimal.Decimal `json:"ending_portfolio_value"`
	PeriodReturnPct        decimal.Decimal `json:"period_return_pct"`
	AnnualizedReturnPct    decimal.Decimal `json:"annualized_return_pct"`
	CalendarDays           int             `json:"calendar_days"`
	TradingDays            int             `json:"trading_days"`
}

// RangeResult is one model's entry in GET /results' range response.
type RangeResult struct {
	Model                string                `json:"model"`
	StartDate            string                `json:"start_date"`
	EndDate              string                `json:"end_date"`
	DailyPortfolioValues []DailyPortfolioValue `json:"daily_portfolio_values"`
	PeriodMetrics        PeriodMetrics         `json:"period_metrics"`
}

// ReasoningMode controls how much of a session's transcript a results
// query includes.
type ReasoningMode string

const (
	ReasoningNone    ReasoningMode = "none"
	ReasoningSummary ReasoningMode = "summary"
	ReasoningFull    ReasoningMode = "full"
)

// ParseReasoningMode maps a query string to a ReasoningMode, defaulting to
// ReasoningNone for an empty or unrecognized value.
func ParseReasoningMode(s string) ReasoningMode {
	switch ReasoningMode(s) {
	case ReasoningSummary:
		return ReasoningSummary
	case ReasoningFull:
		return ReasoningFull
	default:
		return ReasoningNone
	}
}

// ToSingleDateResult assembles one (model, date) result from a TradingDay
// and its preloaded holdings/actions, applying the requested reasoning
// verbosity. startingHoldings is the prior trading day's ending holdings for
// this model (nil on a model's first-ever day, per the portfolio-continuity
// invariant), since a TradingDay's own Holdings association only stores that
// day's ending position.
func ToSingleDateResult(day *models.TradingDay, startingHoldings map[string]int, mode ReasoningMode) *SingleDateResult {
	startingPos := Position{
		Holdings:       map[string]int{},
		Cash:           day.StartingCash,
		PortfolioValue: day.StartingPortfolioVal,
	}
	for symbol, qty := range startingHoldings {
		startingPos.Holdings[symbol] = qty
	}

	result := &SingleDateResult{
		Date:             day.Date.Format("2006-01-02"),
		Model:            day.Model,
		JobID:            day.JobID.String(),
		StartingPosition: startingPos,
		DailyMetrics: DailyMetrics{
			Profit:               day.DailyProfit,
			ReturnPct:            day.DailyReturnPct,
			DaysSinceLastTrading: day.DaysSinceLastTrading,
		},
		FinalPosition: Position{
			Holdings:       map[string]int{},
			Cash:           day.EndingCash,
			PortfolioValue: day.EndingPortfolioVal,
		},
		Metadata: SessionMetadata{
			TotalActions:           day.TotalActions,
			SessionDurationSeconds: day.SessionDurationSecs,
		},
	}

	for _, h := range day.Holdings {
		result.FinalPosition.Holdings[h.Symbol] = h.Quantity
	}

	for _, a := range day.Actions {
		result.Trades = append(result.Trades, Trade{
			Type:           string(a.Type),
			Symbol:         a.Symbol,
			Quantity:       a.Quantity,
			ExecutionPrice: a.ExecutionPrice,
		})
	}

	if day.CompletedAt != nil {
		s := day.CompletedAt.Format("2006-01-02T15:04:05Z")
		result.Metadata.CompletedAt = &s
	}

	switch mode {
	case ReasoningSummary:
		result.Reasoning = day.ReasoningSummary
	case ReasoningFull:
		result.Reasoning = day.ReasoningFull
	default:
		result.Reasoning = nil
	}

	return result
}

// ToRangeResult computes one model's range summary from its ordered
// TradingDay rows, per the annualized-return formula in the external
// interface contract: ((ending/starting)^(365/calendar_days) - 1) * 100,
// zero if starting value or calendar_days is zero.
func ToRangeResult(model string, startDate, endDate string, days []*models.TradingDay) *RangeResult {
	result := &RangeResult{Model: model, StartDate: startDate, EndDate: endDate}
	if len(days) == 0 {
		return result
	}

	for _, d := range days {
		result.DailyPortfolioValues = append(result.DailyPortfolioValues, DailyPortfolioValue{
			Date:           d.Date.Format("2006-01-02"),
			PortfolioValue: d.EndingPortfolioVal,
		})
	}

	first, last := days[0], days[len(days)-1]
	starting := first.StartingPortfolioVal
	ending := last.EndingPortfolioVal
	calendarDays := int(last.Date.Sub(first.Date).Hours()/24) + 1

	periodReturn := decimal.Zero
	if !starting.IsZero() {
		periodReturn = ending.Sub(starting).Div(starting).Mul(decimal.NewFromInt(100))
	}

	annualized := decimal.Zero
	if !starting.IsZero() && calendarDays != 0 {
		ratio := ending.Div(starting)
		exponent := 365.0 / float64(calendarDays)
		annualizedFloat := (math.Pow(ratio.InexactFloat64(), exponent) - 1) * 100
		annualized = decimal.NewFromFloat(annualizedFloat)
	}

	result.PeriodMetrics = PeriodMetrics{
		StartingPortfolioValue: starting,
		EndingPortfolioValue:   ending,
		PeriodReturnPct:        periodReturn,
		AnnualizedReturnPct:    annualized,
		CalendarDays:           calendarDays,
		TradingDays:            len(days),
	}

	return result
}
