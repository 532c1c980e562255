package models

import "errors"

// Job-related errors
var (
	ErrJobNotFound        = errors.New("job not found")
	ErrJobAlreadyActive   = errors.New("a job is already active")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrNoModelsSpecified  = errors.New("no models specified")
	ErrJobDetailNotFound  = errors.New("job detail not found")
)

// Trading day-related errors
var (
	ErrTradingDayNotFound = errors.New("trading day not found")
	ErrNegativeEndingCash = errors.New("ending cash cannot be negative")
)

// Action-related errors
var (
	ErrInvalidActionType = errors.New("invalid action type")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidSymbol     = errors.New("invalid symbol")
)

// Holding/ledger-related errors
var (
	ErrHoldingNotFound       = errors.New("holding not found")
	ErrInsufficientShares    = errors.New("insufficient shares for sale")
	ErrInsufficientCash      = errors.New("insufficient cash for purchase")
)

// Price data-related errors
var (
	ErrPricePointNotFound  = errors.New("price point not found")
	ErrMissingPrice        = errors.New("no price available for symbol on date")
	ErrUpstreamRateLimited = errors.New("market data provider rate limited the request")
	ErrUpstreamFailure     = errors.New("market data provider request failed")
)

// Agent runtime-related errors
var (
	ErrAgentFailure = errors.New("agent runtime failed to produce a decision")
)

// Generic validation/conflict errors used across repositories and services
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflicting state")
	ErrNotFound   = errors.New("record not found")
)
