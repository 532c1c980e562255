// Package runtimectx defines the per-session context handed to the agent
// runtime and the isolated scratch configuration some legacy tool
// implementations expect to find on disk. Grounded on the original
// implementation's context_injector and runtime_manager: the record is
// immutable and carries nothing the agent runtime may cache across sessions.
package runtimectx

import (
	"time"

	"github.com/google/uuid"
)

// Context is the small immutable record threaded into every tool invocation
// for one (job, model, date) session. The agent runtime must not cache or
// mutate it across sessions; the tool dispatcher uses it to resolve the
// correct Ledger.
type Context struct {
	JobID          uuid.UUID
	ModelSignature string
	Date           time.Time
	TradingDayID   uuid.UUID
}

// New constructs a RuntimeContext for one session.
func New(jobID uuid.UUID, modelSignature string, date time.Time, tradingDayID uuid.UUID) Context {
	return Context{
		JobID:          jobID,
		ModelSignature: modelSignature,
		Date:           date,
		TradingDayID:   tradingDayID,
	}
}
