// Package agentruntime defines the core's narrow contract with the agent
// runtime: a black box that, handed a RuntimeContext and a set of trading
// tools, returns a conversation transcript and completion metadata. The
// core never inspects how a decision was reached.
package agentruntime

import (
	"context"

	"github.com/lucasmv/backtestsim/internal/ledger"
	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/runtimectx"
)

// Trader is the tool surface a session's Ledger exposes to the agent
// runtime. ledger.Ledger satisfies it directly.
type Trader interface {
	Buy(symbol string, qty int) (ledger.Snapshot, error)
	Sell(symbol string, qty int) (ledger.Snapshot, error)
}

// CompletionMetadata summarizes one session's agent invocation.
type CompletionMetadata struct {
	StepsUsed     int
	ToolCallCount int
	TradeCount    int
}

// Runtime is the contract a DayExecutor invokes once per session. Per
// contract, implementations must not cache or mutate the RuntimeContext
// across calls.
type Runtime interface {
	Execute(ctx context.Context, rc runtimectx.Context, trader Trader, maxSteps int) (models.ReasoningList, CompletionMetadata, error)
}
