package agentruntime

import (
	"context"
	"fmt"

	"github.com/lucasmv/backtestsim/internal/models"
)

// Summarizer condenses a session's transcript into a short prose summary,
// grounded on the original reasoning summarizer's prompt shape and
// statistical fallback.
type Summarizer interface {
	Summarize(ctx context.Context, reasoning models.ReasoningList, meta CompletionMetadata) string
}

// StatisticalSummarizer never calls an LLM; it always produces the
// fallback summary the original implementation uses when its own
// summarization call fails.
type StatisticalSummarizer struct{}

// Summarize returns "executed N trades across M tool calls".
func (StatisticalSummarizer) Summarize(_ context.Context, _ models.ReasoningList, meta CompletionMetadata) string {
	return fmt.Sprintf("executed %d trades across %d tool calls", meta.TradeCount, meta.ToolCallCount)
}

// FallbackSummarizer wraps a primary Summarizer (an LLM-backed
// implementation) and falls back to the statistical summary if it panics
// or returns an empty string. The exact LLM prompt is left to the runtime
// that implements Primary; this package only fixes the fallback contract.
type FallbackSummarizer struct {
	Primary Summarizer
}

// Summarize tries Primary first, recovering from any panic, and falls back
// to the statistical summary on failure or an empty result.
func (f FallbackSummarizer) Summarize(ctx context.Context, reasoning models.ReasoningList, meta CompletionMetadata) (summary string) {
	if f.Primary == nil {
		return StatisticalSummarizer{}.Summarize(ctx, reasoning, meta)
	}

	defer func() {
		if r := recover(); r != nil {
			summary = StatisticalSummarizer{}.Summarize(ctx, reasoning, meta)
		}
	}()

	summary = f.Primary.Summarize(ctx, reasoning, meta)
	if summary == "" {
		summary = StatisticalSummarizer{}.Summarize(ctx, reasoning, meta)
	}
	return summary
}
