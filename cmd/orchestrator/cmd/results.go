package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/lucasmv/backtestsim/internal/cli"
	"github.com/lucasmv/backtestsim/internal/dto"
)

var (
	resultsJobID     string
	resultsModel     string
	resultsStartDate string
	resultsEndDate   string
	resultsReasoning string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Fetch backtest results",
	Long: `Fetch per-day or per-range portfolio results.

Providing neither --start-date nor --end-date defaults to the trailing
30 calendar days. Providing exactly one date queries that single day.
Providing both returns a per-model range summary.`,
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&resultsJobID, "job-id", "", "filter by job ID")
	resultsCmd.Flags().StringVar(&resultsModel, "model", "", "filter by model identifier")
	resultsCmd.Flags().StringVar(&resultsStartDate, "start-date", "", "start date (YYYY-MM-DD)")
	resultsCmd.Flags().StringVar(&resultsEndDate, "end-date", "", "end date (YYYY-MM-DD)")
	resultsCmd.Flags().StringVar(&resultsReasoning, "reasoning", "none", "reasoning verbosity for single-date results (none|summary|full)")
}

func runResults(cmd *cobra.Command, args []string) error {
	query := url.Values{}
	if resultsJobID != "" {
		query.Set("job_id", resultsJobID)
	}
	if resultsModel != "" {
		query.Set("model", resultsModel)
	}
	if resultsStartDate != "" {
		query.Set("start_date", resultsStartDate)
	}
	if resultsEndDate != "" {
		query.Set("end_date", resultsEndDate)
	}
	if resultsReasoning != "" {
		query.Set("reasoning", resultsReasoning)
	}

	path := "/results"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	isRange := resultsStartDate != "" && resultsEndDate != ""

	var raw struct {
		Results json.RawMessage `json:"results"`
	}
	if err := client().Request("GET", path, nil, &raw); err != nil {
		return fmt.Errorf("results lookup failed: %w", err)
	}

	if isRange {
		var results []dto.RangeResult
		if err := json.Unmarshal(raw.Results, &results); err != nil {
			return fmt.Errorf("failed to decode range results: %w", err)
		}
		return outputRangeResults(results)
	}

	var results []dto.SingleDateResult
	if err := json.Unmarshal(raw.Results, &results); err != nil {
		return fmt.Errorf("failed to decode results: %w", err)
	}
	return outputSingleDateResults(results)
}

func outputSingleDateResults(results []dto.SingleDateResult) error {
	if format() == cli.OutputFormatJSON {
		return cli.OutputJSON(results)
	}

	headers := []string{"Date", "Model", "Starting Value", "Ending Value", "Profit", "Return %", "Trades"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Date,
			r.Model,
			r.StartingPosition.PortfolioValue.StringFixed(2),
			r.FinalPosition.PortfolioValue.StringFixed(2),
			r.DailyMetrics.Profit.StringFixed(2),
			r.DailyMetrics.ReturnPct.StringFixed(2),
			fmt.Sprintf("%d", len(r.Trades)),
		})
	}

	switch format() {
	case cli.OutputFormatCSV:
		return cli.OutputCSV(headers, rows)
	default:
		cli.OutputTable(headers, rows)
		return nil
	}
}

func outputRangeResults(results []dto.RangeResult) error {
	if format() == cli.OutputFormatJSON {
		return cli.OutputJSON(results)
	}

	headers := []string{"Model", "Start", "End", "Starting Value", "Ending Value", "Period Return %", "Annualized %", "Trading Days"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Model,
			r.StartDate,
			r.EndDate,
			r.PeriodMetrics.StartingPortfolioValue.StringFixed(2),
			r.PeriodMetrics.EndingPortfolioValue.StringFixed(2),
			r.PeriodMetrics.PeriodReturnPct.StringFixed(2),
			r.PeriodMetrics.AnnualizedReturnPct.StringFixed(2),
			fmt.Sprintf("%d", r.PeriodMetrics.TradingDays),
		})
	}

	switch format() {
	case cli.OutputFormatCSV:
		return cli.OutputCSV(headers, rows)
	default:
		cli.OutputTable(headers, rows)
		return nil
	}
}
