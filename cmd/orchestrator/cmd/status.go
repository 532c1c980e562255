package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasmv/backtestsim/internal/cli"
	"github.com/lucasmv/backtestsim/internal/dto"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Check a backtest job's progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	var resp dto.StatusResponse
	if err := client().Request("GET", "/simulate/status/"+jobID, nil, &resp); err != nil {
		return fmt.Errorf("status lookup failed: %w", err)
	}

	if format() == cli.OutputFormatJSON {
		return cli.OutputJSON(resp)
	}

	fmt.Println(cli.RenderSection("Job " + resp.JobID))
	fmt.Println(cli.RenderKeyValue("Status", resp.Status))
	fmt.Println(cli.RenderKeyValue("Models", fmt.Sprintf("%v", resp.Models)))
	fmt.Println(cli.RenderKeyValue("Date range", fmt.Sprintf("%v", resp.DateRange)))
	fmt.Println(cli.RenderKeyValue("Progress", fmt.Sprintf("%d/%d completed, %d failed, %d pending",
		resp.Progress.Completed, resp.Progress.Total, resp.Progress.Failed, resp.Progress.Pending)))
	if resp.Error != nil {
		fmt.Println(cli.RenderKeyValue("Error", *resp.Error))
	}
	for _, w := range resp.Warnings {
		cli.PrintWarning(w)
	}

	headers := []string{"Date", "Model", "Status", "Duration (s)", "Error"}
	rows := make([][]string, 0, len(resp.Details))
	for _, d := range resp.Details {
		duration := ""
		if d.DurationSecs != nil {
			duration = fmt.Sprintf("%.2f", *d.DurationSecs)
		}
		rows = append(rows, []string{d.Date, d.Model, d.Status, duration, d.Error})
	}

	switch format() {
	case cli.OutputFormatCSV:
		return cli.OutputCSV(headers, rows)
	default:
		cli.OutputTable(headers, rows)
		return nil
	}
}
