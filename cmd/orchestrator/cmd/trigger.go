package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasmv/backtestsim/internal/cli"
	"github.com/lucasmv/backtestsim/internal/dto"
)

var (
	triggerStartDate string
	triggerEndDate   string
	triggerModels    string
	triggerReplace   bool
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Trigger a backtest run",
	Long: `Submit a new backtest job covering a date range and one or more models.

If --start-date is omitted, the server starts the run at the earliest
per-model resume date: the day after that model's last recorded trading
day, or --end-date for a model with no trading history.`,
	RunE: runTrigger,
}

func init() {
	triggerCmd.Flags().StringVar(&triggerStartDate, "start-date", "", "start date (YYYY-MM-DD), defaults to the models' resume date")
	triggerCmd.Flags().StringVar(&triggerEndDate, "end-date", "", "end date (YYYY-MM-DD)")
	triggerCmd.Flags().StringVar(&triggerModels, "models", "", "comma-separated model identifiers")
	triggerCmd.Flags().BoolVar(&triggerReplace, "replace-existing", false, "replace any existing job covering the same models and dates")
	triggerCmd.MarkFlagRequired("end-date")
	triggerCmd.MarkFlagRequired("models")
}

func runTrigger(cmd *cobra.Command, args []string) error {
	models := strings.Split(triggerModels, ",")
	for i := range models {
		models[i] = strings.TrimSpace(models[i])
	}

	req := dto.TriggerRequest{
		EndDate:         triggerEndDate,
		Models:          models,
		ReplaceExisting: triggerReplace,
	}
	if triggerStartDate != "" {
		req.StartDate = &triggerStartDate
	}

	var resp dto.TriggerResponse
	if err := client().Request("POST", "/simulate/trigger", req, &resp); err != nil {
		return fmt.Errorf("trigger failed: %w", err)
	}

	cli.PrintSuccess(fmt.Sprintf("job %s submitted (%d model-days)", resp.JobID, resp.TotalModelDays))
	fmt.Println(cli.RenderKeyValue("Status", resp.Status))
	if resp.Message != "" {
		fmt.Println(cli.RenderKeyValue("Message", resp.Message))
	}
	for _, w := range resp.Warnings {
		cli.PrintWarning(w)
	}

	return nil
}
