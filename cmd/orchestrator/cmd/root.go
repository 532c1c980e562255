package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lucasmv/backtestsim/internal/cli"
)

var (
	outputFormat string
	apiBaseURL   string
	cliConfig    *cli.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Backtest orchestrator CLI",
	Long: renderBanner() + `

A command-line client for the LLM trading backtest orchestrator API.

Trigger a backtest run, check its progress, and pull per-day and
per-range results without leaving the terminal.

Get started:
  orchestrator trigger --end-date 2025-01-17 --models gpt-4o,mock`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (table|json|csv)")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "API base URL (default is http://localhost:8080)")

	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and overrides it with any flags provided
func initConfig() {
	config, err := cli.LoadConfig()
	if err != nil {
		cli.PrintError(fmt.Sprintf("failed to load config: %v", err))
		os.Exit(1)
	}

	if apiBaseURL != "" {
		config.APIBaseURL = apiBaseURL
	}
	if outputFormat != "" {
		config.OutputFormat = outputFormat
	}

	cliConfig = config
}

func client() *cli.Client {
	return cli.NewClientFromConfig(cliConfig)
}

func format() cli.OutputFormat {
	return cli.OutputFormat(cliConfig.OutputFormat)
}

func renderBanner() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("13")).
		Bold(true)

	banner := `
 ___             _        _            _
| _ ) __ _  __ _| |_ ___ __| |_ ___ _ _| |__
| _ \/ _` + "`" + ` |/ _` + "`" + ` |  _/ -_|_-<  _/ -_) '_| '_ \
|___/\__,_|\__,_|\__\___/__/\__\___|_| |_.__/`

	return style.Render(banner)
}
