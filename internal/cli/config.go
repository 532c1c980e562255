package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the orchestrator CLI configuration.
type Config struct {
	APIBaseURL   string `mapstructure:"api_base_url"`
	OutputFormat string `mapstructure:"output_format"` // table, json, csv
}

// LoadConfig loads configuration from file, creating it with defaults if
// it doesn't exist yet.
func LoadConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".backtestsim")
	configFile := filepath.Join(configDir, "config.yaml")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.SetDefault("api_base_url", "http://localhost:8080")
	viper.SetDefault("output_format", "table")

	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		if err := viper.SafeWriteConfig(); err != nil {
			if writeErr := viper.WriteConfig(); writeErr != nil {
				return nil, fmt.Errorf("failed to create config file: %w", writeErr)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to file.
func SaveConfig(config *Config) error {
	viper.Set("api_base_url", config.APIBaseURL)
	viper.Set("output_format", config.OutputFormat)

	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".backtestsim", "config.yaml"), nil
}
