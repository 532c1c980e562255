package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Security   SecurityConfig   `yaml:"security"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Simulation SimulationConfig `yaml:"simulation"`
	Deployment DeploymentConfig `yaml:"deployment"`
	Runtime    RuntimeConfig    `yaml:"runtime"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string   `yaml:"port"`
	Environment string   `yaml:"environment"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitDuration time.Duration `yaml:"rate_limit_duration"`
}

// MarketDataConfig holds price-history provider configuration
type MarketDataConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
}

// SimulationConfig holds the orchestrator's domain tunables: the bounds a
// backtest job runs within.
type SimulationConfig struct {
	MaxSimulationDays   int             `yaml:"max_simulation_days"`
	MaxConcurrentModels int             `yaml:"max_concurrent_models"`
	AgentMaxSteps       int             `yaml:"agent_max_steps"`
	AgentMaxRetries     int             `yaml:"agent_max_retries"`
	InitialCashStr      string          `yaml:"initial_cash"`
	InitialCash         decimal.Decimal `yaml:"-"`
	TrackedSymbolsPath  string          `yaml:"tracked_symbols_path"`
	JobStaleAfter       time.Duration   `yaml:"job_stale_after"`
}

// DeploymentConfig controls dev-vs-prod database and data-retention behavior.
type DeploymentConfig struct {
	Mode            string `yaml:"mode"` // PROD or DEV
	PreserveDevData bool   `yaml:"preserve_dev_data"`
}

// RuntimeConfig holds agent runtime scratch directory configuration
type RuntimeConfig struct {
	HomeDir string `yaml:"home_dir"` // Path to runtime scratch directory
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level          string `yaml:"level"`          // debug, info, warn, error
	Format         string `yaml:"format"`         // json, console
	ServerLogPath  string `yaml:"server_log"`     // Path to server log file
	RequestLogPath string `yaml:"request_log"`    // Path to request log file
	EnableConsole  bool   `yaml:"enable_console"` // Enable console output
	EnableFile     bool   `yaml:"enable_file"`    // Enable file output
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return LoadWithYAML("")
}

// LoadWithYAML reads configuration from a YAML file and environment variables
// Environment variables take precedence over YAML file values
func LoadWithYAML(yamlPath string) (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	// Initialize with defaults
	config := &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Security: SecurityConfig{
			RateLimitRequests: 5,
			RateLimitDuration: 1 * time.Minute,
		},
		MarketData: MarketDataConfig{
			Provider: "alphavantage",
		},
		Simulation: SimulationConfig{
			MaxSimulationDays:   30,
			MaxConcurrentModels: 4,
			AgentMaxSteps:       10,
			AgentMaxRetries:     3,
			InitialCashStr:      "10000",
			JobStaleAfter:       time.Hour,
		},
		Deployment: DeploymentConfig{
			Mode:            "DEV",
			PreserveDevData: true,
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "json",
			EnableConsole: true,
			EnableFile:    false,
		},
	}

	// Load from YAML file if provided
	if yamlPath != "" {
		if err := loadFromYAML(yamlPath, config); err != nil {
			return nil, fmt.Errorf("failed to load YAML config: %w", err)
		}
	}

	// Override with environment variables (env vars take precedence)
	applyEnvironmentOverrides(config)

	initialCash, err := decimal.NewFromString(config.Simulation.InitialCashStr)
	if err != nil {
		return nil, fmt.Errorf("invalid initial_cash %q: %w", config.Simulation.InitialCashStr, err)
	}
	config.Simulation.InitialCash = initialCash

	// Validate required fields
	if config.Database.URL == "" && config.Deployment.Mode != "DEV" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return config, nil
}

// loadFromYAML loads configuration from a YAML file
func loadFromYAML(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, skip loading
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config
func applyEnvironmentOverrides(config *Config) {
	// Server config
	if val := getEnv("SERVER_PORT", ""); val != "" {
		config.Server.Port = val
	}
	if val := getEnv("ENVIRONMENT", ""); val != "" {
		config.Server.Environment = val
	}
	if val := getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil); val != nil {
		config.Server.CORSOrigins = val
	}

	// Database config
	if val := getEnv("DATABASE_URL", ""); val != "" {
		config.Database.URL = val
	}

	// Security config
	if val := getEnvAsInt("RATE_LIMIT_REQUESTS", 0); val != 0 {
		config.Security.RateLimitRequests = val
	}
	if val := getEnvAsDuration("RATE_LIMIT_DURATION", 0); val != 0 {
		config.Security.RateLimitDuration = val
	}

	// Market data config
	if val := getEnv("MARKET_DATA_PROVIDER", ""); val != "" {
		config.MarketData.Provider = val
	}
	if val := getEnv("MARKET_DATA_API_KEY", ""); val != "" {
		config.MarketData.APIKey = val
	}

	// Simulation config
	if val := getEnvAsInt("MAX_SIMULATION_DAYS", 0); val != 0 {
		config.Simulation.MaxSimulationDays = val
	}
	if val := getEnvAsInt("MAX_CONCURRENT_MODELS", 0); val != 0 {
		config.Simulation.MaxConcurrentModels = val
	}
	if val := getEnvAsInt("AGENT_MAX_STEPS", 0); val != 0 {
		config.Simulation.AgentMaxSteps = val
	}
	if val := getEnvAsInt("AGENT_MAX_RETRIES", 0); val != 0 {
		config.Simulation.AgentMaxRetries = val
	}
	if val := getEnv("INITIAL_CASH", ""); val != "" {
		config.Simulation.InitialCashStr = val
	}
	if val := getEnv("TRACKED_SYMBOLS_PATH", ""); val != "" {
		config.Simulation.TrackedSymbolsPath = val
	}
	if val := getEnvAsDuration("JOB_STALE_AFTER", 0); val != 0 {
		config.Simulation.JobStaleAfter = val
	}

	// Deployment config
	if val := getEnv("DEPLOYMENT_MODE", ""); val != "" {
		config.Deployment.Mode = val
	}
	if val := getEnvAsBool("PRESERVE_DEV_DATA", true); !val {
		config.Deployment.PreserveDevData = val
	}

	// Runtime config
	if val := getEnv("RUNTIME_HOME_DIR", ""); val != "" {
		config.Runtime.HomeDir = val
	}

	// Logging config
	if val := getEnv("LOG_LEVEL", ""); val != "" {
		config.Logging.Level = val
	}
	if val := getEnv("LOG_FORMAT", ""); val != "" {
		config.Logging.Format = val
	}
	if val := getEnv("LOG_SERVER_PATH", ""); val != "" {
		config.Logging.ServerLogPath = val
	}
	if val := getEnv("LOG_REQUEST_PATH", ""); val != "" {
		config.Logging.RequestLogPath = val
	}
	if val := getEnvAsBool("LOG_ENABLE_CONSOLE", false); val {
		config.Logging.EnableConsole = val
	}
	if val := getEnvAsBool("LOG_ENABLE_FILE", false); val {
		config.Logging.EnableFile = val
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice retrieves an environment variable as a slice or returns a default value
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// Simple comma-separated parsing
	var result []string
	current := ""
	for _, char := range valueStr {
		if char == ',' {
			if current != "" {
				result = append(result, current)
				current = ""
			}
		} else {
			current += string(char)
		}
	}
	if current != "" {
		result = append(result, current)
	}
	return result
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// Parse boolean values
	switch valueStr {
	case "true", "True", "TRUE", "1", "yes", "Yes", "YES":
		return true
	case "false", "False", "FALSE", "0", "no", "No", "NO":
		return false
	default:
		return defaultValue
	}
}
