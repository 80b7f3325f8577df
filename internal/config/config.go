package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultOutputFormat = "text"
	defaultLogLevel     = "info"
	defaultLogEncoding  = "console"
)

// OutputFormats lists the supported renderings of resolved values.
var OutputFormats = []string{"text", "json", "yaml"}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Workflow     Workflow
	OutputFormat string
	LogLevel     string
	LogEncoding  string
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile         string
	OutputFormat       *string
	LogLevel           *string
	LogEncoding        *string
	S3DstOriginsStr    *string
	RecentDaysToCensor *int
	MaxDate            *float64
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load the workflow configuration if specified
	if overrides != nil && overrides.ConfigFile != "" {
		wf, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		cfg.Workflow = wf
	}

	// Apply environment variables (override YAML)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Workflow: Workflow{
			Filter: Filter{
				Defaults: map[string]string{},
				Origins:  map[string]map[string]string{},
			},
			Exposure: Section[Exposure]{Builds: map[string]Exposure{}},
			Traits:   Section[Traits]{Builds: map[string]Traits{}},
		},
		OutputFormat: defaultOutputFormat,
		LogLevel:     defaultLogLevel,
		LogEncoding:  defaultLogEncoding,
	}
}

// loadFromFile loads the workflow configuration from a YAML file.
func loadFromFile(path string) (Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Workflow{}, fmt.Errorf("read file: %w", err)
	}
	return ParseWorkflow(data)
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if format := strings.TrimSpace(os.Getenv("NCOV_OUTPUT_FORMAT")); format != "" {
		cfg.OutputFormat = format
	}

	if level := strings.TrimSpace(os.Getenv("NCOV_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if encoding := strings.TrimSpace(os.Getenv("NCOV_LOG_ENCODING")); encoding != "" {
		cfg.LogEncoding = encoding
	}

	if raw := strings.TrimSpace(os.Getenv("NCOV_S3_DST_ORIGINS")); raw != "" {
		cfg.Workflow.S3DstOrigins = parseOrigins(raw)
	}

	if days := strings.TrimSpace(os.Getenv("NCOV_RECENT_DAYS_TO_CENSOR")); days != "" {
		value, err := strconv.Atoi(days)
		if err != nil {
			return fmt.Errorf("parse NCOV_RECENT_DAYS_TO_CENSOR: %w", err)
		}
		cfg.Workflow.Frequencies.RecentDaysToCensor = value
	}

	if maxDate := strings.TrimSpace(os.Getenv("NCOV_MAX_DATE")); maxDate != "" {
		value, err := strconv.ParseFloat(maxDate, 64)
		if err != nil {
			return fmt.Errorf("parse NCOV_MAX_DATE: %w", err)
		}
		cfg.Workflow.Frequencies.MaxDate = &value
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.OutputFormat != nil && *overrides.OutputFormat != "" {
		cfg.OutputFormat = *overrides.OutputFormat
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.LogEncoding != nil && *overrides.LogEncoding != "" {
		cfg.LogEncoding = *overrides.LogEncoding
	}

	if overrides.S3DstOriginsStr != nil {
		cfg.Workflow.S3DstOrigins = parseOrigins(*overrides.S3DstOriginsStr)
	}

	if overrides.RecentDaysToCensor != nil && *overrides.RecentDaysToCensor >= 0 {
		cfg.Workflow.Frequencies.RecentDaysToCensor = *overrides.RecentDaysToCensor
	}

	if overrides.MaxDate != nil {
		value := *overrides.MaxDate
		cfg.Workflow.Frequencies.MaxDate = &value
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if !isOutputFormat(cfg.OutputFormat) {
		return fmt.Errorf("output format must be one of %s, got %q", strings.Join(OutputFormats, ", "), cfg.OutputFormat)
	}
	if cfg.Workflow.Frequencies.RecentDaysToCensor < 0 {
		return fmt.Errorf("recent_days_to_censor must be >= 0")
	}

	seen := make(map[string]struct{}, len(cfg.Workflow.Inputs))
	for _, in := range cfg.Workflow.Inputs {
		if in.Name == "" {
			return fmt.Errorf("input names cannot be empty")
		}
		if _, dup := seen[in.Name]; dup {
			return fmt.Errorf("input %q is defined more than once", in.Name)
		}
		seen[in.Name] = struct{}{}
	}
	return nil
}

// parseOrigins parses a comma-separated list of origin names.
func parseOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		origins = append(origins, part)
	}
	return origins
}

func isOutputFormat(format string) bool {
	for _, f := range OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}
