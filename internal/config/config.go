// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pascomapp/tally-sync/internal/tabulate"
)

// DefaultSheetID is the deployment's standard signup sheet. Override it
// with SHEET_ID when syncing a different form.
const DefaultSheetID = "1xK9mP3vTn5RdW8yBqLcZe2FhJ4gU6sA7oD0iN1rM5kQ"

// DefaultDataPath is the published tally artifact consumed by the
// signup display.
const DefaultDataPath = "dados.json"

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Sheet  SheetConfig
	Tally  TallyConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// Interval between sync runs. Zero means run once and exit.
	Interval time.Duration
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// SheetConfig holds the signup sheet source configuration.
type SheetConfig struct {
	// ID is the spreadsheet identifier in the sheet's URL.
	ID string
	// GID selects the tab inside the spreadsheet (default: first tab).
	GID string
	// FetchTimeout bounds one CSV export request (default: 30s).
	FetchTimeout time.Duration
}

// TallyConfig holds tally artifact configuration.
type TallyConfig struct {
	// DataPath is where the tally JSON is read from and published to.
	DataPath string
	// CategoryKeywords locate the category column by header text.
	CategoryKeywords []string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	sheetID := flag.String("sheet-id", "", "Signup spreadsheet identifier")
	sheetGID := flag.String("sheet-gid", "", "Spreadsheet tab id (default: 0)")
	fetchTimeout := flag.String("fetch-timeout", "", "CSV export request timeout (default: 30s)")
	dataPath := flag.String("data-path", "", "Path of the published tally JSON (default: dados.json)")
	keywords := flag.String("category-keywords", "", "Comma-separated header keywords for the category column")
	interval := flag.String("interval", "", "Interval between sync runs, 0 runs once (default: 0)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Sheet: SheetConfig{
			ID:  getConfigValue(*sheetID, "SHEET_ID", DefaultSheetID),
			GID: getConfigValue(*sheetGID, "SHEET_GID", "0"),
		},
		Tally: TallyConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", DefaultDataPath),
			CategoryKeywords: splitKeywords(getConfigValue(
				*keywords, "CATEGORY_KEYWORDS", strings.Join(tabulate.DefaultKeywords, ","))),
		},
	}

	// Parse durations.
	fetchTimeoutStr := getConfigValue(*fetchTimeout, "FETCH_TIMEOUT", "30s")
	fetchTimeoutDuration, err := time.ParseDuration(fetchTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch timeout %q: %w", fetchTimeoutStr, err)
	}
	cfg.Sheet.FetchTimeout = fetchTimeoutDuration

	intervalStr := getConfigValue(*interval, "SYNC_INTERVAL", "0")
	intervalDuration, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid sync interval %q: %w", intervalStr, err)
	}
	cfg.App.Interval = intervalDuration

	// Expand and validate the data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Sheet.ID == "" {
		return errors.New("SHEET_ID is required")
	}

	if c.Sheet.GID == "" {
		return errors.New("SHEET_GID cannot be empty")
	}

	if c.Sheet.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}

	if c.App.Interval < 0 {
		return errors.New("sync interval cannot be negative")
	}

	if c.Tally.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if len(c.Tally.CategoryKeywords) == 0 {
		return errors.New("at least one category keyword is required")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the tally path absolute.
func (c *Config) expandDataPath() error {
	expanded, err := expandPath(c.Tally.DataPath, "")
	if err != nil {
		return err
	}
	c.Tally.DataPath = expanded
	return nil
}

// splitKeywords parses a comma-separated keyword list, dropping blanks.
func splitKeywords(s string) []string {
	var keywords []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
