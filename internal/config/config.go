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
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Auth    AuthConfig
	Scraper ScraperConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds local data storage configuration.
type DataConfig struct {
	// BasePath is the root directory for the database, search index, and caches.
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes)
	AccessTokenKey []byte
	// Session durations
	AccessTokenDuration  time.Duration // e.g., 15m
	RefreshTokenDuration time.Duration // e.g., 720h (30 days)

	// OAuth provider settings. Local username/password login works
	// without them; the /auth redirect flow requires all four.
	ProviderDomain       string
	ProviderClientID     string
	ProviderClientSecret string
	ProviderCallbackURL  string

	// Browser redirect targets for the OAuth callback and logout.
	LoginSuccessRedirect string
	LoginFailureRedirect string
	LogoutRedirect       string
}

// ScraperConfig holds upstream tab source configuration.
type ScraperConfig struct {
	// BaseURL is the upstream site root (default: https://tabs.ultimate-guitar.com)
	BaseURL string
	// SearchURL is the upstream search endpoint root (default: https://www.ultimate-guitar.com)
	SearchURL string
	// RequestsPerSecond caps outbound request rate (default: 2)
	RequestsPerSecond float64
	// Burst is the rate limiter burst size (default: 4)
	Burst int
	// Timeout bounds a single upstream request (default: 10s)
	Timeout time.Duration
	// SearchCacheTTL controls how long upstream search results are cached (default: 1h)
	SearchCacheTTL time.Duration
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
	dataPath := flag.String("data-path", "", "Base path for local data storage")
	serverName := flag.String("server-name", "", "Name for the server")

	// Auth flags
	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := flag.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")
	providerDomain := flag.String("provider-domain", "", "OAuth provider domain")
	providerCallbackURL := flag.String("provider-callback-url", "", "OAuth callback URL")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Scraper flags
	scraperBaseURL := flag.String("scraper-base-url", "", "Upstream tab site root URL")
	scraperRPS := flag.String("scraper-rps", "", "Upstream requests per second (default: 2)")
	scraperTimeout := flag.String("scraper-timeout", "", "Upstream request timeout (default: 10s)")

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
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},

		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "TabStash Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},

		Auth: AuthConfig{
			AccessTokenKey:       nil, // Will be set by auth.LoadOrGenerateKey in main
			ProviderDomain:       getConfigValue(*providerDomain, "AUTH_PROVIDER_DOMAIN", ""),
			ProviderClientID:     getConfigValue("", "AUTH_PROVIDER_CLIENT_ID", ""),
			ProviderClientSecret: getConfigValue("", "AUTH_PROVIDER_CLIENT_SECRET", ""),
			ProviderCallbackURL:  getConfigValue(*providerCallbackURL, "AUTH_PROVIDER_CALLBACK_URL", ""),
			LoginSuccessRedirect: getConfigValue("", "LOGIN_SUCCESS_REDIRECT", "/"),
			LoginFailureRedirect: getConfigValue("", "LOGIN_FAILURE_REDIRECT", "/login?error=auth_failed"),
			LogoutRedirect:       getConfigValue("", "LOGOUT_REDIRECT", "/"),
		},

		Scraper: ScraperConfig{
			BaseURL:           getConfigValue(*scraperBaseURL, "SCRAPER_BASE_URL", "https://tabs.ultimate-guitar.com"),
			SearchURL:         getConfigValue("", "SCRAPER_SEARCH_URL", "https://www.ultimate-guitar.com"),
			RequestsPerSecond: getFloatConfigValue(*scraperRPS, "SCRAPER_RPS", 2),
			Burst:             getIntConfigValue("", "SCRAPER_BURST", 4),
		},
	}

	// Parse auth durations.
	accessDurationStr := getConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m")
	accessDuration, err := time.ParseDuration(accessDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration %q: %w", accessDurationStr, err)
	}
	cfg.Auth.AccessTokenDuration = accessDuration

	refreshDurationStr := getConfigValue(*refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h")
	refreshDuration, err := time.ParseDuration(refreshDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token duration %q: %w", refreshDurationStr, err)
	}
	cfg.Auth.RefreshTokenDuration = refreshDuration

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Parse scraper timeout and cache TTL.
	scraperTimeoutStr := getConfigValue(*scraperTimeout, "SCRAPER_TIMEOUT", "10s")
	scraperTimeoutDuration, err := time.ParseDuration(scraperTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid scraper timeout %q: %w", scraperTimeoutStr, err)
	}
	cfg.Scraper.Timeout = scraperTimeoutDuration

	searchCacheTTLStr := getConfigValue("", "SCRAPER_SEARCH_CACHE_TTL", "1h")
	searchCacheTTL, err := time.ParseDuration(searchCacheTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid search cache TTL %q: %w", searchCacheTTLStr, err)
	}
	cfg.Scraper.SearchCacheTTL = searchCacheTTL

	// Expand and validate data path.
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

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Scraper.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid scraper rate: %v (must be positive)", c.Scraper.RequestsPerSecond)
	}

	// Provider settings are all-or-nothing: a partial set is a misconfiguration,
	// a fully empty set disables the redirect flow.
	if err := c.validateProvider(); err != nil {
		return err
	}

	// Auth durations are validated during LoadConfig parsing.
	// Auth key is set by auth.LoadOrGenerateKey in main.

	return nil
}

// ProviderEnabled reports whether the OAuth redirect flow is configured.
func (c *Config) ProviderEnabled() bool {
	return c.Auth.ProviderDomain != "" &&
		c.Auth.ProviderClientID != "" &&
		c.Auth.ProviderClientSecret != "" &&
		c.Auth.ProviderCallbackURL != ""
}

func (c *Config) validateProvider() error {
	set := 0
	for _, v := range []string{
		c.Auth.ProviderDomain,
		c.Auth.ProviderClientID,
		c.Auth.ProviderClientSecret,
		c.Auth.ProviderCallbackURL,
	} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 4 {
		return errors.New("OAuth provider config is incomplete: set all of AUTH_PROVIDER_DOMAIN, AUTH_PROVIDER_CLIENT_ID, AUTH_PROVIDER_CLIENT_SECRET, AUTH_PROVIDER_CALLBACK_URL or none")
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

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "TabStash", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
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

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
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
