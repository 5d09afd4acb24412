package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment: "development",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Data: DataConfig{
			BasePath: "/some/path",
		},
		Scraper: ScraperConfig{
			RequestsPerSecond: 2,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validTestConfig()

	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validTestConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_LogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"WARN", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validTestConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validTestConfig()
	cfg.Data.BasePath = ""

	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidate_ScraperRate(t *testing.T) {
	cfg := validTestConfig()
	cfg.Scraper.RequestsPerSecond = 0

	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidate_PartialProviderConfig(t *testing.T) {
	cfg := validTestConfig()
	cfg.Auth.ProviderDomain = "example.auth0.com"
	cfg.Auth.ProviderClientID = "client-id"

	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidate_FullProviderConfig(t *testing.T) {
	cfg := validTestConfig()
	cfg.Auth.ProviderDomain = "example.auth0.com"
	cfg.Auth.ProviderClientID = "client-id"
	cfg.Auth.ProviderClientSecret = "client-secret"
	cfg.Auth.ProviderCallbackURL = "http://localhost:8080/auth/callback"

	err := cfg.Validate()
	assert.NoError(t, err)
	assert.True(t, cfg.ProviderEnabled())
}

func TestProviderEnabled_Disabled(t *testing.T) {
	cfg := validTestConfig()
	assert.False(t, cfg.ProviderEnabled())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		fallback string
		want     string
	}{
		{"empty uses default", "", "/default", "/default"},
		{"absolute unchanged", "/var/data", "", "/var/data"},
		{"tilde expanded", "~/tabs", "", filepath.Join(home, "tabs")},
		{"cleans trailing slash", "/var/data/", "", "/var/data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.path, tt.fallback)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TABSTASH_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "TABSTASH_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "TABSTASH_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "TABSTASH_TEST_UNSET", "default"))
}

func TestGetFloatConfigValue(t *testing.T) {
	t.Setenv("TABSTASH_TEST_RPS", "0.5")

	assert.Equal(t, 0.5, getFloatConfigValue("", "TABSTASH_TEST_RPS", 2))
	assert.Equal(t, 2.0, getFloatConfigValue("", "TABSTASH_TEST_RPS_UNSET", 2))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nTABSTASH_ENVFILE_A=hello\nTABSTASH_ENVFILE_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("TABSTASH_ENVFILE_A")
		os.Unsetenv("TABSTASH_ENVFILE_B")
	})

	err := loadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", os.Getenv("TABSTASH_ENVFILE_A"))
	assert.Equal(t, "quoted", os.Getenv("TABSTASH_ENVFILE_B"))
}

func TestLoadEnvFile_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TABSTASH_ENVFILE_C=file\n"), 0o600))

	t.Setenv("TABSTASH_ENVFILE_C", "env")

	err := loadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "env", os.Getenv("TABSTASH_ENVFILE_C"))
}
