package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"source": "https://example.com/data.json",
		"port": 9090,
		"email": "ada@example.com",
		"fetch_timeout": "5s",
		"verbose": true
	}`

	cfg, err := LoadConfig(writeConfig(t, "config.json", content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://example.com/data.json", cfg.Source)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "ada@example.com", cfg.Email)
	assert.Equal(t, "5s", cfg.FetchTimeout)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	content := `
source: public/data.json
port: 3000
linkedin: https://www.linkedin.com/in/ada/
log_level: debug
refresh_seconds: 5
`

	cfg, err := LoadConfig(writeConfig(t, "config.yaml", content))
	require.NoError(t, err)

	assert.Equal(t, "public/data.json", cfg.Source)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "https://www.linkedin.com/in/ada/", cfg.LinkedIn)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.RefreshSeconds)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "config.json", `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "config.yml", "port: [unterminated"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORTFOLIO_SOURCE", "https://cdn.example.com/data.json")
	t.Setenv("PORTFOLIO_PORT", "7000")
	t.Setenv("PORTFOLIO_GITHUB", "https://github.com/ada")
	t.Setenv("PORTFOLIO_LOG_LEVEL", "warn")

	cfg := Config{Source: "data.json", Port: 8080, Email: "keep@example.com"}
	cfg.ApplyEnv()

	assert.Equal(t, "https://cdn.example.com/data.json", cfg.Source)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "https://github.com/ada", cfg.GitHub)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "keep@example.com", cfg.Email)
}

func TestApplyEnv_IgnoresBadPort(t *testing.T) {
	t.Setenv("PORTFOLIO_PORT", "eighty")

	cfg := Config{Port: 8080}
	cfg.ApplyEnv()
	assert.Equal(t, 8080, cfg.Port)
}

func TestValidate_ValidConfig(t *testing.T) {
	source := writeConfig(t, "data.json", `{}`)
	cfg := Config{Source: source, Port: 8080, FetchTimeout: "10s", LogLevel: "info"}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingSourceFileAllowed(t *testing.T) {
	cfg := Config{Source: filepath.Join(t.TempDir(), "missing.json")}
	assert.NoError(t, cfg.Validate())
}

func TestCheckSource_RemoteNotChecked(t *testing.T) {
	cfg := Config{Source: "https://example.com/data.json"}
	assert.NoError(t, cfg.CheckSource())
}

func TestCheckSource_MissingFile(t *testing.T) {
	cfg := Config{Source: filepath.Join(t.TempDir(), "missing.json")}
	err := cfg.CheckSource()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source file not found")
}

func TestCheckSource_ExistingFile(t *testing.T) {
	cfg := Config{Source: writeConfig(t, "data.json", `{}`)}
	assert.NoError(t, cfg.CheckSource())
}

func TestValidate_MissingTemplate(t *testing.T) {
	cfg := Config{Template: "/nonexistent/page.html.tmpl"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template file not found")
}

func TestValidate_BadValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"negative port", Config{Port: -1}, "'port'"},
		{"port too large", Config{Port: 70000}, "'port'"},
		{"negative refresh", Config{RefreshSeconds: -2}, "'refresh_seconds'"},
		{"unparseable timeout", Config{FetchTimeout: "soon"}, "invalid 'fetch_timeout'"},
		{"zero timeout", Config{FetchTimeout: "0s"}, "must be positive"},
		{"unknown log level", Config{LogLevel: "chatty"}, "unknown 'log_level'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, (&Config{FetchTimeout: "5s"}).Timeout(time.Minute))
	assert.Equal(t, time.Minute, (&Config{}).Timeout(time.Minute))
	assert.Equal(t, time.Minute, (&Config{FetchTimeout: "bad"}).Timeout(time.Minute))
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{
		Source: "custom.json",
		Port:   9000,
	}

	result := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "custom.json", result.Source)
	assert.Equal(t, 9000, result.Port)
	assert.Equal(t, DefaultEmail, result.Email)
	assert.Equal(t, DefaultLinkedIn, result.LinkedIn)
	assert.Equal(t, DefaultGitHub, result.GitHub)
	assert.Equal(t, "30s", result.FetchTimeout)
	assert.Equal(t, "info", result.LogLevel)
	assert.Equal(t, 2, result.RefreshSeconds)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{Source: "custom.json"}

	result := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "custom.json", result.Source)
	assert.Zero(t, result.Port)
	assert.Empty(t, result.Email)
}
