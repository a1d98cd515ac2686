package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.nasa.gov", cfg.BaseURL)
	assert.Equal(t, "/DONKI/CME", cfg.CMEEndpoint)
	assert.Equal(t, "/DONKI/GST", cfg.GSTEndpoint)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 365, cfg.MaxRangeDays)
	assert.Equal(t, 72*time.Hour, cfg.MergeWindow)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, []string{"csv", "json", "excel"}, cfg.Formats)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.False(t, cfg.KafkaEnabled)

	// Default range is the last 30 days.
	assert.Equal(t, 30, cfg.RangeDays())
	assert.True(t, cfg.EndDate.After(cfg.StartDate))
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("NASA_API_KEY", "secret-key")
	t.Setenv("DONKI_BASE_URL", "http://localhost:9999")
	t.Setenv("START_DATE", "2024-05-01")
	t.Setenv("END_DATE", "2024-05-30")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("BASE_DELAY", "500ms")
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("MAX_RANGE_DAYS", "90")
	t.Setenv("MERGE_WINDOW", "96h")
	t.Setenv("OUTPUT_DIR", "/tmp/space")
	t.Setenv("OUTPUT_FORMATS", "csv, parquet")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_ADDR", ":9090")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.APIKey)
	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Equal(t, time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC), cfg.EndDate)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 90, cfg.MaxRangeDays)
	assert.Equal(t, 96*time.Hour, cfg.MergeWindow)
	assert.Equal(t, "/tmp/space", cfg.OutputDir)
	assert.Equal(t, []string{"csv", "parquet"}, cfg.Formats)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: http://file.example
max_retries: 7
merge_window: 120h
start_date: "2024-03-01"
end_date: "2024-03-10"
formats: [json]
output_dir: file-output
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://file.example", cfg.BaseURL)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, 120*time.Hour, cfg.MergeWindow)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Equal(t, []string{"json"}, cfg.Formats)
	assert.Equal(t, "file-output", cfg.OutputDir)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("max_retries: 7\n"), 0o644))
	t.Setenv("MAX_RETRIES", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestLoad_ConfigFileEnvVar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: via-env\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "via-env", cfg.OutputDir)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"start after end", "START_DATE", "2024-06-01", "after END_DATE"},
		{"before donki coverage", "START_DATE", "2005-01-01", "precedes DONKI coverage"},
		{"negative retries", "MAX_RETRIES", "-1", "MAX_RETRIES"},
		{"retries not a number", "MAX_RETRIES", "lots", "MAX_RETRIES"},
		{"zero base delay", "BASE_DELAY", "0s", "BASE_DELAY"},
		{"bad duration", "REQUEST_TIMEOUT", "soon", "REQUEST_TIMEOUT"},
		{"range days too large", "MAX_RANGE_DAYS", "1000", "MAX_RANGE_DAYS"},
		{"negative window", "MERGE_WINDOW", "-24h", "MERGE_WINDOW"},
		{"unknown format", "OUTPUT_FORMATS", "csv,xml", `unsupported output format "xml"`},
		{"bad date", "END_DATE", "05/30/2024", "END_DATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == "START_DATE" && tt.name == "start after end" {
				t.Setenv("END_DATE", "2024-05-01")
			}
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_APIKeyNotInYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: should-be-ignored\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey, "the API key only comes from the environment")
}
