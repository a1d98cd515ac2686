package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// dateLayout is the wire format DONKI expects for startDate/endDate.
const dateLayout = "2006-01-02"

// donkiDataFloor is the first year DONKI has data for.
const donkiDataFloor = 2010

// Config holds all pipeline settings. Populated once by Load (defaults,
// then optional YAML file, then environment variables) and treated as
// immutable afterwards.
type Config struct {
	// Upstream API.
	BaseURL     string `yaml:"base_url"`
	CMEEndpoint string `yaml:"cme_endpoint"`
	GSTEndpoint string `yaml:"gst_endpoint"`
	// APIKey comes from the NASA_API_KEY environment variable only. It is
	// deliberately excluded from the YAML file and never logged.
	APIKey string `yaml:"-"`

	// Query range. Zero values mean "last 30 days", resolved at Load time.
	StartDate time.Time `yaml:"-"`
	EndDate   time.Time `yaml:"-"`

	// Retry and request limits. Durations are strings in the YAML file
	// ("500ms", "30s") and parsed by applyFile.
	MaxRetries     int           `yaml:"max_retries"`
	BaseDelay      time.Duration `yaml:"-"`
	RequestTimeout time.Duration `yaml:"-"`
	MaxRangeDays   int           `yaml:"max_range_days"`
	CacheSize      int           `yaml:"cache_size"`

	// Correlation.
	MergeWindow time.Duration `yaml:"-"`

	// Export.
	OutputDir string   `yaml:"output_dir"`
	Formats   []string `yaml:"formats"`

	// Observability.
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr"`

	// Optional Kafka sink for merged records.
	KafkaEnabled bool     `yaml:"kafka_enabled"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

// yamlConfig mirrors Config for file decoding, with string forms for the
// fields YAML cannot express directly.
type yamlConfig struct {
	Config         `yaml:",inline"`
	StartDate      string `yaml:"start_date"`
	EndDate        string `yaml:"end_date"`
	BaseDelay      string `yaml:"base_delay"`
	RequestTimeout string `yaml:"request_timeout"`
	MergeWindow    string `yaml:"merge_window"`
}

// Load builds the run configuration. Precedence, lowest to highest:
// built-in defaults, the YAML file at configPath (or $CONFIG_FILE when
// configPath is empty), then environment variables. A .env file in the
// working directory is loaded first so NASA_API_KEY can live there.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	cfg := defaults()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_FILE")
	}
	if configPath != "" {
		if err := applyFile(cfg, configPath); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	return &Config{
		BaseURL:        "https://api.nasa.gov",
		CMEEndpoint:    "/DONKI/CME",
		GSTEndpoint:    "/DONKI/GST",
		StartDate:      now.AddDate(0, 0, -30),
		EndDate:        now,
		MaxRetries:     3,
		BaseDelay:      time.Second,
		RequestTimeout: 30 * time.Second,
		MaxRangeDays:   365,
		CacheSize:      64,
		MergeWindow:    72 * time.Hour,
		OutputDir:      "output",
		Formats:        []string{"csv", "json", "excel"},
		LogLevel:       "info",
		LogFormat:      "json",
		KafkaTopic:     "merged-space-weather",
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	fileCfg := yamlConfig{Config: *cfg}
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	*cfg = fileCfg.Config
	if fileCfg.StartDate != "" {
		if cfg.StartDate, err = parseDate(fileCfg.StartDate); err != nil {
			return fmt.Errorf("config file start_date: %w", err)
		}
	}
	if fileCfg.EndDate != "" {
		if cfg.EndDate, err = parseDate(fileCfg.EndDate); err != nil {
			return fmt.Errorf("config file end_date: %w", err)
		}
	}
	if fileCfg.BaseDelay != "" {
		if cfg.BaseDelay, err = time.ParseDuration(fileCfg.BaseDelay); err != nil {
			return fmt.Errorf("config file base_delay: %w", err)
		}
	}
	if fileCfg.RequestTimeout != "" {
		if cfg.RequestTimeout, err = time.ParseDuration(fileCfg.RequestTimeout); err != nil {
			return fmt.Errorf("config file request_timeout: %w", err)
		}
	}
	if fileCfg.MergeWindow != "" {
		if cfg.MergeWindow, err = time.ParseDuration(fileCfg.MergeWindow); err != nil {
			return fmt.Errorf("config file merge_window: %w", err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.APIKey = os.Getenv("NASA_API_KEY")

	cfg.BaseURL = envOrDefault("DONKI_BASE_URL", cfg.BaseURL)
	cfg.CMEEndpoint = envOrDefault("DONKI_CME_ENDPOINT", cfg.CMEEndpoint)
	cfg.GSTEndpoint = envOrDefault("DONKI_GST_ENDPOINT", cfg.GSTEndpoint)
	cfg.OutputDir = envOrDefault("OUTPUT_DIR", cfg.OutputDir)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsAddr = envOrDefault("METRICS_ADDR", cfg.MetricsAddr)
	cfg.KafkaTopic = envOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)

	if v := os.Getenv("OUTPUT_FORMATS"); v != "" {
		cfg.Formats = splitList(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	var err error
	if cfg.StartDate, err = envDate("START_DATE", cfg.StartDate); err != nil {
		return err
	}
	if cfg.EndDate, err = envDate("END_DATE", cfg.EndDate); err != nil {
		return err
	}
	if cfg.MaxRetries, err = envInt("MAX_RETRIES", cfg.MaxRetries); err != nil {
		return err
	}
	if cfg.MaxRangeDays, err = envInt("MAX_RANGE_DAYS", cfg.MaxRangeDays); err != nil {
		return err
	}
	if cfg.CacheSize, err = envInt("CACHE_SIZE", cfg.CacheSize); err != nil {
		return err
	}
	if cfg.BaseDelay, err = envDuration("BASE_DELAY", cfg.BaseDelay); err != nil {
		return err
	}
	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return err
	}
	if cfg.MergeWindow, err = envDuration("MERGE_WINDOW", cfg.MergeWindow); err != nil {
		return err
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("DONKI_BASE_URL must not be empty")
	}
	if cfg.StartDate.After(cfg.EndDate) {
		return fmt.Errorf("START_DATE %s is after END_DATE %s",
			cfg.StartDate.Format(dateLayout), cfg.EndDate.Format(dateLayout))
	}
	if cfg.StartDate.Year() < donkiDataFloor {
		return fmt.Errorf("START_DATE %s precedes DONKI coverage (%d onwards)",
			cfg.StartDate.Format(dateLayout), donkiDataFloor)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	if cfg.BaseDelay <= 0 {
		return fmt.Errorf("BASE_DELAY must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if cfg.MaxRangeDays < 1 || cfg.MaxRangeDays > 366 {
		return fmt.Errorf("MAX_RANGE_DAYS must be between 1 and 366")
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("CACHE_SIZE must not be negative")
	}
	if cfg.MergeWindow <= 0 {
		return fmt.Errorf("MERGE_WINDOW must be positive")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	if len(cfg.Formats) == 0 {
		return fmt.Errorf("OUTPUT_FORMATS must name at least one format")
	}
	for _, f := range cfg.Formats {
		switch f {
		case "csv", "json", "excel", "parquet":
		default:
			return fmt.Errorf("unsupported output format %q", f)
		}
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	return nil
}

// RangeDays returns the configured span in whole days, end inclusive of its
// date boundary.
func (c *Config) RangeDays() int {
	return int(c.EndDate.Sub(c.StartDate).Hours() / 24)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envDate(key string, fallback time.Time) (time.Time, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	t, err := parseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(value))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
