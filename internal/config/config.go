package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Cache    CacheConfig    `yaml:"cache" envconfig:"CACHE"`
	Quality  QualityConfig  `yaml:"quality" envconfig:"QUALITY"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Retry    RetryConfig    `yaml:"retry" envconfig:"RETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/etl.log"`
}

// CacheConfig contains content cache configuration
type CacheConfig struct {
	Dir      string `yaml:"dir" envconfig:"DIR" default:"cache/transform"`
	TTLHours int    `yaml:"ttl_hours" envconfig:"TTL_HOURS" default:"24" validate:"min=1"`
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED" default:"true"`
}

// TTL returns the cache time-to-live as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// QualityConfig contains quality check thresholds and scoring weights.
// Defaults match the standard check battery; weights must cover exactly
// the five check categories.
type QualityConfig struct {
	CompletenessThreshold float64            `yaml:"completeness_threshold" envconfig:"COMPLETENESS_THRESHOLD" default:"95" validate:"min=0,max=100"`
	AccuracyThreshold     float64            `yaml:"accuracy_threshold" envconfig:"ACCURACY_THRESHOLD" default:"99" validate:"min=0,max=100"`
	ConsistencyTolerance  float64            `yaml:"consistency_tolerance" envconfig:"CONSISTENCY_TOLERANCE" default:"0.01" validate:"min=0"`
	FreshnessWindowDays   int                `yaml:"freshness_window_days" envconfig:"FRESHNESS_WINDOW_DAYS" default:"30" validate:"min=1"`
	MinScore              float64            `yaml:"min_score" envconfig:"MIN_SCORE" default:"80" validate:"min=0,max=100"`
	OverallWeights        map[string]float64 `yaml:"overall_weights" envconfig:"OVERALL_WEIGHTS" default:"completeness:0.25,accuracy:0.25,consistency:0.20,validity:0.20,timeliness:0.10"`
}

// PipelineConfig contains batch pipeline configuration
type PipelineConfig struct {
	Source      string `yaml:"source" envconfig:"SOURCE" default:"csv" validate:"oneof=csv excel api database"`
	SourcePath  string `yaml:"source_path" envconfig:"SOURCE_PATH" default:"data/sales_data.csv"`
	SourceURL   string `yaml:"source_url" envconfig:"SOURCE_URL"`
	SourceQuery string `yaml:"source_query" envconfig:"SOURCE_QUERY"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/processed"`
}

// DatabaseConfig contains load target configuration
type DatabaseConfig struct {
	Driver    string `yaml:"driver" envconfig:"DRIVER" default:"sqlite" validate:"oneof=sqlite postgres"`
	DSN       string `yaml:"dsn" envconfig:"DSN" default:"data/sales.db"`
	Table     string `yaml:"table" envconfig:"TABLE" default:"sales_records"`
	BatchSize int    `yaml:"batch_size" envconfig:"BATCH_SIZE" default:"500" validate:"min=1"`
}

// RetryConfig contains retry behavior for extraction and loading
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" default:"3" validate:"min=1"`
	InitialDelay  time.Duration `yaml:"initial_delay" envconfig:"INITIAL_DELAY" default:"1s"`
	BackoffFactor float64       `yaml:"backoff_factor" envconfig:"BACKOFF_FACTOR" default:"2" validate:"min=1"`
}

// Load loads configuration from environment variables (with struct-tag
// defaults), then overlays an optional YAML file when ETL_CONFIG_FILE
// points at one. File values win over environment values.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ETL", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path := os.Getenv("ETL_CONFIG_FILE"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with all defaults applied and no
// environment or file input. Useful for tests and embedded use.
func Default() *Config {
	var cfg Config
	// envconfig applies struct-tag defaults even with no variables set;
	// an error here means a broken tag, which is a programming error.
	if err := envconfig.Process("ETL_DEFAULT_UNSET", &cfg); err != nil {
		panic(fmt.Sprintf("process default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration against its struct tags and the
// cross-field rules that tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	var sum float64
	for _, w := range c.Quality.OverallWeights {
		if w < 0 {
			return fmt.Errorf("validate config: negative quality weight %v", w)
		}
		sum += w
	}
	if len(c.Quality.OverallWeights) > 0 && (sum < 0.999 || sum > 1.001) {
		return fmt.Errorf("validate config: quality weights sum to %.3f, want 1.0", sum)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}
