package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Score feed API
	ScoreFeedAPIKey  string        `envconfig:"SCOREFEED_API_KEY" required:"true"`
	ScoreFeedBaseURL string        `envconfig:"SCOREFEED_BASE_URL" default:"https://api.sportsdata.io/v3/nhl"`
	ScoreFeedTimeout time.Duration `envconfig:"SCOREFEED_TIMEOUT" default:"30s"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"scorebook"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"scorebook_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	CacheEnabled  bool   `envconfig:"CACHE_ENABLED" default:"true"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Reference timezone for civil game dates
	Timezone string `envconfig:"TIMEZONE" default:"America/New_York"`

	// Ingestion sources
	FirstSeason   int    `envconfig:"FIRST_SEASON" default:"2015"`
	ArchiveDir    string `envconfig:"ARCHIVE_DIR" default:"data/archives"`
	AliasSeedFile string `envconfig:"ALIAS_SEED_FILE" default:"data/aliases.csv"`

	// Pipeline tuning
	FeatureWindows   []int   `envconfig:"FEATURE_WINDOWS" default:"5,10"`
	EloK             float64 `envconfig:"ELO_K" default:"20"`
	EloBaseline      float64 `envconfig:"ELO_BASELINE" default:"1500"`
	MinRowRatio      float64 `envconfig:"MIN_ROW_RATIO" default:"0.95"`
	NormalizeWorkers int     `envconfig:"NORMALIZE_WORKERS" default:"8"`
	RejectSampleSize int     `envconfig:"REJECT_SAMPLE_SIZE" default:"25"`

	// Artifacts
	ExportEnabled bool   `envconfig:"EXPORT_ENABLED" default:"true"`
	ArtifactDir   string `envconfig:"ARTIFACT_DIR" default:"artifacts"`

	// Scheduler
	EnableScheduler    bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialRunEnabled  bool          `envconfig:"INITIAL_RUN_ENABLED" default:"true"`
	NightlyRebuildCron string        `envconfig:"NIGHTLY_REBUILD_CRON" default:"0 2 * * *"`
	RefreshInterval    time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ScoreFeedAPIKey == "" {
		return fmt.Errorf("SCOREFEED_API_KEY is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.MinRowRatio <= 0 || c.MinRowRatio > 1 {
		return fmt.Errorf("MIN_ROW_RATIO must be in (0, 1], got %v", c.MinRowRatio)
	}

	if c.EloK <= 0 {
		return fmt.Errorf("ELO_K must be positive, got %v", c.EloK)
	}

	for _, w := range c.FeatureWindows {
		if w <= 0 {
			return fmt.Errorf("FEATURE_WINDOWS must be positive, got %d", w)
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is not a valid location: %w", err)
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Location returns the reference timezone. Validate has already checked
// that the name parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
