package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the service settings read from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// DBDriver selects the storage backend: "sqlite" or "postgres".
	DBDriver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"attendance.db"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"attendance"`
	SeedDemo   bool   `env:"SEED_DEMO" envDefault:"false"`

	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	ToleranceMeters float64       `env:"TOLERANCE_METERS" envDefault:"500"`
	Timezone        string        `env:"ATTENDANCE_TZ" envDefault:"Local"`
	SweepSchedule   string        `env:"SWEEP_SCHEDULE" envDefault:"@every 1m"`

	MasterAPIKey string `env:"MASTER_API_KEY"`
	RateLimit    int    `env:"RATE_LIMIT" envDefault:"100"`

	CaptureDir     string  `env:"CAPTURE_DIR" envDefault:"captures"`
	CaptureQuality float32 `env:"CAPTURE_WEBP_QUALITY" envDefault:"80"`
	OSSEndpoint    string  `env:"ALI_OSS_ENDPOINT"`
	OSSAccessKey   string  `env:"ALI_OSS_ACCESS_KEY"`
	OSSSecretKey   string  `env:"ALI_OSS_SECRET_KEY"`
	OSSBucket      string  `env:"ALI_OSS_BUCKET"`
	OSSPrefix      string  `env:"ALI_OSS_PREFIX" envDefault:"attendance_captures/"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks settings that env parsing cannot.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.ToleranceMeters <= 0 {
		return fmt.Errorf("TOLERANCE_METERS must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("ATTENDANCE_TZ: %w", err)
	}
	return nil
}

// Location returns the timezone used to key attendance records by day.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// PostgresDSN builds the lib/pq connection string.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// OSSEnabled reports whether every OSS setting is present.
func (c Config) OSSEnabled() bool {
	return c.OSSEndpoint != "" && c.OSSAccessKey != "" && c.OSSSecretKey != "" && c.OSSBucket != ""
}

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.PostgresDSN()
	}
	return c.SQLitePath
}
