package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Hostel     HostelConfig     `yaml:"hostel"`
	Allocation AllocationConfig `yaml:"allocation"`
	Events     EventsConfig     `yaml:"events"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Recorder   RecorderConfig   `yaml:"recorder"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableConstraints      bool   `yaml:"enable_constraints"`
	LogLevel               string `yaml:"log_level"`
}

// HostelConfig describes the property being managed.
type HostelConfig struct {
	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`
}

// AllocationConfig tunes the booking service.
type AllocationConfig struct {
	// MaxRetries bounds how often a transaction aborted by a concurrent
	// writer is replayed. It defaults to 3 when unset; 0 disables retries.
	MaxRetries *int `yaml:"max_retries"`
}

// EventsConfig configures the RabbitMQ publisher for booking events.
type EventsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// WorkerPoolConfig holds the configuration for the event worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// RecorderConfig controls the periodic occupancy recorder.
type RecorderConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// Load reads the configuration from the given path. Values from a .env file
// and the process environment override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			log.Printf("Warning: ignoring invalid SERVER_PORT %q", v)
		}
	}
}

func applyDefaults(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Hostel.Timezone == "" {
		cfg.Hostel.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(cfg.Hostel.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Hostel.Timezone, err)
	}
	cfg.Hostel.Location = loc

	if cfg.Allocation.MaxRetries == nil {
		retries := 3
		cfg.Allocation.MaxRetries = &retries
	}
	if *cfg.Allocation.MaxRetries < 0 {
		return fmt.Errorf("allocation.max_retries must not be negative, got %d", *cfg.Allocation.MaxRetries)
	}

	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "hostel.bookings"
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Recorder.IntervalSeconds <= 0 {
		cfg.Recorder.IntervalSeconds = 3600
	}
	cfg.Recorder.Interval = time.Duration(cfg.Recorder.IntervalSeconds) * time.Second

	return nil
}
