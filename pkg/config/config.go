// Package config loads the service configuration. Values come from built-in
// defaults, then an optional YAML file named by LEDGER_CONFIG, then the
// environment. A .env file in the working directory is loaded first when
// present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port                  string        `yaml:"port"`
	StoreDriver           string        `yaml:"store_driver"`
	PostgresURL           string        `yaml:"postgresql_url"`
	MongoURI              string        `yaml:"mongodb_uri"`
	MongoDatabase         string        `yaml:"mongodb_database"`
	JWTSecret             string        `yaml:"jwt_secret"`
	CORSAllowedOrigins    []string      `yaml:"cors_allowed_origins"`
	LogLevel              string        `yaml:"log_level"`
	LogFormat             string        `yaml:"log_format"`
	Timezone              string        `yaml:"timezone"`
	ContestDailySpots     int           `yaml:"contest_daily_spots"`
	ContestWinProbability float64       `yaml:"contest_win_probability"`
	ShutdownTimeout       time.Duration `yaml:"shutdown_timeout"`
}

func Default() *Config {
	return &Config{
		Port:                  "8080",
		StoreDriver:           DriverPostgres,
		CORSAllowedOrigins:    []string{"*"},
		LogLevel:              "info",
		LogFormat:             "text",
		Timezone:              "UTC",
		ContestDailySpots:     100,
		ContestWinProbability: 0.10,
		ShutdownTimeout:       5 * time.Second,
	}
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Config: Failed to read .env file")
	}

	cfg := Default()
	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.StoreDriver, "STORE_DRIVER")
	setString(&c.PostgresURL, "POSTGRESQL_URL")
	setString(&c.MongoURI, "MONGODB_URI")
	setString(&c.MongoDatabase, "MONGODB_DATABASE")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.Timezone, "LEDGER_TIMEZONE")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := make([]string, 0)
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSAllowedOrigins = origins
	}
	if v := os.Getenv("CONTEST_DAILY_SPOTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONTEST_DAILY_SPOTS %q: %w", v, err)
		}
		c.ContestDailySpots = n
	}
	if v := os.Getenv("CONTEST_WIN_PROBABILITY"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CONTEST_WIN_PROBABILITY %q: %w", v, err)
		}
		c.ContestWinProbability = p
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.ContestDailySpots <= 0 {
		return fmt.Errorf("contest daily spots must be positive, got %d", c.ContestDailySpots)
	}
	if c.ContestWinProbability < 0 || c.ContestWinProbability > 1 {
		return fmt.Errorf("contest win probability must be within [0, 1], got %v", c.ContestWinProbability)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone, the zone calendar days are counted in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ConfigureLogging applies the log level and format to the standard logrus
// logger.
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
