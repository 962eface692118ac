// Package config loads the wbeodm settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "WBEODM"

// Config represents the complete tool configuration
type Config struct {
	Input     string        `yaml:"input" envconfig:"INPUT"`
	Sheet     string        `yaml:"sheet" envconfig:"SHEET"`
	Mapping   string        `yaml:"mapping" envconfig:"MAPPING"`
	Static    string        `yaml:"static" envconfig:"STATIC"`
	HeaderRow int           `yaml:"header_row" envconfig:"HEADER_ROW"`
	Range     string        `yaml:"range" envconfig:"RANGE"`
	LabID     string        `yaml:"lab_id" envconfig:"LAB_ID"`
	OutputDir string        `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Tag       string        `yaml:"tag" envconfig:"TAG"`
	Logging   LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Influx    InfluxConfig  `yaml:"influx" envconfig:"INFLUX"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// InfluxConfig locates the InfluxDB bucket measures are exported to.
type InfluxConfig struct {
	URL    string `yaml:"url" envconfig:"URL"`
	Token  string `yaml:"token" envconfig:"TOKEN"`
	Org    string `yaml:"org" envconfig:"ORG"`
	Bucket string `yaml:"bucket" envconfig:"BUCKET"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Sheet:     "Lab analyses",
		OutputDir: "odm_csv",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadDotEnv loads variables from a dotenv file into the environment,
// keeping variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from the defaults, the YAML file at path
// (skipped when path is empty) and WBEODM_ environment variables, in
// increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.HeaderRow < 0 {
		return fmt.Errorf("header_row must be positive, got %d", c.HeaderRow)
	}
	return nil
}
