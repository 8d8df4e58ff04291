package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `toml:"port"`
	Environment  string `toml:"env"`
	ReadTimeout  int    `toml:"read_timeout"`
	WriteTimeout int    `toml:"write_timeout"`
	LogLevel     string `toml:"log_level"`

	// CORSOrigins lists the browser origins allowed to call the API;
	// empty allows any.
	CORSOrigins []string `toml:"cors_origins"`

	// Pen service
	DBPath         string  `toml:"db_path"`
	DataDir        string  `toml:"data_dir"`
	LUTSamples     int     `toml:"lut_samples"`
	ControlEpsilon float64 `toml:"control_epsilon"`

	// Gateway
	PenURL string `toml:"pen_url"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:           "3000",
		Environment:    "development",
		ReadTimeout:    10,
		WriteTimeout:   10,
		LogLevel:       "info",
		DBPath:         "./data/pen.db",
		DataDir:        "./data/drawings",
		LUTSamples:     100,
		ControlEpsilon: 1e-3,
		PenURL:         "http://localhost:3001",
	}
}

// Load reads the configuration from environment variables over the
// defaults.
func Load() *Config {
	cfg := Defaults()
	cfg.applyEnv()
	cfg.expandPaths()
	return cfg
}

// LoadFile reads defaults, then the TOML file at path, then the
// environment. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config path %q: %w", path, err)
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.expandPaths()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENV", c.Environment)
	c.ReadTimeout = getEnvAsInt("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", c.WriteTimeout)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DBPath = getEnv("PEN_DB_PATH", c.DBPath)
	c.DataDir = getEnv("PEN_DATA_DIR", c.DataDir)
	c.LUTSamples = getEnvAsInt("PEN_LUT_SAMPLES", c.LUTSamples)
	c.ControlEpsilon = getEnvAsFloat("PEN_CONTROL_EPSILON", c.ControlEpsilon)
	c.PenURL = getEnv("PEN_URL", c.PenURL)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = strings.Split(v, ",")
	}
}

// expandPaths resolves a leading ~ in file paths. Paths that cannot be
// expanded are kept as given.
func (c *Config) expandPaths() {
	for _, p := range []*string{&c.DBPath, &c.DataDir} {
		if expanded, err := homedir.Expand(*p); err == nil {
			*p = expanded
		}
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
