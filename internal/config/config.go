package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const dirName = ".dataloom"

// Global configuration structure.
type Global struct {
	ProjectsDir string `mapstructure:"projects_dir" yaml:"projects_dir"`

	// Analysis defaults
	SampleCap        int `mapstructure:"sample_cap" yaml:"sample_cap"`
	TopPairs         int `mapstructure:"top_pairs" yaml:"top_pairs"`
	TopMissingFields int `mapstructure:"top_missing_fields" yaml:"top_missing_fields"`
	MaxRows          int `mapstructure:"max_rows" yaml:"max_rows"`

	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`

	// HTTP server and batch workers
	ServeAddr    string `mapstructure:"serve_addr" yaml:"serve_addr"`
	BatchWorkers int    `mapstructure:"batch_workers" yaml:"batch_workers"`
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	keys = append(keys, "projects_dir")
	sort.Strings(keys)
	return keys
}

var defaults = map[string]any{
	"sample_cap":         10000,
	"top_pairs":          5,
	"top_missing_fields": 3,
	"max_rows":           0,
	"output_format":      "markdown",
	"log_level":          "info",
	"serve_addr":         "127.0.0.1:8088",
	"batch_workers":      4,
}

// Path returns cfgFile, or ~/.dataloom/config.yaml when it is empty.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dataloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadDotEnv loads .env from the working directory into the process
// environment. A missing file is not an error; existing variables win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATALOOM")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	// projects_dir has no static default; bind it so env overrides apply
	_ = v.BindEnv("projects_dir")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ProjectsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.ProjectsDir = filepath.Join(home, dirName, "projects")
	}
	return &c, c.Validate()
}

// Validate rejects values the analysis engine cannot use.
func (c *Global) Validate() error {
	switch {
	case c.SampleCap < 0:
		return fmt.Errorf("sample_cap must be >= 0, got %d", c.SampleCap)
	case c.TopPairs < 0:
		return fmt.Errorf("top_pairs must be >= 0, got %d", c.TopPairs)
	case c.TopMissingFields < 0:
		return fmt.Errorf("top_missing_fields must be >= 0, got %d", c.TopMissingFields)
	case c.MaxRows < 0:
		return fmt.Errorf("max_rows must be >= 0, got %d", c.MaxRows)
	case c.BatchWorkers < 0:
		return fmt.Errorf("batch_workers must be >= 0, got %d", c.BatchWorkers)
	}
	switch c.OutputFormat {
	case "markdown", "json", "yaml":
	default:
		return fmt.Errorf("output_format must be markdown, json or yaml, got %q", c.OutputFormat)
	}
	return nil
}

// Set assigns one key from its string form.
func (c *Global) Set(key, value string) error {
	value = strings.TrimSpace(value)
	atoi := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, value)
		}
		*dst = n
		return nil
	}
	switch key {
	case "projects_dir":
		c.ProjectsDir = value
	case "sample_cap":
		return atoi(&c.SampleCap)
	case "top_pairs":
		return atoi(&c.TopPairs)
	case "top_missing_fields":
		return atoi(&c.TopMissingFields)
	case "max_rows":
		return atoi(&c.MaxRows)
	case "batch_workers":
		return atoi(&c.BatchWorkers)
	case "output_format":
		c.OutputFormat = strings.ToLower(value)
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "serve_addr":
		c.ServeAddr = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}
