package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up under the user config directory.
const FileName = "config.yaml"

type TargetOverride struct {
	MinAgeDays *int `yaml:"min_age_days"` // nil keeps the catalog default
	Disabled   bool `yaml:"disabled"`
}

type LoggingCfg struct {
	Level      string `yaml:"level"`        // zerolog level name
	File       string `yaml:"file"`         // empty selects the default under the config dir
	MaxSizeMB  int    `yaml:"max_size_mb"`  // rotate after this size
	MaxBackups int    `yaml:"max_backups"`  // rotated files kept
	MaxAgeDays int    `yaml:"max_age_days"` // days to keep rotated files
	Compress   *bool  `yaml:"compress"`
}

type Config struct {
	Exclusions      []string                  `yaml:"exclusions"`       // appended to every path target
	DisabledTargets []string                  `yaml:"disabled_targets"` // target ids removed from the catalog
	SearchRoots     []string                  `yaml:"search_roots"`     // replace the default project roots
	Targets         map[string]TargetOverride `yaml:"targets"`
	ProtectedPaths  []string                  `yaml:"protected_paths"` // extra trees never touched
	MetricsFile     string                    `yaml:"metrics_file"`
	Logging         LoggingCfg                `yaml:"logging"`
}

var (
	errInvalidPath = errors.New("path must be absolute")
	errNegativeAge = errors.New("min_age_days cannot be negative")
	errBadLevel    = errors.New("unknown log level")
)

// Default returns the configuration used when no file exists.
func Default(home string) *Config {
	c := &Config{}
	// validateAndDefault cannot fail on an empty config
	_ = c.validateAndDefault(home)
	return c
}

// Load reads and validates the config file at path. "~" in paths expands to home.
func Load(path, home string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(home); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional loads path, falling back to Default when the file does not
// exist and was not named explicitly by the user.
func LoadOptional(path, home string, explicit bool) (*Config, error) {
	cfg, err := Load(path, home)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return Default(home), nil
	}
	return cfg, err
}

// DefaultPath returns <configDir>/maccleanup/config.yaml.
func DefaultPath(configDir string) string {
	return filepath.Join(configDir, "maccleanup", FileName)
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault(home string) error {
	for id, o := range c.Targets {
		if o.MinAgeDays != nil && *o.MinAgeDays < 0 {
			return fmt.Errorf("target %s: %w", id, errNegativeAge)
		}
	}

	var err error
	if c.SearchRoots, err = cleanAll(c.SearchRoots, home); err != nil {
		return fmt.Errorf("search_roots: %w", err)
	}
	if c.ProtectedPaths, err = cleanAll(c.ProtectedPaths, home); err != nil {
		return fmt.Errorf("protected_paths: %w", err)
	}
	if c.MetricsFile != "" {
		if c.MetricsFile, err = cleanAbsolute(c.MetricsFile, home); err != nil {
			return fmt.Errorf("metrics_file: %w", err)
		}
	}

	// Set defaults for logging
	if c.Logging.Level == "" {
		c.Logging.Level = zerolog.InfoLevel.String()
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return fmt.Errorf("%w: %s", errBadLevel, c.Logging.Level)
	}
	if c.Logging.File != "" {
		if c.Logging.File, err = cleanAbsolute(c.Logging.File, home); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 5
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 30
	}
	if c.Logging.Compress == nil {
		compress := true
		c.Logging.Compress = &compress
	}

	return nil
}

// Disabled reports whether the target id was turned off.
func (c *Config) Disabled(id string) bool {
	for _, d := range c.DisabledTargets {
		if d == id {
			return true
		}
	}
	return c.Targets[id].Disabled
}

// MinAgeOverride returns the configured age threshold for a target, if any.
func (c *Config) MinAgeOverride(id string) (int, bool) {
	o, ok := c.Targets[id]
	if !ok || o.MinAgeDays == nil {
		return 0, false
	}
	return *o.MinAgeDays, true
}

// Level returns the parsed log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func cleanAll(paths []string, home string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cp, err := cleanAbsolute(p, home)
		if err != nil {
			return nil, err
		}
		cleaned = append(cleaned, cp)
	}
	return cleaned, nil
}

func cleanAbsolute(p, home string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	p = ExpandHome(p, home)
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

// ExpandHome replaces a leading "~" with home.
func ExpandHome(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}
