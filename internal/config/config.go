// Package config loads and validates YAML configuration for the svg2png CLI.
// Parsing is strict: unknown fields are rejected so typos surface instead of
// being silently ignored.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrEmptyConfig     = errors.New("config file is empty")
	ErrConfigTooLarge  = errors.New("config file exceeds maximum size")
	ErrInvalidField    = errors.New("invalid config field")
)

// MaxInputSize limits config files to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

// MaxPathLength bounds directory fields. Longer than any real filesystem
// allows, so it only rejects garbage.
const MaxPathLength = 4096

// Config holds all configuration for batch SVG conversion.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Size    SizeConfig    `yaml:"size"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
	Format     string `yaml:"format"`     // "png", "jpeg", "webp" (empty = png)
	Verify     bool   `yaml:"verify"`     // Decode outputs after writing
}

// SizeConfig defines raster dimension options. Zero means unset; the
// converter falls back to the SVG's natural size.
type SizeConfig struct {
	Width  int     `yaml:"width"`  // Requested width in pixels
	Height int     `yaml:"height"` // Requested height in pixels
	Scale  float64 `yaml:"scale"`  // Multiplier applied to resolved dimensions
}

// RenderConfig defines conversion runtime options. Zero means unset; the
// converter applies its own defaults.
type RenderConfig struct {
	Workers        int `yaml:"workers"`        // Concurrent conversions per batch
	TimeoutSeconds int `yaml:"timeoutSeconds"` // Per-batch timeout
}

// LoggingConfig defines diagnostic output options.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error" (empty = default)
}

// Validate checks field values and lengths. Called automatically by
// LoadConfig, but available for consumers who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}

	if c.Output.Format != "" {
		switch strings.ToLower(c.Output.Format) {
		case "png", "jpeg", "webp":
			// valid
		default:
			return fmt.Errorf("%w: output.format %q (must be png, jpeg, or webp)", ErrInvalidField, c.Output.Format)
		}
	}

	if c.Size.Width < 0 {
		return fmt.Errorf("%w: size.width must not be negative, got %d", ErrInvalidField, c.Size.Width)
	}
	if c.Size.Height < 0 {
		return fmt.Errorf("%w: size.height must not be negative, got %d", ErrInvalidField, c.Size.Height)
	}
	if c.Size.Scale < 0 {
		return fmt.Errorf("%w: size.scale must not be negative, got %g", ErrInvalidField, c.Size.Scale)
	}

	if c.Render.Workers < 0 {
		return fmt.Errorf("%w: render.workers must not be negative, got %d", ErrInvalidField, c.Render.Workers)
	}
	if c.Render.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: render.timeoutSeconds must not be negative, got %d", ErrInvalidField, c.Render.TimeoutSeconds)
	}

	if c.Logging.Level != "" {
		switch strings.ToLower(c.Logging.Level) {
		case "debug", "info", "warn", "error":
			// valid
		default:
			return fmt.Errorf("%w: logging.level %q (must be debug, info, warn, or error)", ErrInvalidField, c.Logging.Level)
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrInvalidField, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a neutral configuration. Zero values mean unset:
// the flag/env/file merge treats them as absent and the converter's own
// defaults apply.
func DefaultConfig() *Config {
	return &Config{
		Input:   InputConfig{DefaultDir: ""},
		Output:  OutputConfig{DefaultDir: "", Format: "", Verify: false},
		Size:    SizeConfig{},
		Render:  RenderConfig{},
		Logging: LoggingConfig{Level: ""},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := unmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// unmarshalStrict parses YAML rejecting unknown fields, with a size cap
// so a mistyped --config pointing at a huge file cannot exhaust memory.
func unmarshalStrict(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmptyConfig
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxInputSize)
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return err
	}
	return nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/svg2png/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "svg2png", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
