package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-svg2png/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // SVG2PNG_CONFIG: config file path
	Timeout    time.Duration // SVG2PNG_TIMEOUT: batch timeout

	// Tier 2 - I/O
	InputDir  string // SVG2PNG_INPUT_DIR: default input directory
	OutputDir string // SVG2PNG_OUTPUT_DIR: default output directory

	// Tier 3 - Rendering
	Width   int     // SVG2PNG_WIDTH: output width in pixels
	Height  int     // SVG2PNG_HEIGHT: output height in pixels
	Scale   float64 // SVG2PNG_SCALE: scale factor
	Format  string  // SVG2PNG_FORMAT: png, jpeg, webp
	Workers int     // SVG2PNG_WORKERS: concurrent conversions
	Debug   bool    // SVG2PNG_DEBUG: debug-level logging
}

// knownEnvVars lists valid SVG2PNG_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"SVG2PNG_CONFIG":  true,
	"SVG2PNG_TIMEOUT": true,
	// Tier 2 - I/O
	"SVG2PNG_INPUT_DIR":  true,
	"SVG2PNG_OUTPUT_DIR": true,
	// Tier 3 - Rendering
	"SVG2PNG_WIDTH":   true,
	"SVG2PNG_HEIGHT":  true,
	"SVG2PNG_SCALE":   true,
	"SVG2PNG_FORMAT":  true,
	"SVG2PNG_WORKERS": true,
	"SVG2PNG_DEBUG":   true,
	// Recognized by doctor, not config
	"SVG2PNG_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized SVG2PNG_* values. Unparseable
// numeric values are ignored rather than treated as errors.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("SVG2PNG_CONFIG"),
		InputDir:   os.Getenv("SVG2PNG_INPUT_DIR"),
		OutputDir:  os.Getenv("SVG2PNG_OUTPUT_DIR"),
		Format:     os.Getenv("SVG2PNG_FORMAT"),
	}

	if timeout := os.Getenv("SVG2PNG_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if width := os.Getenv("SVG2PNG_WIDTH"); width != "" {
		if n, err := strconv.Atoi(width); err == nil && n > 0 {
			cfg.Width = n
		}
	}
	if height := os.Getenv("SVG2PNG_HEIGHT"); height != "" {
		if n, err := strconv.Atoi(height); err == nil && n > 0 {
			cfg.Height = n
		}
	}
	if scale := os.Getenv("SVG2PNG_SCALE"); scale != "" {
		if f, err := strconv.ParseFloat(scale, 64); err == nil && f > 0 {
			cfg.Scale = f
		}
	}
	if workers := os.Getenv("SVG2PNG_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			cfg.Workers = n
		}
	}

	switch os.Getenv("SVG2PNG_DEBUG") {
	case "1", "true":
		cfg.Debug = true
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized SVG2PNG_* variables.
// Helps catch typos like SVG2PNG_WITH instead of SVG2PNG_WIDTH.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "SVG2PNG_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overlays environment variable values onto config.
// Environment values override file values; CLI flags are applied last
// via mergeFlags, giving: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.InputDir != "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Format != "" {
		cfg.Output.Format = env.Format
	}
	if env.Width > 0 {
		cfg.Size.Width = env.Width
	}
	if env.Height > 0 {
		cfg.Size.Height = env.Height
	}
	if env.Scale > 0 {
		cfg.Size.Scale = env.Scale
	}
	if env.Workers > 0 {
		cfg.Render.Workers = env.Workers
	}
}
