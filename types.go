package svg2png

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output format constants. These match the raster formats the rendering
// engine can export natively.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

// Batch defaults.
const (
	// DefaultConcurrency bounds the number of simultaneously open render
	// contexts when the caller does not choose a limit.
	DefaultConcurrency = 20

	// MaxConcurrency caps open contexts per batch. Every page costs the
	// shared browser renderer processes and memory.
	MaxConcurrency = 64

	// DefaultScale leaves resolved dimensions unchanged.
	DefaultScale = 1.0

	// DefaultFormat is the output format when none is requested.
	DefaultFormat = FormatPNG
)

// MaxDimension caps viewport size at Chrome's texture limit.
const MaxDimension = 16384

// Size is a requested output size in pixels. A zero field means that
// dimension was not requested; both fields are independently omittable.
// A nil *Size means no size request at all.
type Size struct {
	Width  float64
	Height float64
}

// Validate checks that a size request is usable.
// Returns nil if s is nil (nil means no request).
func (s *Size) Validate() error {
	if s == nil {
		return nil
	}
	if s.Width < 0 || math.IsNaN(s.Width) || math.IsInf(s.Width, 0) || s.Width > MaxDimension {
		return fmt.Errorf("%w: width %v (must be between 0 and %d)", ErrInvalidSize, s.Width, MaxDimension)
	}
	if s.Height < 0 || math.IsNaN(s.Height) || math.IsInf(s.Height, 0) || s.Height > MaxDimension {
		return fmt.Errorf("%w: height %v (must be between 0 and %d)", ErrInvalidSize, s.Height, MaxDimension)
	}
	return nil
}

// Dimensions is a fully resolved output size. Both fields are set and
// positive once dimension resolution succeeds.
type Dimensions struct {
	Width  float64
	Height float64
}

// Job is one source-to-destination conversion unit.
// Fields are not modified after creation.
type Job struct {
	Source string
	Dest   string
	Size   *Size
}

// ConvertOptions configures one batch call. The zero value (or nil) uses
// the defaults: no size request, scale 1, concurrency 20, PNG output,
// no verification.
type ConvertOptions struct {
	Size        *Size   // applied to every job in the batch
	Scale       float64 // multiplies resolved dimensions; 0 means 1
	Concurrency int     // max simultaneously open contexts; 0 means DefaultConcurrency
	Format      string  // "png", "jpeg", or "webp"; empty means PNG
	Verify      bool    // decode each output and check its bounds
}

// batchConfig is a validated ConvertOptions with defaults applied.
type batchConfig struct {
	size        *Size
	scale       float64
	concurrency int
	format      string
	verify      bool
}

// resolveBatchConfig validates opts and fills in defaults.
func resolveBatchConfig(opts *ConvertOptions) (batchConfig, error) {
	cfg := batchConfig{
		scale:       DefaultScale,
		concurrency: DefaultConcurrency,
		format:      DefaultFormat,
	}
	if opts == nil {
		return cfg, nil
	}

	if err := opts.Size.Validate(); err != nil {
		return batchConfig{}, err
	}
	cfg.size = opts.Size

	if opts.Scale < 0 || math.IsNaN(opts.Scale) || math.IsInf(opts.Scale, 0) {
		return batchConfig{}, fmt.Errorf("%w: %v (must be positive)", ErrInvalidScale, opts.Scale)
	}
	if opts.Scale > 0 {
		cfg.scale = opts.Scale
	}

	if opts.Concurrency < 0 {
		return batchConfig{}, fmt.Errorf("%w: %d (must be positive)", ErrInvalidConcurrency, opts.Concurrency)
	}
	if opts.Concurrency > MaxConcurrency {
		return batchConfig{}, fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidConcurrency, opts.Concurrency, MaxConcurrency)
	}
	if opts.Concurrency > 0 {
		cfg.concurrency = opts.Concurrency
	}

	if opts.Format != "" {
		if !isValidFormat(opts.Format) {
			return batchConfig{}, fmt.Errorf("%w: %q (must be png, jpeg, or webp)", ErrInvalidFormat, opts.Format)
		}
		cfg.format = strings.ToLower(opts.Format)
	}

	cfg.verify = opts.Verify
	return cfg, nil
}

// isValidFormat checks if format is a known output format (case-insensitive).
func isValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatPNG, FormatJPEG, FormatWebP:
		return true
	}
	return false
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout time.Duration
}

// defaultTimeout bounds individual engine operations when no timeout is
// specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the per-operation timeout for the rendering engine.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("svg2png: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithLogger sets the logger for debug output. The default discards
// all events.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithEngine replaces the rendering engine collaborator.
// Tests use this to substitute a scripted engine.
func WithEngine(engine Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

// WithFS replaces the file I/O collaborator.
func WithFS(fs FS) Option {
	return func(s *Service) {
		s.fs = fs
	}
}
