package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	svg2png "github.com/alnah/go-svg2png"
	"github.com/alnah/go-svg2png/internal/config"
	"github.com/alnah/go-svg2png/internal/fileutil"
	"github.com/alnah/go-svg2png/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrInvalidExtension   = errors.New("file must have .svg extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
)

// runConvertCmd parses flags, wires signal cancellation, and runs the
// conversion. Returns the process exit code.
func runConvertCmd(args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runConvert(ctx, positional, flags, env); err != nil {
		fmt.Fprintln(env.Stderr, formatCLIError(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	// Load configuration; --config beats SVG2PNG_CONFIG
	cfg := config.DefaultConfig()
	configName := flags.common.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	if configName != "" {
		loaded, err := config.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	// Layer environment values, then CLI flags (CLI wins)
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	timeout, err := resolveTimeout(flags.timeout, envCfg.Timeout, cfg.Render.TimeoutSeconds)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputPath := resolveOutputDir(flags.output, cfg)

	logger := buildLogger(env.Stderr, resolveLogLevel(flags, envCfg, cfg))

	opts := []svg2png.Option{svg2png.WithLogger(logger)}
	if timeout > 0 {
		opts = append(opts, svg2png.WithTimeout(timeout))
	}
	svc := svg2png.New(opts...)

	start := env.Now()
	dests, err := convertInput(ctx, svc, inputPath, outputPath, cfg)
	if err != nil {
		return err
	}

	printResults(dests, flags.common.quiet, flags.common.verbose, env.Now().Sub(start), env)
	return nil
}

// convertInput dispatches between single-file and directory conversion.
// output may be a directory or, for single files, a raster file path.
func convertInput(ctx context.Context, svc *svg2png.Service, inputPath, output string, cfg *config.Config) ([]string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	convertOpts := buildConvertOptions(cfg)

	if info.IsDir() {
		dstDir := output
		if dstDir == "" {
			dstDir = inputPath
		}
		return svc.ConvertDir(ctx, inputPath, dstDir, convertOpts)
	}

	if !fileutil.HasExtension(inputPath, svg2png.SourceExt) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
	}

	dest := resolveOutputPath(inputPath, output, convertOpts.Format)
	return svc.ConvertFiles(ctx, map[string]string{inputPath: dest}, convertOpts)
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.size.width > 0 {
		cfg.Size.Width = flags.size.width
	}
	if flags.size.height > 0 {
		cfg.Size.Height = flags.size.height
	}
	if flags.size.scale > 0 {
		cfg.Size.Scale = flags.size.scale
	}
	if flags.raster.format != "" {
		cfg.Output.Format = flags.raster.format
	}
	if flags.raster.verify {
		cfg.Output.Verify = true
	}
	if flags.workers > 0 {
		cfg.Render.Workers = flags.workers
	}
}

// buildConvertOptions maps merged config onto batch options.
func buildConvertOptions(cfg *config.Config) *svg2png.ConvertOptions {
	opts := &svg2png.ConvertOptions{
		Scale:       cfg.Size.Scale,
		Concurrency: cfg.Render.Workers,
		Format:      cfg.Output.Format,
		Verify:      cfg.Output.Verify,
	}
	if cfg.Size.Width > 0 || cfg.Size.Height > 0 {
		opts.Size = &svg2png.Size{
			Width:  float64(cfg.Size.Width),
			Height: float64(cfg.Size.Height),
		}
	}
	return opts
}

// resolveTimeout resolves the batch timeout with priority:
// flag > environment > config file. Zero means the library default.
func resolveTimeout(flagValue string, envValue time.Duration, configSeconds int) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, flagValue, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: %v (must be positive)", ErrInvalidTimeout, d)
		}
		return d, nil
	}
	if envValue > 0 {
		return envValue, nil
	}
	if configSeconds > 0 {
		return time.Duration(configSeconds) * time.Second, nil
	}
	return 0, nil
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir determines the output destination from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// rasterExts are output extensions that mark --output as a file path
// rather than a directory.
var rasterExts = []string{".png", ".jpg", ".jpeg", ".webp"}

// resolveOutputPath determines the raster output path for a single
// source file. An empty output keeps the raster next to its source.
func resolveOutputPath(inputPath, output, format string) string {
	if format == "" {
		format = svg2png.DefaultFormat
	}
	stem := fileutil.Stem(inputPath)
	ext := svg2png.FormatExt(format)

	if output == "" {
		return filepath.Join(filepath.Dir(inputPath), stem+ext)
	}

	for _, rasterExt := range rasterExts {
		if fileutil.HasExtension(output, rasterExt) {
			return output
		}
	}

	return filepath.Join(output, stem+ext)
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > svg2png.MaxConcurrency {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, svg2png.MaxConcurrency)
	}
	return nil
}

// resolveLogLevel picks the console log level. Flags win over the
// environment, which wins over the config file.
func resolveLogLevel(flags *convertFlags, envCfg *envConfig, cfg *config.Config) zerolog.Level {
	switch {
	case flags.common.verbose:
		return zerolog.DebugLevel
	case flags.common.quiet:
		return zerolog.ErrorLevel
	case envCfg.Debug:
		return zerolog.DebugLevel
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.WarnLevel
}

// buildLogger creates the CLI console logger.
func buildLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

// printResults lists written outputs on stdout. Failures never reach
// here; batch errors propagate to the caller.
func printResults(dests []string, quiet, verbose bool, elapsed time.Duration, env *Environment) {
	if quiet {
		return
	}

	slices.Sort(dests)
	for _, dest := range dests {
		fmt.Fprintf(env.Stdout, "Created %s\n", dest)
	}

	if verbose || len(dests) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d file(s) in %v\n", len(dests), elapsed.Round(time.Millisecond))
	}
}

// formatCLIError renders an error with an actionable hint when one applies.
func formatCLIError(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, svg2png.ErrEngineStart):
		msg += hints.ForEngineStart()
	case errors.Is(err, context.DeadlineExceeded):
		msg += hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		msg += hints.ForConfigNotFound(nil)
	case errors.Is(err, svg2png.ErrSizeUndetermined):
		msg += hints.ForSizeUndetermined()
	case errors.Is(err, svg2png.ErrOutputWrite):
		msg += hints.ForOutputDirectory()
	}
	return msg
}
