package main

import (
	"errors"
	"os"

	svg2png "github.com/alnah/go-svg2png"
	"github.com/alnah/go-svg2png/internal/config"
)

// Exit codes for the svg2png CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitEngine  = 4 // Browser/rendering engine errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
// Joined batch errors resolve to the first matching category.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Engine errors (exit 4)
	if errors.Is(err, svg2png.ErrEngineStart) ||
		errors.Is(err, svg2png.ErrContextCreate) ||
		errors.Is(err, svg2png.ErrSourceLoad) ||
		errors.Is(err, svg2png.ErrEvaluate) ||
		errors.Is(err, svg2png.ErrRender) ||
		errors.Is(err, svg2png.ErrOutputDecode) ||
		errors.Is(err, svg2png.ErrOutputVerify) {
		return ExitEngine
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, svg2png.ErrSourceRead) ||
		errors.Is(err, svg2png.ErrListSources) ||
		errors.Is(err, svg2png.ErrOutputWrite) ||
		errors.Is(err, svg2png.ErrNoJobs) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrInvalidField) ||
		errors.Is(err, svg2png.ErrInvalidSize) ||
		errors.Is(err, svg2png.ErrInvalidScale) ||
		errors.Is(err, svg2png.ErrInvalidConcurrency) ||
		errors.Is(err, svg2png.ErrInvalidFormat) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}
