package svg2png

import "errors"

// Sentinel errors for library operations.
var (
	// Batch setup errors. These abort the whole batch before any job runs.
	ErrEngineStart = errors.New("rendering engine failed to start")
	ErrListSources = errors.New("failed to list source directory")
	ErrNoJobs      = errors.New("no conversion jobs")

	// Per-job errors. Each fails only the job it occurred in.
	ErrSourceRead       = errors.New("failed to read source file")
	ErrContextCreate    = errors.New("failed to create render context")
	ErrSourceLoad       = errors.New("source failed to load")
	ErrEvaluate         = errors.New("in-context evaluation failed")
	ErrSizeUndetermined = errors.New("width or height could not be determined")
	ErrRender           = errors.New("render failed")
	ErrOutputDecode     = errors.New("exported data is not valid base64")
	ErrOutputVerify     = errors.New("output verification failed")
	ErrOutputWrite      = errors.New("failed to write output file")

	// Option validation errors.
	ErrInvalidSize        = errors.New("invalid size")
	ErrInvalidScale       = errors.New("invalid scale")
	ErrInvalidConcurrency = errors.New("invalid concurrency")
	ErrInvalidFormat      = errors.New("invalid output format")
)
