package svg2png

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
)

// outcome is one job's settled result: a written destination or the
// error that failed the job. Exactly one of dest/err is set.
type outcome struct {
	job  Job
	dest string
	err  error
}

// convertJob runs the full pipeline for one job and always settles: any
// step failure is recorded in the outcome, never propagated. The render
// context is disposed on every exit path.
func (s *Service) convertJob(ctx context.Context, renderer Renderer, job Job, cfg batchConfig) (out outcome) {
	out.job = job

	// Source read and context creation proceed independently; the
	// buffered channel lets the reader finish even if the context fails.
	type readResult struct {
		content []byte
		err     error
	}
	readCh := make(chan readResult, 1)
	go func() {
		content, err := s.fs.ReadFile(job.Source)
		readCh <- readResult{content: content, err: err}
	}()

	rc, err := renderer.NewContext(ctx)
	if err != nil {
		out.err = fmt.Errorf("%w: %s: %v", ErrContextCreate, job.Source, err)
		return out
	}
	defer rc.Close()

	read := <-readCh
	if read.err != nil {
		out.err = fmt.Errorf("%w: %s: %v", ErrSourceRead, job.Source, read.err)
		return out
	}

	status, err := rc.Open(ctx, read.content)
	if err != nil {
		out.err = fmt.Errorf("%w: %s: %v", ErrSourceLoad, job.Source, err)
		return out
	}
	if status != LoadStatusOK {
		out.err = fmt.Errorf("%w: %s: status %q", ErrSourceLoad, job.Source, status)
		return out
	}

	dims, err := resolveDimensions(ctx, rc, job.Size, cfg.scale)
	if err != nil {
		out.err = fmt.Errorf("%s: %w", job.Source, err)
		return out
	}

	width, height := viewportPixels(dims)
	if err := rc.SetViewport(ctx, width, height); err != nil {
		out.err = fmt.Errorf("%w: %s: setting viewport: %v", ErrRender, job.Source, err)
		return out
	}

	encoded, err := rc.Export(ctx, cfg.format)
	if err != nil {
		out.err = fmt.Errorf("%w: %s: %v", ErrRender, job.Source, err)
		return out
	}

	raster, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		out.err = fmt.Errorf("%w: %s: %v", ErrOutputDecode, job.Source, err)
		return out
	}

	if cfg.verify {
		if err := verifyRaster(raster, width, height); err != nil {
			out.err = fmt.Errorf("%s: %w", job.Source, err)
			return out
		}
	}

	if err := s.fs.WriteFile(job.Dest, raster); err != nil {
		out.err = fmt.Errorf("%w: %s: %v", ErrOutputWrite, job.Dest, err)
		return out
	}

	out.dest = job.Dest
	return out
}

// viewportPixels rounds resolved dimensions to whole pixels. The engine
// rejects empty viewports, so each side is at least 1.
func viewportPixels(dims Dimensions) (width, height int) {
	width = int(math.Round(dims.Width))
	height = int(math.Round(dims.Height))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}
