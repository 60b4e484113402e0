package svg2png

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"github.com/alnah/go-svg2png/internal/fileutil"
)

// SourceExt is the extension ConvertDir matches, case-insensitively.
const SourceExt = ".svg"

// ConvertFiles converts each source in files to its mapped destination.
//
// The engine starts once for the batch and is released only after every
// job has settled. On success the returned slice holds every written
// destination, in no particular order. If any job fails, the returned
// error joins exactly the failed jobs' errors; destinations written by
// succeeding jobs remain on disk but are not returned.
func (s *Service) ConvertFiles(ctx context.Context, files map[string]string, opts *ConvertOptions) ([]string, error) {
	cfg, err := resolveBatchConfig(opts)
	if err != nil {
		return nil, err
	}
	jobs, err := buildJobs(files, cfg.size)
	if err != nil {
		return nil, err
	}

	log := s.log.With().Str("batch_id", uuid.New().String()).Logger()
	log.Debug().
		Int("jobs", len(jobs)).
		Int("concurrency", cfg.concurrency).
		Str("format", cfg.format).
		Msg("starting batch")

	renderer, err := s.engine.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineStart, err)
	}
	defer func() {
		if cerr := renderer.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("engine close failed")
		}
	}()

	pool := &workPool{
		capacity: cfg.concurrency,
		run: func(ctx context.Context, job Job) outcome {
			return s.convertJob(ctx, renderer, job, cfg)
		},
		log: log,
	}

	dests, err := aggregate(pool.runAll(ctx, jobs))
	log.Debug().Int("written", len(dests)).Err(err).Msg("batch settled")
	return dests, err
}

// ConvertDir converts every SVG file directly inside srcDir, writing
// each output to dstDir under the source's stem with the output
// format's extension. The listing is flat; subdirectories are not
// descended into.
func (s *Service) ConvertDir(ctx context.Context, srcDir, dstDir string, opts *ConvertOptions) ([]string, error) {
	cfg, err := resolveBatchConfig(opts)
	if err != nil {
		return nil, err
	}

	entries, err := s.fs.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrListSources, srcDir, err)
	}

	files := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !fileutil.HasExtension(entry.Name(), SourceExt) {
			continue
		}
		name := entry.Name()
		dest := fileutil.Stem(name) + FormatExt(cfg.format)
		files[filepath.Join(srcDir, name)] = filepath.Join(dstDir, dest)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrNoJobs, SourceExt, srcDir)
	}

	return s.ConvertFiles(ctx, files, opts)
}

// FormatExt returns the conventional file extension for an output
// format, including the dot.
func FormatExt(format string) string {
	if format == FormatJPEG {
		return ".jpg"
	}
	return "." + format
}

// buildJobs expands the source-to-destination mapping into jobs, sorted
// by source so scheduling and logs are deterministic.
func buildJobs(files map[string]string, size *Size) ([]Job, error) {
	if len(files) == 0 {
		return nil, ErrNoJobs
	}

	sources := make([]string, 0, len(files))
	for source := range files {
		sources = append(sources, source)
	}
	slices.Sort(sources)

	jobs := make([]Job, 0, len(sources))
	for _, source := range sources {
		jobs = append(jobs, Job{Source: source, Dest: files[source], Size: size})
	}
	return jobs, nil
}
