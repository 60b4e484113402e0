package svg2png

// Notes:
// - ConvertFiles: tests the batch lifecycle (one engine start, renderer
//   released after settlement) and the partial-failure contract (failures
//   joined, successful writes stay on disk, no rollback)
// - ConvertDir: tests flat discovery, extension matching, and destination
//   naming; it reuses the ConvertFiles machinery underneath
// - The concurrency bound is pinned with a barrier: the first wave parks in
//   Open until the expected number of contexts is active

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// TestConvertFiles_Success - Batch lifecycle
// ---------------------------------------------------------------------------

func TestConvertFiles_Success(t *testing.T) {
	t.Parallel()

	fsys := newMemFS()
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c"} {
		src := "in/" + name + ".svg"
		fsys.files[src] = []byte("<svg/>")
		files[src] = "out/" + name + ".png"
	}

	renderer := &stubRenderer{}
	engine := &stubEngine{renderer: renderer}
	svc := New(WithEngine(engine), WithFS(fsys))

	dests, err := svc.ConvertFiles(context.Background(), files, nil)
	if err != nil {
		t.Fatalf("ConvertFiles() error = %v", err)
	}

	if len(dests) != len(files) {
		t.Fatalf("got %d destinations, want %d", len(dests), len(files))
	}
	want := map[string]bool{"out/a.png": true, "out/b.png": true, "out/c.png": true}
	for _, dest := range dests {
		if !want[dest] {
			t.Errorf("unexpected destination %q", dest)
		}
		if _, ok := fsys.written(dest); !ok {
			t.Errorf("destination %q was not written", dest)
		}
	}

	if engine.started != 1 {
		t.Errorf("engine started %d times, want 1 per batch", engine.started)
	}
	if !renderer.wasClosed() {
		t.Error("renderer was not released after the batch settled")
	}
	for i, rc := range renderer.createdContexts() {
		if !rc.wasClosed() {
			t.Errorf("context %d was not closed", i+1)
		}
	}
}

// ---------------------------------------------------------------------------
// TestConvertFiles_ValidationBeforeEngineStart - Cheap failures stay cheap
// ---------------------------------------------------------------------------

func TestConvertFiles_ValidationBeforeEngineStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		opts    *ConvertOptions
		wantErr error
	}{
		{
			name:    "invalid format",
			files:   map[string]string{"in/a.svg": "out/a.png"},
			opts:    &ConvertOptions{Format: "tiff"},
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "invalid scale",
			files:   map[string]string{"in/a.svg": "out/a.png"},
			opts:    &ConvertOptions{Scale: -2},
			wantErr: ErrInvalidScale,
		},
		{
			name:    "invalid concurrency",
			files:   map[string]string{"in/a.svg": "out/a.png"},
			opts:    &ConvertOptions{Concurrency: MaxConcurrency + 1},
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "invalid size",
			files:   map[string]string{"in/a.svg": "out/a.png"},
			opts:    &ConvertOptions{Size: &Size{Width: -1}},
			wantErr: ErrInvalidSize,
		},
		{
			name:    "nil file map",
			files:   nil,
			wantErr: ErrNoJobs,
		},
		{
			name:    "empty file map",
			files:   map[string]string{},
			wantErr: ErrNoJobs,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := &stubEngine{}
			svc := New(WithEngine(engine), WithFS(newMemFS()))

			dests, err := svc.ConvertFiles(context.Background(), tt.files, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ConvertFiles() error = %v, want %v", err, tt.wantErr)
			}
			if dests != nil {
				t.Errorf("destinations = %v, want nil", dests)
			}
			if engine.started != 0 {
				t.Error("engine started for a batch that never ran")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConvertFiles_EngineStartFailure - Start failures abort the batch
// ---------------------------------------------------------------------------

func TestConvertFiles_EngineStartFailure(t *testing.T) {
	t.Parallel()

	fsys := newMemFS()
	fsys.files["in/a.svg"] = []byte("<svg/>")

	engine := &stubEngine{startErr: errors.New("chrome not found")}
	svc := New(WithEngine(engine), WithFS(fsys))

	_, err := svc.ConvertFiles(context.Background(), map[string]string{"in/a.svg": "out/a.png"}, nil)

	if !errors.Is(err, ErrEngineStart) {
		t.Fatalf("ConvertFiles() error = %v, want ErrEngineStart", err)
	}
	if !strings.Contains(err.Error(), "chrome not found") {
		t.Errorf("error %q missing the launch failure detail", err)
	}
}

// ---------------------------------------------------------------------------
// TestConvertFiles_CancelledContext - The engine never starts
// ---------------------------------------------------------------------------

func TestConvertFiles_CancelledContext(t *testing.T) {
	t.Parallel()

	fsys := newMemFS()
	fsys.files["in/a.svg"] = []byte("<svg/>")

	// The default engine checks the context before launching a browser,
	// so this stays hermetic.
	svc := New(WithFS(fsys))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ConvertFiles(ctx, map[string]string{"in/a.svg": "out/a.png"}, nil)
	if !errors.Is(err, ErrEngineStart) {
		t.Fatalf("ConvertFiles() error = %v, want ErrEngineStart", err)
	}
	if !strings.Contains(err.Error(), context.Canceled.Error()) {
		t.Errorf("error %q missing the cancellation cause", err)
	}
}

// ---------------------------------------------------------------------------
// TestConvertFiles_PartialFailure - Failures joined, successes kept on disk
// ---------------------------------------------------------------------------

func TestConvertFiles_PartialFailure(t *testing.T) {
	t.Parallel()

	fsys := newMemFS()
	fsys.files["in/good1.svg"] = []byte("<svg/>")
	fsys.files["in/good2.svg"] = []byte("<svg/>")
	// in/bad.svg is deliberately absent.

	renderer := &stubRenderer{}
	svc := New(WithEngine(&stubEngine{renderer: renderer}), WithFS(fsys))

	files := map[string]string{
		"in/good1.svg": "out/good1.png",
		"in/bad.svg":   "out/bad.png",
		"in/good2.svg": "out/good2.png",
	}

	dests, err := svc.ConvertFiles(context.Background(), files, nil)

	if dests != nil {
		t.Errorf("destinations = %v, want nil when any job fails", dests)
	}
	if !errors.Is(err, ErrSourceRead) {
		t.Fatalf("ConvertFiles() error = %v, want ErrSourceRead", err)
	}

	msg := err.Error()
	if !strings.Contains(msg, "in/bad.svg") {
		t.Errorf("error %q does not name the failed source", msg)
	}
	if strings.Contains(msg, "good1") || strings.Contains(msg, "good2") {
		t.Errorf("error %q mentions jobs that succeeded", msg)
	}

	// Successful outputs stay on disk; a partial batch never rolls back.
	for _, dest := range []string{"out/good1.png", "out/good2.png"} {
		if _, ok := fsys.written(dest); !ok {
			t.Errorf("successful output %q was rolled back", dest)
		}
	}
	if _, ok := fsys.written("out/bad.png"); ok {
		t.Error("failed job produced an output")
	}

	if !renderer.wasClosed() {
		t.Error("renderer was not released after a failing batch")
	}
}

// ---------------------------------------------------------------------------
// TestConvertFiles_ConcurrencyBound - Open contexts never exceed the limit
// ---------------------------------------------------------------------------

func TestConvertFiles_ConcurrencyBound(t *testing.T) {
	t.Parallel()

	const jobs = 12
	const limit = 3

	fsys := newMemFS()
	files := map[string]string{}
	for i := 0; i < jobs; i++ {
		src := filepath.Join("in", string(rune('a'+i))+".svg")
		fsys.files[src] = []byte("<svg/>")
		files[src] = filepath.Join("out", string(rune('a'+i))+".png")
	}

	// The first wave parks in Open until `limit` contexts have arrived, so
	// the high-water mark deterministically reaches the bound.
	var mu sync.Mutex
	arrived := 0
	release := make(chan struct{})

	renderer := &stubRenderer{}
	renderer.makeContext = func(int) *stubContext {
		rc := &stubContext{doc: fakeDoc{width: "10", height: "10"}, openGate: release}
		rc.onOpen = func() {
			mu.Lock()
			arrived++
			if arrived == limit {
				close(release)
			}
			mu.Unlock()
		}
		return rc
	}

	svc := New(WithEngine(&stubEngine{renderer: renderer}), WithFS(fsys))

	dests, err := svc.ConvertFiles(context.Background(), files, &ConvertOptions{Concurrency: limit})
	if err != nil {
		t.Fatalf("ConvertFiles() error = %v", err)
	}
	if len(dests) != jobs {
		t.Fatalf("got %d destinations, want %d", len(dests), jobs)
	}

	if got := renderer.maxActiveContexts(); got != limit {
		t.Errorf("max open contexts = %d, want exactly %d", got, limit)
	}
}

// ---------------------------------------------------------------------------
// TestConvertFiles_BatchSizeAppliesToEveryJob - Shared size request
// ---------------------------------------------------------------------------

func TestConvertFiles_BatchSizeAppliesToEveryJob(t *testing.T) {
	t.Parallel()

	fsys := newMemFS()
	files := map[string]string{}
	for _, name := range []string{"a", "b"} {
		src := "in/" + name + ".svg"
		fsys.files[src] = []byte("<svg/>")
		files[src] = "out/" + name + ".png"
	}

	renderer := &stubRenderer{}
	svc := New(WithEngine(&stubEngine{renderer: renderer}), WithFS(fsys))

	_, err := svc.ConvertFiles(context.Background(), files, &ConvertOptions{
		Size: &Size{Width: 20, Height: 30},
	})
	if err != nil {
		t.Fatalf("ConvertFiles() error = %v", err)
	}

	for i, rc := range renderer.createdContexts() {
		if w, h := rc.Viewport(); w != 20 || h != 30 {
			t.Errorf("context %d viewport = %dx%d, want 20x30", i+1, w, h)
		}
	}
}

// ---------------------------------------------------------------------------
// TestConvertDir - Flat discovery and destination naming
// ---------------------------------------------------------------------------

func TestConvertDir(t *testing.T) {
	t.Parallel()

	fsys := newMemFS()
	fsys.dirs["icons"] = []memDirEntry{
		{name: "logo.svg"},
		{name: "banner.SVG"}, // extension matching is case-insensitive
		{name: "readme.txt"},
		{name: "notes.md"},
		{name: "nested", dir: true},
		{name: "photo.svg.bak"},
	}
	fsys.files[filepath.Join("icons", "logo.svg")] = []byte("<svg/>")
	fsys.files[filepath.Join("icons", "banner.SVG")] = []byte("<svg/>")

	svc := New(WithEngine(&stubEngine{}), WithFS(fsys))

	dests, err := svc.ConvertDir(context.Background(), "icons", "build", nil)
	if err != nil {
		t.Fatalf("ConvertDir() error = %v", err)
	}

	want := map[string]bool{
		filepath.Join("build", "logo.png"):   true,
		filepath.Join("build", "banner.png"): true,
	}
	if len(dests) != len(want) {
		t.Fatalf("destinations = %v, want %d entries", dests, len(want))
	}
	for _, dest := range dests {
		if !want[dest] {
			t.Errorf("unexpected destination %q", dest)
		}
	}
}

// ---------------------------------------------------------------------------
// TestConvertDir_FormatDrivesExtension - jpeg maps to .jpg
// ---------------------------------------------------------------------------

func TestConvertDir_FormatDrivesExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format  string
		wantExt string
	}{
		{FormatPNG, ".png"},
		{FormatJPEG, ".jpg"},
		{FormatWebP, ".webp"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			fsys := newMemFS()
			fsys.dirs["in"] = []memDirEntry{{name: "icon.svg"}}
			fsys.files[filepath.Join("in", "icon.svg")] = []byte("<svg/>")

			svc := New(WithEngine(&stubEngine{}), WithFS(fsys))

			dests, err := svc.ConvertDir(context.Background(), "in", "out",
				&ConvertOptions{Format: tt.format})
			if err != nil {
				t.Fatalf("ConvertDir() error = %v", err)
			}
			if len(dests) != 1 {
				t.Fatalf("destinations = %v, want one entry", dests)
			}
			if got := filepath.Ext(dests[0]); got != tt.wantExt {
				t.Errorf("extension = %q, want %q", got, tt.wantExt)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConvertDir_Failures - Listing errors and empty directories
// ---------------------------------------------------------------------------

func TestConvertDir_Failures(t *testing.T) {
	t.Parallel()

	t.Run("unlistable directory", func(t *testing.T) {
		t.Parallel()

		fsys := newMemFS()
		fsys.listErr = errors.New("permission denied")

		engine := &stubEngine{}
		svc := New(WithEngine(engine), WithFS(fsys))

		_, err := svc.ConvertDir(context.Background(), "in", "out", nil)
		if !errors.Is(err, ErrListSources) {
			t.Fatalf("ConvertDir() error = %v, want ErrListSources", err)
		}
		if engine.started != 0 {
			t.Error("engine started despite the listing failure")
		}
	})

	t.Run("no matching files", func(t *testing.T) {
		t.Parallel()

		fsys := newMemFS()
		fsys.dirs["in"] = []memDirEntry{
			{name: "readme.txt"},
			{name: "sub", dir: true},
		}

		engine := &stubEngine{}
		svc := New(WithEngine(engine), WithFS(fsys))

		_, err := svc.ConvertDir(context.Background(), "in", "out", nil)
		if !errors.Is(err, ErrNoJobs) {
			t.Fatalf("ConvertDir() error = %v, want ErrNoJobs", err)
		}
		if !strings.Contains(err.Error(), "in") {
			t.Errorf("error %q does not name the directory", err)
		}
		if engine.started != 0 {
			t.Error("engine started despite the empty listing")
		}
	})
}

// ---------------------------------------------------------------------------
// TestBuildJobs - Deterministic expansion
// ---------------------------------------------------------------------------

func TestBuildJobs(t *testing.T) {
	t.Parallel()

	size := &Size{Width: 10}
	jobs, err := buildJobs(map[string]string{
		"in/c.svg": "out/c.png",
		"in/a.svg": "out/a.png",
		"in/b.svg": "out/b.png",
	}, size)
	if err != nil {
		t.Fatalf("buildJobs() error = %v", err)
	}

	wantOrder := []string{"in/a.svg", "in/b.svg", "in/c.svg"}
	if len(jobs) != len(wantOrder) {
		t.Fatalf("got %d jobs, want %d", len(jobs), len(wantOrder))
	}
	for i, job := range jobs {
		if job.Source != wantOrder[i] {
			t.Errorf("job %d source = %q, want %q (sorted)", i, job.Source, wantOrder[i])
		}
		if job.Size != size {
			t.Errorf("job %d does not carry the batch size request", i)
		}
	}

	if _, err := buildJobs(nil, nil); !errors.Is(err, ErrNoJobs) {
		t.Errorf("buildJobs(nil) error = %v, want ErrNoJobs", err)
	}
}

// ---------------------------------------------------------------------------
// TestFormatExt - Extension mapping
// ---------------------------------------------------------------------------

func TestFormatExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{FormatPNG, ".png"},
		{FormatJPEG, ".jpg"},
		{FormatWebP, ".webp"},
	}

	for _, tt := range tests {
		if got := FormatExt(tt.format); got != tt.want {
			t.Errorf("FormatExt(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}
