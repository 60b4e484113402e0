package svg2png

import (
	"context"
	"encoding/json"
)

// LoadStatusOK is the status a render context reports when content
// loaded successfully. Any other status fails the job.
const LoadStatusOK = "success"

// Engine abstracts the rendering engine to allow different backends.
// One engine instance is started per batch and released after every
// job has settled.
type Engine interface {
	Start(ctx context.Context) (Renderer, error)
}

// Renderer is a running engine instance. It hosts the batch's render
// contexts; the scheduler guarantees no more than the configured
// concurrency limit are open at once.
type Renderer interface {
	NewContext(ctx context.Context) (RenderContext, error)
	Close() error
}

// RenderContext wraps one engine page holding a loaded document and an
// output viewport.
//
// Open loads content into the context and reports the engine's load
// status; callers must compare it against LoadStatusOK. Eval runs a
// function inside the document and returns its JSON value; functions
// signal failure through an error field in the result rather than by
// throwing, so callers must inspect the value before using it. Export
// returns base64-encoded pixel data in the named format.
type RenderContext interface {
	Open(ctx context.Context, content []byte) (status string, err error)
	Eval(ctx context.Context, js string, args ...any) (json.RawMessage, error)
	SetViewport(ctx context.Context, width, height int) error
	Viewport() (width, height int)
	Export(ctx context.Context, format string) (string, error)
	Close() error
}
