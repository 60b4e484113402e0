package svg2png

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-svg2png/internal/process"
)

// Compile-time interface checks
var (
	_ Engine        = (*rodEngine)(nil)
	_ Renderer      = (*rodBrowser)(nil)
	_ RenderContext = (*rodPage)(nil)
)

// jpegQuality is the compression level passed to the engine for JPEG
// exports.
const jpegQuality = 90

// rodEngine implements Engine using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodEngine struct {
	timeout time.Duration
}

// newRodEngine creates a rodEngine with the given per-operation timeout.
func newRodEngine(timeout time.Duration) *rodEngine {
	return &rodEngine{timeout: timeout}
}

// Start launches a browser and connects to it. The returned Renderer
// owns the browser process; closing it ends the process.
func (e *rodEngine) Start(ctx context.Context) (Renderer, error) {
	// Check context before launching
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Configure launcher
	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching chrome: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to chrome: %w", err)
	}

	return &rodBrowser{browser: browser, launcher: l, timeout: e.timeout}, nil
}

// rodBrowser implements Renderer on a connected browser. Each render
// context is an independent page; pages from the same browser render
// in parallel.
type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// NewContext opens a blank page. Content is loaded separately via Open
// so that page creation and source reading can overlap.
func (b *rodBrowser) NewContext(ctx context.Context) (RenderContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, err
	}
	return &rodPage{page: page, timeout: b.timeout}, nil
}

// Close ends the browser process. Chrome forks renderer and GPU
// helpers that can outlive a crashed parent, so the whole process tree
// is swept after the graceful shutdown.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	if b.launcher != nil {
		b.launcher.Kill()
		process.KillTree(b.launcher.PID())
	}
	return err
}

// rodPage implements RenderContext on one browser page.
// A page is used by a single job at a time, so no locking is needed.
type rodPage struct {
	page    *rod.Page
	timeout time.Duration
	width   int
	height  int
}

// Open navigates the page to the content as a data URI and waits for
// the load to finish. The navigation's error text becomes the status
// for content the engine refuses to load.
func (p *rodPage) Open(ctx context.Context, content []byte) (string, error) {
	page := p.page.Context(ctx).Timeout(p.timeout)

	res, err := proto.PageNavigate{URL: svgDataURI(content)}.Call(page)
	if err != nil {
		return "", err
	}
	if res.ErrorText != "" {
		return res.ErrorText, nil
	}

	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	return LoadStatusOK, nil
}

// Eval runs js inside the page and returns the result as raw JSON.
// js must be a function definition; args are passed as its parameters.
func (p *rodPage) Eval(ctx context.Context, js string, args ...any) (json.RawMessage, error) {
	obj, err := p.page.Context(ctx).Timeout(p.timeout).Eval(js, args...)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(obj.Value)
	if err != nil {
		return nil, fmt.Errorf("encoding evaluation result: %w", err)
	}
	return raw, nil
}

// SetViewport overrides the page's device metrics to the given pixel size.
func (p *rodPage) SetViewport(ctx context.Context, width, height int) error {
	err := p.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return err
	}
	p.width, p.height = width, height
	return nil
}

// Viewport returns the last applied viewport size.
func (p *rodPage) Viewport() (int, int) {
	return p.width, p.height
}

// Export captures the page as base64-encoded pixel data in the given
// format.
func (p *rodPage) Export(ctx context.Context, format string) (string, error) {
	f, err := screenshotFormat(format)
	if err != nil {
		return "", err
	}

	req := &proto.PageCaptureScreenshot{Format: f}
	if f == proto.PageCaptureScreenshotFormatJpeg {
		q := jpegQuality
		req.Quality = &q
	}

	data, err := p.page.Context(ctx).Timeout(p.timeout).Screenshot(false, req)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Close disposes the page.
func (p *rodPage) Close() error {
	return p.page.Close()
}

// screenshotFormat maps a format name to the engine's capture format.
func screenshotFormat(format string) (proto.PageCaptureScreenshotFormat, error) {
	switch format {
	case FormatPNG:
		return proto.PageCaptureScreenshotFormatPng, nil
	case FormatJPEG:
		return proto.PageCaptureScreenshotFormatJpeg, nil
	case FormatWebP:
		return proto.PageCaptureScreenshotFormatWebp, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, format)
}

// svgDataURI encodes content as a data URI the engine can navigate to
// without touching the filesystem.
func svgDataURI(content []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(content)
}
