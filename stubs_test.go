package svg2png

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Stub collaborators shared across the package tests.

// fakeDoc emulates the in-context size functions against an in-memory
// SVG root, mirroring how the real attributes behave in a document.
type fakeDoc struct {
	width  string  // declared width attribute, "" = absent
	height string  // declared height attribute, "" = absent
	boxW   float64 // viewBox width, 0 = no viewBox
	boxH   float64 // viewBox height, 0 = no viewBox

	evalErr   error  // transport failure returned by every eval
	docErr    string // error marker returned by every eval
	setCalls  int
	sizeCalls int
}

func (d *fakeDoc) eval(js string, args ...any) (json.RawMessage, error) {
	if d.evalErr != nil {
		return nil, d.evalErr
	}
	if d.docErr != "" {
		return mustJSON(map[string]any{"error": d.docErr}), nil
	}
	switch js {
	case setSizeJS:
		d.setCalls++
		return d.setSize(args)
	case intrinsicSizeJS:
		d.sizeCalls++
		return d.intrinsicSize()
	}
	return nil, fmt.Errorf("unexpected script: %.40s", js)
}

func (d *fakeDoc) setSize(args []any) (json.RawMessage, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("setSize: got %d args, want 2", len(args))
	}
	w, wOK := args[0].(float64)
	h, hOK := args[1].(float64)
	if !wOK && !hOK {
		return mustJSON(map[string]any{"width": nil, "height": nil}), nil
	}

	d.width = ""
	if wOK {
		d.width = fmt.Sprintf("%vpx", w)
	}
	d.height = ""
	if hOK {
		d.height = fmt.Sprintf("%vpx", h)
	}

	result := map[string]any{"width": nil, "height": nil}
	if wOK {
		result["width"] = w
	}
	if hOK {
		result["height"] = h
	}
	return mustJSON(result), nil
}

func (d *fakeDoc) intrinsicSize() (json.RawMessage, error) {
	w := parseDeclared(d.width)
	h := parseDeclared(d.height)
	switch {
	case w != nil && h != nil:
		return mustJSON(map[string]any{"width": *w, "height": *h}), nil
	case w != nil && d.boxW > 0 && d.boxH > 0:
		return mustJSON(map[string]any{"width": *w, "height": *w * d.boxH / d.boxW}), nil
	case h != nil && d.boxW > 0 && d.boxH > 0:
		return mustJSON(map[string]any{"width": *h * d.boxW / d.boxH, "height": *h}), nil
	case d.boxW > 0 && d.boxH > 0:
		return mustJSON(map[string]any{"width": d.boxW, "height": d.boxH}), nil
	}
	return json.RawMessage("null"), nil
}

// parseDeclared mimics parseFloat on an attribute value, including the
// percentage rule: a trailing "%" makes the declaration unusable.
func parseDeclared(value string) *float64 {
	if value == "" || strings.HasSuffix(strings.TrimSpace(value), "%") {
		return nil
	}
	i := 0
	for i < len(value) && (value[i] == '.' || value[i] == '-' || (value[i] >= '0' && value[i] <= '9')) {
		i++
	}
	n, err := strconv.ParseFloat(value[:i], 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// stubContext is a scripted RenderContext backed by a fakeDoc.
type stubContext struct {
	doc fakeDoc

	openStatus string        // status returned by Open; "" means LoadStatusOK
	openErr    error         // transport failure returned by Open
	openGate   chan struct{} // when set, Open blocks until the channel closes
	onOpen     func()        // runs on entry to Open, before any gate wait
	exportData []byte        // bytes Export encodes; nil means a small default
	exportErr  error
	exportRaw  string // returned verbatim by Export when set
	onClose    func()

	mu        sync.Mutex
	opened    []byte
	viewportW int
	viewportH int
	exported  bool
	closed    bool
}

func (c *stubContext) Open(_ context.Context, content []byte) (string, error) {
	c.mu.Lock()
	c.opened = content
	c.mu.Unlock()

	if c.onOpen != nil {
		c.onOpen()
	}
	if c.openGate != nil {
		<-c.openGate
	}
	if c.openErr != nil {
		return "", c.openErr
	}
	if c.openStatus != "" {
		return c.openStatus, nil
	}
	return LoadStatusOK, nil
}

func (c *stubContext) Eval(_ context.Context, js string, args ...any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.eval(js, args...)
}

func (c *stubContext) SetViewport(_ context.Context, width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewportW, c.viewportH = width, height
	return nil
}

func (c *stubContext) Viewport() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewportW, c.viewportH
}

func (c *stubContext) Export(_ context.Context, format string) (string, error) {
	c.mu.Lock()
	c.exported = true
	c.mu.Unlock()

	if c.exportErr != nil {
		return "", c.exportErr
	}
	if c.exportRaw != "" {
		return c.exportRaw, nil
	}
	data := c.exportData
	if data == nil {
		data = []byte("raster:" + format)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (c *stubContext) Close() error {
	c.mu.Lock()
	already := c.closed
	c.closed = true
	c.mu.Unlock()

	if !already && c.onClose != nil {
		c.onClose()
	}
	return nil
}

func (c *stubContext) wasExported() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exported
}

func (c *stubContext) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// stubRenderer hands out contexts and records lifecycle events. The
// makeContext hook customizes per-context behavior; by default every
// context carries a document with a declared 100x100 size.
type stubRenderer struct {
	makeContext func(n int) *stubContext // n is the 1-based creation index
	contextErr  error
	closeErr    error

	mu        sync.Mutex
	contexts  []*stubContext
	active    int
	maxActive int
	closed    bool
}

func (r *stubRenderer) NewContext(_ context.Context) (RenderContext, error) {
	if r.contextErr != nil {
		return nil, r.contextErr
	}

	r.mu.Lock()
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	n := len(r.contexts) + 1
	r.mu.Unlock()

	var c *stubContext
	if r.makeContext != nil {
		c = r.makeContext(n)
	} else {
		c = &stubContext{doc: fakeDoc{width: "100", height: "100"}}
	}
	c.onClose = func() {
		r.mu.Lock()
		r.active--
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.contexts = append(r.contexts, c)
	r.mu.Unlock()
	return c, nil
}

func (r *stubRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return r.closeErr
}

func (r *stubRenderer) activeContexts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *stubRenderer) maxActiveContexts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxActive
}

func (r *stubRenderer) createdContexts() []*stubContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*stubContext(nil), r.contexts...)
}

func (r *stubRenderer) wasClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// stubEngine returns a fixed renderer, or fails to start.
type stubEngine struct {
	startErr error
	renderer *stubRenderer

	mu      sync.Mutex
	started int
}

func (e *stubEngine) Start(_ context.Context) (Renderer, error) {
	e.mu.Lock()
	e.started++
	e.mu.Unlock()

	if e.startErr != nil {
		return nil, e.startErr
	}
	if e.renderer == nil {
		e.renderer = &stubRenderer{}
	}
	return e.renderer, nil
}

// memFS is an in-memory FS collaborator. Concurrent jobs read and write
// through it, so all access is locked.
type memFS struct {
	mu       sync.Mutex
	files    map[string][]byte
	dirs     map[string][]memDirEntry
	readErr  map[string]error
	writeErr map[string]error
	listErr  error
}

func newMemFS() *memFS {
	return &memFS{
		files:    map[string][]byte{},
		dirs:     map[string][]memDirEntry{},
		readErr:  map[string]error{},
		writeErr: map[string]error{},
	}
}

func (m *memFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr[path]; err != nil {
		return nil, err
	}
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *memFS) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr[path]; err != nil {
		return err
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

func (m *memFS) ReadDir(path string) ([]os.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	entries, ok := m.dirs[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	out := make([]os.DirEntry, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out, nil
}

func (m *memFS) written(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	return data, ok
}

// memDirEntry is a minimal os.DirEntry for memFS listings.
type memDirEntry struct {
	name string
	dir  bool
}

func (e memDirEntry) Name() string { return e.name }
func (e memDirEntry) IsDir() bool  { return e.dir }
func (e memDirEntry) Type() os.FileMode {
	if e.dir {
		return os.ModeDir
	}
	return 0
}
func (e memDirEntry) Info() (os.FileInfo, error) { return nil, fs.ErrInvalid }
