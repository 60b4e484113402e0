//go:build integration

package svg2png

// Notes:
// - Integration tests drive a real headless Chrome; rod downloads a
//   browser on first run when none is installed
// - Set ROD_BROWSER_BIN to use a pre-installed browser, ROD_NO_SANDBOX=1
//   inside containers
// - Each batch launches its own browser, so tests group conversions into
//   few batches instead of one batch per assertion

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

// integrationTimeout bounds one batch, including a possible browser
// download on the first run.
const integrationTimeout = 2 * time.Minute

// writeSVGFile drops an SVG fixture into dir and returns its path.
func writeSVGFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

// decodeBounds opens a written output and returns its pixel size.
func decodeBounds(t *testing.T, path string) (width, height int) {
	t.Helper()

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}
