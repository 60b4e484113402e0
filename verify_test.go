package svg2png

// Notes:
// - verifyRaster: tests bounds checking against real encoded images
// - Fixtures are encoded in-process; PNG and JPEG cover both lossless and
//   lossy paths. WebP verification is decode-only (x/image/webp), so its
//   round trip lives in the integration tests.

import (
	"bytes"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func encodeRaster(t *testing.T, format imaging.Format, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	img := imaging.New(width, height, color.NRGBA{R: 52, G: 120, B: 246, A: 255})
	if err := imaging.Encode(&buf, img, format); err != nil {
		t.Fatalf("encoding %dx%d fixture: %v", width, height, err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	return encodeRaster(t, imaging.PNG, width, height)
}

// ---------------------------------------------------------------------------
// TestVerifyRaster - Decoded bounds against the rendered viewport
// ---------------------------------------------------------------------------

func TestVerifyRaster(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		width   int
		height  int
		wantErr bool
	}{
		{
			name:   "png with matching bounds",
			data:   encodeRaster(t, imaging.PNG, 64, 64),
			width:  64,
			height: 64,
		},
		{
			name:   "jpeg with matching bounds",
			data:   encodeRaster(t, imaging.JPEG, 120, 80),
			width:  120,
			height: 80,
		},
		{
			name:    "width mismatch",
			data:    encodeRaster(t, imaging.PNG, 64, 64),
			width:   65,
			height:  64,
			wantErr: true,
		},
		{
			name:    "height mismatch",
			data:    encodeRaster(t, imaging.PNG, 64, 64),
			width:   64,
			height:  63,
			wantErr: true,
		},
		{
			name:    "not an image at all",
			data:    []byte("<svg xmlns=\"http://www.w3.org/2000/svg\"/>"),
			width:   64,
			height:  64,
			wantErr: true,
		},
		{
			name:    "empty data",
			data:    nil,
			width:   1,
			height:  1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := verifyRaster(tt.data, tt.width, tt.height)

			if !tt.wantErr {
				if err != nil {
					t.Errorf("verifyRaster() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrOutputVerify) {
				t.Errorf("verifyRaster() = %v, want ErrOutputVerify", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestVerifyRaster_MismatchMessage - Both sizes appear in the error
// ---------------------------------------------------------------------------

func TestVerifyRaster_MismatchMessage(t *testing.T) {
	t.Parallel()

	err := verifyRaster(encodeRaster(t, imaging.PNG, 10, 20), 30, 40)
	if err == nil {
		t.Fatal("verifyRaster() expected error, got nil")
	}

	msg := err.Error()
	if !strings.Contains(msg, "10x20") || !strings.Contains(msg, "30x40") {
		t.Errorf("error %q should name both the output and viewport sizes", msg)
	}
}
