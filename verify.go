package svg2png

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	// Registers WebP decoding for verification of webp outputs.
	_ "golang.org/x/image/webp"
)

// verifyRaster decodes exported pixel data and checks that its bounds
// match the viewport the document was rendered at.
func verifyRaster(data []byte, width, height int) error {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputVerify, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return fmt.Errorf("%w: output is %dx%d, viewport was %dx%d",
			ErrOutputVerify, bounds.Dx(), bounds.Dy(), width, height)
	}
	return nil
}
