// Package svg2png converts batches of SVG files to raster images using
// headless Chrome.
//
// # Quick Start
//
// Create a service and convert a mapping of sources to destinations:
//
//	svc := svg2png.New()
//
//	written, err := svc.ConvertFiles(ctx, map[string]string{
//	    "logo.svg":   "out/logo.png",
//	    "banner.svg": "out/banner.png",
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// ConvertDir converts every SVG directly inside a directory, mapping
// each file to the same stem in the destination directory:
//
//	written, err := svc.ConvertDir(ctx, "icons", "out", nil)
//
// # Batch Semantics
//
// Each batch starts one browser and opens at most Concurrency pages at
// a time (default 20). Jobs settle independently: a failing file never
// cancels the others. The batch succeeds only if every job succeeds; on
// any failure the returned error joins the failed jobs' errors, while
// outputs written by succeeding jobs remain on disk.
//
// # Sizing
//
// Without a size request, each SVG renders at its intrinsic size: its
// declared width/height attributes, or dimensions derived from its
// viewBox when a declaration is missing or percentage-valued. A size
// request overrides this per dimension; requesting only one dimension
// derives the other from the document's aspect ratio:
//
//	written, err := svc.ConvertFiles(ctx, files, &svg2png.ConvertOptions{
//	    Size:  &svg2png.Size{Width: 512},
//	    Scale: 2,
//	})
//
// # Output Formats
//
// PNG is the default; JPEG and WebP are also supported:
//
//	written, err := svc.ConvertDir(ctx, "in", "out", &svg2png.ConvertOptions{
//	    Format: svg2png.FormatWebP,
//	})
//
// # Browser Requirements
//
// Rendering requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, use ROD_BROWSER_BIN to point at a
// pre-installed Chrome binary; the sandbox is disabled automatically
// when ROD_BROWSER_BIN or CI=true is set.
package svg2png
