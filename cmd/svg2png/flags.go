package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// sizeFlags holds raster dimension flags.
type sizeFlags struct {
	width  int
	height int
	scale  float64
}

// rasterFlags holds output encoding flags.
type rasterFlags struct {
	format string
	verify bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common  commonFlags
	output  string
	workers int
	timeout string
	size    sizeFlags
	raster  rasterFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress")
}

// addSizeFlags adds raster dimension flags to a FlagSet.
func addSizeFlags(fs *flag.FlagSet, f *sizeFlags) {
	fs.IntVar(&f.width, "width", 0, "output width in pixels (0 = natural size)")
	fs.IntVar(&f.height, "height", 0, "output height in pixels (0 = natural size)")
	fs.Float64Var(&f.scale, "scale", 0, "scale factor applied to resolved size (0 = 1.0)")
}

// addRasterFlags adds output encoding flags to a FlagSet.
func addRasterFlags(fs *flag.FlagSet, f *rasterFlags) {
	fs.StringVarP(&f.format, "format", "f", "", "output format: png, jpeg, webp")
	fs.BoolVar(&f.verify, "verify", false, "decode outputs after writing")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent conversions (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "batch timeout (e.g., 30s, 2m)")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addSizeFlags(fs, &f.size)
	addRasterFlags(fs, &f.raster)

	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
