package main

import (
	"errors"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Biggyjman/Palette-Optimizer/palettefile"
	"github.com/Biggyjman/Palette-Optimizer/quantize"
	"github.com/disintegration/imaging"
	"github.com/urfave/cli/v2"
)

const (
	unsupportedFormat string = "'%s' is an unsupported format, only 'png' or 'gif' are accepted"
)

var (
	grayscale bool

	// Range -100,100

	saturation float64
	brightness float64
	contrast   float64

	autoOrientation imaging.DecodeOption

	outFormat string // "png" or "gif"

	compLevel png.CompressionLevel

	outFileFlags int // For os.OpenFile

	width  int
	height int

	quiet bool
)

// preProcess is automatically called by the app before anything else.
// It's run in the global context.
func preProcess(c *cli.Context) error {
	var err error

	saturation, err = parsePercentArg(c.String("saturation"), false)
	if err != nil {
		return fmt.Errorf("saturation: %w", err)
	}
	if saturation <= -100 {
		grayscale = true
		saturation = 0
	}
	brightness, err = parsePercentArg(c.String("brightness"), false)
	if err != nil {
		return fmt.Errorf("brightness: %w", err)
	}
	contrast, err = parsePercentArg(c.String("contrast"), false)
	if err != nil {
		return fmt.Errorf("contrast: %w", err)
	}

	if c.Bool("grayscale") {
		grayscale = true
	}

	autoOrientation = imaging.AutoOrientation(!c.Bool("no-exif-rotation"))

	formatVal := c.String("format")
	if formatVal != "png" && formatVal != "gif" {
		return fmt.Errorf(unsupportedFormat, formatVal)
	}

	// Figure out output format

	outVal := c.String("out")

	if outVal == "-" {
		// Outputting to stdout, so just use whatever the flag is
		outFormat = formatVal
	} else if !c.IsSet("format") {
		// Format wasn't set, so ignore default value of "png"
		// Try to figure out format from output filename
		ext := strings.TrimPrefix(filepath.Ext(outVal), ".")
		if ext == "png" || ext == "gif" {
			// Acceptable extension
			outFormat = ext
		} else if ext == "" {
			// No extension, use default format
			outFormat = "png"
		} else {
			// Unsupported extension and no format flag override
			return fmt.Errorf(unsupportedFormat, ext)
		}
	} else {
		// Format flag was set, so ignore what the file looks like
		outFormat = formatVal
	}

	// Set PNG compression type

	switch c.String("compression") {
	case "default":
		compLevel = png.DefaultCompression
	case "no":
		compLevel = png.NoCompression
	case "speed":
		compLevel = png.BestSpeed
	case "size":
		compLevel = png.BestCompression
	default:
		return fmt.Errorf("invalid compression type '%s'", c.String("compression"))
	}

	if c.Bool("no-overwrite") {
		outFileFlags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	} else {
		outFileFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	// Set here for convenience
	width = int(c.Uint("width"))
	height = int(c.Uint("height"))
	quiet = c.Bool("quiet")

	return nil
}

func simplify(c *cli.Context) error {
	threshold := c.Int("threshold")
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 100 {
		threshold = 100
	}

	inPath := globalFlag("in", c).(string)
	img, err := getInputImage(inPath, c)
	if err != nil {
		return fmt.Errorf("error loading '%s': %w", inPath, err)
	}
	grid := quantize.GridFromImage(img)

	run := quantize.NewRun()
	stop := watchRun(run)
	defer stop()

	var outcome <-chan quantize.SimplifyResult
	if c.IsSet("seed") {
		outcome = quantize.StartSimplifySeeded(run, grid, threshold, c.Int64("seed"))
	} else {
		outcome = quantize.StartSimplify(run, grid, threshold)
	}
	result := <-outcome
	stop()

	if errors.Is(result.Err, quantize.ErrCanceled) {
		log.Println("Canceled, no output written")
		return nil
	}
	if result.Err != nil {
		return result.Err
	}

	if !quiet {
		log.Printf("Simplified to %d colors", len(result.Palette))
	}

	if path := c.String("save-palette"); path != "" {
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			// Saving into a directory: name the file after the input image
			name := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
			path = filepath.Join(path, palettefile.Slugify(name)+".json")
		}
		err = palettefile.Save(path, result.Palette)
		if err != nil {
			return fmt.Errorf("error saving palette to '%s': %w", path, err)
		}
	}

	return writeImage(grid, result.Palette, c)
}

func apply(c *cli.Context) error {
	palette, err := parseColors(c.String("palette"), c)
	if err != nil {
		return fmt.Errorf("palette: %w", err)
	}

	inPath := globalFlag("in", c).(string)
	img, err := getInputImage(inPath, c)
	if err != nil {
		return fmt.Errorf("error loading '%s': %w", inPath, err)
	}
	grid := quantize.GridFromImage(img)

	run := quantize.NewRun()
	stop := watchRun(run)
	defer stop()

	err = <-quantize.StartApply(run, grid, palette)
	stop()

	if errors.Is(err, quantize.ErrCanceled) {
		log.Println("Canceled, no output written")
		return nil
	}
	if err != nil {
		return err
	}

	return writeImage(grid, palette, c)
}
