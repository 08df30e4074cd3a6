package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Biggyjman/Palette-Optimizer/palettefile"
	"github.com/Biggyjman/Palette-Optimizer/quantize"
	"github.com/disintegration/imaging"
	"github.com/mccutchen/palettor"
	"github.com/urfave/cli/v2"
	"golang.org/x/image/colornames"
)

// parsePercentArg takes a string like "0.5" or "50%" and will return a float
// like 50 or 0.5, depending on the second argument. An empty string returns 0.
//
// If `maxOne` is true, then "50%" will return 0.5. Otherwise it will return 50.
func parsePercentArg(arg string, maxOne bool) (float64, error) {
	if arg == "" {
		return 0, nil
	}
	if strings.HasSuffix(arg, "%") {
		arg = arg[:len(arg)-1]
		f64, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, err
		}
		if maxOne {
			f64 /= 100.0
		}
		return f64, nil
	}
	f64, err := strconv.ParseFloat(arg, 64)
	if !maxOne {
		f64 *= 100.0
	}
	return f64, err
}

// globalFlag returns the value of flag at the top level of the command.
// For example, with the command:
//
//	palopt -i in.png -o out.png simplify -t 90
//
// "in" is a global flag, and "t" is a flag local to the simplify subcommand.
func globalFlag(flag string, c *cli.Context) interface{} {
	ancestor := c.Lineage()[len(c.Lineage())-1]
	if len(ancestor.Args().Slice()) == 0 {
		// When the global context calls this func, the last in the lineage
		// has no args for some reason. So return the second-last instead.
		return c.Lineage()[len(c.Lineage())-2].Value(flag)
	}
	return ancestor.Value(flag)
}

// parseArgs takes arguments and splits them using the provided split characters.
func parseArgs(args []string, splitRunes string) []string {
	finalArgs := make([]string, 0)
	for _, arg := range args {
		finalArgs = append(finalArgs, strings.FieldsFunc(arg, func(c rune) bool {
			for _, c2 := range splitRunes {
				if c == c2 {
					return true
				}
			}
			return false
		})...)
	}
	return finalArgs
}

func hexToColor(hex string) (color.NRGBA, error) {
	// Modified from https://github.com/lucasb-eyer/go-colorful/blob/v1.2.0/colors.go#L333

	hex = strings.TrimPrefix(hex, "#")

	format := "%02x%02x%02x"
	var r, g, b uint8
	n, err := fmt.Sscanf(strings.ToLower(hex), format, &r, &g, &b)
	if err != nil {
		return color.NRGBA{}, err
	}
	if n != 3 {
		return color.NRGBA{}, fmt.Errorf("%s is not a hex color", hex)
	}
	return color.NRGBA{r, g, b, 255}, nil
}

func rgbToColor(s string) (color.NRGBA, error) {
	format := "%d,%d,%d"
	var r, g, b uint8
	n, err := fmt.Sscanf(s, format, &r, &g, &b)
	if err != nil {
		return color.NRGBA{}, err
	}
	if n != 3 {
		return color.NRGBA{}, fmt.Errorf("%s is not an RGB tuple", s)
	}
	return color.NRGBA{r, g, b, 255}, nil
}

// extractInputPalette extracts a 5-color palette from the input image
// using palettor.
func extractInputPalette(c *cli.Context) ([]color.Color, error) {
	inPath := globalFlag("in", c).(string)
	img, err := getInputImage(inPath, c)
	if err != nil {
		return nil, fmt.Errorf("error loading image for palette extraction '%s': %w", inPath, err)
	}

	// Resize: keep palettor.Extract fast. See the palettor CLI source:
	// https://github.com/mccutchen/palettor/blob/3eaed180/cmd/palettor/palettor.go#L57
	thumbnail := imaging.Resize(img, 200, 200, imaging.NearestNeighbor)

	// TODO: make these settings configurable, particularly the number of colors
	// in the palette. That means threading the argument through the CLI.
	palette, err := palettor.Extract(5, 500, thumbnail)
	if err != nil {
		return nil, fmt.Errorf("error extracting image palette: %w", err)
	}

	log.Printf("Extracted palette: %v", palette.Colors())
	return palette.Colors(), nil
}

// parseColors turns the palette argument into a palette with no duplicate
// colors. The argument is either the word "sample", the path of a palette
// file, or a space-separated list of colors.
func parseColors(arg string, c *cli.Context) (quantize.Palette, error) {
	args := parseArgs([]string{arg}, " ")

	if len(args) == 1 {
		if args[0] == "sample" {
			colors, err := extractInputPalette(c)
			if err != nil {
				return nil, err
			}
			return dedupe(quantize.PaletteOf(colors)), nil
		}
		if _, err := os.Stat(args[0]); err == nil {
			pal, err := palettefile.Parse(args[0])
			if err != nil {
				return nil, err
			}
			return dedupe(pal), nil
		}
	}

	colors := make([]color.Color, len(args))

	for i, arg := range args {
		// Try to parse as RGB numbers, then hex, then grayscale, then SVG colors, then fail

		if strings.Count(arg, ",") == 2 {
			rgbColor, err := rgbToColor(arg)
			if err != nil {
				return nil, fmt.Errorf("%s is not a valid RGB tuple. Example: 25,200,150", arg)
			}
			colors[i] = rgbColor
			continue
		}

		hexColor, err := hexToColor(arg)
		if err == nil {
			colors[i] = hexColor
			continue
		}

		n, err := strconv.Atoi(arg)
		if err == nil {
			if n > 255 || n < 0 {
				return nil, fmt.Errorf("single numbers like %d must be in the range 0-255", n)
			}
			colors[i] = color.NRGBA{uint8(n), uint8(n), uint8(n), 255}
			continue
		}

		htmlColor, ok := colornames.Map[strings.ToLower(arg)]
		if ok {
			colors[i] = color.NRGBAModel.Convert(htmlColor).(color.NRGBA)
			continue
		}

		return nil, fmt.Errorf("%s not recognized as an RGB tuple, hex code, number 0-255, SVG color name, or palette file", arg)
	}

	return dedupe(quantize.PaletteOf(colors)), nil
}

// dedupe removes duplicate colors, keeping the first occurrence of each so
// the palette order callers rely on is preserved.
func dedupe(p quantize.Palette) quantize.Palette {
	seen := make(map[quantize.Color]struct{}, len(p))
	out := make(quantize.Palette, 0, len(p))
	for _, c := range p {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// getInputImage takes an input image arg and returns an image that has
// modifications applied.
func getInputImage(arg string, c *cli.Context) (image.Image, error) {
	var img image.Image
	var err error

	if arg == "-" {
		img, err = imaging.Decode(os.Stdin, autoOrientation)
	} else {
		img, err = imaging.Open(arg, autoOrientation)
	}
	if err != nil {
		return nil, err
	}

	if width != 0 || height != 0 {
		// Box sampling is quick and fast, and better then others at downscaling
		// Downscaling will be a much more common use case for pre-quantize scaling
		// then upscaling
		// https://pkg.go.dev/github.com/disintegration/imaging#ResampleFilter
		// https://en.wikipedia.org/wiki/Image_scaling#Box_sampling
		img = imaging.Resize(img, width, height, imaging.Box)
	}

	if grayscale {
		img = imaging.Grayscale(img)
	}
	if saturation != 0 {
		img = imaging.AdjustSaturation(img, saturation)
	}
	if contrast != 0 {
		img = imaging.AdjustContrast(img, contrast)
	}
	if brightness != 0 {
		img = imaging.AdjustBrightness(img, brightness)
	}

	return img, nil
}

// watchRun reports progress every 500ms and cancels the run on Ctrl-C. The
// returned stop function is idempotent; call it once the run has finished.
func watchRun(run *quantize.Run) func() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-interrupt:
				log.Println("Canceling...")
				run.Cancel()
			case <-ticker.C:
				if !quiet {
					percent, processed, total := run.Progress()
					log.Printf("%.1f%% (%d/%d pixels)", percent, processed, total)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(interrupt)
			close(done)
		})
	}
}

// writeImage writes the quantized grid to the output path in the output
// format decided during pre-processing.
func writeImage(grid *quantize.Grid, palette quantize.Palette, c *cli.Context) error {
	outPath := globalFlag("out", c).(string)

	var file io.WriteCloser
	var path string
	var err error

	if outPath == "-" {
		file = os.Stdout
		path = "stdout"
	} else {
		path = outPath
		file, err = os.OpenFile(path, outFileFlags, 0644)
		if err != nil {
			return fmt.Errorf("'%s': %w", path, err)
		}
	}

	if outFormat == "png" {
		err = (&png.Encoder{CompressionLevel: compLevel}).Encode(file, grid.Image())
		if err != nil {
			defer file.Close() // Keep (possibly stdout) open to write error messages then close
			return fmt.Errorf("error writing PNG to '%s': %w", path, err)
		}
		file.Close()
		return nil
	}

	// Output GIF

	if len(palette) > 256 {
		defer file.Close()
		return errors.New("the GIF format only supports 256 colors or less in the palette")
	}

	// The gif package will not change the image if it's *image.Paletted,
	// so the default FloydSteinberg Drawer won't be used. The quantizer
	// just hands over the palette.
	err = gif.Encode(
		file, grid.Paletted(palette),
		&gif.Options{
			NumColors: len(palette),
			Quantizer: &paletteQuantizer{palette.Colors()},
		},
	)
	if err != nil {
		defer file.Close()
		return fmt.Errorf("error writing GIF to '%s': %w", path, err)
	}
	file.Close()
	return nil
}
