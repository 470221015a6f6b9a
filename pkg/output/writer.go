// Package output encodes rendered frames to image files.
package output

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

// ErrUnsupportedFormat is returned for file extensions without an encoder
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format names an image encoding
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// FormatFor picks the encoding from a file name's extension
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	}
	return "", fmt.Errorf("%w: %q (use .png, .bmp or .tiff)", ErrUnsupportedFormat, filepath.Ext(path))
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Options controls how a frame is turned into an image file
type Options struct {
	// Gamma applied before quantizing to 8 bits; 0 means no correction
	Gamma float64
	// Width and Height of the written image. When both are set and differ
	// from the frame size the frame is resampled with a bilinear filter,
	// which turns a supersampled render into an antialiased image.
	Width, Height int
}

// Image converts the frame into an 8 bit image, resampling it when opts asks
// for a different size
func Image(fb *renderer.FrameBuffer, opts Options) image.Image {
	img := fb.ToRGBA(opts.Gamma)
	if opts.Width <= 0 || opts.Height <= 0 || (opts.Width == fb.Width && opts.Height == fb.Height) {
		return img
	}
	return resize.Resize(uint(opts.Width), uint(opts.Height), img, resize.Bilinear)
}

// WriteImage saves the frame with 8 bits per channel, creating parent
// directories as needed
func WriteImage(path string, fb *renderer.FrameBuffer, opts Options) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(f, Image(fb, opts), format); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
