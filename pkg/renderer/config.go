package renderer

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when render options are out of range
var ErrInvalidConfig = errors.New("invalid render config")

// ErrInterrupted is returned with a partial frame when the context ends
// before every tile was rendered
var ErrInterrupted = errors.New("render interrupted")

// MaxResolution is the largest accepted image width or height
const MaxResolution = 8192

// Config contains the options of a single render
type Config struct {
	Width           int
	Height          int
	SamplesPerPixel int     // jittered camera rays per pixel
	MaxDepth        int     // deepest reflection or refraction bounce; primary rays are depth 0
	NumWorkers      int     // parallel tile workers (0 = use CPU count)
	TileSize        int     // edge length of the square tiles handed to workers
	Gamma           float64 // applied when converting to 8-bit color
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:           500,
		Height:          500,
		SamplesPerPixel: 16,
		MaxDepth:        5,
		NumWorkers:      0,
		TileSize:        32,
		Gamma:           1.0,
	}
}

// PreviewConfig returns a quick single-sample, single-bounce configuration
func PreviewConfig() Config {
	cfg := DefaultConfig()
	cfg.SamplesPerPixel = 1
	cfg.MaxDepth = 1
	return cfg
}

// Validate reports the first out-of-range option
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: resolution %dx%d must be positive", ErrInvalidConfig, c.Width, c.Height)
	case c.Width > MaxResolution || c.Height > MaxResolution:
		return fmt.Errorf("%w: resolution %dx%d exceeds %d", ErrInvalidConfig, c.Width, c.Height, MaxResolution)
	case c.SamplesPerPixel <= 0:
		return fmt.Errorf("%w: samples per pixel %d must be positive", ErrInvalidConfig, c.SamplesPerPixel)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max depth %d must not be negative", ErrInvalidConfig, c.MaxDepth)
	case c.NumWorkers < 0:
		return fmt.Errorf("%w: worker count %d must not be negative", ErrInvalidConfig, c.NumWorkers)
	case c.TileSize < 0:
		return fmt.Errorf("%w: tile size %d must not be negative", ErrInvalidConfig, c.TileSize)
	case c.Gamma < 0:
		return fmt.Errorf("%w: gamma %.3f must not be negative", ErrInvalidConfig, c.Gamma)
	}
	return nil
}
