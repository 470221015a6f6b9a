// Package renderer turns a scene into a frame: it splits the image into tiles,
// traces every pixel of a tile on a pool of workers and collects statistics.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/log"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
)

var logger = log.New("renderer")

// Render traces the scene at the configured resolution. Pixels are
// independent: each one is seeded from its coordinates, so the result does
// not depend on the number of workers or on scheduling. A zero or negative
// resolution returns an empty frame. If ctx ends first, the frame rendered
// so far is returned together with ErrInterrupted.
func Render(ctx context.Context, s *scene.Scene, cfg Config) (*FrameBuffer, RenderStats, error) {
	stats := newRenderStats(cfg)
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return NewFrameBuffer(0, 0), stats, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, stats, err
	}

	start := time.Now()
	camera := s.Camera.ForImage(cfg.Width, cfg.Height)
	fb := NewFrameBuffer(cfg.Width, cfg.Height)
	tiles := NewTileGrid(cfg.Width, cfg.Height, cfg.TileSize)
	pool := NewWorkerPool(cfg.NumWorkers)

	stats.TotalTiles = len(tiles)
	stats.Workers = pool.NumWorkers()
	stats.Primitives = s.PrimitiveCount()
	logger.Infof("render %s: scene %q at %dx%d, %d spp, depth %d, %d tiles on %d workers",
		stats.ID, s.Name, cfg.Width, cfg.Height, cfg.SamplesPerPixel, cfg.MaxDepth, len(tiles), pool.NumWorkers())

	var collector statsCollector
	err := pool.Run(ctx, tiles, func(tile *Tile) error {
		rt := NewRaytracer(s, cfg.MaxDepth)
		for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
			for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
				fb.Set(x, y, rt.RenderPixel(camera, x, y, cfg.SamplesPerPixel))
			}
		}
		collector.addTile(tile, rt.drain())
		logger.Debugf("render %s: tile %d/%d done %v", stats.ID, tile.ID+1, len(tiles), tile.Bounds)
		return nil
	})

	collector.finish(&stats)
	stats.Duration = time.Since(start)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Warningf("render %s interrupted after %d of %d tiles", stats.ID, stats.Tiles, stats.TotalTiles)
			return fb, stats, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		return fb, stats, err
	}

	logger.Noticef("render %s finished in %s: %d rays, %d shadow rays", stats.ID, stats.Duration, stats.Rays, stats.ShadowRays)
	return fb, stats, nil
}
