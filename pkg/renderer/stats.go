package renderer

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	ID              string        // unique id of this render, for correlating logs
	Width           int           // image size
	Height          int
	SamplesPerPixel int           // camera samples taken for each pixel
	TotalPixels     int           // pixels rendered, fewer than Width*Height when interrupted
	TotalSamples    int64         // camera rays
	Rays            int64         // camera, reflection and refraction rays
	ShadowRays      int64         // light visibility and ambient occlusion rays
	Hits            int64         // rays that hit a surface
	Tiles           int           // tiles completed
	TotalTiles      int           // tiles in the image
	Workers         int           // parallel workers used
	Primitives      int           // primitives in the scene BVH
	Duration        time.Duration // wall clock time of the render
}

// statsCollector aggregates per-tile counts from concurrent workers
type statsCollector struct {
	pixels     atomic.Int64
	rays       atomic.Int64
	shadowRays atomic.Int64
	hits       atomic.Int64
	tiles      atomic.Int64
}

func newRenderStats(cfg Config) RenderStats {
	return RenderStats{
		ID:              uuid.NewString(),
		Width:           max(cfg.Width, 0),
		Height:          max(cfg.Height, 0),
		SamplesPerPixel: cfg.SamplesPerPixel,
	}
}

// addTile records a finished tile
func (c *statsCollector) addTile(tile *Tile, t tally) {
	c.pixels.Add(int64(tile.Pixels()))
	c.rays.Add(t.rays)
	c.shadowRays.Add(t.shadowRays)
	c.hits.Add(t.hits)
	c.tiles.Add(1)
}

// finish copies the aggregated counts into stats
func (c *statsCollector) finish(stats *RenderStats) {
	stats.TotalPixels = int(c.pixels.Load())
	stats.TotalSamples = c.pixels.Load() * int64(stats.SamplesPerPixel)
	stats.Rays = c.rays.Load()
	stats.ShadowRays = c.shadowRays.Load()
	stats.Hits = c.hits.Load()
	stats.Tiles = int(c.tiles.Load())
}

// RaysPerSecond returns the traced ray throughput, shadow rays included
func (s RenderStats) RaysPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Rays+s.ShadowRays) / s.Duration.Seconds()
}

// WriteTable prints the statistics as a table
func (s RenderStats) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Statistic", "Value"})
	table.Append([]string{"Render", s.ID})
	table.Append([]string{"Resolution", fmt.Sprintf("%dx%d", s.Width, s.Height)})
	table.Append([]string{"Samples/pixel", fmt.Sprintf("%d", s.SamplesPerPixel)})
	table.Append([]string{"Pixels", fmt.Sprintf("%d", s.TotalPixels)})
	table.Append([]string{"Tiles", fmt.Sprintf("%d / %d", s.Tiles, s.TotalTiles)})
	table.Append([]string{"Workers", fmt.Sprintf("%d", s.Workers)})
	table.Append([]string{"Primitives", fmt.Sprintf("%d", s.Primitives)})
	table.Append([]string{"Rays", fmt.Sprintf("%d", s.Rays)})
	table.Append([]string{"Shadow rays", fmt.Sprintf("%d", s.ShadowRays)})
	table.Append([]string{"Hits", fmt.Sprintf("%d", s.Hits)})
	table.SetFooter([]string{"Render time", fmt.Sprintf("%s (%.0f rays/s)", s.Duration, s.RaysPerSecond())})
	table.Render()
}
