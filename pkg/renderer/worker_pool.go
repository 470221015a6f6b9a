package renderer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TileFunc renders one tile. It is called from several goroutines at once,
// never twice for the same tile.
type TileFunc func(tile *Tile) error

// WorkerPool manages parallel tile rendering
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// Run feeds the tiles to the workers in order and waits for them to finish.
// Once ctx is done no further tile is started; tiles already in progress
// complete. The first error returned by render, or the context error, is
// returned.
func (wp *WorkerPool) Run(ctx context.Context, tiles []*Tile, render TileFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	taskQueue := make(chan *Tile)

	g.Go(func() error {
		defer close(taskQueue)
		for _, tile := range tiles {
			select {
			case taskQueue <- tile:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < min(wp.numWorkers, max(len(tiles), 1)); i++ {
		g.Go(func() error {
			for tile := range taskQueue {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := render(tile); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}
