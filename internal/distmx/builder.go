package distmx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"walkroute/internal/metrics"
	"walkroute/internal/model"
)

// ErrMatrixUnavailable means the matrix could not be completed even through
// the degraded per-row path. It is fatal for the request; a partial matrix
// is never returned.
var ErrMatrixUnavailable = errors.New("distmx: distance matrix unavailable")

// maxRowWorkers bounds concurrency of the degraded per-row fetches.
const maxRowWorkers = 4

// Builder assembles the full directed cost matrix for a stop sequence.
type Builder struct {
	OSRM *OSRM
}

// Build returns the N×N matrix for coords. It tries one bulk table call
// first and falls back to per-row requests when the bulk call fails.
func (b *Builder) Build(ctx context.Context, coords []model.Coordinate) (model.DistanceMatrix, error) {
	n := len(coords)
	if n == 0 {
		return model.DistanceMatrix{}, nil
	}

	m, err := b.OSRM.Table(ctx, coords)
	if err == nil {
		err = checkDims(m, n)
	}
	if err == nil {
		metrics.MatrixBuilds.WithLabelValues("bulk", "ok").Inc()
		return m, nil
	}
	log.Printf("distmx: bulk table failed, fetching per row: %v", err)
	metrics.MatrixBuilds.WithLabelValues("bulk", "failed").Inc()

	m, err = b.buildRows(ctx, coords)
	if err != nil {
		metrics.MatrixBuilds.WithLabelValues("degraded", "failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrMatrixUnavailable, err)
	}
	metrics.MatrixBuilds.WithLabelValues("degraded", "ok").Inc()
	return m, nil
}

// buildRows fetches one source row per stop with bounded concurrency and
// assembles them in order. Any row failing fails the whole build.
func (b *Builder) buildRows(ctx context.Context, coords []model.Coordinate) (model.DistanceMatrix, error) {
	n := len(coords)
	rows := make(model.DistanceMatrix, n)

	workers := maxRowWorkers
	if n < workers {
		workers = n
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				row, err := b.OSRM.TableRow(ctx, coords, i)
				if err == nil && len(row) != n {
					err = fmt.Errorf("row %d has %d entries, want %d", i, len(row), n)
				}
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				rows[i] = row
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return rows, nil
}

func checkDims(m model.DistanceMatrix, n int) error {
	if len(m) != n {
		return fmt.Errorf("matrix has %d rows, want %d", len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("row %d has %d entries, want %d", i, len(row), n)
		}
	}
	return nil
}
