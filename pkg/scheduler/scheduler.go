// Package scheduler fans receiver processing out across worker
// goroutines: the receiver index range is split into contiguous batches,
// each batch runs sequentially in ascending index order, and workers
// share the scene and sink by reference.
package scheduler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/opennoise/raypath/pkg/sink"
)

// Batch is a contiguous, half-open range [Start, End) of receiver indices
// assigned to one worker.
type Batch struct {
	Start int
	End   int
}

// SplitBatches partitions n receiver indices into up to workers
// contiguous batches, as close to equal size as an integer split allows.
// Mirrors the teacher's index-threading habit in routing.routeNetwork (a
// shared cursor advanced as work is appended) at batch granularity rather
// than per-segment.
func SplitBatches(n, workers int) []Batch {
	if n <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	base := n / workers
	rem := n % workers

	batches := make([]Batch, 0, workers)
	start := 0
	for i := 0; i < workers; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		batches = append(batches, Batch{Start: start, End: start + size})
		start += size
	}
	return batches
}

// ReceiverFunc processes one receiver index using the Sink handle scoped
// to its batch.
type ReceiverFunc func(ctx context.Context, idx int, batchSink sink.Sink) error

// Run fans n receivers out across up to workers goroutines. Each worker
// processes its batch's indices in ascending order and polls ctx at the
// top of every iteration so cancellation takes effect promptly; an error
// from fn or a canceled context stops the whole run once in-flight work
// returns. The scene, its R-trees, and all immutable tables are read-only
// and shared by reference across workers; sk.SubProcess gives each worker
// its own Sink handle so the core itself needs no locks.
func Run(ctx context.Context, n, workers int, sk sink.Sink, fn ReceiverFunc) error {
	batches := SplitBatches(n, workers)
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range batches {
		b := b
		g.Go(func() error {
			batchSink := sk.SubProcess(b.Start, b.End)
			for i := b.Start; i < b.End; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(gctx, i, batchSink); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
