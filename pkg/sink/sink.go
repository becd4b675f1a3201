// Package sink defines the downstream path consumer interface and a
// concurrency-safe in-memory implementation suitable for tests and the
// compute command.
package sink

import (
	"fmt"
	"sync"

	"github.com/opennoise/raypath/pkg/rpath"
)

// Sink is the mutable boundary between the pathfinder core and whatever
// aggregates or persists propagation paths. It must be safe for
// concurrent AddPropagationPaths calls from multiple scheduler workers.
type Sink interface {
	AddPropagationPaths(srcID string, li float64, rcvID string, paths []rpath.PropagationPath) ([]float64, error)
	FinalizeReceiver(rcvID string) error
	SubProcess(startIdx, endIdx int) Sink
}

type receiverResult struct {
	levels    []float64
	finalized bool
}

// MemorySink accumulates propagation paths and per-band levels in memory.
// A single mutex guards the shared map, mirroring the pack's
// mutex-guarded-cache shape rather than a lock-free structure, since
// contention here is receiver-grained and infrequent compared to path
// construction itself.
type MemorySink struct {
	mu        sync.Mutex
	bandCount int
	results   map[string]*receiverResult
	order     []string
}

// NewMemorySink creates an empty sink sized for bandCount frequency bands.
func NewMemorySink(bandCount int) *MemorySink {
	return &MemorySink{bandCount: bandCount, results: make(map[string]*receiverResult)}
}

// AddPropagationPaths folds paths into rcvID's running per-band levels and
// returns the updated totals. The band-level acoustic computation
// (distance attenuation, absorption, diffraction loss) is a downstream
// concern; here each accepted path contributes its li weight to every
// band so the aggregation bookkeeping itself is exercised.
func (s *MemorySink) AddPropagationPaths(srcID string, li float64, rcvID string, paths []rpath.PropagationPath) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[rcvID]
	if !ok {
		r = &receiverResult{levels: make([]float64, s.bandCount)}
		s.results[rcvID] = r
		s.order = append(s.order, rcvID)
	}
	if r.finalized {
		return nil, fmt.Errorf("sink: receiver %q already finalized", rcvID)
	}

	for range paths {
		for b := range r.levels {
			r.levels[b] += li
		}
	}
	out := make([]float64, len(r.levels))
	copy(out, r.levels)
	return out, nil
}

// FinalizeReceiver marks rcvID as done; further AddPropagationPaths calls
// for it return an error.
func (s *MemorySink) FinalizeReceiver(rcvID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[rcvID]
	if !ok {
		return fmt.Errorf("sink: finalize on unknown receiver %q", rcvID)
	}
	r.finalized = true
	return nil
}

// SubProcess returns a handle scoped to one scheduler batch. The handle
// forwards every call to the shared MemorySink, which does its own
// locking, so the batch range itself needs no separate synchronization.
func (s *MemorySink) SubProcess(startIdx, endIdx int) Sink {
	return &batchSink{parent: s, startIdx: startIdx, endIdx: endIdx}
}

// Results returns the current per-receiver band levels, keyed by receiver
// id, as a snapshot copy.
func (s *MemorySink) Results() map[string][]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]float64, len(s.results))
	for id, r := range s.results {
		levels := make([]float64, len(r.levels))
		copy(levels, r.levels)
		out[id] = levels
	}
	return out
}

type batchSink struct {
	parent   *MemorySink
	startIdx int
	endIdx   int
}

func (b *batchSink) AddPropagationPaths(srcID string, li float64, rcvID string, paths []rpath.PropagationPath) ([]float64, error) {
	return b.parent.AddPropagationPaths(srcID, li, rcvID, paths)
}

func (b *batchSink) FinalizeReceiver(rcvID string) error {
	return b.parent.FinalizeReceiver(rcvID)
}

func (b *batchSink) SubProcess(startIdx, endIdx int) Sink {
	return &batchSink{parent: b.parent, startIdx: startIdx, endIdx: endIdx}
}

var (
	_ Sink = (*MemorySink)(nil)
	_ Sink = (*batchSink)(nil)
)
