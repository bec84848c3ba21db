package polycubes

import "sync"

// chunkSize is the number of seed cubes handed to a worker per dispatch
// (PERF_STEP in the source this is ported from).
const chunkSize = 500

// SeedSource is anything a Workset can pull size-(n-1) seed cubes from: a
// memory-mapped CacheReader, or an in-memory FlatCache built from the
// previous size's Hashy when caching to disk is disabled.
type SeedSource interface {
	N() int
	NumShapes() int
	ShapeCubes(sid int) ShapeRange
}

// Workset is a mutex-guarded cursor over one (target shape, seed shape)
// pair's seed cubes. Workers repeatedly call nextChunk to claim disjoint
// runs of up to chunkSize seeds until the range is exhausted, so the
// (target, seed) barrier only needs to wait for the last chunk to finish.
type Workset struct {
	mu sync.Mutex

	target       Shape
	seed         Shape
	expandDim    Shape
	notSameShape bool

	full   ShapeRange
	cursor int
}

// NewWorkset builds a Workset over source's cubes for seed shape at index
// sid, expanding along expandDim into target.
func NewWorkset(source SeedSource, sid int, target, seed, expandDim Shape, notSameShape bool) *Workset {
	return &Workset{
		target:       target,
		seed:         seed,
		expandDim:    expandDim,
		notSameShape: notSameShape,
		full:         source.ShapeCubes(sid),
	}
}

// nextChunk claims and returns the next run of up to chunkSize seed cubes,
// or ok=false once the range is exhausted.
func (w *Workset) nextChunk() (ShapeRange, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	total := w.full.Len()
	if w.cursor >= total {
		return ShapeRange{}, false
	}
	end := w.cursor + chunkSize
	if end > total {
		end = total
	}
	chunk := w.full.Slice(w.cursor, end)
	w.cursor = end
	return chunk, true
}
