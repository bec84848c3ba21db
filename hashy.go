package polycubes

import (
	"sync"

	perrors "github.com/tamirms/polycubes/errors"
)

// NumSubBuckets is K, the number of hash-sharded sub-buckets under each
// shape bucket. 8 is the reference value used throughout the source this
// design is ported from.
const NumSubBuckets = 8

// Hashy is the shape-sharded, concurrency-safe set of canonical polycubes.
// The top-level mapping is keyed by bounding-box shape; each shape's bucket
// is split into NumSubBuckets sub-buckets by polycube hash, so concurrent
// inserts that land in distinct sub-buckets never block each other.
//
// Init must run to completion, single-threaded, before any concurrent
// Insert/Size call: it is the only place shapes and their bucket slots are
// created, and every subsequent read of h.shapes/h.index/h.buckets is a
// plain map/slice read with no synchronization of its own.
type Hashy struct {
	n       int
	shapes  []Shape
	index   map[Shape]int
	buckets []*shapeBucket
}

type shapeBucket struct {
	shape Shape
	subs  [NumSubBuckets]subBucket
}

type subBucket struct {
	mu  sync.RWMutex
	set map[string]Polycube
}

// NewHashy returns an uninitialized Hashy. Call Init before use.
func NewHashy() *Hashy {
	return &Hashy{}
}

// Init populates byshape with one empty bucket per shape admissible for
// size n.
func (h *Hashy) Init(n int) {
	shapes := GenerateShapes(n)
	buckets := make([]*shapeBucket, len(shapes))
	index := make(map[Shape]int, len(shapes))
	for i, s := range shapes {
		index[s] = i
		b := &shapeBucket{shape: s}
		for k := range b.subs {
			b.subs[k].set = make(map[string]Polycube)
		}
		buckets[i] = b
	}
	h.n = n
	h.shapes = shapes
	h.index = index
	h.buckets = buckets
}

// N returns the polycube size Init was called with.
func (h *Hashy) N() int { return h.n }

// Shapes returns the admissible shapes in the deterministic order
// GenerateShapes produced them. A shape's position here is its shape index,
// stable across a run and across cache files written for this n.
func (h *Hashy) Shapes() []Shape { return h.shapes }

// NumShapes returns the number of shape buckets.
func (h *Hashy) NumShapes() int { return len(h.shapes) }

// ShapeIndex returns s's position in Shapes, or false if s is not
// admissible for this Hashy's n.
func (h *Hashy) ShapeIndex(s Shape) (int, bool) {
	i, ok := h.index[s]
	return i, ok
}

// cubeKey packs a coordinate sequence into a comparable, hashable string for
// use as a Go map key. It is the direct analogue of a std::set<Cube, cmp>
// entry: coordinates are already sorted in canonical form by the time a
// polycube reaches Insert, so equal sequences produce equal keys.
func cubeKey(coords []Coordinate) string {
	buf := make([]byte, len(coords)*3)
	for i, c := range coords {
		buf[i*3] = byte(c.X)
		buf[i*3+1] = byte(c.Y)
		buf[i*3+2] = byte(c.Z)
	}
	return string(buf)
}

// Insert locates the bucket for shape, computes idx = hash(c) mod K, and
// inserts c into that sub-bucket if it is not already present. Inserting
// under a shape that Init never created is a programmer error: it panics
// with ErrUninitializedShape rather than silently dropping the polycube.
func (h *Hashy) Insert(c Polycube, shape Shape) {
	if err := checkSize(c.Size()); err != nil {
		panic(err)
	}
	idx, ok := h.index[shape]
	if !ok {
		panic(perrors.ErrUninitializedShape)
	}
	b := h.buckets[idx]
	sub := &b.subs[c.Hash()%NumSubBuckets]
	key := cubeKey(c.Coordinates())

	sub.mu.Lock()
	if _, exists := sub.set[key]; !exists {
		sub.set[key] = c.Own()
	}
	sub.mu.Unlock()
}

// Size returns the total number of stored polycubes, summed across every
// shape and sub-bucket under shared locks. Callers issuing concurrent
// inserts may observe a recent-but-not-latest total.
func (h *Hashy) Size() uint64 {
	var total uint64
	for _, b := range h.buckets {
		for k := range b.subs {
			b.subs[k].mu.RLock()
			total += uint64(len(b.subs[k].set))
			b.subs[k].mu.RUnlock()
		}
	}
	return total
}

// ShapeSize returns the number of polycubes stored under the shape at index
// shapeIdx.
func (h *Hashy) ShapeSize(shapeIdx int) uint64 {
	b := h.buckets[shapeIdx]
	var total uint64
	for k := range b.subs {
		b.subs[k].mu.RLock()
		total += uint64(len(b.subs[k].set))
		b.subs[k].mu.RUnlock()
	}
	return total
}

// ShapeCubes returns a snapshot slice of every polycube stored under the
// shape at index shapeIdx, in no particular order. Used by the cache writer
// and by FlatCache to flatten a shape's sub-buckets into one contiguous run.
func (h *Hashy) ShapeCubes(shapeIdx int) []Polycube {
	b := h.buckets[shapeIdx]
	out := make([]Polycube, 0, h.ShapeSize(shapeIdx))
	for k := range b.subs {
		b.subs[k].mu.RLock()
		for _, c := range b.subs[k].set {
			out = append(out, c)
		}
		b.subs[k].mu.RUnlock()
	}
	return out
}

// Release drops the contents of shape's sub-buckets, capping peak memory
// after that shape's split-cache file (if any) has been written. The shape
// bucket itself remains initialized: subsequent inserts under it still
// succeed, just starting from empty.
func (h *Hashy) Release(shape Shape) {
	idx, ok := h.index[shape]
	if !ok {
		return
	}
	b := h.buckets[idx]
	for k := range b.subs {
		b.subs[k].mu.Lock()
		b.subs[k].set = make(map[string]Polycube)
		b.subs[k].mu.Unlock()
	}
}
