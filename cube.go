package polycubes

import (
	"slices"

	perrors "github.com/tamirms/polycubes/errors"
)

const maxCubeSize = 127

// Polycube is an ordered sequence of coordinates. It carries a dual
// representation: owned, where the value holds its own backing array, and
// borrowed, where it references storage it does not own (a memory-mapped
// cache region). A borrowed Polycube is promoted to owned on first mutation;
// callers never observe the difference through the read-only API.
//
// The canonical form invariants (translated to the origin, rotated to
// sorted-dimensions normal form, sorted in packed-key order, lexicographically
// maximal among the 24 rotations) are established by Canonicalize, not by
// this type itself: Polycube is a plain value, Hashy only ever stores
// canonical ones.
type Polycube struct {
	coords   []Coordinate
	borrowed bool
}

// NewPolycube copies coords into an owned Polycube.
func NewPolycube(coords []Coordinate) Polycube {
	owned := make([]Coordinate, len(coords))
	copy(owned, coords)
	return Polycube{coords: owned}
}

// BorrowPolycube wraps coords without copying. The caller must guarantee
// coords stays valid (and is never mutated by anyone else) for the returned
// value's lifetime — this is how cache-backed reads avoid allocation.
func BorrowPolycube(coords []Coordinate) Polycube {
	return Polycube{coords: coords, borrowed: true}
}

// Size returns the number of coordinates.
func (p Polycube) Size() int { return len(p.coords) }

// Coordinates returns a read-only view of the coordinate sequence. Callers
// must not mutate the returned slice; if it is a borrowed view, doing so
// would corrupt the region it points into.
func (p Polycube) Coordinates() []Coordinate { return p.coords }

// Borrowed reports whether p currently references externally-owned storage.
func (p Polycube) Borrowed() bool { return p.borrowed }

// promote copies borrowed storage into an owned backing array. It is the one
// place mutation becomes safe; every method that mutates coords calls it first.
func (p *Polycube) promote() {
	if !p.borrowed {
		return
	}
	owned := make([]Coordinate, len(p.coords))
	copy(owned, p.coords)
	p.coords = owned
	p.borrowed = false
}

// Own returns an owned copy of p, promoting if necessary. The receiver is
// left untouched.
func (p Polycube) Own() Polycube {
	if !p.borrowed {
		owned := make([]Coordinate, len(p.coords))
		copy(owned, p.coords)
		return Polycube{coords: owned}
	}
	c := p
	c.promote()
	return c
}

// sortInPlace promotes and sorts coordinates into packed-key order.
func (p *Polycube) sortInPlace() {
	p.promote()
	slices.SortFunc(p.coords, compareCoordinate)
}

// translate promotes and shifts every coordinate by d.
func (p *Polycube) translate(d Coordinate) {
	p.promote()
	for i := range p.coords {
		p.coords[i] = p.coords[i].Add(d)
	}
}

// BoundingBox returns the shape (max-x, max-y, max-z) of p, assuming p is
// already translated so its minimum is at the origin.
func (p Polycube) BoundingBox() Shape {
	var s Shape
	for _, c := range p.coords {
		if c.X > s.X {
			s.X = c.X
		}
		if c.Y > s.Y {
			s.Y = c.Y
		}
		if c.Z > s.Z {
			s.Z = c.Z
		}
	}
	return s
}

// Equal reports whether p and o have identical coordinate sequences. This is
// the equality contract for canonical polycubes: identical sequences, not
// rotation-equivalence (canonicalization is what makes that meaningful).
func (p Polycube) Equal(o Polycube) bool {
	if len(p.coords) != len(o.coords) {
		return false
	}
	for i := range p.coords {
		if p.coords[i] != o.coords[i] {
			return false
		}
	}
	return true
}

// Hash combines the per-coordinate hashes in order, seeded with the size,
// using the same FNV-style mix as boost::hash_combine:
//
//	seed ^= h + 0x9e3779b9 + (seed<<6) + (seed>>2)
//
// It is used both as Polycube's identity hash and to route a polycube to one
// of Hashy's K sub-buckets.
func (p Polycube) Hash() uint64 {
	seed := uint64(len(p.coords))
	for _, c := range p.coords {
		h := uint64(c.Hash())
		seed ^= h + 0x9e3779b9 + (seed << 6) + (seed >> 2)
	}
	return seed
}

// Contains reports whether c is present among p's coordinates.
func (p Polycube) Contains(c Coordinate) bool {
	for _, existing := range p.coords {
		if existing == c {
			return true
		}
	}
	return false
}

// checkSize returns ErrCubeTooLarge if n exceeds the maximum polycube size.
// This is the InternalInvariant assertion named in the error kind taxonomy:
// a polycube growing past 127 coordinates is a programmer error, not a
// recoverable condition.
func checkSize(n int) error {
	if n > maxCubeSize {
		return perrors.ErrCubeTooLarge
	}
	return nil
}
