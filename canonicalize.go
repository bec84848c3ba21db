package polycubes

import "slices"

// canonicalRotation finds, among the 24 proper rotations of shape/raw, the
// lexicographically maximal sorted result (spec §3: canonical form is the
// greatest valid rotation, not the least, despite what the original source's
// `lowestHashCube` naming suggests). rotated and winner are scratch buffers
// the same length as raw; winner holds the result on return. It reports
// false only if no rotation is valid, which cannot happen: the table holds
// every axis permutation, so at least one rotation sorts any shape's
// dimensions (the identity, index 0, is valid only when shape is already
// sorted).
func canonicalRotation(shape Shape, raw, rotated, winner []Coordinate) (Shape, bool) {
	var winningShape Shape
	haveWinner := false
	for i := 0; i < NumRotations; i++ {
		outShape, ok := Rotate(i, shape, raw, rotated)
		if !ok {
			continue
		}
		slices.SortFunc(rotated, compareCoordinate)
		if !haveWinner || compareCoordSequences(winner, rotated) < 0 {
			haveWinner = true
			copy(winner, rotated)
			winningShape = outShape
		}
	}
	return winningShape, haveWinner
}

// Canonicalize translates p to the nonnegative origin, then returns the
// lexicographically maximal sorted form among all 24 proper rotations along
// with the bounding-box shape it lands in. This is the canonicalization step
// spec §3/§4.3 names: Hashy only ever stores what this returns, and applying
// it twice or to any rotation of the same polycube yields the same result.
//
// expandSeed calls the same canonicalRotation helper with reused
// per-candidate buffers rather than calling Canonicalize directly, and does
// its own translation, since it already knows its candidates are translated
// to the origin up to at most one negative axis; Canonicalize is the general
// entry point for callers that don't.
func Canonicalize(p Polycube) (Polycube, Shape) {
	coords := p.Coordinates()
	n := len(coords)
	if n == 0 {
		return p, Shape{}
	}

	minX, minY, minZ := coords[0].X, coords[0].Y, coords[0].Z
	for _, c := range coords[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Z < minZ {
			minZ = c.Z
		}
	}

	raw := make([]Coordinate, n)
	var shape Shape
	for i, c := range coords {
		shifted := Coordinate{X: c.X - minX, Y: c.Y - minY, Z: c.Z - minZ}
		raw[i] = shifted
		if shifted.X > shape.X {
			shape.X = shifted.X
		}
		if shifted.Y > shape.Y {
			shape.Y = shifted.Y
		}
		if shifted.Z > shape.Z {
			shape.Z = shifted.Z
		}
	}

	rotated := make([]Coordinate, n)
	winner := make([]Coordinate, n)
	winningShape, _ := canonicalRotation(shape, raw, rotated, winner)
	return NewPolycube(winner), winningShape
}
