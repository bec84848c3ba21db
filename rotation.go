package polycubes

// rotationEntry names, for one of the 24 proper rotations of the cube, which
// input axis feeds each output axis (ix,iy,iz, a permutation of 0,1,2) and
// the sign to apply along that axis (sx,sy,sz).
type rotationEntry struct {
	ix, iy, iz int
	sx, sy, sz int8
}

// rotationTable holds the 24 proper rotations of the octahedral group.
// Index 0 is the identity. No reflections appear; this is the full and only
// rotation table the engine ever consults.
var rotationTable = [24]rotationEntry{
	{0, 1, 2, 1, 1, 1},
	{0, 1, 2, -1, -1, 1}, {0, 1, 2, -1, 1, -1}, {0, 1, 2, 1, -1, -1},
	{0, 2, 1, -1, -1, -1}, {0, 2, 1, -1, 1, 1}, {0, 2, 1, 1, -1, 1}, {0, 2, 1, 1, 1, -1},
	{1, 0, 2, -1, -1, -1}, {1, 0, 2, -1, 1, 1}, {1, 0, 2, 1, -1, 1}, {1, 0, 2, 1, 1, -1},
	{1, 2, 0, -1, -1, 1}, {1, 2, 0, -1, 1, -1}, {1, 2, 0, 1, -1, -1}, {1, 2, 0, 1, 1, 1},
	{2, 0, 1, -1, -1, 1}, {2, 0, 1, -1, 1, -1}, {2, 0, 1, 1, -1, -1}, {2, 0, 1, 1, 1, 1},
	{2, 1, 0, -1, -1, -1}, {2, 1, 0, -1, 1, 1}, {2, 1, 0, 1, -1, 1}, {2, 1, 0, 1, 1, -1},
}

// NumRotations is the size of the rotation table (the 24 elements of the
// octahedral group).
const NumRotations = len(rotationTable)

// Rotate applies rotation i to in, given in's bounding-box shape, writing the
// rotated coordinates into out (which must have the same length as in). It
// returns the rotated shape and whether the rotation is valid: valid is false
// iff the rotated shape violates the sorted-dimensions normal form
// (x<=y<=z), in which case out is left untouched.
func Rotate(i int, shape Shape, in []Coordinate, out []Coordinate) (Shape, bool) {
	e := rotationTable[i]
	outShape := Shape{
		X: shape.component(e.ix),
		Y: shape.component(e.iy),
		Z: shape.component(e.iz),
	}
	if outShape.X > outShape.Y || outShape.Y > outShape.Z {
		return outShape, false
	}
	for idx, o := range in {
		var next Coordinate
		if e.sx < 0 {
			next.X = shape.component(e.ix) - o.component(e.ix)
		} else {
			next.X = o.component(e.ix)
		}
		if e.sy < 0 {
			next.Y = shape.component(e.iy) - o.component(e.iy)
		} else {
			next.Y = o.component(e.iy)
		}
		if e.sz < 0 {
			next.Z = shape.component(e.iz) - o.component(e.iz)
		} else {
			next.Z = o.component(e.iz)
		}
		out[idx] = next
	}
	return outShape, true
}
