package polycubes

import "slices"

// expandSeed implements the inner expansion loop (spec §4.3): given a seed
// polycube of size s = N-1 with bounding-box shape seedShape, it builds the
// candidate set of new coordinates the expansion axes in expandDim allow,
// canonicalizes each resulting size-(s+1) polycube under the 24 rotations,
// and inserts the winning (lexicographically maximal) form into hy under
// whichever shape it lands in — which may differ from the outer loop's
// target shape; only the candidate generation depends on the target.
func expandSeed(hy *Hashy, seed Polycube, seedShape Shape, expandDim Shape, notSameShape bool) {
	coords := seed.Coordinates()
	candidates := buildCandidates(coords, seedShape, expandDim, notSameShape)
	if len(candidates) == 0 {
		return
	}

	newSize := len(coords) + 1
	raw := make([]Coordinate, newSize)
	rotated := make([]Coordinate, newSize)
	winner := make([]Coordinate, newSize)

	for _, p := range candidates {
		var ax, ay, az int8
		if p.X < 0 {
			ax = 1
		}
		if p.Y < 0 {
			ay = 1
		}
		if p.Z < 0 {
			az = 1
		}

		first := Coordinate{X: p.X + ax, Y: p.Y + ay, Z: p.Z + az}
		raw[0] = first
		shape := first
		for i, np := range coords {
			shifted := Coordinate{X: np.X + ax, Y: np.Y + ay, Z: np.Z + az}
			raw[i+1] = shifted
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

		winningShape, haveWinner := canonicalRotation(shape, raw, rotated, winner)
		if haveWinner {
			hy.Insert(NewPolycube(winner), winningShape)
		}
	}
}

// buildCandidates enumerates step 1 of §4.3: the face-neighbors of coords
// eligible under expandDim/notSameShape, deduplicated and with anything
// already in coords removed. coords must already be sorted in packed-key
// order (true of any canonical seed).
func buildCandidates(coords []Coordinate, shape Shape, expandDim Shape, notSameShape bool) []Coordinate {
	cand := make([]Coordinate, 0, len(coords)*6)
	if notSameShape {
		for _, p := range coords {
			if expandDim.X == 1 {
				if p.X == shape.X {
					cand = append(cand, Coordinate{p.X + 1, p.Y, p.Z})
				}
				if p.X == 0 {
					cand = append(cand, Coordinate{p.X - 1, p.Y, p.Z})
				}
			}
			if expandDim.Y == 1 {
				if p.Y == shape.Y {
					cand = append(cand, Coordinate{p.X, p.Y + 1, p.Z})
				}
				if p.Y == 0 {
					cand = append(cand, Coordinate{p.X, p.Y - 1, p.Z})
				}
			}
			if expandDim.Z == 1 {
				if p.Z == shape.Z {
					cand = append(cand, Coordinate{p.X, p.Y, p.Z + 1})
				}
				if p.Z == 0 {
					cand = append(cand, Coordinate{p.X, p.Y, p.Z - 1})
				}
			}
		}
	} else {
		for _, p := range coords {
			if p.X < shape.X {
				cand = append(cand, Coordinate{p.X + 1, p.Y, p.Z})
			}
			if p.X > 0 {
				cand = append(cand, Coordinate{p.X - 1, p.Y, p.Z})
			}
			if p.Y < shape.Y {
				cand = append(cand, Coordinate{p.X, p.Y + 1, p.Z})
			}
			if p.Y > 0 {
				cand = append(cand, Coordinate{p.X, p.Y - 1, p.Z})
			}
			if p.Z < shape.Z {
				cand = append(cand, Coordinate{p.X, p.Y, p.Z + 1})
			}
			if p.Z > 0 {
				cand = append(cand, Coordinate{p.X, p.Y, p.Z - 1})
			}
		}
	}

	slices.SortFunc(cand, compareCoordinate)
	cand = slices.CompactFunc(cand, func(a, b Coordinate) bool { return a == b })

	result := make([]Coordinate, 0, len(cand))
	ci := 0
	for _, c := range cand {
		for ci < len(coords) && coords[ci].Less(c) {
			ci++
		}
		if ci < len(coords) && coords[ci] == c {
			continue
		}
		result = append(result, c)
	}
	return result
}
