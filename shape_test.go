package polycubes

import (
	"reflect"
	"testing"
)

func TestGenerateShapes(t *testing.T) {
	tests := []struct {
		n    int
		want []Shape
	}{
		{0, nil},
		{1, []Shape{{0, 0, 0}}},
		{2, []Shape{{0, 0, 1}}},
		{3, []Shape{{0, 0, 2}, {0, 1, 1}}},
	}
	for _, tt := range tests {
		got := GenerateShapes(tt.n)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("GenerateShapes(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestGenerateShapesSortedDimensions(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for _, s := range GenerateShapes(n) {
			if !(s.X <= s.Y && s.Y <= s.Z) {
				t.Errorf("GenerateShapes(%d) produced non-sorted shape %v", n, s)
			}
			vol := int(s.X+1) * int(s.Y+1) * int(s.Z+1)
			if vol < n {
				t.Errorf("GenerateShapes(%d) produced shape %v with volume %d < n", n, s, vol)
			}
		}
	}
}

func TestGenerateShapesAscendingPackedOrder(t *testing.T) {
	for n := 1; n <= 12; n++ {
		shapes := GenerateShapes(n)
		for i := 1; i < len(shapes); i++ {
			if !shapes[i-1].Less(shapes[i]) {
				t.Errorf("GenerateShapes(%d) not ascending at index %d: %v then %v", n, i, shapes[i-1], shapes[i])
			}
		}
	}
}
