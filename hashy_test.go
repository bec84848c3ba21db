package polycubes

import (
	"sync"
	"testing"
)

func TestHashyInsertDeduplicates(t *testing.T) {
	hy := NewHashy()
	hy.Init(3)
	shape := Shape{0, 0, 2}
	c := NewPolycube([]Coordinate{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}})

	hy.Insert(c, shape)
	hy.Insert(c, shape)

	if got := hy.Size(); got != 1 {
		t.Errorf("Size() = %d after inserting the same cube twice, want 1", got)
	}
}

func TestHashyInsertConcurrentDeduplicates(t *testing.T) {
	hy := NewHashy()
	hy.Init(3)
	shape := Shape{0, 0, 2}

	const workers = 16
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewPolycube([]Coordinate{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}})
			hy.Insert(c, shape)
		}()
	}
	wg.Wait()

	if got := hy.Size(); got != 1 {
		t.Errorf("Size() = %d after %d concurrent inserts of the same cube, want 1", got, workers)
	}
}

func TestHashyInsertUninitializedShapePanics(t *testing.T) {
	hy := NewHashy()
	hy.Init(2)

	defer func() {
		if recover() == nil {
			t.Error("Insert under a shape Init never created should panic")
		}
	}()
	hy.Insert(NewPolycube([]Coordinate{{0, 0, 0}}), Shape{5, 5, 5})
}

func TestHashyReleaseClearsShapeButKeepsItInsertable(t *testing.T) {
	hy := NewHashy()
	hy.Init(3)
	shape := Shape{0, 0, 2}
	c := NewPolycube([]Coordinate{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}})
	hy.Insert(c, shape)

	hy.Release(shape)
	if got := hy.Size(); got != 0 {
		t.Errorf("Size() = %d after Release, want 0", got)
	}

	hy.Insert(c, shape)
	if got := hy.Size(); got != 1 {
		t.Errorf("Size() = %d after inserting into a released shape, want 1", got)
	}
}

func TestHashyShapeCubesSnapshotsAllSubBuckets(t *testing.T) {
	hy := NewHashy()
	hy.Init(4)
	shape := Shape{0, 0, 3}
	seen := map[string]bool{}
	for x := int8(0); x < 20; x++ {
		c := NewPolycube([]Coordinate{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}, {x, 0, 3}})
		hy.Insert(c, shape)
		seen[cubeKey(c.Coordinates())] = true
	}
	idx, ok := hy.ShapeIndex(shape)
	if !ok {
		t.Fatal("shape unexpectedly not admissible")
	}
	cubes := hy.ShapeCubes(idx)
	if len(cubes) != len(seen) {
		t.Errorf("ShapeCubes returned %d cubes, want %d", len(cubes), len(seen))
	}
}
