package polycubes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	perrors "github.com/tamirms/polycubes/errors"
)

func TestSaveAndOpenCacheRoundTrip(t *testing.T) {
	hy, err := Gen(context.Background(), 6, WithThreads(4))
	if err != nil {
		t.Fatalf("Gen(6) error: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, cacheFileName(6))
	if err := SaveCache(hy, path, 4); err != nil {
		t.Fatalf("SaveCache error: %v", err)
	}

	r, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache error: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.N() != 6 {
		t.Errorf("N() = %d, want 6", r.N())
	}
	if r.NumShapes() != hy.NumShapes() {
		t.Errorf("NumShapes() = %d, want %d", r.NumShapes(), hy.NumShapes())
	}
	if r.NumPolycubes() != hy.Size() {
		t.Errorf("NumPolycubes() = %d, want %d", r.NumPolycubes(), hy.Size())
	}

	for i, shape := range hy.Shapes() {
		want := hy.ShapeCubes(i)
		gotRange := r.ShapeCubes(i)
		if gotRange.Shape() != shape {
			t.Fatalf("shape %d: ShapeCubes().Shape() = %v, want %v", i, gotRange.Shape(), shape)
		}
		if gotRange.Len() != len(want) {
			t.Fatalf("shape %d: got %d cubes, want %d", i, gotRange.Len(), len(want))
		}

		wantSet := make(map[string]bool, len(want))
		for _, c := range want {
			wantSet[cubeKey(c.Coordinates())] = true
		}
		it := gotRange.Iterator()
		count := 0
		for {
			c, ok := it.Next()
			if !ok {
				break
			}
			if !wantSet[cubeKey(c.Coordinates())] {
				t.Errorf("shape %d: cache contains cube %v not present in the source Hashy", i, c.Coordinates())
			}
			count++
		}
		if count != len(want) {
			t.Errorf("shape %d: iterator produced %d cubes, want %d", i, count, len(want))
		}
	}
}

func TestOpenCacheMissingFile(t *testing.T) {
	_, err := OpenCache(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	if err == nil {
		t.Error("OpenCache on a missing file should return an error")
	}
}

func TestOpenCacheRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	buf := make([]byte, cacheHeaderSize)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	if _, err := OpenCache(path); err == nil {
		t.Error("OpenCache on a file with zeroed header should reject bad magic")
	}
}

// writeCorruptCache builds a cache file for size n whose single shape
// entry's byte size is not a multiple of the per-cube record size, which
// OpenCache rejects with ErrCorruptShapeTable (spec §7's CacheCorrupt: fatal).
func writeCorruptCache(t *testing.T, path string, n int) {
	t.Helper()
	shape := GenerateShapes(n)[0]
	const badSize = 5 // not a multiple of n*3 for any n >= 2
	buf := make([]byte, cacheHeaderSize+shapeEntrySize+badSize)
	hdr := CacheHeader{Magic: cacheMagic, N: uint32(n), NumShapes: 1, NumPolycubes: 1}
	hdr.encodeTo(buf[0:cacheHeaderSize])
	se := shapeEntryFrom(shape, uint64(cacheHeaderSize+shapeEntrySize), uint64(badSize))
	se.encodeTo(buf[cacheHeaderSize:])
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
}

func TestOpenCacheRejectsCorruptShapeTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.bin")
	writeCorruptCache(t, path, 3)

	_, err := OpenCache(path)
	if !errors.Is(err, perrors.ErrCorruptShapeTable) {
		t.Errorf("OpenCache on a corrupt shape table = %v, want ErrCorruptShapeTable", err)
	}
}

func TestIsRecoverableCacheErr(t *testing.T) {
	recoverable := []error{perrors.ErrCacheMissing, perrors.ErrInvalidMagic, perrors.ErrTruncatedHeader}
	for _, err := range recoverable {
		if !isRecoverableCacheErr(err) {
			t.Errorf("isRecoverableCacheErr(%v) = false, want true", err)
		}
	}
	fatal := []error{perrors.ErrCorruptShapeTable, perrors.ErrShapeNotAdmissible, perrors.ErrMappingFailed}
	for _, err := range fatal {
		if isRecoverableCacheErr(err) {
			t.Errorf("isRecoverableCacheErr(%v) = true, want false", err)
		}
	}
}

// TestGenPropagatesCorruptCacheInsteadOfFallingBack checks that a corrupt
// seed cache aborts Gen with the underlying error rather than silently
// burning a full recursive re-generation, per spec §7's CacheCorrupt
// propagation policy.
func TestGenPropagatesCorruptCacheInsteadOfFallingBack(t *testing.T) {
	dir := t.TempDir()
	writeCorruptCache(t, filepath.Join(dir, cacheFileName(3)), 3)

	_, err := Gen(context.Background(), 4, WithUseCache(true), WithBaseDir(dir))
	if !errors.Is(err, perrors.ErrCorruptShapeTable) {
		t.Errorf("Gen(4) with a corrupt n=3 cache = %v, want ErrCorruptShapeTable", err)
	}
}

func TestSaveShapeCacheRoundTrip(t *testing.T) {
	hy, err := Gen(context.Background(), 6, WithThreads(4))
	if err != nil {
		t.Fatalf("Gen(6) error: %v", err)
	}

	dir := t.TempDir()
	idx := 0
	shape := hy.Shapes()[idx]
	path := filepath.Join(dir, splitCacheFileName(6, shape))
	if err := SaveShapeCache(hy, idx, path, 2); err != nil {
		t.Fatalf("SaveShapeCache error: %v", err)
	}

	r, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache error: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.NumShapes() != 1 {
		t.Fatalf("NumShapes() = %d, want 1", r.NumShapes())
	}
	if r.ShapeEntries()[0].Shape() != shape {
		t.Errorf("shape = %v, want %v", r.ShapeEntries()[0].Shape(), shape)
	}
	if uint64(r.ShapeCubes(0).Len()) != hy.ShapeSize(idx) {
		t.Errorf("count = %d, want %d", r.ShapeCubes(0).Len(), hy.ShapeSize(idx))
	}
}
