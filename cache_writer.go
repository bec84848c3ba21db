package polycubes

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	perrors "github.com/tamirms/polycubes/errors"
	"github.com/tamirms/polycubes/internal/mapped"
)

// copyTaskThreshold is the minimum cube count in a shape's run before it is
// split into multiple parallel copy tasks; below it, one task handles the
// whole shape.
const copyTaskThreshold = 4096

// copyTaskChunk is the number of cubes each parallel copy task handles once
// a shape's run is split.
const copyTaskChunk = 2048

// SaveCache writes hy's contents to path in the format described in
// cache_format.go: a 24-byte header, a ShapeEntry per admissible shape (in
// ascending shape order), then each shape's cubes as packed 3-byte XYZ
// triples. Copies are dispatched across workers threads, each task owning a
// disjoint byte range. Task boundaries are not page-aligned, so two tasks
// whose ranges adjoin can write to the same page.
//
// On success it also records the file's size and xxHash64 sum in the cache
// manifest in filepath.Dir(path), so a later OpenCache can detect truncation
// or corruption before trusting the mapped bytes.
func SaveCache(hy *Hashy, path string, workers int) error {
	if workers < 1 {
		workers = 1
	}
	shapes := hy.Shapes()
	n := hy.N()

	type shapeRun struct {
		shape  Shape
		cubes  []Polycube
		offset int64
		size   int64
	}
	runs := make([]shapeRun, len(shapes))
	tableSize := int64(cacheHeaderSize) + int64(len(shapes))*shapeEntrySize
	offset := tableSize
	var totalCubes uint64
	for i, s := range shapes {
		cubes := hy.ShapeCubes(i)
		size := int64(len(cubes)) * int64(n) * coordSize
		runs[i] = shapeRun{shape: s, cubes: cubes, offset: offset, size: size}
		offset += size
		totalCubes += uint64(len(cubes))
	}
	totalSize := offset

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrInvalidBaseDir, err)
	}

	mf, err := mapped.Create(path, totalSize)
	if err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWriteFailed, err)
	}
	if err := mf.Truncate(totalSize); err != nil {
		_ = mf.Close()
		return fmt.Errorf("%w: %v", perrors.ErrWriteFailed, err)
	}

	region, err := mapped.Map(mf, 0, totalSize, mapped.ReadWrite)
	if err != nil {
		_ = mf.Close()
		return err
	}
	region.Prefault()

	buf := region.Bytes()
	hdr := CacheHeader{Magic: cacheMagic, N: uint32(n), NumShapes: uint32(len(shapes)), NumPolycubes: totalCubes}
	hdr.encodeTo(buf[0:cacheHeaderSize])
	for i, r := range runs {
		se := shapeEntryFrom(r.shape, uint64(r.offset), uint64(r.size))
		se.encodeTo(buf[cacheHeaderSize+int64(i)*shapeEntrySize:])
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, r := range runs {
		r := r
		if len(r.cubes) == 0 {
			continue
		}
		if len(r.cubes) <= copyTaskThreshold {
			g.Go(func() error { return copyCubes(buf, r.offset, n, r.cubes) })
			continue
		}
		for start := 0; start < len(r.cubes); start += copyTaskChunk {
			end := start + copyTaskChunk
			if end > len(r.cubes) {
				end = len(r.cubes)
			}
			taskOffset := r.offset + int64(start)*int64(n)*coordSize
			chunk := r.cubes[start:end]
			g.Go(func() error { return copyCubes(buf, taskOffset, n, chunk) })
		}
	}
	if err := g.Wait(); err != nil {
		_ = region.Unmap()
		_ = mf.Close()
		return fmt.Errorf("%w: %v", perrors.ErrWriteFailed, err)
	}

	sum := xxhash.Sum64(buf[:totalSize])

	if err := region.FlushSync(); err != nil {
		_ = mf.Close()
		return err
	}
	if err := region.Unmap(); err != nil {
		_ = mf.Close()
		return err
	}
	if err := mf.Truncate(totalSize); err != nil {
		_ = mf.Close()
		return fmt.Errorf("%w: %v", perrors.ErrWriteFailed, err)
	}
	if err := mf.Close(); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWriteFailed, err)
	}

	baseDir := filepath.Dir(path)
	man, err := loadManifest(baseDir)
	if err == nil {
		man.record(filepath.Base(path), totalSize, sum)
		_ = man.save(baseDir)
	}
	return nil
}

// SaveShapeCache writes a single shape's cubes to path as a complete,
// self-contained cache file (header + one ShapeEntry + data), used by the
// split-cache mode to persist and release one target shape at a time
// without materializing the rest of the size's cubes on disk.
func SaveShapeCache(hy *Hashy, shapeIdx int, path string, workers int) error {
	shapes := hy.Shapes()
	if shapeIdx < 0 || shapeIdx >= len(shapes) {
		return perrors.ErrShapeIndexRange
	}
	n := hy.N()
	cubes := hy.ShapeCubes(shapeIdx)
	shape := shapes[shapeIdx]

	tableSize := int64(cacheHeaderSize) + shapeEntrySize
	dataSize := int64(len(cubes)) * int64(n) * coordSize
	totalSize := tableSize + dataSize

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrInvalidBaseDir, err)
	}
	mf, err := mapped.Create(path, totalSize)
	if err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWriteFailed, err)
	}
	if err := mf.Truncate(totalSize); err != nil {
		_ = mf.Close()
		return fmt.Errorf("%w: %v", perrors.ErrWriteFailed, err)
	}
	region, err := mapped.Map(mf, 0, totalSize, mapped.ReadWrite)
	if err != nil {
		_ = mf.Close()
		return err
	}

	buf := region.Bytes()
	hdr := CacheHeader{Magic: cacheMagic, N: uint32(n), NumShapes: 1, NumPolycubes: uint64(len(cubes))}
	hdr.encodeTo(buf[0:cacheHeaderSize])
	se := shapeEntryFrom(shape, uint64(tableSize), uint64(dataSize))
	se.encodeTo(buf[cacheHeaderSize:])
	if err := copyCubes(buf, tableSize, n, cubes); err != nil {
		_ = region.Unmap()
		_ = mf.Close()
		return fmt.Errorf("%w: %v", perrors.ErrWriteFailed, err)
	}

	sum := xxhash.Sum64(buf[:totalSize])
	if err := region.FlushSync(); err != nil {
		_ = mf.Close()
		return err
	}
	if err := region.Unmap(); err != nil {
		_ = mf.Close()
		return err
	}
	if err := mf.Close(); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWriteFailed, err)
	}

	baseDir := filepath.Dir(path)
	if man, err := loadManifest(baseDir); err == nil {
		man.record(filepath.Base(path), totalSize, sum)
		_ = man.save(baseDir)
	}
	return nil
}

// copyCubes writes n-coordinate cubes into buf starting at byte offset off,
// three bytes per coordinate, in the order given.
func copyCubes(buf []byte, off int64, n int, cubes []Polycube) error {
	pos := off
	for _, c := range cubes {
		coords := c.Coordinates()
		if len(coords) != n {
			return fmt.Errorf("%w: cube has %d coordinates, expected %d", perrors.ErrCorruptShapeTable, len(coords), n)
		}
		for _, co := range coords {
			buf[pos] = byte(co.X)
			buf[pos+1] = byte(co.Y)
			buf[pos+2] = byte(co.Z)
			pos += coordSize
		}
	}
	return nil
}
