package polycubes

import (
	"path/filepath"
	"unsafe"

	"github.com/cespare/xxhash/v2"

	perrors "github.com/tamirms/polycubes/errors"
	"github.com/tamirms/polycubes/internal/mapped"
)

// CacheReader is a read-only, memory-mapped view over a cache file. Cubes
// returned by ShapeCubes are borrowed views into the mapped bytes: they are
// never copied, and are only valid for the reader's lifetime.
type CacheReader struct {
	file    *mapped.File
	region  *mapped.Region
	header  CacheHeader
	entries []ShapeEntry
}

// OpenCache memory-maps path read-only, validates its header and shape
// table, and cross-checks the file against the cache manifest (if present)
// before returning. Anything short of a well-formed header/shape table is
// reported through the sentinels in the errors package: a missing file,
// bad magic, truncated header, or a size/sum that disagrees with the
// manifest is recoverable (ErrCacheMissing / ErrInvalidMagic /
// ErrTruncatedHeader / ErrManifestStale); a malformed shape table is
// CacheCorrupt (ErrCorruptShapeTable).
func OpenCache(path string) (*CacheReader, error) {
	mf, err := mapped.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	mf.AdviseSequential()
	size := mf.Size()
	if size < cacheHeaderSize {
		_ = mf.Close()
		return nil, perrors.ErrTruncatedHeader
	}

	region, err := mapped.Map(mf, 0, size, mapped.ReadOnly)
	if err != nil {
		_ = mf.Close()
		return nil, err
	}
	buf := region.Bytes()

	hdr, err := decodeCacheHeader(buf[:cacheHeaderSize])
	if err != nil {
		_ = region.Unmap()
		_ = mf.Close()
		return nil, err
	}

	tableSize := int64(hdr.NumShapes) * shapeEntrySize
	if cacheHeaderSize+tableSize > size {
		_ = region.Unmap()
		_ = mf.Close()
		return nil, perrors.ErrTruncatedHeader
	}

	admissible := make(map[Shape]struct{})
	for _, s := range GenerateShapes(int(hdr.N)) {
		admissible[s] = struct{}{}
	}

	cubeSize := int64(hdr.N) * coordSize
	entries := make([]ShapeEntry, hdr.NumShapes)
	runningOffset := int64(cacheHeaderSize) + tableSize
	for i := range entries {
		raw := decodeShapeEntry(buf[int64(cacheHeaderSize)+int64(i)*shapeEntrySize:])
		if cubeSize > 0 && int64(raw.Size)%cubeSize != 0 {
			_ = region.Unmap()
			_ = mf.Close()
			return nil, perrors.ErrCorruptShapeTable
		}
		if _, ok := admissible[raw.Shape()]; !ok {
			_ = region.Unmap()
			_ = mf.Close()
			return nil, perrors.ErrShapeNotAdmissible
		}
		// Recompute the offset as a running sum rather than trusting the
		// stored value (spec §4.5, §9: historical bug after an empty shape).
		entries[i] = ShapeEntry{Dim0: raw.Dim0, Dim1: raw.Dim1, Dim2: raw.Dim2, Offset: uint64(runningOffset), Size: raw.Size}
		runningOffset += int64(raw.Size)
	}
	if runningOffset > size {
		_ = region.Unmap()
		_ = mf.Close()
		return nil, perrors.ErrCorruptShapeTable
	}

	baseDir := filepath.Dir(path)
	if man, mErr := loadManifest(baseDir); mErr == nil {
		sum := xxhash.Sum64(buf[:size])
		if !man.verify(filepath.Base(path), size, sum) {
			_ = region.Unmap()
			_ = mf.Close()
			return nil, perrors.ErrManifestStale
		}
	}

	return &CacheReader{file: mf, region: region, header: *hdr, entries: entries}, nil
}

// N returns the polycube size the cache file was written for.
func (r *CacheReader) N() int { return int(r.header.N) }

// NumShapes returns the number of shape entries in the file.
func (r *CacheReader) NumShapes() int { return len(r.entries) }

// NumPolycubes returns the total polycube count recorded in the header.
func (r *CacheReader) NumPolycubes() uint64 { return r.header.NumPolycubes }

// Header returns the file's header, for diagnostics.
func (r *CacheReader) Header() CacheHeader { return r.header }

// ShapeEntries returns the shape table with offsets already recomputed, for
// diagnostics.
func (r *CacheReader) ShapeEntries() []ShapeEntry { return r.entries }

// ShapeCubes returns an iteration range over the borrowed polycubes stored
// under shape index sid. An out-of-range sid names a missing entry and
// yields an empty range rather than an error, matching the reader contract
// in spec §4.5.
func (r *CacheReader) ShapeCubes(sid int) ShapeRange {
	if sid < 0 || sid >= len(r.entries) {
		return ShapeRange{}
	}
	se := r.entries[sid]
	if se.Size == 0 {
		return ShapeRange{shape: se.Shape(), n: int(r.header.N)}
	}
	data, ok := r.region.At(int64(se.Offset), int64(se.Size))
	if !ok {
		data = make([]byte, se.Size)
		_, _ = r.region.ReadAt(data, int64(se.Offset))
	}
	return ShapeRange{shape: se.Shape(), n: int(r.header.N), data: data}
}

// PrefetchShape hints that shape index sid's cubes will be read soon,
// letting the kernel start readahead before the pool starts consuming them.
func (r *CacheReader) PrefetchShape(sid int) {
	if sid < 0 || sid >= len(r.entries) {
		return
	}
	se := r.entries[sid]
	if se.Size == 0 {
		return
	}
	r.region.ResidentRange(int64(se.Offset), int64(se.Size), true)
}

// ReleaseShape hints that shape index sid's cubes are no longer needed, so
// the kernel can reclaim their pages once a later shape has been prefetched.
func (r *CacheReader) ReleaseShape(sid int) {
	if sid < 0 || sid >= len(r.entries) {
		return
	}
	se := r.entries[sid]
	if se.Size == 0 {
		return
	}
	r.region.ResidentRange(int64(se.Offset), int64(se.Size), false)
}

// Close unmaps the file and closes it. Cubes borrowed from this reader must
// not be used afterward.
func (r *CacheReader) Close() error {
	err := r.region.Unmap()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// ShapeRange is a run of same-shape, same-size polycubes packed as 3-byte
// XYZ triples, either borrowed from a memory-mapped cache file or flattened
// from an in-memory Hashy (see FlatCache). It supports both random access
// (At) and sequential iteration (Iterator), and can be split into
// contiguous sub-ranges for chunked, lock-free work distribution.
type ShapeRange struct {
	shape Shape
	n     int
	data  []byte
}

// Shape returns the bounding-box shape this range holds cubes for.
func (s ShapeRange) Shape() Shape { return s.shape }

// Len returns the number of cubes in the range.
func (s ShapeRange) Len() int {
	if s.n == 0 {
		return 0
	}
	return len(s.data) / (s.n * coordSize)
}

// At returns a borrowed view of the i'th cube in the range.
func (s ShapeRange) At(i int) Polycube {
	step := s.n * coordSize
	start := i * step
	return BorrowPolycube(decodeCoords(s.data[start : start+step]))
}

// Slice returns the sub-range [start, end), still backed by the same bytes.
func (s ShapeRange) Slice(start, end int) ShapeRange {
	step := s.n * coordSize
	return ShapeRange{shape: s.shape, n: s.n, data: s.data[start*step : end*step]}
}

// Iterator returns a forward iterator over the range's cubes.
func (s ShapeRange) Iterator() *CubeIterator {
	return &CubeIterator{n: s.n, data: s.data}
}

// CubeIterator walks a ShapeRange's packed XYZ triples one borrowed cube at
// a time.
type CubeIterator struct {
	n    int
	data []byte
	pos  int
}

// Next returns the next borrowed cube, or false once the range is exhausted.
func (it *CubeIterator) Next() (Polycube, bool) {
	step := it.n * coordSize
	if step == 0 || it.pos+step > len(it.data) {
		return Polycube{}, false
	}
	coords := decodeCoords(it.data[it.pos : it.pos+step])
	it.pos += step
	return BorrowPolycube(coords), true
}

// decodeCoords reinterprets a packed-XYZ byte range as a []Coordinate
// without copying. Coordinate{X,Y,Z int8} has size 3 and alignment 1, which
// exactly matches the on-disk triple, so this is the zero-copy borrowed view
// the cache format exists to support (the direct analogue of the source's
// reinterpret_cast<const XYZ*> over the mapped region).
func decodeCoords(b []byte) []Coordinate {
	n := len(b) / coordSize
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*Coordinate)(unsafe.Pointer(&b[0])), n)
}
