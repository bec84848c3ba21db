package polycubes

import (
	"encoding/binary"
	"fmt"

	perrors "github.com/tamirms/polycubes/errors"
)

const (
	// cacheMagic identifies the binary cache format: "PCUB" little-endian.
	cacheMagic = uint32(0x42554350)

	// cacheHeaderSize is the exact size of the serialized header (24 bytes).
	cacheHeaderSize = 24

	// shapeEntrySize is the exact size of one serialized ShapeEntry (24 bytes).
	shapeEntrySize = 24

	// coordSize is the on-disk size of one packed XYZ triple.
	coordSize = 3
)

// CacheHeader is the file header (spec §4.5). It is exported so
// cmd/polycubes's inspect subcommand can print it without a full generation
// run.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       4     Magic        0x42554350 ("PCUB")
//	4       4     N            uint32_le
//	8       4     NumShapes    uint32_le
//	12      4     (padding)    zero
//	16      8     NumPolycubes uint64_le
type CacheHeader struct {
	Magic        uint32
	N            uint32
	NumShapes    uint32
	NumPolycubes uint64
}

func (h *CacheHeader) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.N)
	binary.LittleEndian.PutUint32(buf[8:12], h.NumShapes)
	binary.LittleEndian.PutUint32(buf[12:16], 0)
	binary.LittleEndian.PutUint64(buf[16:24], h.NumPolycubes)
}

func decodeCacheHeader(buf []byte) (*CacheHeader, error) {
	if len(buf) < cacheHeaderSize {
		return nil, perrors.ErrTruncatedHeader
	}
	h := &CacheHeader{
		Magic:        binary.LittleEndian.Uint32(buf[0:4]),
		N:            binary.LittleEndian.Uint32(buf[4:8]),
		NumShapes:    binary.LittleEndian.Uint32(buf[8:12]),
		NumPolycubes: binary.LittleEndian.Uint64(buf[16:24]),
	}
	if h.Magic != cacheMagic {
		return nil, perrors.ErrInvalidMagic
	}
	return h, nil
}

// ShapeEntry describes one shape's slice of the packed-XYZ region. Offset is
// recomputed by the reader as a running sum rather than trusted verbatim
// from disk (spec §4.5, §9: a historical bug can leave a stale offset after
// an empty shape entry).
//
// Layout:
//
//	Offset  Size  Field     Type
//	0       1     Dim0      uint8 (verbatim, not offset)
//	1       1     Dim1      uint8
//	2       1     Dim2      uint8
//	3       1     Reserved  zero
//	4       4     (padding) zero
//	8       8     Offset    uint64_le, from start of file
//	16      8     Size      uint64_le, in bytes (numCubes * n * 3)
type ShapeEntry struct {
	Dim0, Dim1, Dim2 uint8
	Offset           uint64
	Size             uint64
}

// Shape returns the bounding-box shape this entry describes.
func (se *ShapeEntry) Shape() Shape {
	return Shape{X: int8(se.Dim0), Y: int8(se.Dim1), Z: int8(se.Dim2)}
}

func shapeEntryFrom(s Shape, offset, size uint64) ShapeEntry {
	return ShapeEntry{
		Dim0:   uint8(s.X),
		Dim1:   uint8(s.Y),
		Dim2:   uint8(s.Z),
		Offset: offset,
		Size:   size,
	}
}

func (se *ShapeEntry) encodeTo(buf []byte) {
	buf[0] = se.Dim0
	buf[1] = se.Dim1
	buf[2] = se.Dim2
	buf[3] = 0
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	binary.LittleEndian.PutUint64(buf[8:16], se.Offset)
	binary.LittleEndian.PutUint64(buf[16:24], se.Size)
}

func decodeShapeEntry(buf []byte) ShapeEntry {
	return ShapeEntry{
		Dim0:   buf[0],
		Dim1:   buf[1],
		Dim2:   buf[2],
		Offset: binary.LittleEndian.Uint64(buf[8:16]),
		Size:   binary.LittleEndian.Uint64(buf[16:24]),
	}
}

// cacheFileName returns the unified cache file name for size n.
func cacheFileName(n int) string {
	return fmt.Sprintf("cubes_%d.bin", n)
}

// splitCacheFileName returns the per-shape cache file name for size n and
// the given shape.
func splitCacheFileName(n int, s Shape) string {
	return fmt.Sprintf("cubes_%d_%d-%d-%d.bin", n, s.X, s.Y, s.Z)
}
