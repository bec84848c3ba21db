package mapped

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	perrors "github.com/tamirms/polycubes/errors"
)

// mappingErrorWithDiagnostic wraps ErrMappingFailed with a best-effort dump
// of /proc/self/maps, per the mapping-error diagnostic spec §7 requires.
// Reading the maps file itself failing (non-Linux, permissions, etc.) is not
// fatal: the wrapped sentinel is still returned, just without the dump.
func mappingErrorWithDiagnostic(cause error) error {
	maps, err := os.ReadFile("/proc/self/maps")
	if err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrMappingFailed, cause)
	}
	return fmt.Errorf("%w: %v\n/proc/self/maps:\n%s", perrors.ErrMappingFailed, cause, maps)
}

// Mode selects the protection a Region is mapped with.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) mmapProt() int {
	if m == ReadWrite {
		return mmap.RDWR
	}
	return mmap.RDONLY
}

// Region is a page-aligned window mapped over a File. The mapped bytes are
// exposed via Bytes; offsets passed to ReadAt/WriteAt/Resident are file
// offsets, not offsets relative to the window.
type Region struct {
	file   *File
	mode   Mode
	mm     mmap.MMap
	data   []byte
	offset int64 // page-aligned start, in file bytes
	length int64 // window length, in bytes
}

// Map maps a window of length bytes starting at offset (both are natural
// byte values; alignment is handled internally) over file, with the given
// protection mode.
func Map(file *File, offset, length int64, mode Mode) (*Region, error) {
	aligned := roundDownPage(offset)
	extra := offset - aligned
	winLen := roundUpPage(length + extra)

	mm, err := mmap.MapRegion(file.OSFile(), int(winLen), mode.mmapProt(), 0, aligned)
	if err != nil {
		return nil, mappingErrorWithDiagnostic(err)
	}
	return &Region{
		file:   file,
		mode:   mode,
		mm:     mm,
		data:   []byte(mm),
		offset: aligned,
		length: winLen,
	}, nil
}

// Bytes returns the raw mapped window. Index 0 corresponds to file offset
// r.offset, which may be before the byte range the caller originally asked
// for (Map rounds down to a page boundary); use At to convert a file offset
// into a slice within the window.
func (r *Region) Bytes() []byte { return r.data }

// At returns the sub-slice of the mapped window covering [off, off+n) in
// file-offset terms, or false if the range falls outside the current
// window (the caller should fall back to ReadAt/WriteAt in that case).
func (r *Region) At(off, n int64) ([]byte, bool) {
	rel := off - r.offset
	if rel < 0 || rel+n > r.length {
		return nil, false
	}
	return r.data[rel : rel+n], true
}

// Remap grows or moves the mapping to cover newLength bytes from the
// window's original offset, extending the backing file first if needed.
// Existing content is preserved; any slices previously returned by Bytes/At
// are invalidated.
func (r *Region) Remap(newLength int64) error {
	if err := r.mm.Unmap(); err != nil {
		return mappingErrorWithDiagnostic(err)
	}
	needed := r.offset + roundUpPage(newLength)
	if needed > r.file.Size() {
		if err := r.file.Truncate(needed); err != nil {
			return err
		}
	}
	mm, err := mmap.MapRegion(r.file.OSFile(), int(roundUpPage(newLength)), r.mode.mmapProt(), 0, r.offset)
	if err != nil {
		return mappingErrorWithDiagnostic(err)
	}
	r.mm = mm
	r.data = []byte(mm)
	r.length = roundUpPage(newLength)
	return nil
}

// FlushAsync schedules the mapping's dirty pages for writeback without
// waiting for completion.
func (r *Region) FlushAsync() error {
	return msyncAsync(r.data)
}

// FlushSync flushes the mapping's dirty pages and blocks until they are
// durable, via mmap-go's Flush (msync MS_SYNC).
func (r *Region) FlushSync() error {
	if err := r.mm.Flush(); err != nil {
		return perrors.ErrWriteFailed
	}
	return nil
}

// Resident advises the kernel that the region will (willNeed=true) or will
// not (willNeed=false) be accessed soon, letting the generator prefetch one
// shape's pages and release the previous.
func (r *Region) Resident(willNeed bool) {
	residencyHint(r.data, willNeed)
}

// ResidentRange is Resident restricted to the sub-window [off, off+n) in
// file-offset terms. Out-of-window ranges are silently ignored, matching the
// best-effort nature of the underlying advisory call.
func (r *Region) ResidentRange(off, n int64, willNeed bool) {
	if b, ok := r.At(off, n); ok {
		residencyHint(b, willNeed)
	}
}

// Prefault asks the kernel to fault in and zero the mapping's writable pages
// up front, so the parallel copy tasks that follow don't each pay a page
// fault on first write.
func (r *Region) Prefault() {
	prefaultRegion(r.data)
}

// ReadAt reads len(p) bytes starting at file offset off, serving from the
// mapped window when in range and falling back to a direct pread otherwise.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	if b, ok := r.At(off, int64(len(p))); ok {
		return copy(p, b), nil
	}
	return r.file.OSFile().ReadAt(p, off)
}

// WriteAt writes p starting at file offset off, writing into the mapped
// window when in range and falling back to a direct pwrite otherwise.
func (r *Region) WriteAt(p []byte, off int64) (int, error) {
	if b, ok := r.At(off, int64(len(p))); ok {
		return copy(b, p), nil
	}
	return r.file.OSFile().WriteAt(p, off)
}

// Unmap releases the mapping. Safe to call once; the Region must not be used
// afterward.
func (r *Region) Unmap() error {
	if r.mm == nil {
		return nil
	}
	err := r.mm.Unmap()
	r.mm = nil
	r.data = nil
	if err != nil {
		return mappingErrorWithDiagnostic(err)
	}
	return nil
}
