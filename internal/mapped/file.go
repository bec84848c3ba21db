// Package mapped implements the memory-mapping primitive the cache codec
// consumes: open-or-create with page-aligned pre-allocation, truncate, map a
// page-aligned window, remap in place or by moving, flush (async or sync),
// madvise-style residency hints, and a pread/pwrite fallback for ranges
// outside the current window.
//
// It wraps github.com/edsrzf/mmap-go for the actual mapping and
// golang.org/x/sys/unix for the platform-specific hints, mirroring how the
// source this was ported from layers a small mapped::region/mapped::file
// pair over raw mmap(2)/msync(2)/madvise(2).
package mapped

import (
	"os"

	perrors "github.com/tamirms/polycubes/errors"
)

// PageSize is the assumed OS page size used to align mapping windows and
// pre-allocation requests. Callers of File and Region supply natural byte
// offsets; alignment is handled internally.
const PageSize = 4096

func roundUpPage(n int64) int64 {
	return (n + PageSize - 1) &^ (PageSize - 1)
}

func roundDownPage(n int64) int64 {
	return n &^ (PageSize - 1)
}

// File wraps an *os.File, tracking its logical size so Region can compute
// page-aligned windows without repeated stat calls.
type File struct {
	f    *os.File
	size int64
}

// Create creates path and pre-allocates initialSize bytes (rounded up to a
// page boundary) using the platform's fallocate/F_PREALLOCATE/truncate
// fallback, to avoid a SIGBUS from a later mmap write hitting a disk that
// filled up in between.
func Create(path string, initialSize int64) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	aligned := roundUpPage(initialSize)
	if aligned > 0 {
		if err := fallocateFile(f, aligned); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &File{f: f, size: aligned}, nil
}

// OpenReadOnly opens an existing file for read-only mapping.
func OpenReadOnly(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.ErrCacheMissing
		}
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &File{f: f, size: fi.Size()}, nil
}

// Truncate resizes the underlying file, updating the tracked logical size.
func (mf *File) Truncate(size int64) error {
	if err := mf.f.Truncate(size); err != nil {
		return err
	}
	mf.size = size
	return nil
}

// Size returns the file's current logical size.
func (mf *File) Size() int64 { return mf.size }

// OSFile returns the underlying *os.File, for mmap.MapRegion and pread/pwrite.
func (mf *File) OSFile() *os.File { return mf.f }

// AdviseSequential hints to the kernel that mf will be read sequentially
// from now on, letting readahead work ahead of a shape scan instead of
// against it. Best-effort; the underlying advisory call is a no-op where
// unsupported.
func (mf *File) AdviseSequential() {
	fadviseSequential(int(mf.f.Fd()), 0, mf.size)
}

// Close closes the underlying file.
func (mf *File) Close() error { return mf.f.Close() }
