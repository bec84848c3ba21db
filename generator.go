package polycubes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	perrors "github.com/tamirms/polycubes/errors"
)

// Gen computes every distinct polycube of size n, canonicalized under the 24
// proper rotations, and returns them grouped by bounding-box shape in a
// Hashy. For n >= 3 it expands every canonical size-(n-1) seed by one cube
// along each admissible axis pair (target shape, seed shape), dispatching
// seed chunks across a worker pool with a barrier between pairs (spec §4.4,
// §5). Seeds come from a cache file when WithUseCache/WithUseSplitCache find
// one, otherwise from a recursive call to Gen(n-1).
func Gen(ctx context.Context, n int, opts ...Option) (*Hashy, error) {
	cfg := defaultGenConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.progress == nil {
		cfg.progress = io.Discard
	}

	if n < 1 {
		return nil, perrors.ErrInvalidSize
	}
	if cfg.threads < 1 {
		return nil, perrors.ErrInvalidThreads
	}

	if n == 1 {
		hy := NewHashy()
		hy.Init(1)
		hy.Insert(NewPolycube([]Coordinate{{0, 0, 0}}), Shape{0, 0, 0})
		return hy, checkResultUnless(cfg, n, hy)
	}
	if n == 2 {
		hy := NewHashy()
		hy.Init(2)
		hy.Insert(NewPolycube([]Coordinate{{0, 0, 0}, {0, 0, 1}}), Shape{0, 0, 1})
		return hy, checkResultUnless(cfg, n, hy)
	}

	source, closer, err := openSeedSource(ctx, n, cfg, opts)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	hy := NewHashy()
	hy.Init(n)
	targets := hy.Shapes()
	prevShapes := GenerateShapes(n - 1)

	pool := NewPool(cfg.threads, hy)
	defer pool.Destroy()

	// totalCount tracks the true population across all shapes even when
	// splitCache releases a shape's bucket from memory after persisting it,
	// since hy.Size() alone would then undercount.
	var totalCount uint64

	// When the seed source is a mapped cache file, prefetch each shape's
	// pages just before it is scanned and release the previous shape's
	// pages once we move past it (spec §4.4/§9's "prefetch one shape and
	// release the previous").
	cacheSource, usingCacheReader := source.(*CacheReader)
	prevSid := -1

	for ti, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(cfg.progress, "n=%d target=%d/%d shape=(%d,%d,%d)\n", n, ti+1, len(targets), target.X, target.Y, target.Z)
		for sid, seedShape := range prevShapes {
			if usingCacheReader {
				cacheSource.PrefetchShape(sid)
				if prevSid >= 0 && prevSid != sid {
					cacheSource.ReleaseShape(prevSid)
				}
				prevSid = sid
			}
			diffx := int(target.X) - int(seedShape.X)
			diffy := int(target.Y) - int(seedShape.Y)
			diffz := int(target.Z) - int(seedShape.Z)
			abssum := absInt(diffx) + absInt(diffy) + absInt(diffz)
			if abssum > 1 || diffx < 0 || diffy < 0 || diffz < 0 {
				continue
			}
			// notSameShape reflects the diffs before the symmetry-rule
			// mutations below; expandDim reflects them after.
			notSameShape := abssum != 0
			if diffz == 1 && seedShape.Z == seedShape.Y {
				diffy = 1
			}
			if diffy == 1 && seedShape.Y == seedShape.X {
				diffx = 1
			}
			expandDim := Shape{X: int8(diffx), Y: int8(diffy), Z: int8(diffz)}

			seedSource := source
			seedIdx := sid
			var splitReader *CacheReader
			if cfg.useSplitCache {
				path := filepath.Join(cfg.baseDir, splitCacheFileName(n-1, seedShape))
				reader, oerr := OpenCache(path)
				switch {
				case oerr == nil:
					if len(reader.ShapeEntries()) != 1 || reader.ShapeEntries()[0].Shape() != seedShape {
						_ = reader.Close()
						return nil, perrors.ErrShapeMismatch
					}
					seedSource = reader
					seedIdx = 0
					splitReader = reader
				case isRecoverableCacheErr(oerr):
					// no split cache file for this shape: fall back to seedSource.
				default:
					return nil, oerr
				}
			}

			ws := NewWorkset(seedSource, seedIdx, target, seedShape, expandDim, notSameShape)
			pool.Launch(ws)
			pool.Sync()

			if splitReader != nil {
				_ = splitReader.Close()
			}
		}

		idx, _ := hy.ShapeIndex(target)
		totalCount += hy.ShapeSize(idx)

		if cfg.splitCache {
			path := filepath.Join(cfg.baseDir, splitCacheFileName(n, target))
			if err := SaveShapeCache(hy, idx, path, cfg.threads); err != nil {
				return nil, err
			}
			hy.Release(target)
		}
	}

	if usingCacheReader && prevSid >= 0 {
		cacheSource.ReleaseShape(prevSid)
	}

	// A unified cache written after splitCache has released shapes would be
	// missing their data; splitCache's own per-shape files are the record in
	// that mode instead.
	if cfg.writeCache && !cfg.splitCache {
		path := filepath.Join(cfg.baseDir, cacheFileName(n))
		if err := SaveCache(hy, path, cfg.threads); err != nil {
			return nil, err
		}
	}

	fmt.Fprintf(cfg.progress, "n=%d done count=%d\n", n, totalCount)
	if cfg.skipResultCheck {
		return hy, nil
	}
	return hy, checkResult(n, totalCount)
}

// openSeedSource resolves the SeedSource for size n-1: a unified cache file
// when WithUseCache finds one, otherwise a recursive Gen call flattened into
// memory. The returned io.Closer is non-nil only when the source owns a
// memory-mapped file that must be closed once the caller is done with it.
func openSeedSource(ctx context.Context, n int, cfg genConfig, opts []Option) (SeedSource, io.Closer, error) {
	if cfg.useCache {
		path := filepath.Join(cfg.baseDir, cacheFileName(n-1))
		reader, err := OpenCache(path)
		switch {
		case err == nil:
			return reader, reader, nil
		case isRecoverableCacheErr(err):
			// no unified cache file: fall through to recursion.
		default:
			return nil, nil, err
		}
	}
	prevHy, err := Gen(ctx, n-1, opts...)
	if err != nil {
		return nil, nil, err
	}
	return NewFlatCache(prevHy), nil, nil
}

// isRecoverableCacheErr reports whether err is one of the CacheUnreadable
// conditions spec §7 treats as a plain cache miss (missing file, bad magic,
// truncated header), or a file that disagrees with its manifest entry.
// Everything else OpenCache can return — CacheCorrupt, MappingError — is
// fatal and must propagate rather than trigger a silent fallback to
// recursion.
func isRecoverableCacheErr(err error) bool {
	return errors.Is(err, perrors.ErrCacheMissing) ||
		errors.Is(err, perrors.ErrInvalidMagic) ||
		errors.Is(err, perrors.ErrTruncatedHeader) ||
		errors.Is(err, perrors.ErrManifestStale)
}

func checkResultUnless(cfg genConfig, n int, hy *Hashy) error {
	if cfg.skipResultCheck {
		return nil
	}
	return checkResult(n, hy.Size())
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
