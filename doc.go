// Package polycubes enumerates, counts, and persists free polycubes: distinct
// connected shapes of N face-glued unit cubes, considered equal under the 24
// rotations of the cube (reflections are never merged).
//
// The package composes leaves-first:
//
//   - Coordinate: a three-signed-byte lattice point (coord.go).
//   - Polycube: an ordered coordinate sequence with owned/borrowed storage
//     (cube.go).
//   - The rotation engine: the 24-entry rotation table (rotation.go).
//   - Hashy: the shape-sharded, sub-bucketed concurrent set (hashy.go).
//   - The cache codec: on-disk binary format, reader and writer
//     (cache_format.go, cache_reader.go, cache_writer.go).
//   - Gen: the inductive driver that expands a size-(N-1) seed population
//     into size N (generator.go, workset.go, pool.go, expand.go).
//
// # Basic usage
//
// Enumerating polycubes of size N, optionally reusing a cache from N-1:
//
//	hy, err := polycubes.Gen(context.Background(), n,
//	    polycubes.WithThreads(runtime.NumCPU()),
//	    polycubes.WithBaseDir("cache"),
//	    polycubes.WithUseCache(true),
//	    polycubes.WithWriteCache(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(hy.Size())
//
// Reading a cache file directly:
//
//	r, err := polycubes.OpenCache("cache/cubes_6.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	for i := 0; i < r.NumShapes(); i++ {
//	    rng := r.ShapeCubes(i)
//	    fmt.Println(rng.Shape(), rng.Len())
//	}
//
// # Package structure
//
//   - Public API: generator.go (Gen), options.go (Option, With* functions)
//   - Values: coord.go, shape.go, cube.go
//   - Algorithm: rotation.go, expand.go, hashy.go
//   - Concurrency: workset.go, pool.go
//   - Serialization: cache_format.go, cache_reader.go, cache_writer.go,
//     flatcache.go, manifest.go
//   - Platform: internal/mapped (mmap primitive, fallocate/fadvise/madvise)
package polycubes
