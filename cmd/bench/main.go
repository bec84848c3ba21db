// Bench is a benchmarking tool for measuring polycube generation throughput
// and Hashy insert throughput.
//
// Usage:
//
//	go run ./cmd/bench -mode gen -n 9 -threads 8
//	go run ./cmd/bench -mode insert -inserts 5000000
//
// Flags:
//
//	-mode      Benchmark mode: gen or insert (default: gen)
//	-n         Polycube size to generate in gen mode (default: 9)
//	-threads   Number of worker goroutines in gen mode (default: 1); insert
//	           mode always uses one goroutine per CPU
//	-inserts   Number of synthetic inserts in insert mode (default: 5,000,000)
//	-base-dir  Cache base directory for gen mode (default: temp dir)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"

	polycubes "github.com/tamirms/polycubes"
)

// getMaxRSS returns the maximum resident set size in bytes.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024 // Convert KB to bytes on Linux
	}
	return maxRSS
}

// samplePeakMemory starts a background sampler and returns a stop function
// that reports the peak heap and RSS bytes observed above baseline.
func samplePeakMemory() (stop func() (peakHeap, peakRSS uint64)) {
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	var peakAlloc, peakR atomic.Uint64
	peakAlloc.Store(baseline.Alloc)
	peakR.Store(baselineRSS)
	done := make(chan struct{})
	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				heapBytes := samples[0].Value.Uint64()
				for {
					old := peakAlloc.Load()
					if heapBytes <= old || peakAlloc.CompareAndSwap(old, heapBytes) {
						break
					}
				}
				rss := getMaxRSS()
				for {
					old := peakR.Load()
					if rss <= old || peakR.CompareAndSwap(old, rss) {
						break
					}
				}
			}
		}
	}()

	return func() (uint64, uint64) {
		close(done)
		var final runtime.MemStats
		runtime.ReadMemStats(&final)
		if final.Alloc > peakAlloc.Load() {
			peakAlloc.Store(final.Alloc)
		}
		finalRSS := getMaxRSS()
		if finalRSS > peakR.Load() {
			peakR.Store(finalRSS)
		}
		return peakAlloc.Load() - baseline.Alloc, peakR.Load() - baselineRSS
	}
}

func main() {
	modeFlag := flag.String("mode", "gen", "benchmark mode: gen or insert")
	nFlag := flag.Int("n", 9, "polycube size to generate in gen mode")
	threadsFlag := flag.Int("threads", 1, "number of worker goroutines")
	insertsFlag := flag.Int("inserts", 5_000_000, "number of synthetic inserts in insert mode")
	baseDirFlag := flag.String("base-dir", "", "cache base directory for gen mode (temp dir if empty)")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile := flag.String("memprofile", "", "write memory profile to file")
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
		defer pprof.StopCPUProfile()
	}

	switch *modeFlag {
	case "gen":
		runGenBench(*nFlag, *threadsFlag, *baseDirFlag)
	case "insert":
		runInsertBench(*insertsFlag)
	default:
		fmt.Printf("Unknown mode: %s (use 'gen' or 'insert')\n", *modeFlag)
		return
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Printf("could not write memory profile: %v\n", err)
		}
	}
}

func runGenBench(n, threads int, baseDir string) {
	if baseDir == "" {
		dir, err := os.MkdirTemp("", "polycubes-bench-")
		if err != nil {
			fmt.Printf("could not create temp dir: %v\n", err)
			return
		}
		defer func() { _ = os.RemoveAll(dir) }()
		baseDir = dir
	}

	fmt.Printf("Generating polycubes of size %d with %d threads...\n", n, threads)
	stop := samplePeakMemory()

	start := time.Now()
	hy, err := polycubes.Gen(context.Background(), n, polycubes.WithThreads(threads), polycubes.WithBaseDir(baseDir))
	duration := time.Since(start)

	peakHeap, peakRSS := stop()

	if err != nil {
		fmt.Printf("Gen failed: %v\n", err)
		return
	}

	total := hy.Size()
	throughput := float64(total) / duration.Seconds() / 1_000_000

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════╗\n")
	fmt.Printf("║ Mode: gen           ║ n = %-13d ║\n", n)
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Metric              ║ Value            ║\n")
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Total polycubes     ║ %-16d ║\n", total)
	fmt.Printf("║ Shapes              ║ %-16d ║\n", hy.NumShapes())
	fmt.Printf("║ Wall time           ║ %6.2f sec       ║\n", duration.Seconds())
	fmt.Printf("║ Throughput          ║ %6.2f M/sec     ║\n", throughput)
	fmt.Printf("║ Peak heap memory    ║ %6.1f MB        ║\n", float64(peakHeap)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %6.1f MB        ║\n", float64(peakRSS)/1_000_000)
	fmt.Printf("╚═════════════════════╩══════════════════╝\n")
}

// syntheticSize is the polycube size used to exercise Hashy in insert mode.
// It is large enough to spread inserts across several shapes and all 8
// sub-buckets, small enough that Init is instant.
const syntheticSize = 8

func runInsertBench(numInserts int) {
	fmt.Println("Building shape table...")
	hy := polycubes.NewHashy()
	hy.Init(syntheticSize)
	shapes := hy.Shapes()

	fmt.Println("Generating synthetic load...")
	stop := samplePeakMemory()

	threads := runtime.NumCPU()
	var wg sync.WaitGroup
	start := time.Now()
	perWorker := numInserts / threads
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			coords := make([]polycubes.Coordinate, syntheticSize)
			for i := 0; i < perWorker; i++ {
				shape := shapes[i%len(shapes)]
				seed := uint32(worker)*0x9e3779b9 + uint32(i)
				for c := 0; c < syntheticSize; c++ {
					h := murmur3.Sum32WithSeed([]byte{byte(seed), byte(seed >> 8), byte(seed >> 16), byte(c)}, seed+uint32(c))
					coords[c] = polycubes.Coordinate{
						X: int8(h % uint32(shape.X+1)),
						Y: int8((h >> 8) % uint32(shape.Y+1)),
						Z: int8((h >> 16) % uint32(shape.Z+1)),
					}
				}
				hy.Insert(polycubes.NewPolycube(coords), shape)
			}
		}(w)
	}
	wg.Wait()
	duration := time.Since(start)

	peakHeap, peakRSS := stop()

	distinct := hy.Size()
	throughput := float64(perWorker*threads) / duration.Seconds() / 1_000_000

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════╗\n")
	fmt.Printf("║ Mode: insert        ║ threads = %-6d ║\n", threads)
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Metric              ║ Value            ║\n")
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Inserts attempted   ║ %-16d ║\n", perWorker*threads)
	fmt.Printf("║ Distinct stored     ║ %-16d ║\n", distinct)
	fmt.Printf("║ Wall time           ║ %6.2f sec       ║\n", duration.Seconds())
	fmt.Printf("║ Throughput          ║ %6.2f M/sec     ║\n", throughput)
	fmt.Printf("║ Peak heap memory    ║ %6.1f MB        ║\n", float64(peakHeap)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %6.1f MB        ║\n", float64(peakRSS)/1_000_000)
	fmt.Printf("╚═════════════════════╩══════════════════╝\n")
}
