package polycubes

import "io"

// genConfig holds Gen's tunable behavior. Defaults match a single-process,
// no-cache, in-memory run.
type genConfig struct {
	threads         int
	baseDir         string
	useCache        bool
	writeCache      bool
	splitCache      bool
	useSplitCache   bool
	progress        io.Writer
	skipResultCheck bool
}

func defaultGenConfig() genConfig {
	return genConfig{
		threads: 1,
		baseDir: ".",
	}
}

// Option configures a Gen call.
type Option func(*genConfig)

// WithThreads sets the number of worker goroutines used to expand seeds.
// Gen rejects a value below 1 with ErrInvalidThreads.
func WithThreads(n int) Option {
	return func(c *genConfig) { c.threads = n }
}

// WithBaseDir sets the directory cache files are read from and written to.
func WithBaseDir(dir string) Option {
	return func(c *genConfig) { c.baseDir = dir }
}

// WithUseCache makes Gen prefer a unified cache file for size n-1 over
// recursing, when one exists under the base directory.
func WithUseCache(b bool) Option {
	return func(c *genConfig) { c.useCache = b }
}

// WithWriteCache makes Gen write a unified cache file for size n after
// generation completes.
func WithWriteCache(b bool) Option {
	return func(c *genConfig) { c.writeCache = b }
}

// WithSplitCache makes Gen write one cache file per target shape as each
// shape finishes, releasing that shape's bucket from memory afterward.
func WithSplitCache(b bool) Option {
	return func(c *genConfig) { c.splitCache = b }
}

// WithUseSplitCache makes Gen prefer per-shape cache files for the seed size
// over a unified cache file or recursion, when they exist.
func WithUseSplitCache(b bool) Option {
	return func(c *genConfig) { c.useSplitCache = b }
}

// WithProgress directs progress output to w instead of discarding it.
func WithProgress(w io.Writer) Option {
	return func(c *genConfig) { c.progress = w }
}

// WithoutResultCheck disables the check against the table of known counts
// for small n. Useful when generating with intentionally modified rules.
func WithoutResultCheck() Option {
	return func(c *genConfig) { c.skipResultCheck = true }
}
