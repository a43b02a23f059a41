package pacx

import "github.com/go-kit/log"

type readConfig struct {
	limits Limits
	logger log.Logger
}

type ReadOption func(*readConfig)

func WithReadLimits(l Limits) ReadOption {
	return func(c *readConfig) { c.limits = l }
}

// WithLogger sets the logger Read reports to. Read logs nothing by default.
func WithLogger(l log.Logger) ReadOption {
	return func(c *readConfig) { c.logger = l }
}

func newReadConfig(opts []ReadOption) readConfig {
	cfg := readConfig{limits: defaultLimits(), logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	return cfg
}

type writeConfig struct {
	limits      Limits
	logger      log.Logger
	compression Compression
}

type WriteOption func(*writeConfig)

func WithWriteLimits(l Limits) WriteOption {
	return func(c *writeConfig) { c.limits = l }
}

func WithWriteLogger(l log.Logger) WriteOption {
	return func(c *writeConfig) { c.logger = l }
}

// WithCompression wraps the encoded archive in a transport compression.
// Without it, Write emits the plain archive and WriteFile picks the
// compression from the path suffix.
func WithCompression(comp Compression) WriteOption {
	return func(c *writeConfig) { c.compression = comp }
}

func newWriteConfig(opts []WriteOption) writeConfig {
	cfg := writeConfig{limits: defaultLimits(), logger: log.NewNopLogger(), compression: compAuto}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	return cfg
}

type extractConfig struct {
	includes []string
	splits   []*Archive
	logger   log.Logger
}

type ExtractOption func(*extractConfig)

// WithIncludes restricts extraction to files whose extracted name matches
// one of the doublestar patterns.
func WithIncludes(patterns ...string) ExtractOption {
	return func(c *extractConfig) { c.includes = append(c.includes, patterns...) }
}

// WithSplits supplies the split archives no-data entries are resolved
// against. Without splits, no-data entries are skipped.
func WithSplits(splits ...*Archive) ExtractOption {
	return func(c *extractConfig) { c.splits = append(c.splits, splits...) }
}

func WithExtractLogger(l log.Logger) ExtractOption {
	return func(c *extractConfig) { c.logger = l }
}

func newExtractConfig(opts []ExtractOption) extractConfig {
	cfg := extractConfig{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
