package depth

// PipelineOption configures a Pipeline during creation.
// Use functional options to customize Pipeline behavior.
//
// Example:
//
//	// Default wiring
//	p, err := depth.NewPipeline(depth.DefaultConfig())
//
//	// Shared cache across pipelines (dependency injection)
//	p, err := depth.NewPipeline(cfg, depth.WithCache(shared))
type PipelineOption func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	clock    Clock
	cache    *ScalingCache
	monitor  *PerformanceMonitor
	fullHash bool
}

// defaultPipelineOptions returns the default pipeline options.
func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{
		clock: SystemClock(), // cache and monitor are built in NewPipeline if nil
	}
}

// WithClock sets the time source for the pipeline and every component it
// wires: cache budget windows, sort debouncing, monitor timing. Tests
// inject a fake clock here to make all time-based behavior deterministic.
func WithClock(c Clock) PipelineOption {
	return func(o *pipelineOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithCache supplies an externally constructed ScalingCache instead of the
// one the pipeline would build from its Config. Use this to share scaled
// renditions between pipelines drawing the same artwork.
//
// The pipeline rewires the cache onto its own clock.
//
// Example:
//
//	shared, err := depth.NewScalingCache(cfg)
//	p1, err := depth.NewPipeline(cfg, depth.WithCache(shared))
//	p2, err := depth.NewPipeline(cfg, depth.WithCache(shared))
func WithCache(c *ScalingCache) PipelineOption {
	return func(o *pipelineOptions) {
		o.cache = c
	}
}

// WithMonitor supplies an externally constructed PerformanceMonitor, for
// hosts that feed one monitor from several sources.
func WithMonitor(m *PerformanceMonitor) PipelineOption {
	return func(o *pipelineOptions) {
		o.monitor = m
	}
}

// WithFullHashing makes the cache fingerprint every pixel of a source
// image instead of the five-point sparse probe. Sparse probing is fast and
// sufficient for distinct artwork; switch to full hashing when different
// sprites can share corner and center pixels (procedural variations,
// palette swaps confined to the interior).
//
// Ignored when WithCache supplies the cache.
func WithFullHashing() PipelineOption {
	return func(o *pipelineOptions) {
		o.fullHash = true
	}
}
