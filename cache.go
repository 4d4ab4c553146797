package depth

import (
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/gogpu/depth/internal/cache"
	"github.com/gogpu/depth/internal/scaler"
)

// cacheKey identifies one scaled rendition: content signature and source
// size plus the quantized scale bucket. Keying by signature instead of
// image identity lets every entity sharing the same artwork and a similar
// scale reuse one rendition.
type cacheKey struct {
	sig    uint64
	w, h   int
	bucket int
}

// scaledEntry is the cached value: the rendition plus its accounting.
// The image is immutable once inserted.
type scaledEntry struct {
	img   *image.RGBA
	bytes int64
	cost  time.Duration
}

// Optimize tuning: at most one evaluation per interval; above the load
// factor it trims the stated fraction of entries from the cold end.
const (
	optimizeInterval = 5 * time.Second
	optimizeLoad     = 0.8
	optimizeFraction = 0.25
)

// Quality ladder tuning (see qualityFor) and the lookup floor below which
// rate-based warnings stay quiet.
const (
	qualityWarmRate   = 0.9
	qualityColdRate   = 0.5
	qualityWarmup     = 200
	warningMinLookups = 100
)

// ScalingCache holds pre-scaled sprite renditions behind a strict LRU and
// meters how many new renditions may be generated per frame. Over-budget
// requests miss with a nil result instead of blocking, which is the
// backpressure that keeps bursts of newly visible sprites from spiking
// frame time.
//
// The cache is internally mutex-guarded. The base contract still runs
// everything on one render goroutine per frame; the lock exists so a host
// that prescales images from a loader goroutine (Prewarm) stays correct
// without an API change.
type ScalingCache struct {
	mu       sync.Mutex
	cfg      Config
	clock    Clock
	q        quantizer
	lru      *cache.LRU[cacheKey, *scaledEntry]
	fullHash bool

	bytes int64

	frameGen    int
	frameDemand int
	windowStart time.Time

	lastFrameGen    int
	lastFrameDemand int
	peakDemand      int

	generated    uint64
	budgetDenied uint64
	rejected     uint64
	genTime      time.Duration

	lastOptimize time.Time
}

// NewScalingCache builds a standalone cache from cfg, validating it first.
// Pipelines construct one automatically; direct construction suits tools
// and tests that exercise the cache alone.
func NewScalingCache(cfg Config) (*ScalingCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newScalingCache(cfg, SystemClock(), false), nil
}

func newScalingCache(cfg Config, clock Clock, fullHash bool) *ScalingCache {
	c := &ScalingCache{
		cfg:      cfg,
		clock:    clock,
		fullHash: fullHash,
		q:        newQuantizer(cfg.MinScale, cfg.MaxScale, cfg.ScaleBuckets),
	}
	c.lru = cache.New(cfg.CacheCapacity, func(_ cacheKey, e *scaledEntry) {
		c.bytes -= e.bytes
	})
	now := clock.Now()
	c.windowStart = now
	c.lastOptimize = now
	return c
}

// setClock rewires the time source and realigns the window anchors to it.
// The pipeline injects its clock here so a fake clock drives cache windows
// in tests.
func (c *ScalingCache) setClock(clk Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clk
	c.windowStart = clk.Now()
	c.lastOptimize = c.windowStart
}

// GetScaled returns src resampled to the bucket-quantized variant of scale.
// It returns nil in two cases: a degenerate request (nil/empty source or
// scale at or below 0.01), or a miss after the frame's generation budget is
// spent. Callers fall back (reuse the previous rendition or skip the
// sprite) rather than block. The returned image is shared and must not be
// mutated.
func (c *ScalingCache) GetScaled(src image.Image, scale float64) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollWindow()

	if src == nil || scale <= degenerateScale {
		c.rejected++
		return nil
	}
	b := src.Bounds()
	if b.Empty() {
		c.rejected++
		return nil
	}

	bucket := c.q.index(scale)
	key := cacheKey{sig: c.signature(src), w: b.Dx(), h: b.Dy(), bucket: bucket}
	if e, ok := c.lru.Get(key); ok {
		return e.img
	}

	c.frameDemand++
	if c.peakDemand < c.frameDemand {
		c.peakDemand = c.frameDemand
	}
	if c.frameGen >= c.cfg.FrameBudget {
		c.budgetDenied++
		return nil
	}

	snapped := c.q.buckets[bucket]
	w := int(math.Round(float64(b.Dx()) * snapped))
	h := int(math.Round(float64(b.Dy()) * snapped))
	start := c.clock.Now()
	img := scaler.Rescale(src, w, h, c.qualityFor())
	c.insert(key, img, c.clock.Now().Sub(start))
	c.frameGen++
	return img
}

// qualityFor picks the resampling tier for a new rendition from cache
// temperature and the remaining window budget. A warm cache misses rarely,
// so its few misses can afford the slow kernel; a cold cache or a nearly
// spent window gets the cheap one. Caller holds the lock.
func (c *ScalingCache) qualityFor() scaler.Quality {
	s := c.lru.Stats()
	if s.Hits+s.Misses < qualityWarmup {
		return scaler.QualityBilinear
	}
	remaining := c.cfg.FrameBudget - c.frameGen
	switch {
	case remaining <= 1 || s.HitRate < qualityColdRate:
		return scaler.QualityNearest
	case s.HitRate >= qualityWarmRate && remaining >= 3:
		return scaler.QualityBicubic
	default:
		return scaler.QualityBilinear
	}
}

func (c *ScalingCache) signature(src image.Image) uint64 {
	if c.fullHash {
		return scaler.Full(src)
	}
	return scaler.Signature(src)
}

// insert adds a rendition and updates the accounting. Caller holds the lock.
func (c *ScalingCache) insert(key cacheKey, img *image.RGBA, cost time.Duration) {
	e := &scaledEntry{img: img, bytes: int64(len(img.Pix)), cost: cost}
	c.bytes += e.bytes
	c.lru.Add(key, e)
	c.generated++
	c.genTime += cost
}

// rollWindow lazily resets the generation counters once the wall-clock
// window has elapsed. BeginFrame is the precise boundary; this fallback
// keeps budgets frame-shaped for hosts that never call it.
func (c *ScalingCache) rollWindow() {
	now := c.clock.Now()
	if now.Sub(c.windowStart) >= c.cfg.BudgetWindow {
		c.closeWindow(now)
	}
}

// closeWindow snapshots and resets the per-window counters. Caller holds
// the lock.
func (c *ScalingCache) closeWindow(now time.Time) {
	c.lastFrameGen = c.frameGen
	c.lastFrameDemand = c.frameDemand
	c.frameGen = 0
	c.frameDemand = 0
	c.windowStart = now
}

// BeginFrame marks an explicit frame boundary, resetting the generation
// budget window. Pipeline.RenderScene calls it every frame; hosts driving a
// bare cache should call it from their loop instead of relying on the
// wall-clock fallback, which drifts under variable frame rate.
func (c *ScalingCache) BeginFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeWindow(c.clock.Now())
}

// Optimize proactively trims the cache. It evaluates at most once per 5s;
// when occupancy exceeds 80% of capacity it evicts the oldest 25% of
// entries in one batch, amortizing eviction cost away from the miss path.
// Pipeline.RenderScene calls it every frame; the gate makes that cheap.
func (c *ScalingCache) Optimize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if now.Sub(c.lastOptimize) < optimizeInterval {
		return
	}
	c.lastOptimize = now
	n := c.lru.Len()
	if float64(n) <= optimizeLoad*float64(c.lru.Capacity()) {
		return
	}
	trimmed := c.lru.TrimOldest(int(float64(n) * optimizeFraction))
	Logger().Debug("scaling cache trimmed", "evicted", trimmed, "entries", c.lru.Len(), "capacity", c.lru.Capacity())
}

// Prewarm generates renditions of src for the given scales outside the
// per-frame budget: load-time warmup for artwork known to appear at
// depth. Scales snap to their buckets; variants already cached are
// skipped, and the highest-quality kernel is used throughout. It returns
// ErrDegenerateScale (wrapped) for an unusable source or scale.
func (c *ScalingCache) Prewarm(src image.Image, scales ...float64) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", ErrDegenerateScale)
	}
	b := src.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: empty source bounds", ErrDegenerateScale)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sig := c.signature(src)
	for _, s := range scales {
		if s <= degenerateScale {
			return fmt.Errorf("%w: scale %g", ErrDegenerateScale, s)
		}
		bucket := c.q.index(s)
		key := cacheKey{sig: sig, w: b.Dx(), h: b.Dy(), bucket: bucket}
		if c.lru.Contains(key) {
			continue
		}
		snapped := c.q.buckets[bucket]
		w := int(math.Round(float64(b.Dx()) * snapped))
		h := int(math.Round(float64(b.Dy()) * snapped))
		start := c.clock.Now()
		img := scaler.Rescale(src, w, h, scaler.QualityBicubic)
		c.insert(key, img, c.clock.Now().Sub(start))
	}
	return nil
}

// Clear drops every cached rendition. Cumulative counters persist; the
// byte estimate returns to zero through the eviction callback.
func (c *ScalingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
}

// CacheStats is a point-in-time snapshot of scaling-cache effectiveness.
type CacheStats struct {
	Entries  int
	Capacity int

	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
	MissRate  float64

	BytesCached   int64
	Generated     uint64
	BudgetDenied  uint64
	Rejected      uint64
	AvgGeneration time.Duration

	// LastFrameGenerations counts renditions actually generated in the
	// previous window; LastFrameDemand additionally counts the requests the
	// budget denied. PeakFrameDemand is the largest demand seen in any
	// window since creation.
	LastFrameGenerations int
	LastFrameDemand      int
	PeakFrameDemand      int
}

// Stats returns the current counters. Safe to call from any goroutine.
func (c *ScalingCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	ls := c.lru.Stats()
	st := CacheStats{
		Entries:              c.lru.Len(),
		Capacity:             c.lru.Capacity(),
		Hits:                 ls.Hits,
		Misses:               ls.Misses,
		Evictions:            ls.Evictions,
		HitRate:              ls.HitRate,
		BytesCached:          c.bytes,
		Generated:            c.generated,
		BudgetDenied:         c.budgetDenied,
		Rejected:             c.rejected,
		LastFrameGenerations: c.lastFrameGen,
		LastFrameDemand:      c.lastFrameDemand,
		PeakFrameDemand:      c.peakDemand,
	}
	if ls.Hits+ls.Misses > 0 {
		st.MissRate = 1 - ls.HitRate
	}
	if c.generated > 0 {
		st.AvgGeneration = c.genTime / time.Duration(c.generated)
	}
	return st
}

// CheckWarnings evaluates the cache's warning conditions (miss rate,
// memory estimate, per-window generation demand) against the configured
// thresholds and returns the breaches. It neither logs nor cooldown-gates;
// the performance monitor owns emission.
func (c *ScalingCache) CheckWarnings() []Warning {
	st := c.Stats()
	var ws []Warning
	if st.Hits+st.Misses >= warningMinLookups && st.MissRate > c.cfg.MissRateWarning {
		ws = append(ws, Warning{
			Kind:    "cache_miss_rate",
			Message: fmt.Sprintf("cache miss rate %.0f%% above %.0f%%", st.MissRate*100, c.cfg.MissRateWarning*100),
		})
	}
	if c.cfg.MemoryWarning > 0 && st.BytesCached > c.cfg.MemoryWarning {
		ws = append(ws, Warning{
			Kind:    "cache_memory",
			Message: fmt.Sprintf("cached image bytes %d above %d", st.BytesCached, c.cfg.MemoryWarning),
		})
	}
	if c.cfg.PeakGenerationWarning > 0 && st.LastFrameDemand > c.cfg.PeakGenerationWarning {
		ws = append(ws, Warning{
			Kind:    "cache_generation_spike",
			Message: fmt.Sprintf("generation demand %d in one frame above %d", st.LastFrameDemand, c.cfg.PeakGenerationWarning),
		})
	}
	return ws
}
