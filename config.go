package depth

import (
	"fmt"
	"image/color"
	"time"
)

// degenerateScale is the floor below which a requested scale is rejected
// outright rather than quantized.
const degenerateScale = 0.01

// Config holds every tunable of the depth subsystem. It is plain data:
// construct it (usually starting from DefaultConfig), adjust fields, and
// hand it to NewPipeline. Constructors copy the value, so later mutation by
// the host has no effect; validation runs once at construction and the
// result is trusted afterwards.
type Config struct {
	// ScreenWidth and ScreenHeight are the target surface dimensions in
	// pixels. The vanishing point is resolved against them.
	ScreenWidth  int
	ScreenHeight int

	// VanishingPointX and VanishingPointY locate the perspective
	// convergence point as fractions of the screen size, e.g. {0.5, 0.33}
	// puts it at the horizontal center, a third of the way down.
	VanishingPointX float64
	VanishingPointY float64

	// PerspectiveX and PerspectiveY weight how strongly each axis pulls
	// toward the vanishing point as depth grows, in [0, 1]. Independent
	// factors let a vertical scroller flatten horizontal convergence.
	PerspectiveX float64
	PerspectiveY float64

	// DepthFactor drives the scale curve: scale = 1 / (1 + z*DepthFactor).
	DepthFactor float64
	// MaxDepth is the far plane. Depth writes are clamped to [0, MaxDepth];
	// z = 0 is nearest.
	MaxDepth float64
	// DepthEpsilon is the minimum depth change that invalidates a sprite's
	// cached derived values. Smaller oscillations keep the cache.
	DepthEpsilon float64

	// ScaleBuckets is the number of quantization buckets spanning
	// [MinScale, MaxScale]. Derived scales snap to the nearest bucket so
	// cache-key cardinality stays bounded.
	ScaleBuckets int
	MinScale     float64
	MaxScale     float64

	// MinRenderScale culls sprites whose quantized scale falls below it.
	// MinRenderSize culls sprites whose scaled width or height, in pixels,
	// falls below it.
	MinRenderScale float64
	MinRenderSize  float64

	// LODHighScale and LODMediumScale split the scale range into the three
	// detail tiers: scale >= LODHighScale is LODHigh, scale >=
	// LODMediumScale is LODMedium, anything smaller is LODLow.
	LODHighScale   float64
	LODMediumScale float64
	// UpdateRateHigh, UpdateRateMedium and UpdateRateLow are the fractions
	// of the frame rate at which each tier updates (1.0 = every tick,
	// 0.5 = every second tick, 0.25 = every fourth).
	UpdateRateHigh   float64
	UpdateRateMedium float64
	UpdateRateLow    float64

	// FogEnabled toggles distance fog. FogStartScale is the quantized scale
	// below which fog begins; intensity rises linearly toward 1.0 as scale
	// approaches zero and is capped at FogMaxIntensity. FogColor is the
	// blend target.
	FogEnabled      bool
	FogColor        color.RGBA
	FogStartScale   float64
	FogMaxIntensity float64

	// CacheCapacity is the maximum number of scaled images retained.
	CacheCapacity int
	// FrameBudget caps how many scaled images may be generated per frame
	// window; requests beyond it miss with a nil result. Zero disables
	// generation entirely (lookups still hit).
	FrameBudget int
	// BudgetWindow is the wall-clock fallback used to reset the per-frame
	// generation counter when the host never calls BeginFrame.
	BudgetWindow time.Duration
	// PeakGenerationWarning is the per-frame generation count treated as a
	// spike by the warning pass. Zero or negative disables the check.
	PeakGenerationWarning int

	// SortInterval is the minimum time between depth re-sorts of a render
	// group. The effective interval widens as membership grows.
	SortInterval time.Duration

	// Performance warning thresholds. FPSWarning and FPSCritical drive both
	// warnings and the suggested performance mode; MissRateWarning is the
	// cache miss rate (0..1) above which the cache is considered cold;
	// MemoryWarning is the cached-bytes estimate that triggers a memory
	// warning; FrameTimeWarning flags slow frames; CullRateWarning (0..1)
	// flags scenes where most sprites are culled.
	FPSWarning       float64
	FPSCritical      float64
	MissRateWarning  float64
	MemoryWarning    int64
	FrameTimeWarning time.Duration
	CullRateWarning  float64
}

// DefaultConfig returns the tuning used by the shipped examples: an 800x600
// surface with the vanishing point a third of the way down, 64 scale
// buckets on [0.05, 1.0], a 4-images-per-frame generation budget and a
// 512-entry cache.
func DefaultConfig() Config {
	return Config{
		ScreenWidth:     800,
		ScreenHeight:    600,
		VanishingPointX: 0.5,
		VanishingPointY: 0.33,
		PerspectiveX:    0.8,
		PerspectiveY:    0.5,

		DepthFactor:  0.002,
		MaxDepth:     1000,
		DepthEpsilon: 0.5,

		ScaleBuckets: 64,
		MinScale:     0.05,
		MaxScale:     1.0,

		MinRenderScale: 0.08,
		MinRenderSize:  2,

		LODHighScale:     0.7,
		LODMediumScale:   0.35,
		UpdateRateHigh:   1.0,
		UpdateRateMedium: 0.5,
		UpdateRateLow:    0.25,

		FogEnabled:      true,
		FogColor:        color.RGBA{R: 168, G: 178, B: 196, A: 255},
		FogStartScale:   0.65,
		FogMaxIntensity: 0.85,

		CacheCapacity:         512,
		FrameBudget:           4,
		BudgetWindow:          16 * time.Millisecond,
		PeakGenerationWarning: 8,

		SortInterval: 50 * time.Millisecond,

		FPSWarning:       45,
		FPSCritical:      25,
		MissRateWarning:  0.4,
		MemoryWarning:    64 << 20,
		FrameTimeWarning: 22 * time.Millisecond,
		CullRateWarning:  0.6,
	}
}

// Validate reports the first out-of-range field as an error wrapping
// ErrInvalidConfig. Constructors call it once; no per-call re-validation
// happens afterwards.
func (c *Config) Validate() error {
	if c.ScreenWidth < 1 || c.ScreenHeight < 1 {
		return fmt.Errorf("%w: screen size %dx%d", ErrInvalidConfig, c.ScreenWidth, c.ScreenHeight)
	}
	if c.VanishingPointX < 0 || c.VanishingPointX > 1 || c.VanishingPointY < 0 || c.VanishingPointY > 1 {
		return fmt.Errorf("%w: vanishing point (%g, %g) outside [0,1]", ErrInvalidConfig, c.VanishingPointX, c.VanishingPointY)
	}
	if c.PerspectiveX < 0 || c.PerspectiveX > 1 || c.PerspectiveY < 0 || c.PerspectiveY > 1 {
		return fmt.Errorf("%w: perspective factors (%g, %g) outside [0,1]", ErrInvalidConfig, c.PerspectiveX, c.PerspectiveY)
	}
	if c.DepthFactor <= 0 {
		return fmt.Errorf("%w: depth factor %g", ErrInvalidConfig, c.DepthFactor)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max depth %g", ErrInvalidConfig, c.MaxDepth)
	}
	if c.DepthEpsilon < 0 {
		return fmt.Errorf("%w: depth epsilon %g", ErrInvalidConfig, c.DepthEpsilon)
	}
	if c.ScaleBuckets < 2 {
		return fmt.Errorf("%w: %d scale buckets", ErrInvalidConfig, c.ScaleBuckets)
	}
	if c.MinScale <= degenerateScale || c.MaxScale <= c.MinScale {
		return fmt.Errorf("%w: scale range [%g, %g]", ErrInvalidConfig, c.MinScale, c.MaxScale)
	}
	if c.MinRenderScale < 0 || c.MinRenderSize < 0 {
		return fmt.Errorf("%w: culling thresholds scale=%g size=%g", ErrInvalidConfig, c.MinRenderScale, c.MinRenderSize)
	}
	if c.LODMediumScale <= 0 || c.LODHighScale <= c.LODMediumScale {
		return fmt.Errorf("%w: LOD thresholds high=%g medium=%g", ErrInvalidConfig, c.LODHighScale, c.LODMediumScale)
	}
	if !validRate(c.UpdateRateHigh) || !validRate(c.UpdateRateMedium) || !validRate(c.UpdateRateLow) {
		return fmt.Errorf("%w: update rates (%g, %g, %g) outside (0,1]", ErrInvalidConfig, c.UpdateRateHigh, c.UpdateRateMedium, c.UpdateRateLow)
	}
	if c.UpdateRateHigh < c.UpdateRateMedium || c.UpdateRateMedium < c.UpdateRateLow {
		return fmt.Errorf("%w: update rates (%g, %g, %g) not monotonic", ErrInvalidConfig, c.UpdateRateHigh, c.UpdateRateMedium, c.UpdateRateLow)
	}
	if c.FogEnabled {
		if c.FogStartScale <= 0 || c.FogStartScale > c.MaxScale {
			return fmt.Errorf("%w: fog start scale %g", ErrInvalidConfig, c.FogStartScale)
		}
		if c.FogMaxIntensity < 0 || c.FogMaxIntensity > 1 {
			return fmt.Errorf("%w: fog max intensity %g", ErrInvalidConfig, c.FogMaxIntensity)
		}
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("%w: cache capacity %d", ErrInvalidConfig, c.CacheCapacity)
	}
	if c.FrameBudget < 0 {
		return fmt.Errorf("%w: frame budget %d", ErrInvalidConfig, c.FrameBudget)
	}
	if c.BudgetWindow <= 0 {
		return fmt.Errorf("%w: budget window %s", ErrInvalidConfig, c.BudgetWindow)
	}
	if c.SortInterval < 0 {
		return fmt.Errorf("%w: sort interval %s", ErrInvalidConfig, c.SortInterval)
	}
	if c.FPSCritical < 0 || c.FPSWarning < c.FPSCritical {
		return fmt.Errorf("%w: fps thresholds warning=%g critical=%g", ErrInvalidConfig, c.FPSWarning, c.FPSCritical)
	}
	if c.MissRateWarning < 0 || c.MissRateWarning > 1 {
		return fmt.Errorf("%w: miss rate warning %g", ErrInvalidConfig, c.MissRateWarning)
	}
	if c.CullRateWarning < 0 || c.CullRateWarning > 1 {
		return fmt.Errorf("%w: cull rate warning %g", ErrInvalidConfig, c.CullRateWarning)
	}
	if c.MemoryWarning < 0 || c.FrameTimeWarning < 0 {
		return fmt.Errorf("%w: memory warning %d, frame time warning %s", ErrInvalidConfig, c.MemoryWarning, c.FrameTimeWarning)
	}
	return nil
}

func validRate(r float64) bool { return r > 0 && r <= 1 }
