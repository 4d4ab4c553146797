package depth

import (
	"fmt"
	"math"
)

// LOD is the level-of-detail tier a sprite lands in based on its quantized
// scale. Smaller (more distant) sprites update less often.
type LOD uint8

const (
	LODHigh LOD = iota
	LODMedium
	LODLow
)

func (l LOD) String() string {
	switch l {
	case LODHigh:
		return "high"
	case LODMedium:
		return "medium"
	case LODLow:
		return "low"
	default:
		return fmt.Sprintf("LOD(%d)", uint8(l))
	}
}

// quantizer snaps raw scales onto a fixed, precomputed bucket table so the
// set of distinct scales (and therefore cache keys) stays bounded. Buckets
// are evenly spaced over [min, max], ascending; lookup is O(1) index math,
// not a search.
type quantizer struct {
	buckets []float64
	min     float64
	step    float64
}

func newQuantizer(min, max float64, n int) quantizer {
	q := quantizer{
		buckets: make([]float64, n),
		min:     min,
		step:    (max - min) / float64(n-1),
	}
	for i := range q.buckets {
		q.buckets[i] = min + float64(i)*q.step
	}
	// Pin the top bucket so a scale of exactly max survives quantization
	// without float drift.
	q.buckets[n-1] = max
	return q
}

// index returns the bucket nearest to s, clamped to the table bounds.
func (q quantizer) index(s float64) int {
	i := int(math.Round((s - q.min) / q.step))
	if i < 0 {
		return 0
	}
	if i >= len(q.buckets) {
		return len(q.buckets) - 1
	}
	return i
}

// snap quantizes s to its bucket's value.
func (q quantizer) snap(s float64) float64 { return q.buckets[q.index(s)] }

// Projection turns depth coordinates into screen-space quantities: scale,
// screen position, fog intensity and LOD tier. It precomputes the scale
// bucket table, the vanishing point in pixels and the per-tier update
// intervals from a validated Config, and is immutable afterwards. One
// Projection is shared by every sprite of a Pipeline.
type Projection struct {
	cfg       Config
	q         quantizer
	vpX, vpY  float64
	intervals [3]int64
}

// NewProjection validates cfg and builds the projection. Most hosts get one
// implicitly through NewPipeline; constructing it directly is useful for
// headless math (tools, tests).
func NewProjection(cfg Config) (*Projection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Projection{
		cfg: cfg,
		q:   newQuantizer(cfg.MinScale, cfg.MaxScale, cfg.ScaleBuckets),
		vpX: cfg.VanishingPointX * float64(cfg.ScreenWidth),
		vpY: cfg.VanishingPointY * float64(cfg.ScreenHeight),
	}
	p.intervals = [3]int64{
		rateInterval(cfg.UpdateRateHigh),
		rateInterval(cfg.UpdateRateMedium),
		rateInterval(cfg.UpdateRateLow),
	}
	return p, nil
}

// rateInterval converts an update rate (fraction of frame rate) into a tick
// interval: 1.0 -> every tick, 0.5 -> every 2nd, 0.25 -> every 4th.
func rateInterval(rate float64) int64 {
	return int64(math.Round(1 / rate))
}

// Config returns a copy of the configuration the projection was built from.
func (p *Projection) Config() Config { return p.cfg }

// RawScale returns the unquantized perspective scale for depth z:
// 1 / (1 + z*DepthFactor), with z clamped to [0, MaxDepth]. At z = 0 the
// result is exactly 1.
func (p *Projection) RawScale(z float64) float64 {
	z = clampf(z, 0, p.cfg.MaxDepth)
	return 1 / (1 + z*p.cfg.DepthFactor)
}

// ScaleFor returns the quantized scale for depth z.
func (p *Projection) ScaleFor(z float64) float64 {
	return p.q.snap(p.RawScale(z))
}

// Quantize snaps an arbitrary scale to the nearest bucket. Quantization is
// idempotent: Quantize(Quantize(s)) == Quantize(s).
func (p *Projection) Quantize(s float64) float64 { return p.q.snap(s) }

// Buckets returns a copy of the scale bucket table in ascending order.
func (p *Projection) Buckets() []float64 {
	out := make([]float64, len(p.q.buckets))
	copy(out, p.q.buckets)
	return out
}

// offsets returns the per-axis interpolation weights toward the vanishing
// point at depth z.
func (p *Projection) offsets(z float64) (tx, ty float64) {
	t := clampf(z, 0, p.cfg.MaxDepth) / p.cfg.MaxDepth
	return t * p.cfg.PerspectiveX, t * p.cfg.PerspectiveY
}

// ScreenPosition projects the world position (x, y) at depth z onto the
// screen by pulling each axis toward the vanishing point. At z = 0 the
// result equals the world position exactly.
func (p *Projection) ScreenPosition(x, y, z float64) (sx, sy float64) {
	tx, ty := p.offsets(z)
	return x + (p.vpX-x)*tx, y + (p.vpY-y)*ty
}

// LODFor maps a quantized scale to its detail tier.
func (p *Projection) LODFor(scale float64) LOD {
	switch {
	case scale >= p.cfg.LODHighScale:
		return LODHigh
	case scale >= p.cfg.LODMediumScale:
		return LODMedium
	default:
		return LODLow
	}
}

// FogFor returns the fog intensity for a quantized scale: 0 at or above
// FogStartScale, rising linearly toward 1.0 as the scale approaches zero,
// capped at FogMaxIntensity. Always 0 when fog is disabled.
func (p *Projection) FogFor(scale float64) float64 {
	c := &p.cfg
	if !c.FogEnabled || scale >= c.FogStartScale {
		return 0
	}
	f := (c.FogStartScale - scale) / c.FogStartScale
	return clampf(f, 0, c.FogMaxIntensity)
}

// updateInterval returns the tick interval for a detail tier.
func (p *Projection) updateInterval(l LOD) int64 { return p.intervals[l] }

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
