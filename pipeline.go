package depth

import (
	"image"
	"image/draw"
)

// Pipeline is the composition root: it validates a Config once and wires
// the projection, scaling cache, performance monitor and clock. There are
// no package-level singletons, so independent pipelines share nothing
// unless the host injects a shared component through WithCache or
// WithMonitor.
//
// Drive a pipeline from one goroutine, conventionally the host's render
// loop. The stats accessors delegate to internally synchronized components
// and may be read from anywhere.
type Pipeline struct {
	cfg   Config
	proj  *Projection
	cache *ScalingCache
	mon   *PerformanceMonitor
	clock Clock

	groups []*RenderGroup
	frame  int64
	debug  bool

	override    Mode
	hasOverride bool
}

// NewPipeline builds a pipeline from cfg. It returns ErrInvalidConfig
// (wrapped, naming the field) when cfg is unusable.
func NewPipeline(cfg Config, opts ...PipelineOption) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	proj, err := NewProjection(cfg)
	if err != nil {
		return nil, err
	}
	cache := o.cache
	if cache == nil {
		cache = newScalingCache(cfg, o.clock, o.fullHash)
	} else {
		cache.setClock(o.clock)
	}
	mon := o.monitor
	if mon == nil {
		mon = newPerformanceMonitor(cfg, o.clock)
	} else {
		mon.setClock(o.clock)
	}

	return &Pipeline{
		cfg:   cfg,
		proj:  proj,
		cache: cache,
		mon:   mon,
		clock: o.clock,
	}, nil
}

// Config returns the validated configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

// Projection returns the shared depth math. Sprites created through it are
// compatible with every group of this pipeline.
func (p *Pipeline) Projection() *Projection { return p.proj }

// Cache returns the scaling cache, for Prewarm and direct inspection.
func (p *Pipeline) Cache() *ScalingCache { return p.cache }

// Monitor returns the performance monitor.
func (p *Pipeline) Monitor() *PerformanceMonitor { return p.mon }

// NewSprite creates a sprite bound to this pipeline's projection, centered
// at world position (x, y) with depth z and base size w×h.
func (p *Pipeline) NewSprite(x, y, z, w, h float64) *Sprite {
	return p.proj.NewSprite(x, y, z, w, h)
}

// NewGroup creates a render group, attaches it to this pipeline and
// appends it to the render order.
func (p *Pipeline) NewGroup(name string) *RenderGroup {
	g := NewRenderGroup(name)
	p.AddGroup(g)
	return g
}

// AddGroup attaches g to this pipeline's cache, monitor and clock and
// appends it to the render order. Groups render in registration order. A
// group already registered here stays in place; a group registered with
// another pipeline is rewired to this one (remove it there first).
func (p *Pipeline) AddGroup(g *RenderGroup) {
	if g == nil {
		return
	}
	for _, have := range p.groups {
		if have == g {
			return
		}
	}
	g.attach(p)
	p.groups = append(p.groups, g)
	Logger().Debug("render group added", "group", g.Name(), "groups", len(p.groups))
}

// RemoveGroup detaches g from the render order. The group keeps its
// membership, so re-adding it resumes where it left off.
func (p *Pipeline) RemoveGroup(g *RenderGroup) {
	for i, have := range p.groups {
		if have == g {
			p.groups = append(p.groups[:i], p.groups[i+1:]...)
			return
		}
	}
}

// Groups returns the render order. The slice is a copy; the groups are not.
func (p *Pipeline) Groups() []*RenderGroup {
	return append([]*RenderGroup(nil), p.groups...)
}

// Update advances the frame counter and ticks every group. Members whose
// LOD tier is not due this frame are skipped and keep prior state. dt is
// game time in seconds.
func (p *Pipeline) Update(dt float64) {
	p.frame++
	for _, g := range p.groups {
		g.Update(dt, p.frame)
	}
}

// Frame returns the current update counter.
func (p *Pipeline) Frame() int64 { return p.frame }

// RenderScene draws every group, in registration order, onto dst. It
// brackets the pass with the monitor frame and the cache budget window,
// feeds the cache snapshot and its threshold breaches to the monitor, and
// gives the cache its periodic trim opportunity.
func (p *Pipeline) RenderScene(dst draw.Image) {
	p.mon.StartFrame()
	p.cache.BeginFrame()
	for _, g := range p.groups {
		g.Render(dst)
	}
	p.mon.ObserveCache(p.cache.Stats(), p.cache.CheckWarnings())
	p.mon.EndFrame()
	p.cache.Optimize()
}

// DrawFunc receives one drawable entity per call during RenderSceneFunc:
// the scaled rendition, its destination rectangle in screen pixels, and
// the fog intensity to apply. Renditions are shared cache entries; treat
// them as read-only.
type DrawFunc func(img *image.RGBA, rect image.Rectangle, fog float64)

// RenderSceneFunc runs the same pass as RenderScene (sorting, culling,
// budget fallback, stats) but hands each visible entity to fn instead of
// compositing onto a CPU target. GPU-backed adapters plug in here.
func (p *Pipeline) RenderSceneFunc(fn DrawFunc) {
	if fn == nil {
		return
	}
	p.mon.StartFrame()
	p.cache.BeginFrame()
	for _, g := range p.groups {
		g.RenderFunc(fn)
	}
	p.mon.ObserveCache(p.cache.Stats(), p.cache.CheckWarnings())
	p.mon.EndFrame()
	p.cache.Optimize()
}

// RenderStats is a small frame-level snapshot; CacheStats and MonitorStats
// carry the detailed counters.
type RenderStats struct {
	Frame   int64
	Groups  int
	Members int
	Mode    Mode
}

// RenderStats returns the frame counter, group count, total membership and
// the effective mode.
func (p *Pipeline) RenderStats() RenderStats {
	st := RenderStats{
		Frame:  p.frame,
		Groups: len(p.groups),
		Mode:   p.EffectiveMode(),
	}
	for _, g := range p.groups {
		st.Members += g.Len()
	}
	return st
}

// CacheStats returns the scaling cache snapshot.
func (p *Pipeline) CacheStats() CacheStats { return p.cache.Stats() }

// MonitorStats returns the performance monitor snapshot.
func (p *Pipeline) MonitorStats() MonitorStats { return p.mon.Stats() }

// SetDebugVisualization toggles the debug overlay: sprite bounds plus a
// depth tick along each sprite's top edge, drawn straight onto the render
// target. Applies to current and subsequently added groups.
func (p *Pipeline) SetDebugVisualization(on bool) {
	p.debug = on
	for _, g := range p.groups {
		g.debug = on
	}
}

// SetModeOverride pins EffectiveMode to m regardless of the monitor's
// suggestion, until ClearModeOverride.
func (p *Pipeline) SetModeOverride(m Mode) {
	p.override = m
	p.hasOverride = true
	Logger().Info("performance mode overridden", "mode", m)
}

// ClearModeOverride returns EffectiveMode to the monitor's suggestion.
func (p *Pipeline) ClearModeOverride() {
	p.hasOverride = false
}

// EffectiveMode is the host-facing performance tier: the override when one
// is set, otherwise the monitor's suggestion.
func (p *Pipeline) EffectiveMode() Mode {
	if p.hasOverride {
		return p.override
	}
	return p.mon.SuggestMode()
}
