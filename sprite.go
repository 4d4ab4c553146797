package depth

import (
	"image"
	"math"
)

// Sprite carries the depth-field state of one renderable entity: world
// position, depth, base size and velocity, plus the derived values
// (quantized scale, LOD tier, fog intensity, perspective weights) that are
// expensive enough to cache. Derived values stay valid until the depth
// moves beyond Config.DepthEpsilon; position and size reads always combine
// the cached weights with the live X/Y/W/H fields, so ordinary movement
// never invalidates anything.
//
// Sprites are created through Projection.NewSprite (or Pipeline.NewSprite)
// and are owned by game logic. Depth changes must go through SetDepth; the
// remaining fields are plain data the host mutates freely.
type Sprite struct {
	// X and Y are the world position of the sprite's visual center.
	X, Y float64
	// VX and VY are the velocity in world units per second, integrated by
	// Advance. The subsystem never applies them on its own.
	VX, VY float64
	// W and H are the base (unscaled) size in pixels, used for culling and
	// for the visual-size accessors.
	W, H float64

	proj *Projection

	z       float64
	cachedZ float64
	dirty   bool

	scale    float64
	rawScale float64
	lod      LOD
	fog      float64
	tx, ty   float64

	lastUpdate int64

	// Budget fallback: the most recent scaled image actually drawn, reused
	// when the cache answers nil mid-burst.
	lastImage      *image.RGBA
	lastImageScale float64
}

// NewSprite creates a sprite bound to this projection with its derived
// values already computed. Depth is clamped to [0, MaxDepth].
func (p *Projection) NewSprite(x, y, z, w, h float64) *Sprite {
	s := &Sprite{
		X: x, Y: y,
		W: w, H: h,
		proj: p,
		z:    clampf(z, 0, p.cfg.MaxDepth),
	}
	s.refresh()
	return s
}

// Depth returns the current depth. 0 is nearest, MaxDepth farthest.
func (s *Sprite) Depth() float64 { return s.z }

// SetDepth writes a new depth, clamped to [0, MaxDepth]. Derived values are
// invalidated only when the depth has drifted more than DepthEpsilon from
// the value they were computed at, so tiny oscillations keep the cache.
func (s *Sprite) SetDepth(z float64) {
	s.z = clampf(z, 0, s.proj.cfg.MaxDepth)
	if math.Abs(s.z-s.cachedZ) > s.proj.cfg.DepthEpsilon {
		s.dirty = true
	}
}

func (s *Sprite) ensure() {
	if s.dirty {
		s.refresh()
	}
}

func (s *Sprite) refresh() {
	p := s.proj
	s.rawScale = p.RawScale(s.z)
	s.scale = p.q.snap(s.rawScale)
	s.lod = p.LODFor(s.scale)
	s.fog = p.FogFor(s.scale)
	s.tx, s.ty = p.offsets(s.z)
	s.cachedZ = s.z
	s.dirty = false
}

// release drops state that must not outlive group membership.
func (s *Sprite) release() {
	s.lastImage = nil
	s.lastImageScale = 0
	s.dirty = true
}

// Scale returns the quantized perspective scale for the current depth.
func (s *Sprite) Scale() float64 {
	s.ensure()
	return s.scale
}

// RawScale returns the unquantized scale 1/(1+z*DepthFactor). At z = 0 it
// is exactly 1.
func (s *Sprite) RawScale() float64 {
	s.ensure()
	return s.rawScale
}

// LOD returns the detail tier for the current depth.
func (s *Sprite) LOD() LOD {
	s.ensure()
	return s.lod
}

// FogIntensity returns the fog blend factor in [0, FogMaxIntensity].
func (s *Sprite) FogIntensity() float64 {
	s.ensure()
	return s.fog
}

// ScreenPosition returns the sprite center projected onto the screen. At
// z = 0 it equals the world position exactly.
func (s *Sprite) ScreenPosition() (sx, sy float64) {
	s.ensure()
	return s.X + (s.proj.vpX-s.X)*s.tx, s.Y + (s.proj.vpY-s.Y)*s.ty
}

// VisualSize returns the scaled on-screen size in pixels.
func (s *Sprite) VisualSize() (w, h float64) {
	s.ensure()
	return s.W * s.scale, s.H * s.scale
}

// ShouldRender reports whether the sprite is worth drawing: false when the
// quantized scale dropped below MinRenderScale or either scaled dimension
// fell below MinRenderSize.
func (s *Sprite) ShouldRender() bool {
	s.ensure()
	c := &s.proj.cfg
	if s.scale < c.MinRenderScale {
		return false
	}
	return s.W*s.scale >= c.MinRenderSize && s.H*s.scale >= c.MinRenderSize
}

// ShouldUpdate reports whether the sprite's LOD tier is due for a game
// update at the given tick. The gate is per-sprite (ticks since this
// sprite's last update), so same-tier sprites do not update in synchronized
// bursts.
func (s *Sprite) ShouldUpdate(frame int64) bool {
	s.ensure()
	return frame-s.lastUpdate >= s.proj.updateInterval(s.lod)
}

// MarkUpdated records that the sprite ran its update at the given tick.
// RenderGroup.Update calls it automatically; hosts driving sprites directly
// pair it with ShouldUpdate.
func (s *Sprite) MarkUpdated(frame int64) { s.lastUpdate = frame }

// Advance integrates the velocity over dt seconds. A convenience for hosts
// whose update logic is plain drift.
func (s *Sprite) Advance(dt float64) {
	s.X += s.VX * dt
	s.Y += s.VY * dt
}

// screenRect centers a w x h pixel image on the sprite's screen position.
func (s *Sprite) screenRect(w, h int) image.Rectangle {
	sx, sy := s.ScreenPosition()
	x0 := int(math.Round(sx - float64(w)/2))
	y0 := int(math.Round(sy - float64(h)/2))
	return image.Rect(x0, y0, x0+w, y0+h)
}
