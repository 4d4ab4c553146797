package depth

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
	"time"

	"github.com/gogpu/depth/internal/blit"
)

// widenStep stretches the sort debounce with membership: the effective
// interval is SortInterval * (1 + members/widenStep), so big groups resort
// less often.
const widenStep = 256

// Debug overlay colors: sprite bounds and the depth tick bar.
var (
	debugOutline = color.RGBA{R: 64, G: 255, B: 128, A: 255}
	debugTick    = color.RGBA{R: 255, G: 96, B: 64, A: 255}
)

// RenderGroup owns an independently ordered set of renderables and draws
// them far to near (painter's algorithm). Sorting is debounced: membership
// changes and epsilon-crossing depth changes mark the order dirty, and the
// group re-sorts at most once per effective interval, rendering with the
// stale order in between. Removal takes effect immediately through a
// membership check, so a stale order never draws a removed entity.
//
// A group constructed with NewRenderGroup accepts members and ticks
// updates, but draws only after Pipeline.AddGroup attaches the pipeline's
// cache, monitor and clock.
type RenderGroup struct {
	name string

	cache *ScalingCache
	mon   *PerformanceMonitor
	clock Clock
	cfg   Config
	debug bool

	members map[Renderable]int64
	seq     int64

	depthOrder []DepthRenderable
	flatOrder  []FlatRenderable
	sorted     bool
	sortDirty  bool
	lastSort   time.Time
}

// NewRenderGroup builds an unwired group.
func NewRenderGroup(name string) *RenderGroup {
	return &RenderGroup{
		name:    name,
		clock:   SystemClock(),
		members: make(map[Renderable]int64),
	}
}

// attach wires the pipeline services into the group. Pipeline.AddGroup
// calls this; a fresh sort is forced so the first render sees every member.
func (g *RenderGroup) attach(p *Pipeline) {
	g.cache = p.cache
	g.mon = p.mon
	g.clock = p.clock
	g.cfg = p.cfg
	g.debug = p.debug
	g.sorted = false
	g.sortDirty = true
}

// Name returns the label the group was created with.
func (g *RenderGroup) Name() string { return g.name }

// Len returns the current membership count.
func (g *RenderGroup) Len() int { return len(g.members) }

// Add registers r. Depth-capable members enter the draw order at the next
// sort; flat members draw after all depth members, in insertion order. An
// entity already present is left as is.
func (g *RenderGroup) Add(r Renderable) {
	if r == nil {
		return
	}
	if _, ok := g.members[r]; ok {
		return
	}
	g.seq++
	g.members[r] = g.seq
	g.sortDirty = true
}

// Remove unregisters r. Removal is immediate: stale draw orders skip
// non-members, so a removed entity never renders again even before the
// next sort. The sprite's retained rendition is released.
func (g *RenderGroup) Remove(r Renderable) {
	if _, ok := g.members[r]; !ok {
		return
	}
	delete(g.members, r)
	g.sortDirty = true
	if d, ok := r.(DepthRenderable); ok {
		if s := d.Sprite(); s != nil {
			s.release()
		}
	}
}

// Update ticks every member whose LOD tier is due this frame. Members
// gated out by their tier keep their prior state this tick. A panicking
// member is logged and skipped, never aborting the pass. Iteration order
// is unspecified; member updates must not depend on each other.
func (g *RenderGroup) Update(dt float64, frame int64) {
	for r := range g.members {
		g.updateOne(r, dt, frame)
	}
}

func (g *RenderGroup) updateOne(r Renderable, dt float64, frame int64) {
	defer func() {
		if v := recover(); v != nil {
			Logger().Warn("renderable update panicked", "group", g.name, "panic", v)
		}
	}()
	d, ok := r.(DepthRenderable)
	if !ok {
		r.Update(dt)
		return
	}
	s := d.Sprite()
	if s == nil {
		r.Update(dt)
		return
	}
	if !s.ShouldUpdate(frame) {
		return
	}
	r.Update(dt)
	s.MarkUpdated(frame)
	if s.dirty {
		g.sortDirty = true
	}
}

// Render draws the group far to near onto dst. Per entity: cull check,
// scaled rendition from the cache (falling back to the previous rendition
// when the generation budget denies a fresh one), fog-blended blit. A
// panic inside one entity's draw is recovered and counted; the rest of the
// frame proceeds. Unwired groups draw nothing.
func (g *RenderGroup) Render(dst draw.Image) {
	if g.cache == nil || dst == nil {
		return
	}
	g.ensureSorted()

	var rendered, culled, skipped, deferred int
	for _, r := range g.depthOrder {
		if _, ok := g.members[r]; !ok {
			continue
		}
		g.renderDepth(dst, r, &rendered, &culled, &skipped, &deferred)
	}
	for _, f := range g.flatOrder {
		if _, ok := g.members[f]; !ok {
			continue
		}
		g.renderFlat(dst, f, &rendered, &skipped)
	}
	if g.mon != nil {
		g.mon.recordRender(rendered, culled, skipped, deferred)
	}
}

func (g *RenderGroup) renderDepth(dst draw.Image, r DepthRenderable, rendered, culled, skipped, deferred *int) {
	defer func() {
		if v := recover(); v != nil {
			*skipped++
			Logger().Warn("sprite render panicked", "group", g.name, "panic", v)
		}
	}()
	s := r.Sprite()
	if s == nil {
		*skipped++
		return
	}
	// Depth writes outside Update still reorder the group: catch the dirty
	// flag here before ensure clears it.
	if s.dirty {
		g.sortDirty = true
	}
	s.ensure()
	if !s.ShouldRender() {
		*culled++
		return
	}
	img := g.cache.GetScaled(r.Image(), s.Scale())
	if img == nil {
		if s.lastImage != nil {
			g.blitSprite(dst, s, s.lastImage)
			*deferred++
			return
		}
		*skipped++
		return
	}
	s.lastImage = img
	s.lastImageScale = s.Scale()
	g.blitSprite(dst, s, img)
	*rendered++
}

func (g *RenderGroup) blitSprite(dst draw.Image, s *Sprite, img *image.RGBA) {
	rect := s.screenRect(img.Bounds().Dx(), img.Bounds().Dy())
	blit.DrawFogged(dst, rect.Min, img, g.cfg.FogColor, s.FogIntensity())
	if g.debug {
		g.drawDebug(dst, s, rect)
	}
}

func (g *RenderGroup) renderFlat(dst draw.Image, f FlatRenderable, rendered, skipped *int) {
	defer func() {
		if v := recover(); v != nil {
			*skipped++
			Logger().Warn("flat render panicked", "group", g.name, "panic", v)
		}
	}()
	img := f.Image()
	if img == nil {
		*skipped++
		return
	}
	b := f.Bounds()
	blit.Draw(dst, b.Min, blit.ToRGBA(img))
	if g.debug {
		blit.Outline(dst, b, debugOutline)
	}
	*rendered++
}

// RenderFunc is Render with the compositor inverted: each entity that
// would have been blitted is handed to fn with its rendition, destination
// rectangle and fog intensity. Sorting, culling, budget fallback, panic
// isolation and stats behave exactly as in Render. The debug overlay is
// not drawn; adapters own their target.
func (g *RenderGroup) RenderFunc(fn DrawFunc) {
	if g.cache == nil || fn == nil {
		return
	}
	g.ensureSorted()

	var rendered, culled, skipped, deferred int
	for _, r := range g.depthOrder {
		if _, ok := g.members[r]; !ok {
			continue
		}
		g.renderDepthFunc(fn, r, &rendered, &culled, &skipped, &deferred)
	}
	for _, f := range g.flatOrder {
		if _, ok := g.members[f]; !ok {
			continue
		}
		g.renderFlatFunc(fn, f, &rendered, &skipped)
	}
	if g.mon != nil {
		g.mon.recordRender(rendered, culled, skipped, deferred)
	}
}

func (g *RenderGroup) renderDepthFunc(fn DrawFunc, r DepthRenderable, rendered, culled, skipped, deferred *int) {
	defer func() {
		if v := recover(); v != nil {
			*skipped++
			Logger().Warn("sprite render panicked", "group", g.name, "panic", v)
		}
	}()
	s := r.Sprite()
	if s == nil {
		*skipped++
		return
	}
	if s.dirty {
		g.sortDirty = true
	}
	s.ensure()
	if !s.ShouldRender() {
		*culled++
		return
	}
	img := g.cache.GetScaled(r.Image(), s.Scale())
	if img == nil {
		if s.lastImage != nil {
			b := s.lastImage.Bounds()
			fn(s.lastImage, s.screenRect(b.Dx(), b.Dy()), s.FogIntensity())
			*deferred++
			return
		}
		*skipped++
		return
	}
	s.lastImage = img
	s.lastImageScale = s.Scale()
	b := img.Bounds()
	fn(img, s.screenRect(b.Dx(), b.Dy()), s.FogIntensity())
	*rendered++
}

func (g *RenderGroup) renderFlatFunc(fn DrawFunc, f FlatRenderable, rendered, skipped *int) {
	defer func() {
		if v := recover(); v != nil {
			*skipped++
			Logger().Warn("flat render panicked", "group", g.name, "panic", v)
		}
	}()
	img := f.Image()
	if img == nil {
		*skipped++
		return
	}
	fn(blit.ToRGBA(img), f.Bounds(), 0)
	*rendered++
}

// drawDebug overlays the sprite's bounds and a depth tick: a bar along the
// top edge whose filled fraction is z/MaxDepth.
func (g *RenderGroup) drawDebug(dst draw.Image, s *Sprite, rect image.Rectangle) {
	blit.Outline(dst, rect, debugOutline)
	if g.cfg.MaxDepth <= 0 {
		return
	}
	w := int(float64(rect.Dx()) * (s.Depth() / g.cfg.MaxDepth))
	if w <= 0 {
		return
	}
	blit.Fill(dst, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+w, rect.Min.Y+1), debugTick)
}

// ensureSorted rebuilds the draw order when it is dirty and the debounce
// window has passed. The first sort after construction or attach runs
// unconditionally.
func (g *RenderGroup) ensureSorted() {
	if g.sorted && !g.sortDirty {
		return
	}
	now := g.clock.Now()
	if g.sorted && now.Sub(g.lastSort) < g.effectiveInterval() {
		return
	}
	g.resort(now)
}

// effectiveInterval widens the debounce as membership grows, trading
// ordering latency for fewer large sorts.
func (g *RenderGroup) effectiveInterval() time.Duration {
	return g.cfg.SortInterval * time.Duration(1+len(g.members)/widenStep)
}

type depthSortEntry struct {
	r   DepthRenderable
	z   float64
	seq int64
}

func (g *RenderGroup) resort(now time.Time) {
	entries := make([]depthSortEntry, 0, len(g.members))
	flats := make([]FlatRenderable, 0)
	for r, seq := range g.members {
		switch v := r.(type) {
		case DepthRenderable:
			var z float64
			if s := v.Sprite(); s != nil {
				z = s.Depth()
			}
			entries = append(entries, depthSortEntry{r: v, z: z, seq: seq})
		case FlatRenderable:
			flats = append(flats, v)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].z != entries[j].z {
			return entries[i].z > entries[j].z
		}
		return entries[i].seq < entries[j].seq
	})
	sort.Slice(flats, func(i, j int) bool {
		return g.members[flats[i]] < g.members[flats[j]]
	})

	g.depthOrder = g.depthOrder[:0]
	for _, e := range entries {
		g.depthOrder = append(g.depthOrder, e.r)
	}
	g.flatOrder = flats
	g.sorted = true
	g.sortDirty = false
	g.lastSort = now

	elapsed := g.clock.Now().Sub(now)
	if g.mon != nil {
		g.mon.noteSort(elapsed, len(g.depthOrder))
	}
	Logger().Debug("render group sorted",
		"group", g.name, "depth", len(g.depthOrder), "flat", len(g.flatOrder), "took", elapsed)
}

// Sprites returns the depth states of the current members in draw order
// (far to near as of the last sort). Intended for overlays and tests.
func (g *RenderGroup) Sprites() []*Sprite {
	out := make([]*Sprite, 0, len(g.depthOrder))
	for _, r := range g.depthOrder {
		if _, ok := g.members[r]; !ok {
			continue
		}
		if s := r.Sprite(); s != nil {
			out = append(out, s)
		}
	}
	return out
}
