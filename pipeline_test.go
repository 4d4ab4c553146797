package depth

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewPipelineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 0
	p, err := NewPipeline(cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("NewPipeline() error = %v, want ErrInvalidConfig", err)
	}
	if p != nil {
		t.Error("NewPipeline() returned a pipeline alongside the error")
	}
}

func TestNewPipelineWiresComponents(t *testing.T) {
	p, _ := testPipeline(t, centeredConfig())

	if p.Projection() == nil || p.Cache() == nil || p.Monitor() == nil {
		t.Fatal("pipeline missing a component")
	}
	if got := p.Frame(); got != 0 {
		t.Errorf("Frame() = %d before any update, want 0", got)
	}
	if got := p.EffectiveMode(); got != ModeHigh {
		t.Errorf("EffectiveMode() = %v at startup, want High", got)
	}
	if got := p.Config().ScreenWidth; got != 800 {
		t.Errorf("Config().ScreenWidth = %d, want 800", got)
	}
}

func TestWithCacheSharesRenditions(t *testing.T) {
	cfg := centeredConfig()
	shared, err := NewScalingCache(cfg)
	if err != nil {
		t.Fatalf("NewScalingCache() = %v", err)
	}

	p1, _ := testPipeline(t, cfg, WithCache(shared))
	p2, _ := testPipeline(t, cfg, WithCache(shared))
	if p1.Cache() != shared || p2.Cache() != shared {
		t.Fatal("WithCache did not install the shared cache")
	}

	src := solidRGBA(16, 16, color.RGBA{R: 200, A: 255})
	if p1.Cache().GetScaled(src, 0.5) == nil {
		t.Fatal("generation through the first pipeline failed")
	}
	if p2.Cache().GetScaled(src, 0.5) == nil {
		t.Fatal("lookup through the second pipeline failed")
	}

	st := shared.Stats()
	if st.Generated != 1 {
		t.Errorf("Generated = %d, want 1 shared generation", st.Generated)
	}
	if st.Hits != 1 {
		t.Errorf("Hits = %d, want the second pipeline to hit", st.Hits)
	}
}

func TestWithMonitorInjects(t *testing.T) {
	cfg := centeredConfig()
	mon, err := NewPerformanceMonitor(cfg)
	if err != nil {
		t.Fatalf("NewPerformanceMonitor() = %v", err)
	}
	p, _ := testPipeline(t, cfg, WithMonitor(mon))
	if p.Monitor() != mon {
		t.Error("WithMonitor did not install the monitor")
	}
}

func TestWithFullHashing(t *testing.T) {
	p, _ := testPipeline(t, centeredConfig(), WithFullHashing())
	if !p.Cache().fullHash {
		t.Error("WithFullHashing did not reach the cache")
	}
}

func TestGroupRegistration(t *testing.T) {
	p, _ := testPipeline(t, centeredConfig())

	a := p.NewGroup("a")
	b := p.NewGroup("b")

	gs := p.Groups()
	if len(gs) != 2 || gs[0] != a || gs[1] != b {
		t.Fatalf("Groups() = %d entries, want [a b]", len(gs))
	}

	p.AddGroup(a) // re-adding is a no-op
	p.AddGroup(nil)
	if got := len(p.Groups()); got != 2 {
		t.Errorf("Groups() = %d after duplicate add, want 2", got)
	}

	p.RemoveGroup(a)
	gs = p.Groups()
	if len(gs) != 1 || gs[0] != b {
		t.Fatalf("Groups() after remove = %d entries, want [b]", len(gs))
	}

	// The returned slice is a copy.
	gs[0] = nil
	if p.Groups()[0] != b {
		t.Error("mutating the returned slice reached the pipeline")
	}
}

func TestUpdateGatesByLODTier(t *testing.T) {
	p, _ := testPipeline(t, centeredConfig())
	g := p.NewGroup("world")

	// near updates every tick, far every 4th.
	near := newMock(p, 100, 100, 0, color.RGBA{R: 255, A: 255})
	far := newMock(p, 200, 100, 1000, color.RGBA{B: 255, A: 255})
	g.Add(near)
	g.Add(far)

	for range 4 {
		p.Update(0.016)
	}

	if got := p.Frame(); got != 4 {
		t.Errorf("Frame() = %d, want 4", got)
	}
	if near.updates != 4 {
		t.Errorf("near updates = %d, want 4", near.updates)
	}
	if far.updates != 1 {
		t.Errorf("far updates = %d, want 1 (due on the 4th tick)", far.updates)
	}
}

func TestRenderSceneBracketsFrame(t *testing.T) {
	cfg := centeredConfig()
	p, _ := testPipeline(t, cfg)
	g := p.NewGroup("world")
	g.Add(newMock(p, 400, 300, 500, color.RGBA{G: 255, A: 255}))

	dst := newFrame(cfg)
	p.RenderScene(dst)

	if got := dst.RGBAAt(400, 300); !colorNear(got, color.RGBA{G: 255, A: 255}, 1) {
		t.Errorf("center = %v, want the sprite's green", got)
	}
	mst := p.MonitorStats()
	if mst.Frames != 1 {
		t.Errorf("Frames = %d, want 1", mst.Frames)
	}
	if mst.Rendered != 1 {
		t.Errorf("Rendered = %d, want 1", mst.Rendered)
	}
	if cst := p.CacheStats(); cst.Generated != 1 {
		t.Errorf("Generated = %d, want 1", cst.Generated)
	}
}

func TestRenderSceneFuncHandsOffEntities(t *testing.T) {
	cfg := centeredConfig()
	p, _ := testPipeline(t, cfg)
	g := p.NewGroup("world")

	far := newMock(p, 400, 300, 900, color.RGBA{R: 255, A: 255})
	near := newMock(p, 400, 300, 0, color.RGBA{B: 255, A: 255})
	hud := &mockFlat{
		img: solidRGBA(20, 20, color.RGBA{G: 255, A: 255}),
		at:  image.Rect(10, 10, 30, 30),
	}
	g.Add(near)
	g.Add(far)
	g.Add(hud)

	type call struct {
		rect image.Rectangle
		fog  float64
	}
	var calls []call
	p.RenderSceneFunc(func(img *image.RGBA, rect image.Rectangle, fog float64) {
		calls = append(calls, call{rect, fog})
	})

	if len(calls) != 3 {
		t.Fatalf("DrawFunc ran %d times, want 3", len(calls))
	}
	// Far to near, flat last.
	if calls[0].rect.Dx() >= calls[1].rect.Dx() {
		t.Errorf("first call rect %v not smaller than second %v (far before near)",
			calls[0].rect, calls[1].rect)
	}
	if calls[1].rect != image.Rect(384, 284, 416, 316) {
		t.Errorf("near rect = %v, want full-size centered rect", calls[1].rect)
	}
	if calls[2].rect != hud.at {
		t.Errorf("flat rect = %v, want %v", calls[2].rect, hud.at)
	}
	for i, c := range calls {
		if c.fog != 0 {
			t.Errorf("call %d fog = %g with fog disabled, want 0", i, c.fog)
		}
	}
	if st := p.MonitorStats(); st.Rendered != 3 {
		t.Errorf("Rendered = %d, want 3", st.Rendered)
	}

	p.RenderSceneFunc(nil) // must not panic
}

func TestModeOverride(t *testing.T) {
	p, _ := testPipeline(t, centeredConfig())

	if got := p.EffectiveMode(); got != ModeHigh {
		t.Fatalf("EffectiveMode() = %v, want the monitor's High", got)
	}

	p.SetModeOverride(ModeLow)
	if got := p.EffectiveMode(); got != ModeLow {
		t.Errorf("EffectiveMode() = %v with override, want Low", got)
	}
	if got := p.RenderStats().Mode; got != ModeLow {
		t.Errorf("RenderStats().Mode = %v, want Low", got)
	}

	p.ClearModeOverride()
	if got := p.EffectiveMode(); got != ModeHigh {
		t.Errorf("EffectiveMode() = %v after clear, want High", got)
	}
}

func TestRenderStatsAggregates(t *testing.T) {
	p, _ := testPipeline(t, centeredConfig())
	a := p.NewGroup("a")
	b := p.NewGroup("b")

	a.Add(newMock(p, 100, 100, 0, color.RGBA{R: 255, A: 255}))
	b.Add(newMock(p, 200, 100, 0, color.RGBA{G: 255, A: 255}))
	b.Add(newMock(p, 300, 100, 0, color.RGBA{B: 255, A: 255}))

	p.Update(0.016)
	p.Update(0.016)

	st := p.RenderStats()
	if st.Frame != 2 {
		t.Errorf("Frame = %d, want 2", st.Frame)
	}
	if st.Groups != 2 {
		t.Errorf("Groups = %d, want 2", st.Groups)
	}
	if st.Members != 3 {
		t.Errorf("Members = %d, want 3", st.Members)
	}
	if st.Mode != ModeHigh {
		t.Errorf("Mode = %v, want High", st.Mode)
	}
}

func TestSetDebugVisualizationPropagates(t *testing.T) {
	p, _ := testPipeline(t, centeredConfig())
	before := p.NewGroup("before")

	p.SetDebugVisualization(true)
	after := p.NewGroup("after")

	if !before.debug || !after.debug {
		t.Error("debug flag missing on a group")
	}

	p.SetDebugVisualization(false)
	if before.debug || after.debug {
		t.Error("debug flag not cleared")
	}
}
