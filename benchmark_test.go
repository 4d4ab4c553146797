package depth

import (
	"fmt"
	"image"
	"image/color"
	"testing"
)

var benchSink float64

// BenchmarkProjection_Resolve benchmarks the full per-sprite projection:
// depth scale, bucket snap, screen position, LOD tier and fog factor.
func BenchmarkProjection_Resolve(b *testing.B) {
	proj := mustProjection(b, DefaultConfig())

	depths := []struct {
		name string
		z    float64
	}{
		{"z0", 0},
		{"z250", 250},
		{"z500", 500},
		{"z1000", 1000},
	}

	for _, d := range depths {
		b.Run(d.name, func(b *testing.B) {
			b.ReportAllocs()
			var acc float64
			for i := 0; i < b.N; i++ {
				s := proj.Quantize(proj.ScaleFor(d.z))
				sx, sy := proj.ScreenPosition(400, 300, d.z)
				acc += s + sx + sy + proj.FogFor(s) + float64(proj.LODFor(s))
			}
			benchSink = acc
		})
	}
}

// BenchmarkCache_GetScaledHit benchmarks the steady-state lookup path for
// source art of various sizes.
func BenchmarkCache_GetScaledHit(b *testing.B) {
	sizes := []struct {
		name string
		px   int
	}{
		{"16x16", 16},
		{"32x32", 32},
		{"64x64", 64},
		{"128x128", 128},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			c, err := NewScalingCache(DefaultConfig())
			if err != nil {
				b.Fatalf("NewScalingCache: %v", err)
			}
			art := solidRGBA(size.px, size.px, color.RGBA{R: 200, A: 255})
			if err := c.Prewarm(art, 0.5); err != nil {
				b.Fatalf("Prewarm: %v", err)
			}
			r := c.GetScaled(art, 0.5)
			if r == nil {
				b.Fatal("prewarmed rendition missing")
			}
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				c.GetScaled(art, 0.5)
			}
			b.SetBytes(int64(r.Bounds().Dx() * r.Bounds().Dy() * 4))
		})
	}
}

// benchScene builds a pipeline with n sprites spread across the depth range,
// then renders until every rendition the scene needs is cached so that the
// timed frames measure lookup and blit, not generation.
func benchScene(b *testing.B, n int) *Pipeline {
	b.Helper()
	p, err := NewPipeline(DefaultConfig())
	if err != nil {
		b.Fatalf("NewPipeline: %v", err)
	}
	g := p.NewGroup("bench")
	palette := []color.RGBA{
		{R: 220, G: 80, B: 60, A: 255},
		{R: 70, G: 140, B: 220, A: 255},
		{R: 90, G: 190, B: 110, A: 255},
		{R: 230, G: 200, B: 90, A: 255},
	}
	for i := 0; i < n; i++ {
		x := float64(50 + (i*37)%700)
		y := float64(50 + (i*53)%500)
		z := float64((i * 97) % 1000)
		g.Add(newMock(p, x, y, z, palette[i%len(palette)]))
	}
	frame := newFrame(p.Config())
	for range 80 {
		p.RenderScene(frame)
	}
	return p
}

// BenchmarkRenderScene benchmarks a warm full-frame CPU render at several
// scene sizes.
func BenchmarkRenderScene(b *testing.B) {
	for _, n := range []int{50, 200, 500} {
		b.Run(fmt.Sprintf("%d_sprites", n), func(b *testing.B) {
			p := benchScene(b, n)
			frame := newFrame(p.Config())
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				p.RenderScene(frame)
			}
			cfg := p.Config()
			b.SetBytes(int64(cfg.ScreenWidth * cfg.ScreenHeight * 4))
		})
	}
}

// BenchmarkRenderSceneFunc benchmarks the draw-callback path that GPU
// adapters use. No pixels move; this isolates sorting, projection and cache
// lookup from blitting.
func BenchmarkRenderSceneFunc(b *testing.B) {
	for _, n := range []int{50, 200, 500} {
		b.Run(fmt.Sprintf("%d_sprites", n), func(b *testing.B) {
			p := benchScene(b, n)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				p.RenderSceneFunc(func(img *image.RGBA, rect image.Rectangle, fog float64) {})
			}
		})
	}
}

// BenchmarkUpdate benchmarks the entity update walk with LOD gating. Sprites
// span the whole depth range, so distant tiers skip most ticks.
func BenchmarkUpdate(b *testing.B) {
	p := benchScene(b, 500)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.Update(1.0 / 60)
	}
}
