package main

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/gogpu/depth"
)

// artVariants is how many distinct sprite images the scene shares. Sprites
// reusing the same art hit the cache through content signatures, which is
// the workload the cache is tuned for.
const artVariants = 8

// driftSprite is a synthetic entity: it drifts across the world in XY and
// oscillates in depth, bouncing off the near and far planes.
type driftSprite struct {
	s    *depth.Sprite
	img  *image.RGBA
	vz   float64
	maxZ float64
	w, h float64
}

func (d *driftSprite) Update(dt float64) {
	d.s.Advance(dt)
	if d.s.X < 0 {
		d.s.X += d.w
	} else if d.s.X >= d.w {
		d.s.X -= d.w
	}
	if d.s.Y < 0 {
		d.s.Y += d.h
	} else if d.s.Y >= d.h {
		d.s.Y -= d.h
	}

	z := d.s.Depth() + d.vz*dt
	if z < 0 {
		z = -z
		d.vz = -d.vz
	} else if z > d.maxZ {
		z = 2*d.maxZ - z
		d.vz = -d.vz
	}
	d.s.SetDepth(z)
}

func (d *driftSprite) Sprite() *depth.Sprite { return d.s }

func (d *driftSprite) Image() image.Image { return d.img }

// bench owns one pipeline driving a synthetic scene into an offscreen frame.
type bench struct {
	pipeline *depth.Pipeline
	group    *depth.RenderGroup
	frame    *image.RGBA
	sprites  []*driftSprite
}

func newBench(cfg depth.Config, sprites int, seed int64) (*bench, error) {
	p, err := depth.NewPipeline(cfg)
	if err != nil {
		return nil, err
	}
	b := &bench{
		pipeline: p,
		group:    p.NewGroup("bench"),
		frame:    image.NewRGBA(image.Rect(0, 0, cfg.ScreenWidth, cfg.ScreenHeight)),
	}

	rng := rand.New(rand.NewSource(seed))
	arts := make([]*image.RGBA, artVariants)
	for i := range arts {
		arts[i] = makeArt(rng, 16+rng.Intn(49))
	}
	// Seed the cache with a scale ladder per art so the first frames are not
	// one long generation burst.
	for _, art := range arts {
		_ = p.Cache().Prewarm(art, 0.25, 0.5, 0.75, 1.0)
	}

	w := float64(cfg.ScreenWidth)
	h := float64(cfg.ScreenHeight)
	b.sprites = make([]*driftSprite, 0, sprites)
	for range sprites {
		art := arts[rng.Intn(len(arts))]
		aw := float64(art.Bounds().Dx())
		ah := float64(art.Bounds().Dy())
		d := &driftSprite{
			s:    p.NewSprite(rng.Float64()*w, rng.Float64()*h, rng.Float64()*cfg.MaxDepth, aw, ah),
			img:  art,
			vz:   (rng.Float64()*2 - 1) * cfg.MaxDepth / 4,
			maxZ: cfg.MaxDepth,
			w:    w,
			h:    h,
		}
		d.s.VX = (rng.Float64()*2 - 1) * 40
		d.s.VY = (rng.Float64()*2 - 1) * 40
		b.sprites = append(b.sprites, d)
		b.group.Add(d)
	}
	return b, nil
}

// step advances the scene one fixed tick and renders it offscreen.
func (b *bench) step(dt float64) {
	b.pipeline.Update(dt)
	b.pipeline.RenderScene(b.frame)
}

// makeArt draws a shaded disc with a ring border on a transparent square.
// Enough structure that rescaling is not a no-op, cheap enough to generate
// hundreds of.
func makeArt(rng *rand.Rand, size int) *image.RGBA {
	base := color.RGBA{
		R: uint8(64 + rng.Intn(192)),
		G: uint8(64 + rng.Intn(192)),
		B: uint8(64 + rng.Intn(192)),
		A: 255,
	}
	ring := color.RGBA{
		R: base.R / 2,
		G: base.G / 2,
		B: base.B / 2,
		A: 255,
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size-1) / 2
	r := c
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dist := math.Hypot(float64(x)-c, float64(y)-c)
			switch {
			case dist > r:
				// transparent corner
			case dist > r-1.5:
				img.SetRGBA(x, y, ring)
			default:
				// radial shading toward the ring color
				t := dist / r
				img.SetRGBA(x, y, color.RGBA{
					R: uint8(float64(base.R)*(1-t) + float64(ring.R)*t),
					G: uint8(float64(base.G)*(1-t) + float64(ring.G)*t),
					B: uint8(float64(base.B)*(1-t) + float64(ring.B)*t),
					A: 255,
				})
			}
		}
	}
	return img
}
