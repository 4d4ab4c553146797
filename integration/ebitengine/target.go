// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ebitengine

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/depth"
	"github.com/gogpu/depth/internal/cache"
)

// Common errors returned by Target operations.
var (
	// ErrNilPipeline is returned when New is given a nil pipeline.
	ErrNilPipeline = errors.New("ebitengine: nil pipeline")

	// ErrInvalidCapacity is returned when the handle capacity is not positive.
	ErrInvalidCapacity = errors.New("ebitengine: invalid handle capacity")
)

// Option adjusts Target construction.
type Option func(*options)

type options struct {
	capacity int
	filter   ebiten.Filter
}

// WithHandleCapacity caps the handle cache at n GPU images. The default is
// the pipeline's CacheCapacity, so every live CPU rendition can keep a
// handle.
func WithHandleCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithFilter sets the sampling filter for sprite draws. The default is
// FilterNearest: renditions are already scaled to their on-screen size, so
// there is nothing to resample.
func WithFilter(f ebiten.Filter) Option {
	return func(o *options) { o.filter = f }
}

// Target draws a depth pipeline's scenes onto *ebiten.Image screens.
//
// CPU renditions coming out of the pipeline's scaling cache are uploaded to
// GPU images once and reused by pointer identity; the handle cache evicts
// least-recently-drawn images and deallocates them.
//
// Target is NOT safe for concurrent use.
type Target struct {
	pipeline *depth.Pipeline
	handles  *cache.LRU[*image.RGBA, *ebiten.Image]
	filter   ebiten.Filter
	fog      color.RGBA
	uploads  uint64
	closed   bool
}

// New creates a Target for the pipeline.
func New(p *depth.Pipeline, opts ...Option) (*Target, error) {
	if p == nil {
		return nil, ErrNilPipeline
	}
	o := options{capacity: p.Config().CacheCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, o.capacity)
	}
	return &Target{
		pipeline: p,
		handles: cache.New[*image.RGBA, *ebiten.Image](o.capacity,
			func(_ *image.RGBA, img *ebiten.Image) { img.Deallocate() }),
		filter: o.filter,
		fog:    p.Config().FogColor,
	}, nil
}

// Pipeline returns the wrapped pipeline.
func (t *Target) Pipeline() *depth.Pipeline { return t.pipeline }

// Draw runs one render pass and draws every visible entity onto screen.
// Call it from the game's Draw callback. A closed target draws nothing.
func (t *Target) Draw(screen *ebiten.Image) {
	if t.closed || screen == nil {
		return
	}
	t.pipeline.RenderSceneFunc(func(img *image.RGBA, rect image.Rectangle, fog float64) {
		op := &ebiten.DrawImageOptions{Filter: t.filter}
		op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
		if fog > 0 {
			r, g, b := fogTint(t.fog, fog)
			op.ColorScale.Scale(r, g, b, 1)
		}
		screen.DrawImage(t.handle(img), op)
	})
}

// handle returns the GPU image for a CPU rendition, uploading on first use.
// Renditions are interned by the scaling cache, so pointer identity is a
// stable key; handles for renditions the scaling cache has dropped age out
// under LRU pressure.
func (t *Target) handle(img *image.RGBA) *ebiten.Image {
	if tex, ok := t.handles.Get(img); ok {
		return tex
	}
	tex := ebiten.NewImageFromImage(img)
	t.handles.Add(img, tex)
	t.uploads++
	return tex
}

// Clear deallocates every GPU handle. Call it after clearing the pipeline's
// scaling cache to drop the matching GPU memory immediately instead of
// waiting for LRU pressure.
func (t *Target) Clear() {
	t.handles.Clear()
}

// Close deallocates all handles and disables the target. Close is
// idempotent.
func (t *Target) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.handles.Clear()
	depth.Logger().Debug("ebitengine target closed", "uploads", t.uploads)
	return nil
}

// HandleStats is a snapshot of the GPU handle cache.
type HandleStats struct {
	Entries   int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Uploads   uint64
}

// HandleStats returns the handle cache counters. Read it from the goroutine
// driving Draw.
func (t *Target) HandleStats() HandleStats {
	st := t.handles.Stats()
	return HandleStats{
		Entries:   t.handles.Len(),
		Capacity:  t.handles.Capacity(),
		Hits:      st.Hits,
		Misses:    st.Misses,
		Evictions: st.Evictions,
		Uploads:   t.uploads,
	}
}

// fogTint converts the alpha-masked fog blend into the multiplicative form
// ColorScale can express: each channel's multiplier is lerp(1, fog/255,
// intensity).
func fogTint(fog color.RGBA, intensity float64) (r, g, b float32) {
	if intensity < 0 {
		intensity = 0
	} else if intensity > 1 {
		intensity = 1
	}
	i := float32(intensity)
	r = 1 - i + float32(fog.R)/255*i
	g = 1 - i + float32(fog.G)/255*i
	b = 1 - i + float32(fog.B)/255*i
	return r, g, b
}
