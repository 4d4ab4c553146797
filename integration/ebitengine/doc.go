// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package ebitengine renders depth pipelines onto Ebitengine screens.
//
// The depth package scales and composites on the CPU; this adapter replaces
// the compositing stage with GPU draws and keeps everything else unchanged:
// sorting, culling, the scaling cache, the generation budget. The data flow
// is:
//
//	depth.ScalingCache (*image.RGBA) -> handle cache (*ebiten.Image) -> screen
//
// # Architecture
//
// Target wraps a depth.Pipeline and owns the handle cache:
//
//   - Draw() runs the pipeline's render pass and draws each visible entity
//     with DrawImageOptions
//   - CPU renditions are uploaded once and reused by pointer identity
//   - evicted handles are deallocated eagerly to bound GPU memory
//
// # Usage
//
//	p, _ := depth.NewPipeline(depth.DefaultConfig())
//	target, _ := ebitengine.New(p)
//	defer target.Close()
//
//	// Inside your ebiten.Game:
//	func (g *Game) Update() error {
//		p.Update(1.0 / float64(ebiten.TPS()))
//		return nil
//	}
//
//	func (g *Game) Draw(screen *ebiten.Image) {
//		target.Draw(screen)
//	}
//
// # Fog
//
// The CPU path blends each pixel toward the fog color masked by its alpha.
// ColorScale can only multiply, so this adapter approximates fog with a
// per-channel tint of lerp(1, fogColor, intensity). Dark fog matches the
// CPU path closely; light fog over dark sprites reads slightly dimmer.
//
// # Thread Safety
//
// Target is NOT safe for concurrent use. Drive it from the game's Draw
// callback, which is where Ebitengine wants image uploads anyway.
package ebitengine
