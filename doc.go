// Package depth provides pseudo-3D depth-aware sprite rendering for Go.
//
// # Overview
//
// depth turns a scalar z coordinate into everything a 2D renderer needs to
// fake perspective: a quantized draw scale, a screen position converged
// toward a vanishing point, a fog intensity and a level-of-detail tier. An
// adaptive scaling cache keeps the scaled renditions, metering how many may
// be generated per frame so bursts of newly visible sprites degrade into
// reused renditions instead of frame spikes.
//
// # Quick Start
//
//	import "github.com/gogpu/depth"
//
//	p, err := depth.NewPipeline(depth.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	layer := p.NewGroup("world")
//	layer.Add(entity) // implements depth.DepthRenderable
//
//	// Each host frame:
//	p.Update(dt)
//	p.RenderScene(frame) // any draw.Image
//
// # Architecture
//
// The library is organized into:
//   - Public API: Pipeline, RenderGroup, Sprite, Projection, ScalingCache,
//     PerformanceMonitor
//   - Internal: cache (generic LRU), scaler (resampling kernels and content
//     signatures), blit (CPU compositing and fog)
//   - Adapters: integration/ebitengine (GPU-resident draw path)
//
// # Depth Model
//
// Scale follows 1/(1+z*DepthFactor), so z 0 is exactly full size and depth
// never inverts ordering. Depths are clamped to [0, MaxDepth] at every
// write; scales snap to a fixed bucket table so nearby depths share cache
// entries. Screen positions interpolate toward the vanishing point by
// (z/MaxDepth)*perspective per axis.
//
// # Coordinate System
//
// Uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - z increases away from the viewer, 0 is the screen plane
//
// # Concurrency
//
// Drive a Pipeline from one goroutine. ScalingCache and PerformanceMonitor
// are internally synchronized, so Prewarm and the stats accessors are safe
// from anywhere.
package depth

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
