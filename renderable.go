package depth

import "image"

// Renderable is the minimal contract a RenderGroup manages: one game-logic
// update per (LOD-gated) tick. Implementations also satisfy either
// DepthRenderable or FlatRenderable to become drawable; a Renderable that
// is neither still updates but draws nothing.
type Renderable interface {
	// Update advances the entity by dt seconds of game time. A panic here
	// is recovered at the entity boundary and counted, never propagated.
	Update(dt float64)
}

// DepthRenderable is the depth-aware draw contract. The group derives the
// draw scale, screen position and fog from the entity's Sprite and fetches
// the scaled artwork through the scaling cache.
type DepthRenderable interface {
	Renderable

	// Sprite returns the entity's depth state. Must be non-nil and stable
	// for the entity's lifetime.
	Sprite() *Sprite

	// Image returns the base artwork to scale. The pixels are treated as
	// immutable: the cache keys them by a content signature and keeps
	// scaled copies.
	Image() image.Image
}

// FlatRenderable is the legacy screen-space contract: the entity supplies
// its artwork and destination bounds directly. Flat entities ignore the
// depth model entirely; they sort as nearest (z = 0) and draw after the
// depth sprites, in insertion order.
type FlatRenderable interface {
	Renderable

	// Image returns the artwork drawn as-is (no scaling, no fog).
	Image() image.Image

	// Bounds returns the destination rectangle in screen pixels.
	Bounds() image.Rectangle
}
