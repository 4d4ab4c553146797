// Package scaler rescales sprite artwork through the golang.org/x/image
// resampling kernels and fingerprints source images for cache keying.
package scaler

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Quality selects the resampling kernel used to generate a scaled image.
type Quality uint8

const (
	// QualityNearest selects the closest pixel (no interpolation).
	// Fastest; blocky under magnification but fine for small sprites.
	QualityNearest Quality = iota

	// QualityBilinear interpolates linearly between neighboring pixels.
	// Good balance between quality and cost.
	QualityBilinear

	// QualityBicubic resamples with the Catmull-Rom kernel.
	// Highest quality, slowest; used when the budget allows it.
	QualityBicubic
)

// String returns a string representation of the quality tier.
func (q Quality) String() string {
	switch q {
	case QualityNearest:
		return "Nearest"
	case QualityBilinear:
		return "Bilinear"
	case QualityBicubic:
		return "Bicubic"
	default:
		return "Unknown"
	}
}

// kernel maps the tier to its x/image scaler.
func (q Quality) kernel() xdraw.Scaler {
	switch q {
	case QualityBilinear:
		return xdraw.ApproxBiLinear
	case QualityBicubic:
		return xdraw.CatmullRom
	default:
		return xdraw.NearestNeighbor
	}
}

// Rescale resamples src to w x h pixels with the given quality. Dimensions
// below one pixel are clamped to one. The result is always a fresh
// *image.RGBA with bounds anchored at the origin.
func Rescale(src image.Image, w, h int, q Quality) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	q.kernel().Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
