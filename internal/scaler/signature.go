package scaler

import "image"

// FNV-1a 64-bit parameters.
const (
	fnvOffset = 0xcbf29ce484222325
	fnvPrime  = 0x100000001b3
)

// Signature returns a cheap content fingerprint: the four corner pixels and
// the center pixel folded with FNV-1a. Distinct images that happen to share
// those five samples collide, and the cache then serves one scaled result
// for both; acceptable for sprite artwork, where a collision means visual
// reuse of a same-size image, never a fault. Use Full when sources mutate
// interior pixels.
func Signature(img image.Image) uint64 {
	b := img.Bounds()
	if b.Empty() {
		return fnvOffset
	}
	pts := [5]image.Point{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X - 1, Y: b.Min.Y},
		{X: b.Min.X, Y: b.Max.Y - 1},
		{X: b.Max.X - 1, Y: b.Max.Y - 1},
		{X: b.Min.X + b.Dx()/2, Y: b.Min.Y + b.Dy()/2},
	}
	h := uint64(fnvOffset)
	for _, pt := range pts {
		r, g, bl, a := img.At(pt.X, pt.Y).RGBA()
		h = fnvPixel(h, r, g, bl, a)
	}
	return h
}

// Full returns a fingerprint covering every pixel. Costs a full image walk
// per call; intended for hosts that redraw sprite interiors in place.
func Full(img image.Image) uint64 {
	if rgba, ok := img.(*image.RGBA); ok {
		return fullRGBA(rgba)
	}
	b := img.Bounds()
	h := uint64(fnvOffset)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			h = fnvPixel(h, r, g, bl, a)
		}
	}
	return h
}

func fullRGBA(img *image.RGBA) uint64 {
	h := uint64(fnvOffset)
	w4 := img.Rect.Dx() * 4
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w4]
		for _, b := range row {
			h ^= uint64(b)
			h *= fnvPrime
		}
	}
	return h
}

// fnvPixel folds one pixel into the running hash, one byte per channel.
// At().RGBA() yields 16-bit channels whose high byte carries the 8-bit
// value for byte-backed images, which keeps this consistent with the raw
// Pix walk in fullRGBA.
func fnvPixel(h uint64, r, g, b, a uint32) uint64 {
	for _, v := range [4]uint32{r, g, b, a} {
		h ^= uint64(v >> 8)
		h *= fnvPrime
	}
	return h
}
