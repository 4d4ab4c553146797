// Package blit composites scaled sprite images onto CPU render targets:
// premultiplied source-over with an optional fog tint, plus rectangle
// outlines for debug visualization.
package blit

import (
	"image"
	"image/color"
	"image/draw"
)

// Draw composites src onto dst with its top-left corner at pos, using
// premultiplied source-over, clipped against the destination bounds.
func Draw(dst draw.Image, pos image.Point, src *image.RGBA) {
	DrawFogged(dst, pos, src, color.RGBA{}, 0)
}

// DrawFogged is Draw with a fog stage: each source pixel is pulled toward
// fog by intensity (0 none, 1 full) before compositing. The fog term is
// scaled by the pixel's alpha, so transparent texels stay transparent and
// the sprite silhouette survives heavy fog.
func DrawFogged(dst draw.Image, pos image.Point, src *image.RGBA, fog color.RGBA, intensity float64) {
	if src == nil {
		return
	}
	sb := src.Bounds()
	target := image.Rect(pos.X, pos.Y, pos.X+sb.Dx(), pos.Y+sb.Dy())
	clipped := target.Intersect(dst.Bounds())
	if clipped.Empty() {
		return
	}
	sp := sb.Min.Add(clipped.Min.Sub(target.Min))
	fi := fogWeight(intensity)

	if d, ok := dst.(*image.RGBA); ok {
		drawRGBA(d, clipped, src, sp, fog, fi)
		return
	}
	drawGeneric(dst, clipped, src, sp, fog, fi)
}

func fogWeight(intensity float64) uint32 {
	if intensity <= 0 {
		return 0
	}
	if intensity >= 1 {
		return 255
	}
	return uint32(intensity*255 + 0.5)
}

// mul255 multiplies two 8-bit factors with rounding.
func mul255(a, b uint32) uint32 { return (a*b + 127) / 255 }

// drawRGBA is the fast path: direct Pix access on both sides.
func drawRGBA(dst *image.RGBA, r image.Rectangle, src *image.RGBA, sp image.Point, fog color.RGBA, fi uint32) {
	fr, fg, fb := uint32(fog.R), uint32(fog.G), uint32(fog.B)
	w, h := r.Dx(), r.Dy()
	for y := 0; y < h; y++ {
		di := dst.PixOffset(r.Min.X, r.Min.Y+y)
		si := src.PixOffset(sp.X, sp.Y+y)
		for x := 0; x < w; x++ {
			sa := uint32(src.Pix[si+3])
			if sa == 0 {
				si += 4
				di += 4
				continue
			}
			sr := uint32(src.Pix[si+0])
			sg := uint32(src.Pix[si+1])
			sb := uint32(src.Pix[si+2])
			if fi != 0 {
				inv := 255 - fi
				sr = mul255(sr, inv) + mul255(mul255(fr, sa), fi)
				sg = mul255(sg, inv) + mul255(mul255(fg, sa), fi)
				sb = mul255(sb, inv) + mul255(mul255(fb, sa), fi)
			}
			if sa == 255 {
				dst.Pix[di+0] = uint8(sr)
				dst.Pix[di+1] = uint8(sg)
				dst.Pix[di+2] = uint8(sb)
				dst.Pix[di+3] = 255
			} else {
				inv := 255 - sa
				dst.Pix[di+0] = uint8(sr + mul255(uint32(dst.Pix[di+0]), inv))
				dst.Pix[di+1] = uint8(sg + mul255(uint32(dst.Pix[di+1]), inv))
				dst.Pix[di+2] = uint8(sb + mul255(uint32(dst.Pix[di+2]), inv))
				dst.Pix[di+3] = uint8(sa + mul255(uint32(dst.Pix[di+3]), inv))
			}
			si += 4
			di += 4
		}
	}
}

// drawGeneric handles arbitrary draw.Image destinations through At/Set.
func drawGeneric(dst draw.Image, r image.Rectangle, src *image.RGBA, sp image.Point, fog color.RGBA, fi uint32) {
	fr, fg, fb := uint32(fog.R), uint32(fog.G), uint32(fog.B)
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			s := src.RGBAAt(sp.X+x, sp.Y+y)
			sa := uint32(s.A)
			if sa == 0 {
				continue
			}
			sr, sg, sb := uint32(s.R), uint32(s.G), uint32(s.B)
			if fi != 0 {
				inv := 255 - fi
				sr = mul255(sr, inv) + mul255(mul255(fr, sa), fi)
				sg = mul255(sg, inv) + mul255(mul255(fg, sa), fi)
				sb = mul255(sb, inv) + mul255(mul255(fb, sa), fi)
			}
			dr, dg, db, da := dst.At(r.Min.X+x, r.Min.Y+y).RGBA()
			inv := 255 - sa
			dst.Set(r.Min.X+x, r.Min.Y+y, color.RGBA{
				R: uint8(sr + mul255(dr>>8, inv)),
				G: uint8(sg + mul255(dg>>8, inv)),
				B: uint8(sb + mul255(db>>8, inv)),
				A: uint8(sa + mul255(da>>8, inv)),
			})
		}
	}
}

// Fill paints the rectangle with a solid color, clipped to dst.
func Fill(dst draw.Image, r image.Rectangle, c color.Color) {
	clipped := r.Intersect(dst.Bounds())
	if clipped.Empty() {
		return
	}
	draw.Draw(dst, clipped, image.NewUniform(c), image.Point{}, draw.Src)
}

// Outline draws a one-pixel rectangle border, clipped to dst. Used for
// debug visualization of sprite bounds.
func Outline(dst draw.Image, r image.Rectangle, c color.Color) {
	b := dst.Bounds()
	clipped := r.Intersect(b)
	if clipped.Empty() {
		return
	}
	top := r.Min.Y >= b.Min.Y && r.Min.Y < b.Max.Y
	bottom := r.Max.Y-1 >= b.Min.Y && r.Max.Y-1 < b.Max.Y
	for x := clipped.Min.X; x < clipped.Max.X; x++ {
		if top {
			dst.Set(x, r.Min.Y, c)
		}
		if bottom {
			dst.Set(x, r.Max.Y-1, c)
		}
	}
	left := r.Min.X >= b.Min.X && r.Min.X < b.Max.X
	right := r.Max.X-1 >= b.Min.X && r.Max.X-1 < b.Max.X
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		if left {
			dst.Set(r.Min.X, y, c)
		}
		if right {
			dst.Set(r.Max.X-1, y, c)
		}
	}
}

// ToRGBA returns src as an *image.RGBA, converting (and re-anchoring at the
// origin) when the underlying type differs.
func ToRGBA(src image.Image) *image.RGBA {
	if img, ok := src.(*image.RGBA); ok {
		return img
	}
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	return out
}
