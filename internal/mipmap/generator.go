package mipmap

import (
	"fmt"
	"image"
	"math"

	"pbr-texpacker/internal/mathutil"
)

// TextureType is the semantic role of a texture, used to pick mip defaults.
type TextureType int

const (
	TextureGeneric TextureType = iota
	TextureAO
	TextureGloss
	TextureMetallic
	TextureHeight
	TextureNormal
	TextureAlbedo
)

// Profile controls how a mip chain is generated.
type Profile struct {
	Filter           Filter
	GammaCorrect     bool // linearize sRGB-encoded values before filtering
	NormalizeNormals bool // renormalize RGB as a unit vector after filtering
}

// ProfileFor returns the default generation profile for a texture type.
// Normal maps use a box filter with renormalization; albedo is filtered
// gamma-aware with Kaiser; the scalar PBR channels are linear Kaiser.
func ProfileFor(t TextureType) Profile {
	switch t {
	case TextureNormal:
		return Profile{Filter: FilterBox, NormalizeNormals: true}
	case TextureAlbedo:
		return Profile{Filter: FilterKaiser, GammaCorrect: true}
	case TextureAO, TextureGloss, TextureMetallic, TextureHeight:
		return Profile{Filter: FilterKaiser}
	}
	return Profile{Filter: FilterBox}
}

// Generate builds the full mip chain for img. Level 0 is img itself;
// each following level halves both dimensions until 1x1 is reached.
// Panics if img has non-positive dimensions (programming error).
func Generate(img *image.NRGBA, profile Profile) *Chain {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w < 1 || h < 1 {
		panic(fmt.Sprintf("mipmap: non-positive source dimensions %dx%d", w, h))
	}

	chain := &Chain{levels: make([]*image.NRGBA, 0, NumLevelsFor(w, h))}
	chain.levels = append(chain.levels, img)

	for w > 1 || h > 1 {
		nw, nh := halve(w), halve(h)
		next := downsample(chain.levels[len(chain.levels)-1], nw, nh, profile)
		chain.levels = append(chain.levels, next)
		w, h = nw, nh
	}
	return chain
}

// Constant synthesizes a chain of depth NumLevelsFor(w, h) where every
// pixel at every level is the same quantized value; filtering is bypassed
// so the fill survives bit-exact down to 1x1.
func Constant(w, h int, v float64) *Chain {
	if w < 1 || h < 1 {
		panic(fmt.Sprintf("mipmap: non-positive constant dimensions %dx%d", w, h))
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	q := uint8(v*255 + 0.5)

	chain := &Chain{levels: make([]*image.NRGBA, 0, NumLevelsFor(w, h))}
	for {
		lvl := image.NewNRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < len(lvl.Pix); i += 4 {
			lvl.Pix[i] = q
			lvl.Pix[i+1] = q
			lvl.Pix[i+2] = q
			lvl.Pix[i+3] = 255
		}
		chain.levels = append(chain.levels, lvl)
		if w == 1 && h == 1 {
			return chain
		}
		w, h = halve(w), halve(h)
	}
}

// downsample convolves src down to dstW x dstH with the profile's kernel.
// Edge taps use clamped sampling, never wraparound.
func downsample(src *image.NRGBA, dstW, dstH int, p Profile) *image.NRGBA {
	srcW, srcH := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))

	scaleX := float64(srcW) / float64(dstW)
	scaleY := float64(srcH) / float64(dstH)
	radiusX := p.Filter.support() * scaleX
	radiusY := p.Filter.support() * scaleY

	for dy := 0; dy < dstH; dy++ {
		cy := (float64(dy) + 0.5) * scaleY
		y0 := int(math.Floor(cy - radiusY))
		y1 := int(math.Ceil(cy + radiusY))
		for dx := 0; dx < dstW; dx++ {
			cx := (float64(dx) + 0.5) * scaleX
			x0 := int(math.Floor(cx - radiusX))
			x1 := int(math.Ceil(cx + radiusX))

			var r, g, b, a, wsum float64
			for sy := y0; sy < y1; sy++ {
				wy := p.Filter.weight((float64(sy) + 0.5 - cy) / scaleY)
				if wy == 0 {
					continue
				}
				syc := clampIndex(sy, srcH)
				for sx := x0; sx < x1; sx++ {
					wx := p.Filter.weight((float64(sx) + 0.5 - cx) / scaleX)
					if wx == 0 {
						continue
					}
					sxc := clampIndex(sx, srcW)
					wgt := wx * wy
					i := src.PixOffset(sxc, syc)
					if p.GammaCorrect {
						r += srgbToLinear(src.Pix[i]) * wgt
						g += srgbToLinear(src.Pix[i+1]) * wgt
						b += srgbToLinear(src.Pix[i+2]) * wgt
					} else {
						r += float64(src.Pix[i]) * wgt
						g += float64(src.Pix[i+1]) * wgt
						b += float64(src.Pix[i+2]) * wgt
					}
					a += float64(src.Pix[i+3]) * wgt
					wsum += wgt
				}
			}

			if wsum != 0 {
				inv := 1.0 / wsum
				r *= inv
				g *= inv
				b *= inv
				a *= inv
			}

			di := dst.PixOffset(dx, dy)
			if p.GammaCorrect {
				dst.Pix[di] = linearToSRGB(r)
				dst.Pix[di+1] = linearToSRGB(g)
				dst.Pix[di+2] = linearToSRGB(b)
			} else {
				dst.Pix[di] = quantize(r)
				dst.Pix[di+1] = quantize(g)
				dst.Pix[di+2] = quantize(b)
			}
			dst.Pix[di+3] = quantize(a)

			if p.NormalizeNormals {
				n := mathutil.DecodeNormal(dst.Pix[di], dst.Pix[di+1], dst.Pix[di+2]).Normalize()
				dst.Pix[di], dst.Pix[di+1], dst.Pix[di+2] = mathutil.EncodeNormal(n)
			}
		}
	}
	return dst
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func quantize(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func srgbToLinear(p uint8) float64 {
	c := float64(p) / 255.0
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func linearToSRGB(c float64) uint8 {
	if c <= 0 {
		return 0
	}
	var e float64
	if c <= 0.0031308 {
		e = c * 12.92
	} else {
		e = 1.055*math.Pow(c, 1.0/2.4) - 0.055
	}
	return quantize(e * 255.0)
}
