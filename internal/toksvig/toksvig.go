// Package toksvig attenuates gloss mip levels by normal-map variance to
// suppress specular aliasing under minification.
package toksvig

import (
	"fmt"
	"image"
	"math"
	"os"

	"pbr-texpacker/internal/mathutil"
	"pbr-texpacker/internal/mipmap"
)

// Mode selects the attenuation formula.
type Mode int

const (
	// ModeClassic applies the closed-form Toksvig exponent remapping.
	ModeClassic Mode = iota
	// ModeSimplified is a cheaper blend gated by a variance threshold.
	ModeSimplified
)

// DefaultCompositePower maps gloss in [0,1] to specular exponents up to 2^13.
const DefaultCompositePower = 13.0

// Settings configures the correction.
type Settings struct {
	Enabled           bool
	Mode              Mode
	CompositePower    float64 // <=0 means DefaultCompositePower
	MinMipLevel       int     // levels below this pass through unchanged
	EnergyPreserving  bool
	SmoothVariance    bool
	VarianceThreshold float64 // Simplified mode only
	NormalMapPath     string  // explicit override, resolved by the caller
}

func (s Settings) power() float64 {
	if s.CompositePower <= 0 {
		return DefaultCompositePower
	}
	return s.CompositePower
}

// Correct returns a gloss chain attenuated by the per-pixel normal variance
// implied by normalMap. The input chain is never modified. When the settings
// are disabled, or normalMap is absent or does not match the chain's level-0
// resolution, the input chain is returned unchanged (warning, not an error).
func Correct(gloss *mipmap.Chain, normalMap *image.NRGBA, s Settings, isGloss bool) *mipmap.Chain {
	if !s.Enabled {
		return gloss
	}
	if normalMap == nil {
		fmt.Fprintln(os.Stderr, "Warning: toksvig: no normal map resolved, correction skipped")
		return gloss
	}
	nw, nh := normalMap.Rect.Dx(), normalMap.Rect.Dy()
	if nw != gloss.Width() || nh != gloss.Height() {
		fmt.Fprintf(os.Stderr, "Warning: toksvig: normal map %dx%d does not match gloss %dx%d, correction skipped\n",
			nw, nh, gloss.Width(), gloss.Height())
		return gloss
	}

	// Average-normal ladder: unit normals at full resolution, box-averaged
	// down the same ladder as the gloss chain without renormalizing. The
	// shrinking vector length encodes the underlying normal variance.
	vecs := decodeUnitNormals(normalMap)
	w, h := nw, nh

	levels := make([]*image.NRGBA, gloss.NumLevels())
	for l := 0; l < gloss.NumLevels(); l++ {
		src := gloss.Level(l)
		if l < s.MinMipLevel {
			levels[l] = cloneImage(src)
		} else {
			r := lengths(vecs, w, h)
			if s.SmoothVariance {
				r = smooth3x3(r, w, h)
			}
			levels[l] = correctLevel(src, r, s, isGloss)
		}
		if l+1 < gloss.NumLevels() {
			nw2, nh2 := halveDim(w), halveDim(h)
			vecs = downsampleVecs(vecs, w, h, nw2, nh2)
			w, h = nw2, nh2
		}
	}
	return mipmap.FromLevels(levels)
}

// correctLevel applies the selected attenuation to the red channel of src,
// replicating the result into RGB and preserving alpha.
func correctLevel(src *image.NRGBA, r []float64, s Settings, isGloss bool) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	p := s.power()

	for i, pi := 0, 0; i < len(r); i, pi = i+1, pi+4 {
		g := float64(src.Pix[pi]) / 255.0
		var out float64
		switch s.Mode {
		case ModeSimplified:
			out = simplified(g, r[i], p, s.VarianceThreshold)
		default:
			out = classic(g, r[i], p, isGloss)
		}
		if s.EnergyPreserving && isGloss {
			out = energyLift(g, out, p)
		}
		q := quantize(out)
		dst.Pix[pi] = q
		dst.Pix[pi+1] = q
		dst.Pix[pi+2] = q
	}
	return dst
}

// classic maps gloss to a specular exponent s = 2^(g*p), scales it by the
// Toksvig factor ft = r/(r + s*(1-r)) and maps back. r=1 is the identity;
// r->0 drives the result to fully rough.
func classic(g, r, p float64, isGloss bool) float64 {
	if r >= 1 {
		return g
	}
	se := math.Exp2(g * p)
	ft := r / (r + se*(1.0-r))
	if !isGloss {
		return g * ft
	}
	sn := ft * se
	if sn <= 1 {
		return 0
	}
	return clamp01(math.Log2(sn) / p)
}

// simplified attenuates by the variance v = 1-r with a cheap rational
// blend, skipping negligible variance below the threshold.
func simplified(g, r, p, threshold float64) float64 {
	v := 1.0 - r
	if v < threshold {
		return g
	}
	return g / (1.0 + p*v)
}

// energyLift folds back half of the specular lobe normalization ratio so
// the corrected material does not read systematically darker.
func energyLift(g, out, p float64) float64 {
	s0 := math.Exp2(g * p)
	sn := math.Exp2(out * p)
	f := 2.0 / (1.0 + (1.0+sn)/(1.0+s0))
	return clamp01(out * f)
}

func decodeUnitNormals(img *image.NRGBA) []mathutil.Vec3 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	vecs := make([]mathutil.Vec3, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			vecs[y*w+x] = mathutil.DecodeNormal(img.Pix[i], img.Pix[i+1], img.Pix[i+2]).Normalize()
		}
	}
	return vecs
}

// downsampleVecs box-averages the vector field without renormalizing,
// clamping the 2x2 footprint at the edges.
func downsampleVecs(src []mathutil.Vec3, srcW, srcH, dstW, dstH int) []mathutil.Vec3 {
	dst := make([]mathutil.Vec3, dstW*dstH)
	for dy := 0; dy < dstH; dy++ {
		y0 := clampIdx(dy*2, srcH)
		y1 := clampIdx(dy*2+1, srcH)
		for dx := 0; dx < dstW; dx++ {
			x0 := clampIdx(dx*2, srcW)
			x1 := clampIdx(dx*2+1, srcW)
			sum := src[y0*srcW+x0].
				Add(src[y0*srcW+x1]).
				Add(src[y1*srcW+x0]).
				Add(src[y1*srcW+x1])
			dst[dy*dstW+dx] = sum.Scale(0.25)
		}
	}
	return dst
}

func lengths(vecs []mathutil.Vec3, w, h int) []float64 {
	r := make([]float64, w*h)
	for i, v := range vecs {
		r[i] = clamp01(v.Len())
	}
	return r
}

// smooth3x3 box-blurs the variance field with clamped edges.
func smooth3x3(r []float64, w, h int) []float64 {
	out := make([]float64, len(r))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for dy := -1; dy <= 1; dy++ {
				sy := clampIdx(y+dy, h)
				for dx := -1; dx <= 1; dx++ {
					sx := clampIdx(x+dx, w)
					sum += r[sy*w+sx]
				}
			}
			out[y*w+x] = sum / 9.0
		}
	}
	return out
}

func cloneImage(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

func halveDim(d int) int {
	if d <= 1 {
		return 1
	}
	return d >> 1
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func quantize(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
