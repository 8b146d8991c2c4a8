// Package remap adjusts occlusion and metallic mip chains: bias darkening
// and percentile-based contrast stretching, applied per mip level.
package remap

import (
	"image"

	"pbr-texpacker/internal/mipmap"
)

// Mode selects the remap curve.
type Mode int

const (
	// ModeNone is the identity; call sites stay uniform.
	ModeNone Mode = iota
	// ModeBiasedDarkening subtracts a constant bias, clamped at zero.
	ModeBiasedDarkening
	// ModePercentile stretches values so the given percentile maps to
	// full white, widening the mid-tone range.
	ModePercentile
)

// percentileAnchor is the value the chosen percentile is stretched to.
const percentileAnchor = 255.0

// ProcessMipmaps remaps every level of chain independently; no information
// crosses mip levels. ModeNone returns the input chain as-is.
func ProcessMipmaps(chain *mipmap.Chain, mode Mode, bias, percentile float64) *mipmap.Chain {
	if mode == ModeNone {
		return chain
	}

	levels := make([]*image.NRGBA, chain.NumLevels())
	for l := 0; l < chain.NumLevels(); l++ {
		src := chain.Level(l)
		var lut [256]uint8
		switch mode {
		case ModeBiasedDarkening:
			biasLUT(&lut, bias)
		case ModePercentile:
			percentileLUT(&lut, src, percentile)
		}
		levels[l] = applyLUT(src, &lut)
	}
	return mipmap.FromLevels(levels)
}

func biasLUT(lut *[256]uint8, bias float64) {
	d := int(bias*255 + 0.5)
	for v := 0; v < 256; v++ {
		o := v - d
		if o < 0 {
			o = 0
		}
		lut[v] = uint8(o)
	}
}

// percentileLUT builds a stretch LUT from the level's red-channel histogram:
// the smallest value whose cumulative share reaches the percentile becomes
// the anchor, everything above clamps.
func percentileLUT(lut *[256]uint8, img *image.NRGBA, percentile float64) {
	var hist [256]int
	total := 0
	for i := 0; i < len(img.Pix); i += 4 {
		hist[img.Pix[i]]++
		total++
	}

	if percentile < 0 {
		percentile = 0
	} else if percentile > 1 {
		percentile = 1
	}
	target := int(percentile*float64(total) + 0.5)

	pv := 255
	cum := 0
	for v := 0; v < 256; v++ {
		cum += hist[v]
		if cum >= target {
			pv = v
			break
		}
	}
	if pv < 1 {
		pv = 1
	}

	scale := percentileAnchor / float64(pv)
	for v := 0; v < 256; v++ {
		o := float64(v)*scale + 0.5
		if o > 255 {
			o = 255
		}
		lut[v] = uint8(o)
	}
}

// applyLUT maps RGB through the LUT, preserving alpha.
func applyLUT(src *image.NRGBA, lut *[256]uint8) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		dst.Pix[i] = lut[src.Pix[i]]
		dst.Pix[i+1] = lut[src.Pix[i+1]]
		dst.Pix[i+2] = lut[src.Pix[i+2]]
		dst.Pix[i+3] = src.Pix[i+3]
	}
	return dst
}
