package packing

import (
	"fmt"
	"image"

	"pbr-texpacker/internal/imaging"
	"pbr-texpacker/internal/mipmap"
	"pbr-texpacker/internal/remap"
	"pbr-texpacker/internal/toksvig"
)

// Pack runs each active channel through the mip pipeline and interleaves
// the chains into one RGBA mip chain. outputSize, when positive, is the
// square level-0 size every sourced channel is resized to up front; when
// zero, the first sourced channel's resolution is the reference and
// mismatched channels are sampled with nearest-neighbor coordinate
// scaling at pack time.
func Pack(s Settings, outputSize int) (*mipmap.Chain, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	channels := s.activeChannels()

	// Decode sourced channels first: the reference resolution comes from
	// outputSize or, failing that, the first sourced channel.
	images := make([]*image.NRGBA, len(channels))
	for i, ch := range channels {
		if ch.SourcePath == "" {
			continue
		}
		img, err := imaging.Load(ch.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("packing: %s channel: %w", ch.Type, err)
		}
		if outputSize > 0 {
			img = imaging.Resize(img, outputSize, outputSize, true)
		}
		images[i] = img
	}

	refW, refH := outputSize, outputSize
	if outputSize <= 0 {
		for _, img := range images {
			if img != nil {
				refW, refH = img.Rect.Dx(), img.Rect.Dy()
				break
			}
		}
		if refW <= 0 {
			return nil, fmt.Errorf("packing: output size required when every channel is a constant fill")
		}
	}

	chains := make([]*mipmap.Chain, len(channels))
	for i, ch := range channels {
		if images[i] == nil {
			chains[i] = mipmap.Constant(refW, refH, ch.DefaultValue)
			continue
		}
		chain := mipmap.Generate(images[i], ch.profile())
		switch ch.Type {
		case ChannelGloss:
			if ch.Toksvig.Enabled {
				chain = toksvig.Correct(chain, s.resolveNormal(ch, chain), ch.Toksvig, true)
			}
		case ChannelAO, ChannelMetallic:
			chain = remap.ProcessMipmaps(chain, ch.RemapMode, ch.RemapBias, ch.RemapPct)
		}
		chains[i] = chain
	}

	return interleave(s.Mode, chains), nil
}

// resolveNormal finds the normal map for a Toksvig-enabled gloss channel:
// an explicit path wins, otherwise the resolver matches by filename stem.
// The map is resized to the gloss resolution when an upfront output size
// already rescaled the gloss source.
func (s *Settings) resolveNormal(ch *ChannelSource, gloss *mipmap.Chain) *image.NRGBA {
	var nm *image.NRGBA
	switch {
	case ch.Toksvig.NormalMapPath != "" && s.Normals != nil:
		nm = s.Normals.Load(ch.Toksvig.NormalMapPath)
	case ch.Toksvig.NormalMapPath != "":
		nm, _ = imaging.Load(ch.Toksvig.NormalMapPath)
	case s.Normals != nil && ch.SourcePath != "":
		nm = s.Normals.ResolveNormal(ch.SourcePath)
	}
	if nm != nil && (nm.Rect.Dx() != gloss.Width() || nm.Rect.Dy() != gloss.Height()) {
		nm = imaging.Resize(nm, gloss.Width(), gloss.Height(), true)
	}
	return nm
}

// interleave assembles the output chain. The first chain is the reference:
// it fixes the level count and per-level dimensions. Other chains are
// sampled at the same level (clamped to their depth) via nearest-neighbor
// coordinate scaling; no filtering happens at pack time.
func interleave(mode Mode, chains []*mipmap.Chain) *mipmap.Chain {
	ref := chains[0]
	levels := make([]*image.NRGBA, ref.NumLevels())

	for l := 0; l < ref.NumLevels(); l++ {
		tw, th := ref.Level(l).Rect.Dx(), ref.Level(l).Rect.Dy()
		dst := image.NewNRGBA(image.Rect(0, 0, tw, th))

		samplers := make([]sampler, len(chains))
		for i, c := range chains {
			samplers[i] = newSampler(c, l, tw, th)
		}

		for y := 0; y < th; y++ {
			for x := 0; x < tw; x++ {
				di := dst.PixOffset(x, y)
				switch mode {
				case ModeOG:
					ao := samplers[0].at(x, y)
					dst.Pix[di] = ao
					dst.Pix[di+1] = ao
					dst.Pix[di+2] = ao
					dst.Pix[di+3] = samplers[1].at(x, y)
				case ModeOGM:
					dst.Pix[di] = samplers[0].at(x, y)
					dst.Pix[di+1] = samplers[1].at(x, y)
					dst.Pix[di+2] = samplers[2].at(x, y)
					dst.Pix[di+3] = 255
				case ModeOGMH:
					dst.Pix[di] = samplers[0].at(x, y)
					dst.Pix[di+1] = samplers[1].at(x, y)
					dst.Pix[di+2] = samplers[2].at(x, y)
					dst.Pix[di+3] = samplers[3].at(x, y)
				}
			}
		}
		levels[l] = dst
	}
	return mipmap.FromLevels(levels)
}

// sampler reads a channel's red value at target coordinates, scaling into
// the channel's own resolution when it differs.
type sampler struct {
	img         *image.NRGBA
	w, h        int
	tw, th      int
	passthrough bool
}

func newSampler(c *mipmap.Chain, level, tw, th int) sampler {
	if level >= c.NumLevels() {
		level = c.NumLevels() - 1
	}
	img := c.Level(level)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	return sampler{
		img: img, w: w, h: h, tw: tw, th: th,
		passthrough: w == tw && h == th,
	}
}

func (s *sampler) at(x, y int) uint8 {
	if !s.passthrough {
		x = x * s.w / s.tw
		y = y * s.h / s.th
		if x >= s.w {
			x = s.w - 1
		}
		if y >= s.h {
			y = s.h - 1
		}
	}
	return s.img.Pix[s.img.PixOffset(x, y)]
}
