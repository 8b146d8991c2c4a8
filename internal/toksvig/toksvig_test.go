package toksvig_test

import (
	"bytes"
	"image"
	"testing"

	"pbr-texpacker/internal/mathutil"
	"pbr-texpacker/internal/mipmap"
	"pbr-texpacker/internal/toksvig"
)

func glossChain(w, h int, v float64) *mipmap.Chain {
	return mipmap.Constant(w, h, v)
}

func flatNormalMap(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	r, g, b := mathutil.EncodeNormal(mathutil.Vec3{0, 0, 1})
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = 255
	}
	return img
}

// checkerNormalMap alternates +x/-x normals so every 2x2 average collapses
// toward zero length (maximal variance).
func checkerNormalMap(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := mathutil.Vec3{1, 0, 0}
			if (x+y)%2 == 1 {
				n = mathutil.Vec3{-1, 0, 0}
			}
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = mathutil.EncodeNormal(n)
			img.Pix[i+3] = 255
		}
	}
	return img
}

func chainsEqual(t *testing.T, a, b *mipmap.Chain) bool {
	t.Helper()
	if a.NumLevels() != b.NumLevels() {
		return false
	}
	for l := 0; l < a.NumLevels(); l++ {
		if !bytes.Equal(a.Level(l).Pix, b.Level(l).Pix) {
			return false
		}
	}
	return true
}

func TestCorrect_DisabledReturnsInputUnchanged(t *testing.T) {
	gloss := glossChain(8, 8, 0.6)
	out := toksvig.Correct(gloss, flatNormalMap(8, 8), toksvig.Settings{Enabled: false}, true)
	if out != gloss {
		t.Fatal("disabled correction must return the input chain")
	}
}

func TestCorrect_MissingNormalMapReturnsInputUnchanged(t *testing.T) {
	gloss := glossChain(8, 8, 0.6)
	out := toksvig.Correct(gloss, nil, toksvig.Settings{Enabled: true}, true)
	if out != gloss {
		t.Fatal("missing normal map must return the input chain")
	}
}

func TestCorrect_MismatchedNormalMapReturnsInputUnchanged(t *testing.T) {
	gloss := glossChain(8, 8, 0.6)
	out := toksvig.Correct(gloss, flatNormalMap(4, 4), toksvig.Settings{Enabled: true}, true)
	if out != gloss {
		t.Fatal("mismatched normal map must return the input chain")
	}
}

func TestCorrect_FlatNormalsAreIdentity(t *testing.T) {
	for _, mode := range []toksvig.Mode{toksvig.ModeClassic, toksvig.ModeSimplified} {
		for _, energy := range []bool{false, true} {
			gloss := glossChain(16, 16, 0.6)
			out := toksvig.Correct(gloss, flatNormalMap(16, 16), toksvig.Settings{
				Enabled:          true,
				Mode:             mode,
				EnergyPreserving: energy,
			}, true)
			if !chainsEqual(t, gloss, out) {
				t.Errorf("mode %v energy %v: flat normals changed the gloss chain", mode, energy)
			}
		}
	}
}

func TestCorrect_HighVarianceRoughensCoarseLevels(t *testing.T) {
	gloss := glossChain(8, 8, 0.6)
	out := toksvig.Correct(gloss, checkerNormalMap(8, 8), toksvig.Settings{
		Enabled: true,
		Mode:    toksvig.ModeClassic,
	}, true)

	// Level 0 sees unit-length normals, no correction.
	if !bytes.Equal(out.Level(0).Pix, gloss.Level(0).Pix) {
		t.Error("level 0 should be unchanged")
	}
	// Coarser levels average opposing normals and must darken the gloss.
	for l := 1; l < out.NumLevels(); l++ {
		lvl := out.Level(l)
		orig := gloss.Level(l)
		for i := 0; i < len(lvl.Pix); i += 4 {
			if lvl.Pix[i] >= orig.Pix[i] {
				t.Fatalf("level %d: corrected %d not below original %d", l, lvl.Pix[i], orig.Pix[i])
			}
			if lvl.Pix[i] != lvl.Pix[i+1] || lvl.Pix[i] != lvl.Pix[i+2] {
				t.Fatalf("level %d: RGB not replicated", l)
			}
			if lvl.Pix[i+3] != 255 {
				t.Fatalf("level %d: alpha modified", l)
			}
		}
	}
}

func TestCorrect_MinMipLevelPassesThrough(t *testing.T) {
	gloss := glossChain(8, 8, 0.6)
	out := toksvig.Correct(gloss, checkerNormalMap(8, 8), toksvig.Settings{
		Enabled:     true,
		MinMipLevel: 2,
	}, true)

	for l := 0; l < 2; l++ {
		if !bytes.Equal(out.Level(l).Pix, gloss.Level(l).Pix) {
			t.Errorf("level %d below MinMipLevel was modified", l)
		}
	}
	if bytes.Equal(out.Level(2).Pix, gloss.Level(2).Pix) {
		t.Error("level 2 at MinMipLevel was not corrected")
	}
}

func TestCorrect_SimplifiedThresholdSkipsLowVariance(t *testing.T) {
	gloss := glossChain(8, 8, 0.6)
	out := toksvig.Correct(gloss, checkerNormalMap(8, 8), toksvig.Settings{
		Enabled:           true,
		Mode:              toksvig.ModeSimplified,
		VarianceThreshold: 1.1, // nothing exceeds this
	}, true)
	if !chainsEqual(t, gloss, out) {
		t.Fatal("variance below threshold must pass through unchanged")
	}
}

func TestCorrect_InputChainUntouched(t *testing.T) {
	gloss := glossChain(8, 8, 0.6)
	before := make([]byte, len(gloss.Level(1).Pix))
	copy(before, gloss.Level(1).Pix)

	toksvig.Correct(gloss, checkerNormalMap(8, 8), toksvig.Settings{Enabled: true}, true)

	if !bytes.Equal(before, gloss.Level(1).Pix) {
		t.Fatal("correction mutated the input chain")
	}
}

func TestCorrect_NonGlossAttenuatesWithoutEnergyCompensation(t *testing.T) {
	chain := glossChain(8, 8, 0.6)
	out := toksvig.Correct(chain, checkerNormalMap(8, 8), toksvig.Settings{
		Enabled:          true,
		EnergyPreserving: true, // ignored for non-gloss channels
	}, false)

	for l := 1; l < out.NumLevels(); l++ {
		lvl := out.Level(l)
		orig := chain.Level(l)
		for i := 0; i < len(lvl.Pix); i += 4 {
			if lvl.Pix[i] >= orig.Pix[i] {
				t.Fatalf("level %d: non-gloss value %d not attenuated below %d", l, lvl.Pix[i], orig.Pix[i])
			}
		}
	}
}
