// Package mipmap builds filtered mip chains for PBR channel textures.
package mipmap

import "image"

// Chain is an ordered sequence of images: level 0 is full resolution and
// each subsequent level halves both dimensions (max(1, dim>>1)) down to
// and including a 1x1 level. A chain is immutable once produced.
type Chain struct {
	levels []*image.NRGBA
}

// FromLevels wraps an already-built resolution ladder in a Chain.
// The caller is responsible for the level 0..1x1 ordering invariant.
func FromLevels(levels []*image.NRGBA) *Chain {
	if len(levels) == 0 {
		panic("mipmap: empty level list")
	}
	return &Chain{levels: levels}
}

// NumLevels returns the number of mip levels in the chain.
func (c *Chain) NumLevels() int {
	return len(c.levels)
}

// Level returns the image at mip level n, or nil if out of range.
func (c *Chain) Level(n int) *image.NRGBA {
	if n < 0 || n >= len(c.levels) {
		return nil
	}
	return c.levels[n]
}

// Width returns the level-0 width.
func (c *Chain) Width() int { return c.levels[0].Rect.Dx() }

// Height returns the level-0 height.
func (c *Chain) Height() int { return c.levels[0].Rect.Dy() }

// NumLevelsFor returns the chain depth for a wxh level-0 image:
// the number of halvings until both dimensions reach 1, inclusive.
func NumLevelsFor(w, h int) int {
	n := 1
	for w > 1 || h > 1 {
		w = halve(w)
		h = halve(h)
		n++
	}
	return n
}

func halve(dim int) int {
	if dim <= 1 {
		return 1
	}
	return dim >> 1
}
