package mipmap

import "math"

// Filter selects the downsampling kernel.
type Filter int

const (
	// FilterBox averages the 2x2 footprint of each output pixel.
	FilterBox Filter = iota
	// FilterTriangle is a tent filter over a 4x4 footprint.
	FilterTriangle
	// FilterKaiser is a Kaiser-windowed sinc (alpha 4, 3 lobes), the
	// sharpest of the three; the usual choice for color data.
	FilterKaiser
)

func (f Filter) String() string {
	switch f {
	case FilterBox:
		return "box"
	case FilterTriangle:
		return "triangle"
	case FilterKaiser:
		return "kaiser"
	}
	return "unknown"
}

const kaiserAlpha = 4.0

// support returns the kernel half-width in destination-pixel units.
func (f Filter) support() float64 {
	switch f {
	case FilterTriangle:
		return 1.0
	case FilterKaiser:
		return 1.5
	}
	return 0.5
}

// weight evaluates the kernel at distance t (destination-pixel units).
func (f Filter) weight(t float64) float64 {
	t = math.Abs(t)
	s := f.support()
	if t >= s {
		return 0
	}
	switch f {
	case FilterTriangle:
		return 1.0 - t
	case FilterKaiser:
		return sinc(t) * kaiserWindow(t/s, kaiserAlpha)
	}
	return 1.0
}

func sinc(x float64) float64 {
	if x < 1e-8 {
		return 1.0
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// kaiserWindow evaluates the Kaiser window at x in [0,1].
func kaiserWindow(x, alpha float64) float64 {
	return besselI0(alpha*math.Sqrt(1.0-x*x)) / besselI0(alpha)
}

// besselI0 is the zeroth-order modified Bessel function of the first kind,
// computed by its power series.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	half := x / 2.0
	for k := 1; k < 32; k++ {
		term *= half / float64(k)
		t2 := term * term
		sum += t2
		if t2 < sum*1e-14 {
			break
		}
	}
	return sum
}
