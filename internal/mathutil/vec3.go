package mathutil

import "math"

// Vec3 is a 3-component vector (value type, stack-allocated).
type Vec3 [3]float64

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// DecodeNormal maps tangent-space normal map octets to a [-1,1] vector.
func DecodeNormal(r, g, b uint8) Vec3 {
	return Vec3{
		float64(r)/127.5 - 1.0,
		float64(g)/127.5 - 1.0,
		float64(b)/127.5 - 1.0,
	}
}

// EncodeNormal maps a [-1,1] vector back to normal map octets.
func EncodeNormal(v Vec3) (r, g, b uint8) {
	return encodeComponent(v[0]), encodeComponent(v[1]), encodeComponent(v[2])
}

func encodeComponent(c float64) uint8 {
	q := (c + 1.0) * 127.5
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q + 0.5)
}
