package binrw

import "github.com/x448/float16"

// HalfFromFloat32 converts f to IEEE 754 binary16, rounding to nearest even.
func HalfFromFloat32(f float32) uint16 {
	return float16.Fromfloat32(f).Bits()
}

// HalfToFloat32 expands an IEEE 754 binary16 value.
func HalfToFloat32(h uint16) float32 {
	return float16.Frombits(h).Float32()
}
