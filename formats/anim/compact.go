package anim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/assetcodec/binrw"
)

const (
	// RotationPrecision is the fixed-point scale of compact quaternion
	// components, stored in every header.
	RotationPrecision = 0x7fff
	CompactQuatSize   = 6
)

// CompactQuat keeps x, y and z of a unit quaternion as fixed point. W is
// rebuilt as the non-negative root, so the global sign is lost.
type CompactQuat [3]int16

func (q *CompactQuat) Layout(t binrw.Target) {
	t.I16(&q[0])
	t.I16(&q[1])
	t.I16(&q[2])
}

func quantize(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(math.Round(float64(v) * RotationPrecision))
}

func CompactQuatFromQuat(q mgl32.Quat) CompactQuat {
	if q.W < 0 || (q.W == 0 && math.Signbit(float64(q.W))) {
		q = q.Scale(-1)
	}
	return CompactQuat{quantize(q.V[0]), quantize(q.V[1]), quantize(q.V[2])}
}

func (q CompactQuat) Quat() mgl32.Quat {
	x := float32(q[0]) / RotationPrecision
	y := float32(q[1]) / RotationPrecision
	z := float32(q[2]) / RotationPrecision
	ww := 1 - x*x - y*y - z*z
	if ww < 0 {
		ww = 0
	}
	return mgl32.Quat{W: float32(math.Sqrt(float64(ww))), V: mgl32.Vec3{x, y, z}}
}
