package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func QuatDot(a, b mgl32.Quat) float32 {
	return a.Dot(b)
}

// QuatSlerp interpolates along the shorter arc between a and b.
func QuatSlerp(a, b mgl32.Quat, t float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, t)
}

func Vec3Lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func FloatLerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// MatchQuatSigns flips every quaternion whose dot product with its
// predecessor is negative, so interpolation between neighbours always takes
// the short path. qs must be in frame order. Running it twice changes
// nothing.
func MatchQuatSigns(qs []mgl32.Quat) {
	for i := 1; i < len(qs); i++ {
		if qs[i-1].Dot(qs[i]) < 0 {
			qs[i] = qs[i].Scale(-1)
		}
	}
}

// QuatToEuler returns roll, pitch and yaw in radians.
func QuatToEuler(q mgl32.Quat) (e mgl32.Vec3) {
	sinrCosp := float64(2 * (q.W*q.X() + q.Y()*q.Z()))
	cosrCosp := float64(1 - 2*(q.X()*q.X()+q.Y()*q.Y()))
	e[0] = float32(math.Atan2(sinrCosp, cosrCosp))

	sinp := float64(2 * (q.W*q.Y() - q.Z()*q.X()))
	if math.Abs(sinp) >= 1 {
		e[1] = float32(math.Copysign(math.Pi/2, sinp))
	} else {
		e[1] = float32(math.Asin(sinp))
	}

	sinyCosp := float64(2 * (q.W*q.Z() + q.X()*q.Y()))
	cosyCosp := float64(1 - 2*(q.Y()*q.Y()+q.Z()*q.Z()))
	e[2] = float32(math.Atan2(sinyCosp, cosyCosp))

	return e
}

func RadiansToDegreesV3(v mgl32.Vec3) mgl32.Vec3 {
	return v.Mul(180 / math.Pi)
}
