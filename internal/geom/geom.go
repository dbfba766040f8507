// Package geom holds the handful of pose helpers the agent systems share.
// Positions are Y-up; agents only ever yaw around +Y.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
	Left    = mgl64.Vec3{-1, 0, 0}
	Right   = mgl64.Vec3{1, 0, 0}
)

func Distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

// LookYaw returns the yaw-only rotation that faces dir. Pitch and roll are
// dropped, so agents stay upright on slopes.
func LookYaw(dir mgl64.Vec3) mgl64.Quat {
	return mgl64.QuatRotate(math.Atan2(dir.X(), dir.Z()), Up)
}

// FacingOf returns the unit forward vector of q.
func FacingOf(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(Forward)
}

// Lerp interpolates with t clamped to [0, 1].
func Lerp(a, b, t float64) float64 {
	t = clamp01(t)
	return a + (b-a)*t
}

// Slerp interpolates along the shorter arc with t clamped to [0, 1].
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, clamp01(t))
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
