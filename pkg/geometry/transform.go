package geometry

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// Transform places an instance in the scene: scale, then rotate (Euler
// angles in degrees, applied X then Y then Z), then translate.
type Transform struct {
	Position core.Vec3
	Rotation core.Vec3
	Scale    core.Vec3
}

// IdentityTransform leaves geometry where it is
func IdentityTransform() Transform {
	return Transform{Scale: core.NewVec3(1, 1, 1)}
}

// Matrix returns the homogeneous matrix of the transform
func (xf Transform) Matrix() mgl64.Mat4 {
	scale := xf.Scale
	if scale.IsZero() {
		scale = core.NewVec3(1, 1, 1)
	}
	rotation := mgl64.AnglesToQuat(
		mgl64.DegToRad(xf.Rotation.Z),
		mgl64.DegToRad(xf.Rotation.Y),
		mgl64.DegToRad(xf.Rotation.X),
		mgl64.ZYX,
	)
	return mgl64.Translate3D(xf.Position.X, xf.Position.Y, xf.Position.Z).
		Mul4(rotation.Mat4()).
		Mul4(mgl64.Scale3D(scale.X, scale.Y, scale.Z))
}

// Apply transforms point p
func (xf Transform) Apply(p core.Vec3) core.Vec3 {
	return applyMatrix(xf.Matrix(), p)
}

// ApplyAll returns a new slice with every point transformed
func (xf Transform) ApplyAll(points []core.Vec3) []core.Vec3 {
	m := xf.Matrix()
	out := make([]core.Vec3, len(points))
	for i, p := range points {
		out[i] = applyMatrix(m, p)
	}
	return out
}

func applyMatrix(m mgl64.Mat4, p core.Vec3) core.Vec3 {
	out := m.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return core.NewVec3(out[0], out[1], out[2])
}
