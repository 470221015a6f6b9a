package geometry

import (
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// planeExtent bounds infinite planes so they can live in the BVH
const planeExtent = 1e6

// Plane represents an infinite plane defined by a point and normal
type Plane struct {
	Point    core.Vec3
	Normal   core.Vec3 // unit length
	Material *material.Material
}

// NewPlane creates a new plane; the normal is normalized
func NewPlane(point, normal core.Vec3, mat *material.Material) *Plane {
	return &Plane{Point: point, Normal: normal.Normalize(), Material: mat}
}

// Hit intersects the ray with the plane. Rays parallel to it never hit.
func (p *Plane) Hit(ray core.Ray) (HitRecord, bool) {
	denominator := ray.Direction.Dot(p.Normal)
	if math.Abs(denominator) < ParallelEpsilon {
		return HitRecord{}, false
	}

	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if !ray.Contains(t) {
		return HitRecord{}, false
	}

	hit := HitRecord{T: t, Point: ray.At(t), Material: p.Material}
	hit.SetFaceNormal(ray, p.Normal)
	return hit, true
}

// BoundingBox returns a large box around the plane. Axis-aligned planes get
// a thin slab so they do not swallow the whole BVH.
func (p *Plane) BoundingBox() core.AABB {
	const thickness = 0.001
	big := core.NewVec3(planeExtent, planeExtent, planeExtent)
	box := core.NewAABB(big.Negate(), big)

	axis, aligned := alignedAxis(p.Normal)
	if !aligned {
		return box
	}
	switch axis {
	case 0:
		box.Min.X, box.Max.X = p.Point.X-thickness, p.Point.X+thickness
	case 1:
		box.Min.Y, box.Max.Y = p.Point.Y-thickness, p.Point.Y+thickness
	case 2:
		box.Min.Z, box.Max.Z = p.Point.Z-thickness, p.Point.Z+thickness
	}
	return box
}

// alignedAxis reports which coordinate axis a unit normal points along
func alignedAxis(n core.Vec3) (int, bool) {
	const tolerance = 1e-9
	for axis := 0; axis < 3; axis++ {
		if math.Abs(math.Abs(n.Axis(axis))-1) < tolerance {
			return axis, true
		}
	}
	return 0, false
}
