package geometry

import (
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material *material.Material
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, mat *material.Material) *Sphere {
	return &Sphere{Center: center, Radius: radius, Material: mat}
}

// Hit solves |o + t*d - c|^2 = r^2 and keeps the nearest root inside the
// ray interval, falling back to the far root when the near one is excluded.
func (s *Sphere) Hit(ray core.Ray) (HitRecord, bool) {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 || a == 0 {
		return HitRecord{}, false
	}

	sqrtD := math.Sqrt(discriminant)
	root := (-halfB - sqrtD) / a
	if !ray.Contains(root) {
		root = (-halfB + sqrtD) / a
		if !ray.Contains(root) {
			return HitRecord{}, false
		}
	}

	hit := HitRecord{T: root, Point: ray.At(root), Material: s.Material}
	outward := hit.Point.Subtract(s.Center).Multiply(1.0 / s.Radius)
	hit.SetFaceNormal(ray, outward)
	hit.UV = sphereUV(outward)
	return hit, true
}

// sphereUV maps a unit outward normal to longitude/latitude in [0,1]
func sphereUV(n core.Vec3) core.Vec2 {
	theta := math.Acos(-n.Y)
	phi := math.Atan2(-n.Z, n.X) + math.Pi
	return core.NewVec2(phi/(2*math.Pi), theta/math.Pi)
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	r := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(r), s.Center.Add(r))
}
