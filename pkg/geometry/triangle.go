package geometry

import (
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// degenerateArea is the area below which a triangle is treated as a sliver
const degenerateArea = 1e-12

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3
	Material   *material.Material
	normal     core.Vec3
	area       float64
	bbox       core.AABB
}

// NewTriangle creates a triangle; the normal follows counter-clockwise winding
func NewTriangle(v0, v1, v2 core.Vec3, mat *material.Material) *Triangle {
	cross := v1.Subtract(v0).Cross(v2.Subtract(v0))
	return &Triangle{
		V0: v0, V1: v1, V2: v2,
		Material: mat,
		normal:   cross.Normalize(),
		area:     0.5 * cross.Length(),
		bbox:     core.NewAABBFromPoints(v0, v1, v2),
	}
}

// Hit tests the ray against the triangle using Möller-Trumbore
func (t *Triangle) Hit(ray core.Ray) (HitRecord, bool) {
	tHit, u, v, ok := mollerTrumbore(t.V0, t.V1, t.V2, ray)
	if !ok {
		return HitRecord{}, false
	}
	hit := HitRecord{T: tHit, Point: ray.At(tHit), Material: t.Material, UV: core.NewVec2(u, v)}
	hit.SetFaceNormal(ray, t.normal)
	return hit, true
}

// BoundingBox returns the cached bounding box
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Normal returns the unit geometric normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

func (t *Triangle) Area() float64 {
	return t.area
}

// IsDegenerate reports whether the triangle has no usable area
func (t *Triangle) IsDegenerate() bool {
	return t.area < degenerateArea
}

// Vertices returns the three corners in winding order
func (t *Triangle) Vertices() (core.Vec3, core.Vec3, core.Vec3) {
	return t.V0, t.V1, t.V2
}

// mollerTrumbore returns the ray parameter and barycentric (u, v) of the hit.
// Rays lying in the triangle's plane report no hit.
func mollerTrumbore(v0, v1, v2 core.Vec3, ray core.Ray) (t, u, v float64, ok bool) {
	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if det > -ParallelEpsilon && det < ParallelEpsilon {
		return 0, 0, 0, false
	}

	f := 1.0 / det
	s := ray.Origin.Subtract(v0)
	u = f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = f * edge2.Dot(q)
	if !ray.Contains(t) {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
