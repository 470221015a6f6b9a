package geometry

import (
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

const (
	// Epsilon is the lower t bound of secondary rays leaving a surface, in
	// scene units. It keeps a surface from re-hitting itself (shadow acne).
	Epsilon = 1e-4

	// ParallelEpsilon is the denominator below which a ray counts as parallel
	// to a plane or triangle.
	ParallelEpsilon = 1e-8
)

// HitRecord describes a ray-surface intersection
type HitRecord struct {
	T         float64
	Point     core.Vec3
	Normal    core.Vec3 // unit normal facing against the incoming ray
	FrontFace bool      // whether the ray hit the outward side
	Material  *material.Material
	UV        core.Vec2
}

// SetFaceNormal orients the normal against the ray and records which side was hit
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Shape is the closed set of geometric objects: *Sphere, *Plane, *Triangle,
// *MeshTriangle, *TriangleMesh and *Group. The unexported method keeps the
// set sealed so Intersect can dispatch with a type switch.
type Shape interface {
	BoundingBox() core.AABB
	shape()
}

func (*Sphere) shape()       {}
func (*Plane) shape()        {}
func (*Triangle) shape()     {}
func (*MeshTriangle) shape() {}
func (*TriangleMesh) shape() {}
func (*Group) shape()        {}

// Intersect returns the closest hit of ray with s inside [ray.TMin, ray.TMax]
func Intersect(s Shape, ray core.Ray) (HitRecord, bool) {
	switch v := s.(type) {
	case *Sphere:
		return v.Hit(ray)
	case *Triangle:
		return v.Hit(ray)
	case *MeshTriangle:
		return v.Hit(ray)
	case *Plane:
		return v.Hit(ray)
	case *TriangleMesh:
		return v.Hit(ray)
	case *Group:
		return v.Hit(ray)
	default:
		return HitRecord{}, false
	}
}

// MaterialOf returns the material a primitive shades with, or nil for
// composites that carry one material per child
func MaterialOf(s Shape) *material.Material {
	switch v := s.(type) {
	case *Sphere:
		return v.Material
	case *Plane:
		return v.Material
	case *Triangle:
		return v.Material
	case *MeshTriangle:
		return v.mesh.Material
	case *TriangleMesh:
		return v.Material
	default:
		return nil
	}
}

// Flatten expands groups and meshes into the primitives the BVH indexes.
// Zero-area triangles can never be hit reliably and are dropped; the number
// dropped is returned so callers can report it.
func Flatten(shapes []Shape) (prims []Shape, degenerate int) {
	var walk func([]Shape)
	walk = func(list []Shape) {
		for _, s := range list {
			switch v := s.(type) {
			case *Group:
				walk(v.Children)
			case *TriangleMesh:
				for i := range v.Faces {
					tri := v.Triangle(i)
					if tri.IsDegenerate() {
						degenerate++
						continue
					}
					prims = append(prims, tri)
				}
			case *Triangle:
				if v.IsDegenerate() {
					degenerate++
					continue
				}
				prims = append(prims, v)
			case nil:
			default:
				prims = append(prims, s)
			}
		}
	}
	walk(shapes)
	return prims, degenerate
}
