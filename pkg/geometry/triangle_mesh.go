package geometry

import (
	"fmt"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// TriangleMesh is an indexed triangle list sharing one vertex arena and one
// material. The BVH indexes its faces individually as MeshTriangles.
type TriangleMesh struct {
	Vertices []core.Vec3
	Faces    [][3]int
	Material *material.Material
	bbox     core.AABB
}

// NewTriangleMesh validates the face indices and creates a mesh
func NewTriangleMesh(vertices []core.Vec3, faces [][3]int, mat *material.Material) (*TriangleMesh, error) {
	for i, face := range faces {
		for _, idx := range face {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("face %d: vertex index %d out of range [0, %d)", i, idx, len(vertices))
			}
		}
	}

	bbox := core.EmptyAABB()
	for _, face := range faces {
		for _, idx := range face {
			bbox = bbox.Grow(vertices[idx])
		}
	}

	return &TriangleMesh{Vertices: vertices, Faces: faces, Material: mat, bbox: bbox}, nil
}

// Len returns the number of faces
func (m *TriangleMesh) Len() int {
	return len(m.Faces)
}

// Triangle returns a view of face i backed by the mesh's vertex arena
func (m *TriangleMesh) Triangle(i int) *MeshTriangle {
	v0, v1, v2 := m.corners(i)
	cross := v1.Subtract(v0).Cross(v2.Subtract(v0))
	return &MeshTriangle{
		mesh:   m,
		face:   i,
		normal: cross.Normalize(),
		area:   0.5 * cross.Length(),
	}
}

func (m *TriangleMesh) corners(i int) (core.Vec3, core.Vec3, core.Vec3) {
	f := m.Faces[i]
	return m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
}

// Hit tests every face. Scenes flatten meshes into the BVH, so this linear
// scan only serves meshes intersected on their own.
func (m *TriangleMesh) Hit(ray core.Ray) (HitRecord, bool) {
	var closest HitRecord
	found := false
	for i := range m.Faces {
		if hit, ok := m.Triangle(i).Hit(ray); ok && (!found || hit.T < closest.T) {
			closest, found = hit, true
			ray = ray.WithMax(hit.T)
		}
	}
	return closest, found
}

// BoundingBox returns the bounds of all referenced vertices
func (m *TriangleMesh) BoundingBox() core.AABB {
	return m.bbox
}

// Transformed returns a copy of the mesh with every vertex moved by xf
func (m *TriangleMesh) Transformed(xf Transform) *TriangleMesh {
	out, _ := NewTriangleMesh(xf.ApplyAll(m.Vertices), m.Faces, m.Material)
	return out
}

// MeshTriangle is one face of a TriangleMesh
type MeshTriangle struct {
	mesh   *TriangleMesh
	face   int
	normal core.Vec3
	area   float64
}

// Hit tests the ray against this face
func (t *MeshTriangle) Hit(ray core.Ray) (HitRecord, bool) {
	v0, v1, v2 := t.mesh.corners(t.face)
	tHit, u, v, ok := mollerTrumbore(v0, v1, v2, ray)
	if !ok {
		return HitRecord{}, false
	}
	hit := HitRecord{T: tHit, Point: ray.At(tHit), Material: t.mesh.Material, UV: core.NewVec2(u, v)}
	hit.SetFaceNormal(ray, t.normal)
	return hit, true
}

func (t *MeshTriangle) BoundingBox() core.AABB {
	return core.NewAABBFromPoints(t.mesh.corners(t.face))
}

// Vertices returns the three corners in winding order
func (t *MeshTriangle) Vertices() (core.Vec3, core.Vec3, core.Vec3) {
	return t.mesh.corners(t.face)
}

func (t *MeshTriangle) Normal() core.Vec3 {
	return t.normal
}

func (t *MeshTriangle) Area() float64 {
	return t.area
}

// IsDegenerate reports whether the face has no usable area
func (t *MeshTriangle) IsDegenerate() bool {
	return t.area < degenerateArea
}
