package scene

import (
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/lights"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// cornellSize is the edge length of the classic Cornell box
const cornellSize = 555.0

// NewCornellScene builds the Cornell box: red and green side walls, white
// floor, ceiling and back wall, an emissive panel under the ceiling, a
// mirror-like sphere and a glossy Phong sphere. Ambient light is occluded so
// corners darken.
func NewCornellScene() *Builder {
	white := material.NewMatte(0.25, 0.75, core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewMatte(0.25, 0.75, core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewMatte(0.25, 0.75, core.NewVec3(0.12, 0.45, 0.15))
	light := material.NewEmissive(3, core.NewVec3(1, 0.9, 0.8))

	s := cornellSize
	b := NewBuilder("cornell").
		SetCamera(geometry.CameraConfig{
			Center: core.NewVec3(278, 278, -800),
			LookAt: core.NewVec3(278, 278, 0),
			Up:     core.NewVec3(0, 1, 0),
			VFov:   40,
		}).
		SetAmbient(lights.NewAmbientOccluder(0.3, core.NewVec3(1, 1, 1), 4))

	b.Add(
		quad(core.NewVec3(0, 0, 0), core.NewVec3(s, 0, 0), core.NewVec3(s, 0, s), core.NewVec3(0, 0, s), white), // floor
		quad(core.NewVec3(0, s, 0), core.NewVec3(0, s, s), core.NewVec3(s, s, s), core.NewVec3(s, s, 0), white), // ceiling
		quad(core.NewVec3(0, 0, s), core.NewVec3(s, 0, s), core.NewVec3(s, s, s), core.NewVec3(0, s, s), white), // back
		quad(core.NewVec3(s, 0, 0), core.NewVec3(s, s, 0), core.NewVec3(s, s, s), core.NewVec3(s, 0, s), red),   // left as seen from the camera
		quad(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, s), core.NewVec3(0, s, s), core.NewVec3(0, s, 0), green),
	)

	// Light panel just below the ceiling so it does not z-fight with it
	y := s - 1
	b.Add(quad(
		core.NewVec3(213, y, 227), core.NewVec3(343, y, 227),
		core.NewVec3(343, y, 332), core.NewVec3(213, y, 332),
		light,
	))

	mirror := material.NewReflective(0.1, 0.5, 0.1, 20, 0.8, core.NewVec3(1, 1, 1), core.NewVec3(1, 1, 1))
	glossy := material.NewPhong(0.2, 0.5, 0.3, 40, core.NewVec3(0.2, 0.4, 0.9))
	b.Add(
		geometry.NewSphere(core.NewVec3(185, 100, 200), 100, mirror),
		geometry.NewSphere(core.NewVec3(380, 70, 360), 70, glossy),
	)
	return b
}

// quad returns the planar quadrilateral a-b-c-d as a two-face mesh
func quad(a, b, c, d core.Vec3, mat *material.Material) *geometry.TriangleMesh {
	mesh, _ := geometry.NewTriangleMesh([]core.Vec3{a, b, c, d}, [][3]int{{0, 1, 2}, {0, 2, 3}}, mat)
	return mesh
}
