package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/lights"
	"github.com/df07/go-whitted-raytracer/pkg/log"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

var logger = log.New("scene")

// ErrInvalidScene is returned when a scene cannot be assembled
var ErrInvalidScene = errors.New("invalid scene")

// DefaultAreaLightSamples is the number of shadow rays per area light triangle
const DefaultAreaLightSamples = 4

// Scene is everything a render reads: geometry behind a BVH, the lights, the
// ambient term, the camera and the background color. A Scene is built once
// by a Builder and must not be modified afterwards, which is what lets
// render workers share it without locks.
type Scene struct {
	Name       string
	Camera     geometry.Camera
	BVH        *geometry.BVH
	Lights     []*lights.Light // non-ambient lights, in the order added
	Ambient    *lights.Light
	Background core.Vec3
}

// Builder collects scene contents before the BVH is built
type Builder struct {
	name             string
	shapes           []geometry.Shape
	lights           []*lights.Light
	ambient          *lights.Light
	camera           geometry.CameraConfig
	background       core.Vec3
	areaLightSamples int
}

// NewBuilder starts an empty scene with a dim white ambient light
func NewBuilder(name string) *Builder {
	return &Builder{
		name:    name,
		ambient: lights.NewAmbient(0.1, core.NewVec3(1, 1, 1)),
		camera: geometry.CameraConfig{
			Center: core.NewVec3(0, 0, 5),
			LookAt: core.NewVec3(0, 0, 0),
			Up:     core.NewVec3(0, 1, 0),
			VFov:   40,
		},
		areaLightSamples: DefaultAreaLightSamples,
	}
}

// Add appends shapes to the scene
func (b *Builder) Add(shapes ...geometry.Shape) *Builder {
	b.shapes = append(b.shapes, shapes...)
	return b
}

// AddLight appends a point, directional or area light. Ambient lights
// replace the scene's ambient term instead.
func (b *Builder) AddLight(l *lights.Light) *Builder {
	if l.IsAmbient() {
		b.ambient = l
		return b
	}
	b.lights = append(b.lights, l)
	return b
}

// SetAmbient replaces the ambient term
func (b *Builder) SetAmbient(l *lights.Light) *Builder {
	b.ambient = l
	return b
}

func (b *Builder) SetCamera(cfg geometry.CameraConfig) *Builder {
	b.camera = cfg
	return b
}

func (b *Builder) SetBackground(c core.Vec3) *Builder {
	b.background = c
	return b
}

// SetAreaLightSamples sets the shadow rays per triangle of generated area lights
func (b *Builder) SetAreaLightSamples(n int) *Builder {
	b.areaLightSamples = n
	return b
}

// Build validates the contents, turns emissive triangles into area lights
// (one light per emissive material) and builds the BVH.
func (b *Builder) Build() (*Scene, error) {
	if b.ambient == nil || !b.ambient.IsAmbient() {
		return nil, fmt.Errorf("%w: scene %q needs an ambient light", ErrInvalidScene, b.name)
	}
	if err := b.ambient.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	bvh := geometry.NewBVH(b.shapes)
	if d := bvh.Stats().Degenerate; d > 0 {
		logger.Warningf("scene %q: dropped %d zero-area triangles", b.name, d)
	}

	sceneLights := append([]*lights.Light(nil), b.lights...)
	sceneLights = append(sceneLights, areaLights(bvh.Primitives(), b.areaLightSamples)...)
	for _, l := range sceneLights {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
		}
	}

	s := &Scene{
		Name:       b.name,
		Camera:     geometry.NewCamera(b.camera),
		BVH:        bvh,
		Lights:     sceneLights,
		Ambient:    b.ambient,
		Background: b.background,
	}
	logger.Infof("scene %q: %d primitives, %d lights", s.Name, bvh.Stats().Primitives, len(s.Lights))
	return s, nil
}

// facet is a primitive with three corners, a triangle or mesh face
type facet interface {
	Vertices() (core.Vec3, core.Vec3, core.Vec3)
}

// areaLights groups emissive triangles by material, in primitive order
func areaLights(prims []geometry.Shape, samples int) []*lights.Light {
	var order []*material.Material
	byMaterial := map[*material.Material][][3]core.Vec3{}
	for _, p := range prims {
		m := geometry.MaterialOf(p)
		f, ok := p.(facet)
		if m == nil || !m.IsEmissive() || !ok {
			continue
		}
		if _, seen := byMaterial[m]; !seen {
			order = append(order, m)
		}
		a, b, c := f.Vertices()
		byMaterial[m] = append(byMaterial[m], [3]core.Vec3{a, b, c})
	}

	out := make([]*lights.Light, 0, len(order))
	for _, m := range order {
		out = append(out, lights.NewArea(m, byMaterial[m], samples))
	}
	return out
}

// PrimitiveCount returns the number of primitives indexed by the BVH
func (s *Scene) PrimitiveCount() int {
	return s.BVH.Stats().Primitives
}

// WithCamera returns a copy of the scene viewed through a different camera.
// Geometry and lights are shared with the original.
func (s *Scene) WithCamera(cfg geometry.CameraConfig) *Scene {
	out := *s
	out.Camera = geometry.NewCamera(cfg)
	return &out
}
