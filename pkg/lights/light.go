// Package lights implements the light sources queried while shading a
// surface point: where the light comes from, how bright it is and how much
// of it is visible.
package lights

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// LightType tags the closed set of light variants
type LightType string

const (
	LightTypeAmbient         LightType = "ambient"
	LightTypeAmbientOccluder LightType = "ambient_occluder"
	LightTypePoint           LightType = "point"
	LightTypeDirectional     LightType = "directional"
	LightTypeArea            LightType = "area"
)

// Occluder answers shadow queries; *geometry.BVH implements it
type Occluder interface {
	Occluded(ray core.Ray) bool
}

// Light is a radiance source. Which fields matter depends on Type:
// Position for point lights, Direction for directional lights and Triangles
// for area lights. Samples is the number of shadow rays per triangle (area)
// or per hemisphere (ambient occluder).
type Light struct {
	Type      LightType
	Scale     float64   // radiance scale ls
	Color     core.Vec3 // light color cl
	Position  core.Vec3
	Direction core.Vec3 // unit direction towards the light
	Triangles [][3]core.Vec3
	Samples   int

	center core.Vec3
}

// NewAmbient creates the uniform ambient term
func NewAmbient(ls float64, cl core.Vec3) *Light {
	return &Light{Type: LightTypeAmbient, Scale: ls, Color: cl}
}

// NewAmbientOccluder creates an ambient term darkened by the fraction of
// the hemisphere above a point that is blocked by geometry
func NewAmbientOccluder(ls float64, cl core.Vec3, samples int) *Light {
	return &Light{Type: LightTypeAmbientOccluder, Scale: ls, Color: cl, Samples: max(samples, 1)}
}

// NewPoint creates a point light
func NewPoint(ls float64, cl, position core.Vec3) *Light {
	return &Light{Type: LightTypePoint, Scale: ls, Color: cl, Position: position}
}

// NewDirectional creates a light infinitely far away in direction towards
func NewDirectional(ls float64, cl, towards core.Vec3) *Light {
	return &Light{Type: LightTypeDirectional, Scale: ls, Color: cl, Direction: towards.Normalize()}
}

// NewArea creates a light from the triangles of an emissive surface. Its
// radiance is the material's ls * ce.
func NewArea(emissive *material.Material, triangles [][3]core.Vec3, samples int) *Light {
	l := &Light{
		Type:      LightTypeArea,
		Scale:     emissive.Radiance,
		Color:     emissive.Color,
		Triangles: triangles,
		Samples:   max(samples, 1),
	}
	var sum core.Vec3
	for _, tri := range triangles {
		sum = sum.Add(tri[0].Add(tri[1]).Add(tri[2]).Multiply(1.0 / 3))
	}
	if len(triangles) > 0 {
		l.center = sum.Multiply(1 / float64(len(triangles)))
	}
	return l
}

// IsAmbient reports whether the light is a scene-wide ambient term rather
// than a directional contribution
func (l *Light) IsAmbient() bool {
	return l.Type == LightTypeAmbient || l.Type == LightTypeAmbientOccluder
}

// Radiance returns ls * cl
func (l *Light) Radiance() core.Vec3 {
	return l.Color.Multiply(l.Scale)
}

// DirectionFrom returns the unit direction wi from point p towards the
// light. Area lights are approximated by their center.
func (l *Light) DirectionFrom(p core.Vec3) core.Vec3 {
	switch l.Type {
	case LightTypePoint:
		return l.Position.Subtract(p).Normalize()
	case LightTypeArea:
		return l.center.Subtract(p).Normalize()
	case LightTypeDirectional:
		return l.Direction
	default:
		return core.Vec3{}
	}
}

// Visibility returns the fraction of the light that reaches point p with
// shading normal n, in [0, 1]. Area lights and ambient occluders draw their
// jittered sample patterns from random; other types ignore it.
func (l *Light) Visibility(p, n core.Vec3, occ Occluder, random *rand.Rand) float64 {
	switch l.Type {
	case LightTypeAmbient:
		return 1
	case LightTypePoint:
		return l.pointVisible(p, l.Position, occ)
	case LightTypeDirectional:
		ray := core.NewRayInterval(p, l.Direction, geometry.Epsilon, math.Inf(1))
		if occ.Occluded(ray) {
			return 0
		}
		return 1
	case LightTypeArea:
		return l.areaVisibility(p, occ, random)
	case LightTypeAmbientOccluder:
		return l.hemisphereVisibility(p, n, occ, random)
	default:
		return 0
	}
}

// pointVisible tests a shadow ray that stops just short of target
func (l *Light) pointVisible(p, target core.Vec3, occ Occluder) float64 {
	toLight := target.Subtract(p)
	dist := toLight.Length()
	if dist <= geometry.Epsilon {
		return 1
	}
	ray := core.NewRayInterval(p, toLight.Multiply(1/dist), geometry.Epsilon, dist-geometry.Epsilon)
	if occ.Occluded(ray) {
		return 0
	}
	return 1
}

func (l *Light) areaVisibility(p core.Vec3, occ Occluder, random *rand.Rand) float64 {
	if len(l.Triangles) == 0 {
		return 0
	}
	sampler := core.NewJitteredSampler(seedFrom(random))
	visible, total := 0.0, 0
	for _, tri := range l.Triangles {
		for s := range sampler.Samples(l.Samples) {
			visible += l.pointVisible(p, core.SquareToTriangle(tri[0], tri[1], tri[2], s), occ)
			total++
		}
	}
	return visible / float64(total)
}

func (l *Light) hemisphereVisibility(p, n core.Vec3, occ Occluder, random *rand.Rand) float64 {
	sampler := core.NewJitteredSampler(seedFrom(random))
	visible := 0
	for s := range sampler.Samples(l.Samples) {
		dir := core.SquareToHemisphere(n, s)
		if !occ.Occluded(core.NewRayInterval(p, dir, geometry.Epsilon, math.Inf(1))) {
			visible++
		}
	}
	return float64(visible) / float64(l.Samples)
}

func seedFrom(random *rand.Rand) uint64 {
	if random == nil {
		return 0
	}
	return random.Uint64()
}

// Validate checks the light parameters
func (l *Light) Validate() error {
	if l.Scale < 0 {
		return fmt.Errorf("%s light: negative radiance scale %.3f", l.Type, l.Scale)
	}
	switch l.Type {
	case LightTypeAmbient, LightTypeAmbientOccluder, LightTypePoint:
	case LightTypeDirectional:
		if l.Direction.IsZero() {
			return fmt.Errorf("directional light: zero direction")
		}
	case LightTypeArea:
		if len(l.Triangles) == 0 {
			return fmt.Errorf("area light: no triangles")
		}
	default:
		return fmt.Errorf("unknown light type %q", l.Type)
	}
	return nil
}
