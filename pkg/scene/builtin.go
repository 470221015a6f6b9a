package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/lights"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// ErrUnknownScene is returned by Load for names that are neither built in
// nor a scene description file
var ErrUnknownScene = errors.New("unknown scene")

// builtins maps scene names to their constructors
var builtins = map[string]func() *Builder{
	"cornell": NewCornellScene,
	"sphere":  NewSphereScene,
	"spheres": NewSpheresScene,
}

// Names lists the built-in scenes in alphabetical order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load returns a built-in scene by name, or reads a scene description when
// name ends in .toml
func Load(name string) (*Scene, error) {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		b, err := LoadDescription(name)
		if err != nil {
			return nil, err
		}
		return b.Build()
	}

	ctor, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (built-in scenes: %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
	}
	return ctor().Build()
}

// NewSphereScene is a single white sphere of radius 1 at the origin lit only
// by ambient light, seen from z=5
func NewSphereScene() *Builder {
	white := material.NewMatte(1, 1, core.NewVec3(1, 1, 1))
	return NewBuilder("sphere").
		SetAmbient(lights.NewAmbient(1, core.NewVec3(1, 1, 1))).
		Add(geometry.NewSphere(core.NewVec3(0, 0, 0), 1, white))
}

// NewSpheresScene shows every material on a ground plane under a point
// light and a directional light
func NewSpheresScene() *Builder {
	ground := material.NewMatte(0.2, 0.6, core.NewVec3(0.8, 0.8, 0.7))
	matte := material.NewMatte(0.2, 0.7, core.NewVec3(0.8, 0.2, 0.2))
	phong := material.NewPhong(0.2, 0.6, 0.3, 50, core.NewVec3(0.2, 0.3, 0.8))
	mirror := material.NewReflective(0.1, 0.3, 0.2, 100, 0.75, core.NewVec3(0.9, 0.9, 0.9), core.NewVec3(1, 1, 1))
	glass := material.NewDielectric(1.5, 0.2, 200)

	return NewBuilder("spheres").
		SetCamera(geometry.CameraConfig{
			Center: core.NewVec3(0, 2, 9),
			LookAt: core.NewVec3(0, 0.5, 0),
			Up:     core.NewVec3(0, 1, 0),
			VFov:   35,
		}).
		SetBackground(core.NewVec3(0.5, 0.7, 1.0)).
		SetAmbient(lights.NewAmbient(0.15, core.NewVec3(1, 1, 1))).
		AddLight(lights.NewPoint(2.5, core.NewVec3(1, 1, 1), core.NewVec3(-4, 6, 5))).
		AddLight(lights.NewDirectional(0.8, core.NewVec3(1, 0.95, 0.9), core.NewVec3(1, 2, 1))).
		Add(
			geometry.NewPlane(core.NewVec3(0, -1, 0), core.NewVec3(0, 1, 0), ground),
			geometry.NewSphere(core.NewVec3(-3, 0, 0), 1, matte),
			geometry.NewSphere(core.NewVec3(-1, 0, -1), 1, phong),
			geometry.NewSphere(core.NewVec3(1, 0, 0), 1, mirror),
			geometry.NewSphere(core.NewVec3(3, 0, 1), 1, glass),
		)
}
