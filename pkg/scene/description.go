package scene

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/lights"
	"github.com/df07/go-whitted-raytracer/pkg/loaders"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

type vec3 [3]float64

func (v vec3) vec() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// description mirrors the layout of a scene TOML file
type description struct {
	Name             string                  `toml:"name"`
	Background       vec3                    `toml:"background"`
	AreaLightSamples int                     `toml:"area_light_samples"`
	Camera           *cameraDesc             `toml:"camera"`
	Ambient          *lightDesc              `toml:"ambient"`
	Materials        map[string]materialDesc `toml:"materials"`
	Spheres          []sphereDesc            `toml:"spheres"`
	Planes           []planeDesc             `toml:"planes"`
	Triangles        []triangleDesc          `toml:"triangles"`
	Meshes           []meshDesc              `toml:"meshes"`
	Lights           []lightDesc             `toml:"lights"`
}

type cameraDesc struct {
	Center        vec3    `toml:"center"`
	LookAt        vec3    `toml:"look_at"`
	Up            vec3    `toml:"up"`
	VFov          float64 `toml:"vfov"`
	Aperture      float64 `toml:"aperture"`
	FocusDistance float64 `toml:"focus_distance"`
}

type materialDesc struct {
	Kind         string  `toml:"kind"`
	Ka           float64 `toml:"ka"`
	Kd           float64 `toml:"kd"`
	Ks           float64 `toml:"ks"`
	Exp          float64 `toml:"exp"`
	Kr           float64 `toml:"kr"`
	Color        vec3    `toml:"color"`
	ReflectColor vec3    `toml:"reflect_color"`
	IOR          float64 `toml:"ior"`
	Radiance     float64 `toml:"radiance"`
}

type sphereDesc struct {
	Center   vec3    `toml:"center"`
	Radius   float64 `toml:"radius"`
	Material string  `toml:"material"`
}

type planeDesc struct {
	Point    vec3   `toml:"point"`
	Normal   vec3   `toml:"normal"`
	Material string `toml:"material"`
}

type triangleDesc struct {
	Vertices [3]vec3 `toml:"vertices"`
	Material string  `toml:"material"`
}

type meshDesc struct {
	Path     string `toml:"path"`
	Material string `toml:"material"`
	Position vec3   `toml:"position"`
	Rotation vec3   `toml:"rotation"`
	Scale    *vec3  `toml:"scale"`
}

type lightDesc struct {
	Type      string  `toml:"type"`
	Scale     float64 `toml:"scale"`
	Color     *vec3   `toml:"color"`
	Position  vec3    `toml:"position"`
	Direction vec3    `toml:"direction"`
	Samples   int     `toml:"samples"`
}

// LoadDescription reads a scene description file into a Builder. Mesh paths
// are resolved relative to the file's directory.
func LoadDescription(path string) (*Builder, error) {
	var desc description
	md, err := toml.DecodeFile(path, &desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScene, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		logger.Warningf("%s: ignoring unknown keys %s", path, strings.Join(keys, ", "))
	}

	if desc.Name == "" {
		desc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return desc.builder(filepath.Dir(path))
}

func (d *description) builder(dir string) (*Builder, error) {
	b := NewBuilder(d.Name).SetBackground(d.Background.vec())
	if d.AreaLightSamples > 0 {
		b.SetAreaLightSamples(d.AreaLightSamples)
	}
	if d.Camera != nil {
		b.SetCamera(geometry.CameraConfig{
			Center:        d.Camera.Center.vec(),
			LookAt:        d.Camera.LookAt.vec(),
			Up:            d.Camera.Up.vec(),
			VFov:          d.Camera.VFov,
			Aperture:      d.Camera.Aperture,
			FocusDistance: d.Camera.FocusDistance,
		})
	}
	if d.Ambient != nil {
		ambient, err := d.Ambient.light()
		if err != nil {
			return nil, err
		}
		if !ambient.IsAmbient() {
			return nil, fmt.Errorf("%w: [ambient] has type %q", ErrInvalidScene, d.Ambient.Type)
		}
		b.SetAmbient(ambient)
	}

	materials, err := d.materials()
	if err != nil {
		return nil, err
	}
	lookup := func(name, where string) (*material.Material, error) {
		m, ok := materials[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s references undefined material %q", ErrInvalidScene, where, name)
		}
		return m, nil
	}

	for i, s := range d.Spheres {
		m, err := lookup(s.Material, fmt.Sprintf("spheres[%d]", i))
		if err != nil {
			return nil, err
		}
		if s.Radius <= 0 {
			return nil, fmt.Errorf("%w: spheres[%d] radius %.3f must be positive", ErrInvalidScene, i, s.Radius)
		}
		b.Add(geometry.NewSphere(s.Center.vec(), s.Radius, m))
	}

	for i, p := range d.Planes {
		m, err := lookup(p.Material, fmt.Sprintf("planes[%d]", i))
		if err != nil {
			return nil, err
		}
		if p.Normal.vec().IsZero() {
			return nil, fmt.Errorf("%w: planes[%d] has a zero normal", ErrInvalidScene, i)
		}
		b.Add(geometry.NewPlane(p.Point.vec(), p.Normal.vec(), m))
	}

	for i, t := range d.Triangles {
		m, err := lookup(t.Material, fmt.Sprintf("triangles[%d]", i))
		if err != nil {
			return nil, err
		}
		b.Add(geometry.NewTriangle(t.Vertices[0].vec(), t.Vertices[1].vec(), t.Vertices[2].vec(), m))
	}

	for i, md := range d.Meshes {
		opts := loaders.MeshOptions{Transform: md.transform()}
		if md.Material != "" {
			m, err := lookup(md.Material, fmt.Sprintf("meshes[%d]", i))
			if err != nil {
				return nil, err
			}
			opts.Material = m
		}

		path := md.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		model, err := loaders.LoadMesh(path, opts)
		if err != nil {
			return nil, fmt.Errorf("meshes[%d]: %w", i, err)
		}
		b.Add(model.Shapes()...)
	}

	for i, ld := range d.Lights {
		l, err := ld.light()
		if err != nil {
			return nil, fmt.Errorf("lights[%d]: %w", i, err)
		}
		if l.IsAmbient() {
			return nil, fmt.Errorf("%w: lights[%d]: ambient lights belong in [ambient]", ErrInvalidScene, i)
		}
		b.AddLight(l)
	}
	return b, nil
}

// materials builds every named material, in name order so errors are stable
func (d *description) materials() (map[string]*material.Material, error) {
	names := make([]string, 0, len(d.Materials))
	for name := range d.Materials {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]*material.Material, len(names))
	for _, name := range names {
		m, err := d.Materials[name].material()
		if err != nil {
			return nil, fmt.Errorf("%w: material %q: %v", ErrInvalidScene, name, err)
		}
		out[name] = m
	}
	return out, nil
}

func (md materialDesc) material() (*material.Material, error) {
	kind, err := material.ParseKind(md.Kind)
	if err != nil {
		return nil, err
	}

	m := &material.Material{
		Kind:         kind,
		Color:        md.Color.vec(),
		Ka:           md.Ka,
		Kd:           md.Kd,
		Ks:           md.Ks,
		Exp:          md.Exp,
		Kr:           md.Kr,
		ReflectColor: md.ReflectColor.vec(),
		IOR:          md.IOR,
		Radiance:     md.Radiance,
	}
	if kind == material.Dielectric {
		m.Color = core.NewVec3(1, 1, 1)
		m.ReflectColor = core.NewVec3(1, 1, 1)
	}
	if kind == material.Reflective && m.ReflectColor.IsZero() {
		m.ReflectColor = core.NewVec3(1, 1, 1)
	}
	return m, m.Validate()
}

func (md meshDesc) transform() geometry.Transform {
	xf := geometry.IdentityTransform()
	xf.Position = md.Position.vec()
	xf.Rotation = md.Rotation.vec()
	if md.Scale != nil {
		xf.Scale = md.Scale.vec()
	}
	return xf
}

func (ld lightDesc) light() (*lights.Light, error) {
	color := core.NewVec3(1, 1, 1)
	if ld.Color != nil {
		color = ld.Color.vec()
	}
	samples := ld.Samples
	if samples <= 0 {
		samples = DefaultAreaLightSamples
	}

	switch lights.LightType(strings.ToLower(ld.Type)) {
	case lights.LightTypeAmbient:
		return lights.NewAmbient(ld.Scale, color), nil
	case lights.LightTypeAmbientOccluder:
		return lights.NewAmbientOccluder(ld.Scale, color, samples), nil
	case lights.LightTypePoint:
		return lights.NewPoint(ld.Scale, color, ld.Position.vec()), nil
	case lights.LightTypeDirectional:
		if ld.Direction.vec().IsZero() {
			return nil, fmt.Errorf("%w: directional light needs a direction", ErrInvalidScene)
		}
		return lights.NewDirectional(ld.Scale, color, ld.Direction.vec()), nil
	case lights.LightTypeArea:
		return nil, fmt.Errorf("%w: area lights come from emissive triangles, not [[lights]]", ErrInvalidScene)
	}
	return nil, fmt.Errorf("%w: unknown light type %q", ErrInvalidScene, ld.Type)
}
