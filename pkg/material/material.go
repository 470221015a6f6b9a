package material

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// Kind selects how a surface is shaded
type Kind int

const (
	Matte Kind = iota
	Phong
	Reflective
	Dielectric
	Emissive
)

var kindNames = map[Kind]string{
	Matte:      "matte",
	Phong:      "phong",
	Reflective: "reflective",
	Dielectric: "dielectric",
	Emissive:   "emissive",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a material name such as "phong" into a Kind
func ParseKind(name string) (Kind, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for kind, n := range kindNames {
		if n == lower {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown material kind %q", name)
}

// ErrInvalidMaterial is returned by Validate for out-of-range coefficients
var ErrInvalidMaterial = errors.New("invalid material")

// Material is a closed set of surface models distinguished by Kind. Only the
// coefficients relevant to the kind are read during shading. Materials are
// immutable after construction and shared by pointer between shapes.
type Material struct {
	Kind Kind

	Color core.Vec3 // diffuse color cd, or emitted color for Emissive
	Ka    float64   // ambient coefficient
	Kd    float64   // diffuse coefficient
	Ks    float64   // glossy specular coefficient
	Exp   float64   // specular exponent

	Kr           float64   // mirror reflection coefficient
	ReflectColor core.Vec3 // mirror reflection color cr

	IOR float64 // index of refraction for Dielectric

	Radiance float64 // emitted radiance scale ls for Emissive
}

// NewMatte creates a Lambertian material
func NewMatte(ka, kd float64, cd core.Vec3) *Material {
	return &Material{Kind: Matte, Ka: ka, Kd: kd, Color: cd}
}

// NewPhong creates a diffuse material with a glossy highlight
func NewPhong(ka, kd, ks, exp float64, cd core.Vec3) *Material {
	return &Material{Kind: Phong, Ka: ka, Kd: kd, Ks: ks, Exp: exp, Color: cd}
}

// NewReflective creates a Phong material that also mirrors the scene
func NewReflective(ka, kd, ks, exp, kr float64, cd, cr core.Vec3) *Material {
	return &Material{
		Kind: Reflective, Ka: ka, Kd: kd, Ks: ks, Exp: exp, Color: cd,
		Kr: kr, ReflectColor: cr,
	}
}

// NewDielectric creates a clear refractive material such as glass (ior 1.5).
// ks and exp control the highlight of direct lights on the surface.
func NewDielectric(ior, ks, exp float64) *Material {
	white := core.NewVec3(1, 1, 1)
	return &Material{Kind: Dielectric, IOR: ior, Ks: ks, Exp: exp, Color: white, ReflectColor: white}
}

// NewEmissive creates a light-emitting surface
func NewEmissive(ls float64, ce core.Vec3) *Material {
	return &Material{Kind: Emissive, Radiance: ls, Color: ce}
}

// IsEmissive reports whether the surface emits light; emitters never cast shadows
func (m *Material) IsEmissive() bool {
	return m.Kind == Emissive
}

// Emitted returns ls * ce for emissive surfaces and black otherwise
func (m *Material) Emitted() core.Vec3 {
	if m.Kind != Emissive {
		return core.Vec3{}
	}
	return m.Color.Multiply(m.Radiance)
}

// AmbientReflectance returns rho of the ambient Lambertian, ka * cd
func (m *Material) AmbientReflectance() core.Vec3 {
	switch m.Kind {
	case Emissive, Dielectric:
		return core.Vec3{}
	}
	return Rho(m.Ka, m.Color)
}

// Evaluate returns the BRDF value for light arriving from wi and leaving
// towards wo at a point with unit normal n. It excludes the mirror and
// transmission terms, which are handled by tracing secondary rays.
func (m *Material) Evaluate(n, wi, wo core.Vec3) core.Vec3 {
	switch m.Kind {
	case Matte:
		return Lambertian(m.Kd, m.Color)
	case Phong, Reflective:
		return Lambertian(m.Kd, m.Color).Add(GlossySpecular(m.Ks, m.Exp, n, wi, wo))
	case Dielectric:
		return GlossySpecular(m.Ks, m.Exp, n, wi, wo)
	default:
		return core.Vec3{}
	}
}

// Validate checks that the coefficients describe a plausible surface
func (m *Material) Validate() error {
	switch m.Kind {
	case Matte, Phong, Reflective:
		if m.Ka < 0 || m.Kd < 0 || m.Ks < 0 || m.Kr < 0 {
			return fmt.Errorf("%w: negative coefficient in %s material", ErrInvalidMaterial, m.Kind)
		}
		if m.Kind != Matte && m.Kd+m.Ks >= 1 {
			return fmt.Errorf("%w: kd + ks = %.3f must be below 1", ErrInvalidMaterial, m.Kd+m.Ks)
		}
	case Dielectric:
		if m.IOR <= 0 {
			return fmt.Errorf("%w: index of refraction %.3f must be positive", ErrInvalidMaterial, m.IOR)
		}
	case Emissive:
		if m.Radiance < 0 {
			return fmt.Errorf("%w: negative radiance", ErrInvalidMaterial)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMaterial, m.Kind)
	}
	return nil
}
