package material

import (
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// Lambertian returns the perfectly diffuse BRDF kd * cd / pi
func Lambertian(kd float64, cd core.Vec3) core.Vec3 {
	return Rho(kd, cd).Multiply(1 / math.Pi)
}

// Rho returns the bihemispherical reflectance kd * cd of a Lambertian surface
func Rho(kd float64, cd core.Vec3) core.Vec3 {
	return cd.Multiply(kd)
}

// GlossySpecular returns the Phong lobe ks * (r . wo)^exp, where r is wi
// mirrored about n. wi points towards the light and wo towards the viewer.
func GlossySpecular(ks, exp float64, n, wi, wo core.Vec3) core.Vec3 {
	if ks == 0 {
		return core.Vec3{}
	}
	ndotwi := math.Max(n.Dot(wi), 0)
	r := n.Multiply(2 * ndotwi).Subtract(wi)
	rdotwo := r.Dot(wo)
	if rdotwo <= 0 {
		return core.Vec3{}
	}
	s := ks * math.Pow(rdotwo, exp)
	return core.NewVec3(s, s, s)
}

// PerfectSpecular returns the mirror direction for a viewer along wo and the
// reflected color weight kr * cr. The BRDF's 1/cos term cancels the cosine
// in the rendering equation, so the weight applies to traced radiance as is.
func PerfectSpecular(kr float64, cr, n, wo core.Vec3) (wi core.Vec3, weight core.Vec3) {
	wi = n.Multiply(2 * n.Dot(wo)).Subtract(wo)
	return wi, cr.Multiply(kr)
}

// Reflect mirrors the incident direction v about normal n
func Reflect(v, n core.Vec3) core.Vec3 {
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// Refract bends the unit direction uv through a surface with unit normal n
// facing the incoming ray, where etaRatio is eta_incident / eta_transmitted.
// It reports false on total internal reflection.
func Refract(uv, n core.Vec3, etaRatio float64) (core.Vec3, bool) {
	cosTheta := math.Min(-uv.Dot(n), 1.0)
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	if etaRatio*sinTheta > 1.0 {
		return core.Vec3{}, false
	}
	perp := uv.Add(n.Multiply(cosTheta)).Multiply(etaRatio)
	parallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - perp.LengthSquared())))
	return perp.Add(parallel), true
}

// Schlick approximates the Fresnel reflectance for a ray arriving at cosine
// to the normal, crossing an interface with the given eta ratio
func Schlick(cosine, etaRatio float64) float64 {
	r0 := (1 - etaRatio) / (1 + etaRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
