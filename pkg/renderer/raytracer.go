package renderer

import (
	"math"
	"math/rand/v2"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
)

// Seed streams derived from the pixel coordinates
const (
	samplerStream = 0 // sub-pixel sample offsets
	lightStream   = 1 // area light and ambient occlusion sample patterns
)

// Raytracer evaluates Whitted shading for rays in a scene. A Raytracer keeps
// ray counters without locking, so each worker uses its own; the scene is
// shared.
type Raytracer struct {
	scene    *scene.Scene
	maxDepth int

	counters tally
}

// tally counts the rays traced since the last drain
type tally struct {
	rays       int64 // camera, reflection and refraction rays
	shadowRays int64 // light visibility and ambient occlusion queries
	hits       int64 // rays that found a surface
}

// NewRaytracer creates a raytracer for the scene
func NewRaytracer(s *scene.Scene, maxDepth int) *Raytracer {
	return &Raytracer{scene: s, maxDepth: maxDepth}
}

// Trace returns the radiance arriving along ray. Primary rays have depth 0;
// rays deeper than the configured maximum contribute black. random supplies
// the sample patterns of area lights and ambient occlusion.
func (rt *Raytracer) Trace(ray core.Ray, depth int, random *rand.Rand) core.Vec3 {
	if depth > rt.maxDepth {
		return core.Vec3{}
	}

	rt.counters.rays++
	hit, ok := rt.scene.BVH.Hit(ray)
	if !ok {
		return rt.scene.Background
	}
	rt.counters.hits++
	return rt.shade(ray, hit, depth, random)
}

// Occluded answers shadow queries for lights, counting each one
func (rt *Raytracer) Occluded(ray core.Ray) bool {
	rt.counters.shadowRays++
	return rt.scene.BVH.Occluded(ray)
}

// shade sums the ambient term, the direct contribution of every visible
// light and, for mirrors and glass, the traced secondary rays
func (rt *Raytracer) shade(ray core.Ray, hit geometry.HitRecord, depth int, random *rand.Rand) core.Vec3 {
	m := hit.Material
	if m == nil {
		return core.Vec3{}
	}
	if m.IsEmissive() {
		return m.Emitted()
	}

	p, n := hit.Point, hit.Normal
	wo := ray.Direction.Negate().Normalize()

	ambient := rt.scene.Ambient
	L := m.AmbientReflectance().MultiplyVec(ambient.Radiance()).
		Multiply(ambient.Visibility(p, n, rt, random))

	for _, light := range rt.scene.Lights {
		wi := light.DirectionFrom(p)
		ndotwi := n.Dot(wi)
		if ndotwi <= 0 {
			continue
		}
		visibility := light.Visibility(p, n, rt, random)
		if visibility == 0 {
			continue
		}
		L = L.Add(m.Evaluate(n, wi, wo).MultiplyVec(light.Radiance()).Multiply(ndotwi * visibility))
	}

	switch m.Kind {
	case material.Reflective:
		wi, weight := material.PerfectSpecular(m.Kr, m.ReflectColor, n, wo)
		L = L.Add(weight.MultiplyVec(rt.Trace(rt.secondary(p, wi), depth+1, random)))
	case material.Dielectric:
		L = L.Add(rt.transmit(ray, hit, depth, random))
	}
	return L
}

// transmit splits a ray hitting glass into a reflected and a refracted ray
// weighted by the Schlick approximation of the Fresnel term. Past the
// critical angle all light is reflected.
func (rt *Raytracer) transmit(ray core.Ray, hit geometry.HitRecord, depth int, random *rand.Rand) core.Vec3 {
	m := hit.Material
	etaRatio := m.IOR
	if hit.FrontFace {
		etaRatio = 1 / m.IOR
	}

	unit := ray.Direction.Normalize()
	cosTheta := math.Min(unit.Negate().Dot(hit.Normal), 1)
	reflected := rt.Trace(rt.secondary(hit.Point, material.Reflect(unit, hit.Normal)), depth+1, random).
		MultiplyVec(m.ReflectColor)

	refractedDir, ok := material.Refract(unit, hit.Normal, etaRatio)
	if !ok {
		return reflected
	}

	fresnel := material.Schlick(cosTheta, etaRatio)
	refracted := rt.Trace(rt.secondary(hit.Point, refractedDir), depth+1, random).MultiplyVec(m.Color)
	return reflected.Multiply(fresnel).Add(refracted.Multiply(1 - fresnel))
}

// secondary starts a ray just off the surface so it cannot hit its origin
func (rt *Raytracer) secondary(origin, direction core.Vec3) core.Ray {
	return core.NewRayInterval(origin, direction, geometry.Epsilon, math.Inf(1))
}

// RenderPixel averages the jittered camera samples of pixel (x, y). The
// sample offsets and light patterns depend only on the pixel coordinates.
func (rt *Raytracer) RenderPixel(camera geometry.Camera, x, y, samples int) core.Vec3 {
	sampler := core.NewJitteredSampler(core.PixelSeed(x, y, samplerStream))
	random := core.NewRand(core.PixelSeed(x, y, lightStream))

	var colorAccum core.Vec3
	count := 0
	for offset := range sampler.Samples(samples) {
		colorAccum = colorAccum.Add(rt.Trace(camera.GenerateRay(x, y, offset), 0, random))
		count++
	}
	if count == 0 {
		return core.Vec3{}
	}
	return colorAccum.Multiply(1 / float64(count)).ToneMap().Clamp(0, 1)
}

// drain returns and resets the counters
func (rt *Raytracer) drain() tally {
	t := rt.counters
	rt.counters = tally{}
	return t
}
