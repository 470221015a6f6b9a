package core

import "math"

// Ray is a parametric line Origin + t*Direction restricted to [TMin, TMax].
// Rays are values; reflection, refraction and shadow queries build new ones.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TMin      float64
	TMax      float64
}

// NewRay creates a ray valid over [0, +Inf)
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, TMin: 0, TMax: math.Inf(1)}
}

// NewRayInterval creates a ray valid over [tMin, tMax]
func NewRayInterval(origin, direction Vec3, tMin, tMax float64) Ray {
	return Ray{Origin: origin, Direction: direction, TMin: tMin, TMax: tMax}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Contains reports whether t lies within the ray's valid interval
func (r Ray) Contains(t float64) bool {
	return t >= r.TMin && t <= r.TMax
}

// WithMax returns a copy of the ray with a tighter upper bound
func (r Ray) WithMax(tMax float64) Ray {
	r.TMax = tMax
	return r
}

// WithMin returns a copy of the ray with a raised lower bound
func (r Ray) WithMin(tMin float64) Ray {
	r.TMin = tMin
	return r
}
