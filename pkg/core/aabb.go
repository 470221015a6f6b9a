package core

import "math"

// AABB represents an axis-aligned bounding box. Min <= Max componentwise
// for every box built from geometry; EmptyAABB is the inverted identity box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns a box that contains nothing; Union with it is a no-op
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: NewVec3(inf, inf, inf), Max: NewVec3(-inf, -inf, -inf)}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box = box.Grow(p)
	}
	return box
}

// Grow returns the box extended to include point p
func (aabb AABB) Grow(p Vec3) AABB {
	return AABB{
		Min: NewVec3(math.Min(aabb.Min.X, p.X), math.Min(aabb.Min.Y, p.Y), math.Min(aabb.Min.Z, p.Z)),
		Max: NewVec3(math.Max(aabb.Max.X, p.X), math.Max(aabb.Max.Y, p.Y), math.Max(aabb.Max.Z, p.Z)),
	}
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return aabb.Grow(other.Min).Grow(other.Max)
}

// Hit intersects the ray's [TMin, TMax] interval with the box slabs and
// returns the entry and exit distances of the overlap.
func (aabb AABB) Hit(ray Ray) (tEnter, tExit float64, ok bool) {
	tEnter, tExit = ray.TMin, ray.TMax
	for axis := 0; axis < 3; axis++ {
		lo, hi := aabb.Min.Axis(axis), aabb.Max.Axis(axis)
		origin, direction := ray.Origin.Axis(axis), ray.Direction.Axis(axis)

		// Parallel to this slab: either always inside or never
		if math.Abs(direction) < 1e-8 {
			if origin < lo || origin > hi {
				return 0, 0, false
			}
			continue
		}

		inv := 1.0 / direction
		t1 := (lo - origin) * inv
		t2 := (hi - origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tEnter = math.Max(tEnter, t1)
		tExit = math.Min(tExit, t2)
		if tEnter > tExit {
			return 0, 0, false
		}
	}
	return tEnter, tExit, true
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Size returns the extent of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (aabb AABB) LongestAxis() int {
	size := aabb.Size()
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

// IsValid returns true if min <= max on every axis
func (aabb AABB) IsValid() bool {
	return aabb.Min.X <= aabb.Max.X &&
		aabb.Min.Y <= aabb.Max.Y &&
		aabb.Min.Z <= aabb.Max.Z
}

// Contains reports whether other lies entirely inside this box
func (aabb AABB) Contains(other AABB) bool {
	if !other.IsValid() {
		return true
	}
	return aabb.Min.X <= other.Min.X && aabb.Min.Y <= other.Min.Y && aabb.Min.Z <= other.Min.Z &&
		aabb.Max.X >= other.Max.X && aabb.Max.Y >= other.Max.Y && aabb.Max.Z >= other.Max.Z
}
