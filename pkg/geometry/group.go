package geometry

import "github.com/df07/go-whitted-raytracer/pkg/core"

// Group is a composite of shapes hit as one object
type Group struct {
	Children []Shape
	bbox     core.AABB
}

// NewGroup creates a group from the given children
func NewGroup(children ...Shape) *Group {
	bbox := core.EmptyAABB()
	for _, c := range children {
		bbox = bbox.Union(c.BoundingBox())
	}
	return &Group{Children: children, bbox: bbox}
}

// Hit returns the closest hit among the children. On equal distances the
// child listed first wins.
func (g *Group) Hit(ray core.Ray) (HitRecord, bool) {
	var closest HitRecord
	found := false
	for _, child := range g.Children {
		if hit, ok := Intersect(child, ray); ok && (!found || hit.T < closest.T) {
			closest, found = hit, true
			ray = ray.WithMax(hit.T)
		}
	}
	return closest, found
}

func (g *Group) BoundingBox() core.AABB {
	return g.bbox
}
