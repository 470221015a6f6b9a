package geometry

import (
	"sort"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/log"
)

// LeafSize is the largest number of primitives stored in a leaf
const LeafSize = 4

var logger = log.New("bvh")

// bvhNode is an arena entry. Interior nodes have count == 0 and address
// their children by index; leaves own prims[first : first+count].
type bvhNode struct {
	bounds      core.AABB
	left, right int32
	first       int32
	count       int32
}

func (n *bvhNode) isLeaf() bool {
	return n.count > 0
}

// BVH is an immutable bounding volume hierarchy over scene primitives. Nodes
// live in one slice with the root at index 0, so the tree can be shared by
// any number of goroutines without synchronization.
type BVH struct {
	nodes []bvhNode
	prims []Shape
	stats BVHStats
}

// BVHStats summarizes the shape of a built hierarchy
type BVHStats struct {
	Nodes      int
	Leaves     int
	MaxDepth   int
	Primitives int
	Degenerate int // zero-area triangles dropped during the build
}

// NewBVH flattens groups and meshes, then builds the hierarchy by splitting
// at the centroid median along the longest axis. The input slice is not
// modified, and equal inputs always produce the same tree.
func NewBVH(shapes []Shape) *BVH {
	prims, degenerate := Flatten(shapes)
	bvh := &BVH{prims: prims}
	bvh.stats.Primitives = len(prims)
	bvh.stats.Degenerate = degenerate

	if len(prims) == 0 {
		return bvh
	}

	centroids := make([]core.Vec3, len(prims))
	boxes := make([]core.AABB, len(prims))
	order := make([]int, len(prims))
	for i, p := range prims {
		boxes[i] = p.BoundingBox()
		centroids[i] = boxes[i].Center()
		order[i] = i
	}

	b := builder{bvh: bvh, boxes: boxes, centroids: centroids}
	bvh.nodes = make([]bvhNode, 0, 2*len(prims)/LeafSize+1)
	b.build(order, 0, 1)

	sorted := make([]Shape, len(prims))
	for i, idx := range order {
		sorted[i] = prims[idx]
	}
	bvh.prims = sorted

	logger.Debugf("built BVH: %d primitives, %d nodes, %d leaves, depth %d",
		bvh.stats.Primitives, bvh.stats.Nodes, bvh.stats.Leaves, bvh.stats.MaxDepth)
	return bvh
}

type builder struct {
	bvh       *BVH
	boxes     []core.AABB
	centroids []core.Vec3
}

// build creates the node for order[...] (an index range into prims starting
// at offset) and returns its arena index
func (b *builder) build(order []int, offset int, depth int) int32 {
	bounds := core.EmptyAABB()
	centroidBounds := core.EmptyAABB()
	for _, idx := range order {
		bounds = bounds.Union(b.boxes[idx])
		centroidBounds = centroidBounds.Grow(b.centroids[idx])
	}

	nodeIdx := int32(len(b.bvh.nodes))
	b.bvh.nodes = append(b.bvh.nodes, bvhNode{bounds: bounds})
	b.bvh.stats.Nodes++
	b.bvh.stats.MaxDepth = max(b.bvh.stats.MaxDepth, depth)

	if len(order) <= LeafSize {
		b.bvh.nodes[nodeIdx].first = int32(offset)
		b.bvh.nodes[nodeIdx].count = int32(len(order))
		b.bvh.stats.Leaves++
		return nodeIdx
	}

	axis := centroidBounds.LongestAxis()
	sort.SliceStable(order, func(i, j int) bool {
		return b.centroids[order[i]].Axis(axis) < b.centroids[order[j]].Axis(axis)
	})

	mid := len(order) / 2
	left := b.build(order[:mid], offset, depth+1)
	right := b.build(order[mid:], offset+mid, depth+1)
	b.bvh.nodes[nodeIdx].left = left
	b.bvh.nodes[nodeIdx].right = right
	return nodeIdx
}

type stackEntry struct {
	node  int32
	enter float64
}

// Hit returns the closest intersection within the ray interval. Nearer
// children are visited first and subtrees entered beyond the closest hit are
// skipped. When two hits share the same t the first one found is kept.
func (bvh *BVH) Hit(ray core.Ray) (HitRecord, bool) {
	if len(bvh.nodes) == 0 {
		return HitRecord{}, false
	}
	enter, _, ok := bvh.nodes[0].bounds.Hit(ray)
	if !ok {
		return HitRecord{}, false
	}

	var closest HitRecord
	found := false

	var buf [64]stackEntry
	stack := append(buf[:0], stackEntry{node: 0, enter: enter})
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if found && entry.enter > closest.T {
			continue
		}

		node := &bvh.nodes[entry.node]
		if node.isLeaf() {
			for _, prim := range bvh.prims[node.first : node.first+node.count] {
				if hit, ok := Intersect(prim, ray); ok && (!found || hit.T < closest.T) {
					closest, found = hit, true
					ray = ray.WithMax(hit.T)
				}
			}
			continue
		}

		leftEnter, _, hitLeft := bvh.nodes[node.left].bounds.Hit(ray)
		rightEnter, _, hitRight := bvh.nodes[node.right].bounds.Hit(ray)
		switch {
		case hitLeft && hitRight:
			near, far := stackEntry{node.left, leftEnter}, stackEntry{node.right, rightEnter}
			if rightEnter < leftEnter {
				near, far = far, near
			}
			stack = append(stack, far, near)
		case hitLeft:
			stack = append(stack, stackEntry{node.left, leftEnter})
		case hitRight:
			stack = append(stack, stackEntry{node.right, rightEnter})
		}
	}
	return closest, found
}

// Occluded reports whether any non-emissive surface intersects the ray
// interval. It stops at the first such hit.
func (bvh *BVH) Occluded(ray core.Ray) bool {
	if len(bvh.nodes) == 0 {
		return false
	}

	var buf [64]int32
	stack := append(buf[:0], 0)
	for len(stack) > 0 {
		node := &bvh.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if _, _, ok := node.bounds.Hit(ray); !ok {
			continue
		}

		if !node.isLeaf() {
			stack = append(stack, node.right, node.left)
			continue
		}
		for _, prim := range bvh.prims[node.first : node.first+node.count] {
			if m := MaterialOf(prim); m != nil && m.IsEmissive() {
				continue
			}
			if _, ok := Intersect(prim, ray); ok {
				return true
			}
		}
	}
	return false
}

// Bounds returns the box around every primitive, or an empty box
func (bvh *BVH) Bounds() core.AABB {
	if len(bvh.nodes) == 0 {
		return core.EmptyAABB()
	}
	return bvh.nodes[0].bounds
}

// Primitives returns the flattened primitives in leaf order
func (bvh *BVH) Primitives() []Shape {
	return bvh.prims
}

func (bvh *BVH) Stats() BVHStats {
	return bvh.stats
}
