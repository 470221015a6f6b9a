package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// randomScene builds spheres and triangles, each with its own material so
// hits can be matched by identity
func randomScene(n int, seed uint64) []Shape {
	random := core.NewRand(seed)
	coord := func(scale float64) float64 { return (random.Float64()*2 - 1) * scale }

	shapes := make([]Shape, 0, n)
	for i := 0; i < n; i++ {
		mat := material.NewMatte(0.1, 0.5, core.NewVec3(float64(i), 0, 0))
		center := core.NewVec3(coord(10), coord(10), coord(10))
		if i%2 == 0 {
			shapes = append(shapes, NewSphere(center, 0.2+random.Float64(), mat))
			continue
		}
		shapes = append(shapes, NewTriangle(
			center,
			center.Add(core.NewVec3(coord(2), coord(2), coord(2))),
			center.Add(core.NewVec3(coord(2), coord(2), coord(2))),
			mat,
		))
	}
	return shapes
}

func TestBVH_MatchesBruteForce(t *testing.T) {
	shapes := randomScene(300, 1)
	bvh := NewBVH(shapes)
	brute := NewGroup(shapes...)
	random := core.NewRand(2)

	hits := 0
	for i := 0; i < 5000; i++ {
		origin := core.NewVec3(random.Float64()*30-15, random.Float64()*30-15, random.Float64()*30-15)
		dir := core.NewVec3(random.Float64()*2-1, random.Float64()*2-1, random.Float64()*2-1).Normalize()
		ray := core.NewRayInterval(origin, dir, Epsilon, math.Inf(1))

		expected, expectedOK := brute.Hit(ray)
		got, gotOK := bvh.Hit(ray)
		require.Equal(t, expectedOK, gotOK, "ray %d disagrees on hit/miss", i)
		if !expectedOK {
			continue
		}
		hits++
		assert.InDelta(t, expected.T, got.T, 1e-9, "ray %d", i)
		assert.Same(t, expected.Material, got.Material, "ray %d hit a different object", i)

		assert.Equal(t, expectedOK, bvh.Occluded(ray), "ray %d any-hit disagrees", i)
	}
	assert.Greater(t, hits, 100, "test rays should hit the scene")
}

func TestBVH_NodeBoundsContainChildren(t *testing.T) {
	bvh := NewBVH(randomScene(500, 3))
	require.NotEmpty(t, bvh.nodes)

	var check func(idx int32)
	check = func(idx int32) {
		node := bvh.nodes[idx]
		if node.isLeaf() {
			for _, p := range bvh.prims[node.first : node.first+node.count] {
				assert.True(t, node.bounds.Contains(p.BoundingBox()), "leaf %d does not contain a primitive", idx)
			}
			return
		}
		assert.True(t, node.bounds.Contains(bvh.nodes[node.left].bounds), "node %d left child escapes", idx)
		assert.True(t, node.bounds.Contains(bvh.nodes[node.right].bounds), "node %d right child escapes", idx)
		check(node.left)
		check(node.right)
	}
	check(0)

	stats := bvh.Stats()
	assert.Equal(t, 500, stats.Primitives)
	assert.Equal(t, len(bvh.nodes), stats.Nodes)
	assert.Equal(t, stats.Nodes, 2*stats.Leaves-1, "every interior node has two children")
}

func TestBVH_LeafSizeBoundary(t *testing.T) {
	spheres := func(n int) []Shape {
		out := make([]Shape, n)
		for i := range out {
			out[i] = NewSphere(core.NewVec3(float64(i)*3, 0, 0), 1, nil)
		}
		return out
	}

	stats := NewBVH(spheres(LeafSize)).Stats()
	assert.Equal(t, 1, stats.Nodes)
	assert.Equal(t, 1, stats.Leaves)

	stats = NewBVH(spheres(LeafSize + 1)).Stats()
	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 2, stats.Leaves)
}

func TestBVH_Empty(t *testing.T) {
	bvh := NewBVH(nil)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0))

	_, ok := bvh.Hit(ray)
	assert.False(t, ok)
	assert.False(t, bvh.Occluded(ray))
	assert.False(t, bvh.Bounds().IsValid())
	assert.Zero(t, bvh.Stats().Nodes)
}

func TestBVH_EqualDistanceKeepsFirstFound(t *testing.T) {
	first := material.NewMatte(0.1, 0.5, core.NewVec3(1, 0, 0))
	second := material.NewMatte(0.1, 0.5, core.NewVec3(0, 1, 0))
	v0, v1, v2 := core.NewVec3(-1, -1, 0), core.NewVec3(1, -1, 0), core.NewVec3(0, 1, 0)

	shapes := []Shape{NewTriangle(v0, v1, v2, first), NewTriangle(v0, v1, v2, second)}
	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))

	hit, ok := NewBVH(shapes).Hit(ray)
	require.True(t, ok)
	assert.Same(t, first, hit.Material)

	// Same rule for groups, and independent of how often we ask
	for i := 0; i < 3; i++ {
		hit, ok = NewGroup(shapes...).Hit(ray)
		require.True(t, ok)
		assert.Same(t, first, hit.Material)
	}
}

func TestBVH_FlattensGroupsAndMeshes(t *testing.T) {
	mesh, err := NewTriangleMesh(
		[]core.Vec3{
			core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(2, 2, 2),
		},
		[][3]int{{0, 1, 2}, {0, 0, 3}}, // second face is degenerate
		nil,
	)
	require.NoError(t, err)

	group := NewGroup(NewSphere(core.NewVec3(5, 0, 0), 1, nil), mesh)
	bvh := NewBVH([]Shape{group, NewPlane(core.NewVec3(0, -3, 0), core.NewVec3(0, 1, 0), nil)})

	stats := bvh.Stats()
	assert.Equal(t, 3, stats.Primitives, "sphere, one mesh face, plane")
	assert.Equal(t, 1, stats.Degenerate)

	_, ok := bvh.Hit(core.NewRay(core.NewVec3(0.2, 0.2, 3), core.NewVec3(0, 0, -1)))
	assert.True(t, ok, "mesh face should be reachable through the group")
}

func TestBVH_OccludedIgnoresEmitters(t *testing.T) {
	light := material.NewEmissive(5, core.NewVec3(1, 1, 1))
	matte := material.NewMatte(0.1, 0.5, core.NewVec3(1, 1, 1))

	bvh := NewBVH([]Shape{NewSphere(core.NewVec3(0, 0, 0), 1, light)})
	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	assert.False(t, bvh.Occluded(ray))

	bvh = NewBVH([]Shape{
		NewSphere(core.NewVec3(0, 0, 0), 1, light),
		NewSphere(core.NewVec3(0, 0, -5), 1, matte),
	})
	assert.True(t, bvh.Occluded(ray))
	assert.False(t, bvh.Occluded(ray.WithMax(3)), "occluder beyond TMax must not count")
}

func TestBVH_Deterministic(t *testing.T) {
	shapes := randomScene(200, 9)
	a := NewBVH(shapes)
	b := NewBVH(shapes)

	require.Equal(t, len(a.nodes), len(b.nodes))
	for i := range a.nodes {
		assert.Equal(t, a.nodes[i], b.nodes[i])
	}
	for i := range a.prims {
		assert.Same(t, a.prims[i], b.prims[i])
	}
}
