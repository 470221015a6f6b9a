package lights

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// mockOccluder answers shadow queries with a function
type mockOccluder struct {
	occludedFn func(ray core.Ray) bool
	calls      int
}

func (m *mockOccluder) Occluded(ray core.Ray) bool {
	m.calls++
	return m.occludedFn(ray)
}

func never() *mockOccluder {
	return &mockOccluder{occludedFn: func(core.Ray) bool { return false }}
}

func always() *mockOccluder {
	return &mockOccluder{occludedFn: func(core.Ray) bool { return true }}
}

func TestAmbient(t *testing.T) {
	l := NewAmbient(0.5, core.NewVec3(1, 0.5, 0))
	assert.True(t, l.IsAmbient())
	assert.Equal(t, core.NewVec3(0.5, 0.25, 0), l.Radiance())
	assert.Equal(t, 1.0, l.Visibility(core.Vec3{}, core.NewVec3(0, 1, 0), always(), nil))
}

func TestPointLight(t *testing.T) {
	l := NewPoint(3, core.NewVec3(1, 1, 1), core.NewVec3(0, 10, 0))
	p := core.NewVec3(0, 0, 0)

	assert.Equal(t, core.NewVec3(0, 1, 0), l.DirectionFrom(p))
	assert.False(t, l.IsAmbient())

	var seen core.Ray
	occ := &mockOccluder{occludedFn: func(r core.Ray) bool { seen = r; return false }}
	assert.Equal(t, 1.0, l.Visibility(p, core.NewVec3(0, 1, 0), occ, nil))
	assert.Equal(t, geometry.Epsilon, seen.TMin)
	assert.InDelta(t, 10-geometry.Epsilon, seen.TMax, 1e-12, "shadow ray stops short of the light")

	assert.Equal(t, 0.0, l.Visibility(p, core.NewVec3(0, 1, 0), always(), nil))
}

func TestPointLight_WithRealGeometry(t *testing.T) {
	blocker := geometry.NewSphere(core.NewVec3(0, 5, 0), 1, material.NewMatte(0.1, 0.5, core.NewVec3(1, 1, 1)))
	behind := geometry.NewSphere(core.NewVec3(0, 20, 0), 1, material.NewMatte(0.1, 0.5, core.NewVec3(1, 1, 1)))
	l := NewPoint(1, core.NewVec3(1, 1, 1), core.NewVec3(0, 10, 0))
	n := core.NewVec3(0, 1, 0)

	assert.Equal(t, 0.0, l.Visibility(core.Vec3{}, n, geometry.NewBVH([]geometry.Shape{blocker}), nil))
	assert.Equal(t, 1.0, l.Visibility(core.Vec3{}, n, geometry.NewBVH([]geometry.Shape{behind}), nil),
		"geometry beyond the light must not shadow")
}

func TestDirectionalLight(t *testing.T) {
	l := NewDirectional(1, core.NewVec3(1, 1, 1), core.NewVec3(0, 2, 0))
	assert.Equal(t, core.NewVec3(0, 1, 0), l.DirectionFrom(core.NewVec3(5, 5, 5)))

	var seen core.Ray
	occ := &mockOccluder{occludedFn: func(r core.Ray) bool { seen = r; return false }}
	assert.Equal(t, 1.0, l.Visibility(core.Vec3{}, core.NewVec3(0, 1, 0), occ, nil))
	assert.True(t, math.IsInf(seen.TMax, 1))
}

func TestAreaLight(t *testing.T) {
	emissive := material.NewEmissive(4, core.NewVec3(1, 0.5, 0.5))
	tris := [][3]core.Vec3{
		{core.NewVec3(-1, 5, -1), core.NewVec3(1, 5, -1), core.NewVec3(1, 5, 1)},
		{core.NewVec3(-1, 5, -1), core.NewVec3(1, 5, 1), core.NewVec3(-1, 5, 1)},
	}
	l := NewArea(emissive, tris, 4)
	p := core.Vec3{}
	n := core.NewVec3(0, 1, 0)

	assert.Equal(t, core.NewVec3(4, 2, 2), l.Radiance())
	dir := l.DirectionFrom(p)
	assert.InDelta(t, 1, dir.Y, 0.01, "direction points at the light's center")

	occ := never()
	assert.Equal(t, 1.0, l.Visibility(p, n, occ, core.NewRand(1)))
	assert.Equal(t, 8, occ.calls, "one shadow ray per sample per triangle")

	// Block only rays heading to the -X half
	half := &mockOccluder{occludedFn: func(r core.Ray) bool { return r.Direction.X < 0 }}
	v := l.Visibility(p, n, half, core.NewRand(1))
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 1.0)

	assert.Equal(t, 0.0, l.Visibility(p, n, always(), core.NewRand(1)))
}

func TestAreaLight_DeterministicForSameRandom(t *testing.T) {
	tris := [][3]core.Vec3{{core.NewVec3(-1, 5, -1), core.NewVec3(1, 5, -1), core.NewVec3(0, 5, 1)}}
	l := NewArea(material.NewEmissive(1, core.NewVec3(1, 1, 1)), tris, 16)
	half := &mockOccluder{occludedFn: func(r core.Ray) bool { return r.Direction.X < 0 }}

	a := l.Visibility(core.Vec3{}, core.NewVec3(0, 1, 0), half, core.NewRand(7))
	b := l.Visibility(core.Vec3{}, core.NewVec3(0, 1, 0), half, core.NewRand(7))
	assert.Equal(t, a, b)
}

func TestAmbientOccluder(t *testing.T) {
	l := NewAmbientOccluder(1, core.NewVec3(1, 1, 1), 16)
	assert.True(t, l.IsAmbient())
	n := core.NewVec3(0, 1, 0)

	var dirs []core.Vec3
	occ := &mockOccluder{occludedFn: func(r core.Ray) bool { dirs = append(dirs, r.Direction); return false }}
	assert.Equal(t, 1.0, l.Visibility(core.Vec3{}, n, occ, core.NewRand(3)))
	require.Len(t, dirs, 16)
	for _, d := range dirs {
		assert.GreaterOrEqual(t, d.Dot(n), 0.0, "occlusion rays stay in the upper hemisphere")
	}

	assert.Equal(t, 0.0, l.Visibility(core.Vec3{}, n, always(), core.NewRand(3)))
}

func TestLight_Validate(t *testing.T) {
	assert.NoError(t, NewPoint(1, core.NewVec3(1, 1, 1), core.Vec3{}).Validate())
	assert.Error(t, NewPoint(-1, core.NewVec3(1, 1, 1), core.Vec3{}).Validate())
	assert.Error(t, NewDirectional(1, core.NewVec3(1, 1, 1), core.Vec3{}).Validate())
	assert.Error(t, NewArea(material.NewEmissive(1, core.NewVec3(1, 1, 1)), nil, 1).Validate())
	assert.Error(t, (&Light{Type: "laser"}).Validate())
}
