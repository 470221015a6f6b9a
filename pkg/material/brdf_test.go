package material

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

func assertVecInDelta(t *testing.T, expected, actual core.Vec3, delta float64) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, delta, "X of %v", actual)
	assert.InDelta(t, expected.Y, actual.Y, delta, "Y of %v", actual)
	assert.InDelta(t, expected.Z, actual.Z, delta, "Z of %v", actual)
}

func TestGlossySpecular(t *testing.T) {
	n := core.NewVec3(0, 0, 1)
	wi := core.NewVec3(1, 0, 1).Normalize()

	// Viewer exactly along the mirror direction sees the full lobe
	mirror := core.NewVec3(-1, 0, 1).Normalize()
	assertVecInDelta(t, core.NewVec3(0.5, 0.5, 0.5), GlossySpecular(0.5, 20, n, wi, mirror), 1e-12)

	// Viewer on the light side sees nothing
	assert.True(t, GlossySpecular(0.5, 20, n, wi, core.NewVec3(1, 0, -1).Normalize()).IsZero())

	// Higher exponents narrow the lobe
	off := core.NewVec3(-1, 0.2, 1).Normalize()
	wide := GlossySpecular(0.5, 2, n, wi, off)
	narrow := GlossySpecular(0.5, 200, n, wi, off)
	assert.Greater(t, wide.X, narrow.X)
}

func TestPerfectSpecular(t *testing.T) {
	n := core.NewVec3(0, 1, 0)
	wo := core.NewVec3(1, 1, 0).Normalize()
	wi, weight := PerfectSpecular(0.75, core.NewVec3(1, 0.5, 0), n, wo)

	assertVecInDelta(t, core.NewVec3(-1, 1, 0).Normalize(), wi, 1e-12)
	assert.Equal(t, core.NewVec3(0.75, 0.375, 0), weight)
}

func TestReflect(t *testing.T) {
	n := core.NewVec3(0, 0, 1)
	v := core.NewVec3(0, -1, -1).Normalize()
	assertVecInDelta(t, core.NewVec3(0, -1, 1).Normalize(), Reflect(v, n), 1e-12)
}

func TestRefract(t *testing.T) {
	n := core.NewVec3(0, 1, 0)

	t.Run("normal incidence passes straight through", func(t *testing.T) {
		out, ok := Refract(core.NewVec3(0, -1, 0), n, 1/1.5)
		assert.True(t, ok)
		assertVecInDelta(t, core.NewVec3(0, -1, 0), out, 1e-12)
	})

	t.Run("snell's law", func(t *testing.T) {
		in := core.NewVec3(1, -1, 0).Normalize()
		eta := 1 / 1.5
		out, ok := Refract(in, n, eta)
		assert.True(t, ok)
		sinIn := math.Sqrt(0.5)
		sinOut := math.Abs(out.X) / out.Length()
		assert.InDelta(t, sinIn*eta, sinOut, 1e-9)
		assert.Less(t, out.Y, 0.0)
	})

	t.Run("total internal reflection", func(t *testing.T) {
		grazing := core.NewVec3(1, -0.2, 0).Normalize()
		_, ok := Refract(grazing, n, 1.5)
		assert.False(t, ok)
	})
}

func TestSchlick(t *testing.T) {
	// Head-on reflectance of glass is about 4%
	assert.InDelta(t, 0.04, Schlick(1, 1/1.5), 1e-9)
	// Grazing angles reflect everything
	assert.InDelta(t, 1.0, Schlick(0, 1/1.5), 1e-9)
	assert.Less(t, Schlick(0.9, 1/1.5), Schlick(0.3, 1/1.5))
}
