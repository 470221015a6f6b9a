package material

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

func TestParseKind(t *testing.T) {
	for kind, name := range kindNames {
		got, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	got, err := ParseKind("  Phong ")
	require.NoError(t, err)
	assert.Equal(t, Phong, got)

	_, err = ParseKind("velvet")
	assert.Error(t, err)
}

func TestMaterial_Evaluate(t *testing.T) {
	n := core.NewVec3(0, 1, 0)
	wi := core.NewVec3(0, 1, 0)
	wo := core.NewVec3(0, 1, 0)
	cd := core.NewVec3(1, 0.5, 0.25)

	matte := NewMatte(0.25, 0.8, cd)
	assert.Equal(t, cd.Multiply(0.8/math.Pi), matte.Evaluate(n, wi, wo))

	// Head-on highlight adds exactly ks on every channel
	phong := NewPhong(0.25, 0.6, 0.3, 10, cd)
	got := phong.Evaluate(n, wi, wo)
	expected := cd.Multiply(0.6 / math.Pi).Add(core.NewVec3(0.3, 0.3, 0.3))
	assert.InDelta(t, expected.X, got.X, 1e-12)
	assert.InDelta(t, expected.Y, got.Y, 1e-12)
	assert.InDelta(t, expected.Z, got.Z, 1e-12)

	emissive := NewEmissive(2, core.NewVec3(1, 1, 1))
	assert.True(t, emissive.Evaluate(n, wi, wo).IsZero())
	assert.Equal(t, core.NewVec3(2, 2, 2), emissive.Emitted())
	assert.True(t, emissive.IsEmissive())
	assert.True(t, matte.Emitted().IsZero())
}

func TestMaterial_AmbientReflectance(t *testing.T) {
	cd := core.NewVec3(0.5, 0.5, 1)
	assert.Equal(t, cd.Multiply(0.2), NewMatte(0.2, 0.7, cd).AmbientReflectance())
	assert.True(t, NewEmissive(1, cd).AmbientReflectance().IsZero())
	assert.True(t, NewDielectric(1.5, 0.2, 100).AmbientReflectance().IsZero())
}

func TestMaterial_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mat     *Material
		wantErr bool
	}{
		{"matte", NewMatte(0.25, 0.65, core.NewVec3(1, 1, 1)), false},
		{"phong", NewPhong(0.25, 0.6, 0.2, 20, core.NewVec3(1, 1, 1)), false},
		{"phong energy gain", NewPhong(0.25, 0.8, 0.3, 20, core.NewVec3(1, 1, 1)), true},
		{"negative kd", NewMatte(0.25, -1, core.NewVec3(1, 1, 1)), true},
		{"glass", NewDielectric(1.5, 0, 0), false},
		{"zero ior", NewDielectric(0, 0, 0), true},
		{"emissive", NewEmissive(5, core.NewVec3(1, 1, 1)), false},
		{"unknown kind", &Material{Kind: Kind(42)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mat.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMaterial)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
