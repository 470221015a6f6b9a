package loaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

const cubeMTL = `
# two materials
newmtl white
Kd 0.8 0.8 0.8

newmtl shiny
Kd 0.2 0.3 0.9
Ks 0.4 0.4 0.4
Ns 64

newmtl mirror
Kd 0.1 0.1 0.1
Ks 0.9 0.9 0.9
Ns 200
illum 3

newmtl glass
Ni 1.5
d 0.1

newmtl lamp
Kd 1 1 1
Ke 4 2 2

newmtl legacy_lamp
Ka 5 5 5
Kd 1 0.9 0.8
`

const quadOBJ = `
mtllib scene.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
o floor
usemtl white
f 1 2 3 4
o lamp
usemtl lamp
f -4/1/1 -3/2/1 -2/3/1
`

func sceneFS() fstest.MapFS {
	return fstest.MapFS{"scene.mtl": &fstest.MapFile{Data: []byte(cubeMTL)}}
}

func TestReadOBJ(t *testing.T) {
	model, err := ReadOBJ(strings.NewReader(quadOBJ), "quad.obj", sceneFS(), MeshOptions{})
	require.NoError(t, err)

	require.Len(t, model.Meshes, 2)
	assert.Equal(t, 3, model.TriangleCount())

	floor := model.Meshes[0]
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, floor.Faces, "quad should be fan triangulated")
	assert.Equal(t, material.Matte, floor.Material.Kind)

	lamp := model.Meshes[1]
	assert.Equal(t, [][3]int{{0, 1, 2}}, lamp.Faces, "negative indices count back from the last vertex")
	assert.True(t, lamp.Material.IsEmissive())
	assert.Same(t, &floor.Vertices[0], &lamp.Vertices[0], "meshes should share one vertex arena")

	assert.Len(t, model.Shapes(), 2)
}

func TestReadOBJMaterialMapping(t *testing.T) {
	entries, err := parseMTL(strings.NewReader(cubeMTL), "scene.mtl")
	require.NoError(t, err)
	require.Len(t, entries, 6)

	byName := map[string]*material.Material{}
	for _, e := range entries {
		byName[e.name] = e.toMaterial()
	}

	assert.Equal(t, material.Matte, byName["white"].Kind)
	assert.Equal(t, core.NewVec3(0.8, 0.8, 0.8), byName["white"].Color)

	shiny := byName["shiny"]
	assert.Equal(t, material.Phong, shiny.Kind)
	assert.Equal(t, 64.0, shiny.Exp)
	assert.NoError(t, shiny.Validate())

	mirror := byName["mirror"]
	assert.Equal(t, material.Reflective, mirror.Kind)
	assert.NoError(t, mirror.Validate(), "ks should be limited so kd + ks < 1")

	glass := byName["glass"]
	assert.Equal(t, material.Dielectric, glass.Kind)
	assert.Equal(t, 1.5, glass.IOR)

	lamp := byName["lamp"]
	assert.True(t, lamp.IsEmissive())
	assert.InDelta(t, 4.0, lamp.Radiance, 1e-12)
	assert.InDelta(t, 0.5, lamp.Color.Y, 1e-12)

	legacy := byName["legacy_lamp"]
	assert.True(t, legacy.IsEmissive())
	assert.Equal(t, 5.0, legacy.Radiance)
	assert.Equal(t, core.NewVec3(1, 0.9, 0.8), legacy.Color)
}

func TestReadMeshOptions(t *testing.T) {
	override := material.NewMatte(0.1, 0.9, core.NewVec3(1, 0, 0))
	opts := MeshOptions{
		Transform: geometry.Transform{Position: core.NewVec3(10, 0, 0), Scale: core.NewVec3(2, 2, 2)},
		Material:  override,
	}

	model, err := ReadOBJ(strings.NewReader(quadOBJ), "quad.obj", sceneFS(), opts)
	require.NoError(t, err)

	for _, mesh := range model.Meshes {
		assert.Same(t, override, mesh.Material)
	}
	assert.Equal(t, core.NewVec3(12, 2, 0), model.Meshes[0].Vertices[2])
	box := model.Meshes[0].BoundingBox()
	assert.Equal(t, core.NewVec3(10, 0, 0), box.Min)
}

func TestReadOBJErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short vertex", "v 1 2\n", "[bad.obj:1]"},
		{"bad float", "v 1 x 3\n", "could not parse"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n", "at least 3"},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", "[bad.obj:4]"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", "index 0"},
		{"bad index", "v 0 0 0\nf a b c\n", "invalid vertex index"},
		{"usemtl without name", "usemtl\n", "usemtl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadOBJ(strings.NewReader(tt.input), "bad.obj", nil, MeshOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedOBJ)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadOBJUnknownMaterial(t *testing.T) {
	input := "v 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl missing\nf 1 2 3\n"
	model, err := ReadOBJ(strings.NewReader(input), "tri.obj", nil, MeshOptions{})
	require.NoError(t, err)
	require.Len(t, model.Meshes, 1)
	assert.Equal(t, material.Matte, model.Meshes[0].Material.Kind)
}

func TestParseMTLErrors(t *testing.T) {
	_, err := parseMTL(strings.NewReader("Kd 1 1 1\n"), "orphan.mtl")
	assert.ErrorIs(t, err, ErrMalformedOBJ)

	_, err = parseMTL(strings.NewReader("newmtl a\nNs high\n"), "bad.mtl")
	assert.ErrorIs(t, err, ErrMalformedOBJ)
	assert.Contains(t, err.Error(), "[bad.mtl:2]")
}

func TestLoadOBJFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.mtl"), []byte(cubeMTL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.obj"), []byte(quadOBJ), 0o644))

	model, err := LoadOBJ(filepath.Join(dir, "quad.obj"), MeshOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, model.TriangleCount())
	assert.Contains(t, model.Materials, "shiny")

	_, err = LoadOBJ(filepath.Join(dir, "missing.obj"), MeshOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
