// Package loaders reads triangle meshes from Wavefront OBJ and PLY files.
package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/log"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

var logger = log.New("loaders")

// Coefficients used when converting file colors into Whitted materials
const (
	defaultKa = 0.25
	defaultKd = 0.75
	maxKs     = 0.5
)

// MeshOptions controls how a model is placed in the scene
type MeshOptions struct {
	// Transform is applied to every vertex after loading
	Transform geometry.Transform
	// Material replaces every material the model references when set
	Material *material.Material
}

func (o MeshOptions) place(vertices []core.Vec3) []core.Vec3 {
	if o.Transform == (geometry.Transform{}) || o.Transform == geometry.IdentityTransform() {
		return vertices
	}
	return o.Transform.ApplyAll(vertices)
}

// Model is a loaded mesh file. It has one mesh per object and material pair,
// all sharing the same vertex arena.
type Model struct {
	Name      string
	Meshes    []*geometry.TriangleMesh
	Materials map[string]*material.Material
}

// Shapes returns the meshes as scene shapes
func (m *Model) Shapes() []geometry.Shape {
	shapes := make([]geometry.Shape, len(m.Meshes))
	for i, mesh := range m.Meshes {
		shapes[i] = mesh
	}
	return shapes
}

// TriangleCount returns the number of faces across all meshes
func (m *Model) TriangleCount() int {
	n := 0
	for _, mesh := range m.Meshes {
		n += mesh.Len()
	}
	return n
}

// LoadMesh reads a model, picking the parser from the file extension
func LoadMesh(path string, opts MeshOptions) (*Model, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return LoadOBJ(path, opts)
	case ".ply":
		return LoadPLY(path, opts)
	default:
		return nil, fmt.Errorf("unsupported mesh format %q (use .obj or .ply)", ext)
	}
}

func defaultMaterial() *material.Material {
	return material.NewMatte(defaultKa, defaultKd, core.NewVec3(0.8, 0.8, 0.8))
}
