package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// ErrMalformedOBJ is returned for OBJ and MTL input that cannot be parsed
var ErrMalformedOBJ = errors.New("malformed OBJ")

// LoadOBJ reads a Wavefront OBJ file. Material libraries named by mtllib are
// resolved relative to the OBJ file's directory.
func LoadOBJ(path string, opts MeshOptions) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()

	return ReadOBJ(f, filepath.Base(path), os.DirFS(filepath.Dir(path)), opts)
}

// ReadOBJ parses OBJ data from r. name is used in error messages and as the
// default object name; mtllib references are opened from fsys, which may be
// nil when the model has no material library.
func ReadOBJ(r io.Reader, name string, fsys fs.FS, opts MeshOptions) (*Model, error) {
	p := &objParser{
		file:      name,
		fsys:      fsys,
		materials: map[string]*material.Material{},
		object:    strings.TrimSuffix(name, filepath.Ext(name)),
		groups:    map[groupKey]int{},
	}
	if err := p.parse(r); err != nil {
		return nil, err
	}
	return p.model(opts)
}

type groupKey struct {
	object   string
	material string
}

type faceGroup struct {
	key   groupKey
	faces [][3]int
}

type objParser struct {
	file string
	fsys fs.FS

	vertices  []core.Vec3
	materials map[string]*material.Material

	object   string
	material string
	groups   map[groupKey]int
	ordered  []*faceGroup
	polygons int
}

func (p *objParser) emitError(line int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: [%s:%d] %s", ErrMalformedOBJ, p.file, line, fmt.Sprintf(format, args...))
}

func (p *objParser) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(stripComment(scanner.Text()))
		if len(lineTokens) == 0 {
			continue
		}

		switch lineTokens[0] {
		case "mtllib":
			if len(lineTokens) < 2 {
				return p.emitError(lineNum, "mtllib needs a file name")
			}
			for _, lib := range lineTokens[1:] {
				if err := p.loadMaterialLib(lib); err != nil {
					return err
				}
			}
		case "usemtl":
			if len(lineTokens) != 2 {
				return p.emitError(lineNum, "usemtl expects exactly one material name")
			}
			p.material = lineTokens[1]
		case "o", "g":
			if len(lineTokens) > 1 {
				p.object = strings.Join(lineTokens[1:], " ")
			}
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return p.emitError(lineNum, "%v", err)
			}
			p.vertices = append(p.vertices, v)
		case "f":
			if err := p.parseFace(lineTokens[1:]); err != nil {
				return p.emitError(lineNum, "%v", err)
			}
		case "vn", "vt", "s", "l", "p":
			// Normals, texture coordinates, smoothing groups and non-surface
			// elements do not take part in flat-shaded rendering
		default:
			logger.Debugf("[%s:%d] ignoring unsupported statement %q", p.file, lineNum, lineTokens[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", p.file, err)
	}
	return nil
}

// parseFace resolves the position index of every corner and fan-triangulates
// the polygon around its first corner
func (p *objParser) parseFace(corners []string) error {
	if len(corners) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(corners))
	}

	indices := make([]int, len(corners))
	for i, corner := range corners {
		idx, err := p.vertexIndex(corner)
		if err != nil {
			return err
		}
		indices[i] = idx
	}

	group := p.currentGroup()
	for i := 1; i+1 < len(indices); i++ {
		group.faces = append(group.faces, [3]int{indices[0], indices[i], indices[i+1]})
	}
	p.polygons++
	return nil
}

// vertexIndex converts a face corner such as "3", "3/1" or "-1//2" into a
// zero-based index. Negative indices count back from the last vertex.
func (p *objParser) vertexIndex(corner string) (int, error) {
	field, _, _ := strings.Cut(corner, "/")
	idx, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid vertex index %q", corner)
	}

	switch {
	case idx > 0:
		idx--
	case idx < 0:
		idx += len(p.vertices)
	default:
		return 0, fmt.Errorf("vertex index 0 is not valid")
	}
	if idx < 0 || idx >= len(p.vertices) {
		return 0, fmt.Errorf("vertex index %s refers to an undefined vertex (%d defined)", field, len(p.vertices))
	}
	return idx, nil
}

func (p *objParser) currentGroup() *faceGroup {
	key := groupKey{object: p.object, material: p.material}
	if i, ok := p.groups[key]; ok {
		return p.ordered[i]
	}
	p.groups[key] = len(p.ordered)
	g := &faceGroup{key: key}
	p.ordered = append(p.ordered, g)
	return g
}

// model assembles the parsed groups into meshes
func (p *objParser) model(opts MeshOptions) (*Model, error) {
	vertices := opts.place(p.vertices)

	model := &Model{Name: p.object, Materials: p.materials}
	fallback := defaultMaterial()
	for _, g := range p.ordered {
		if len(g.faces) == 0 {
			continue
		}

		mat := opts.Material
		if mat == nil {
			mat = p.materials[g.key.material]
		}
		if mat == nil {
			if g.key.material != "" {
				logger.Warningf("%s: material %q is not defined, using default", p.file, g.key.material)
			}
			mat = fallback
		}

		mesh, err := geometry.NewTriangleMesh(vertices, g.faces, mat)
		if err != nil {
			return nil, fmt.Errorf("%w: %s object %q: %v", ErrMalformedOBJ, p.file, g.key.object, err)
		}
		model.Meshes = append(model.Meshes, mesh)
	}

	logger.Infof("loaded %s: %d vertices, %d polygons, %d triangles in %d meshes",
		p.file, len(vertices), p.polygons, model.TriangleCount(), len(model.Meshes))
	return model, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// parseVec3 parses the three floats following a statement keyword. Extra
// components such as the w of "v x y z w" are ignored.
func parseVec3(lineTokens []string) (core.Vec3, error) {
	if len(lineTokens) < 4 {
		return core.Vec3{}, fmt.Errorf("%s needs 3 components, got %d", lineTokens[0], len(lineTokens)-1)
	}
	var out [3]float64
	for i := range out {
		v, err := strconv.ParseFloat(lineTokens[i+1], 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("could not parse %s component %q: %v", lineTokens[0], lineTokens[i+1], err)
		}
		out[i] = v
	}
	return core.NewVec3(out[0], out[1], out[2]), nil
}
