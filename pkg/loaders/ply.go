package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// ErrMalformedPLY is returned for PLY input that cannot be parsed
var ErrMalformedPLY = errors.New("malformed PLY")

// plyTypeSize maps every scalar type name allowed in a header to its size in
// bytes
var plyTypeSize = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4, "double": 8, "float64": 8,
}

// maxPLYListLength bounds the number of items in one list property, the
// largest count a uchar counter can hold
const maxPLYListLength = 255

type plyProperty struct {
	name      string
	dataType  string
	isList    bool
	countType string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyHeader struct {
	format   string
	elements []plyElement
}

// plyValues reads the next scalar of a given type from the body
type plyValues interface {
	next(dataType string) (float64, error)
}

// LoadPLY reads a PLY file. Vertex colors, when present, are averaged into a
// single matte material.
func LoadPLY(path string, opts MeshOptions) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PLY file: %w", err)
	}
	defer f.Close()

	return ReadPLY(f, filepath.Base(path), opts)
}

// ReadPLY parses ASCII or binary PLY data from r. Only vertex positions,
// vertex colors and face index lists are used; other elements and properties
// are skipped.
func ReadPLY(r io.Reader, name string, opts MeshOptions) (*Model, error) {
	br := bufio.NewReader(r)
	header, err := readPLYHeader(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPLY, name, err)
	}

	var values plyValues
	switch header.format {
	case "ascii":
		words := bufio.NewScanner(br)
		words.Split(bufio.ScanWords)
		values = &asciiValues{words: words}
	case "binary_little_endian":
		values = &binaryValues{r: br, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValues{r: br, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: %s: unsupported format %q", ErrMalformedPLY, name, header.format)
	}

	body, err := readPLYBody(header, values)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPLY, name, err)
	}

	mat := opts.Material
	if mat == nil {
		mat = body.material()
	}
	vertices := opts.place(body.vertices)
	mesh, err := geometry.NewTriangleMesh(vertices, body.faces, mat)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPLY, name, err)
	}

	logger.Infof("loaded %s: %d vertices, %d triangles (%s)", name, len(vertices), mesh.Len(), header.format)
	return &Model{
		Name:      strings.TrimSuffix(name, filepath.Ext(name)),
		Meshes:    []*geometry.TriangleMesh{mesh},
		Materials: map[string]*material.Material{},
	}, nil
}

func readPLYHeader(br *bufio.Reader) (*plyHeader, error) {
	header := &plyHeader{}
	for lineNum := 1; ; lineNum++ {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ends before end_header: %v", err)
		}
		parts := strings.Fields(line)
		if lineNum == 1 {
			if len(parts) != 1 || parts[0] != "ply" {
				return nil, fmt.Errorf("missing ply magic number")
			}
			continue
		}
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if header.format == "" {
				return nil, fmt.Errorf("header has no format line")
			}
			return header, nil
		case "format":
			if len(parts) != 3 {
				return nil, fmt.Errorf("header line %d: format expects a type and version", lineNum)
			}
			header.format = parts[1]
		case "comment", "obj_info":
		case "element":
			if len(parts) != 3 {
				return nil, fmt.Errorf("header line %d: element expects a name and count", lineNum)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("header line %d: invalid element count %q", lineNum, parts[2])
			}
			header.elements = append(header.elements, plyElement{name: parts[1], count: count})
		case "property":
			if len(header.elements) == 0 {
				return nil, fmt.Errorf("header line %d: property before any element", lineNum)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("header line %d: %v", lineNum, err)
			}
			el := &header.elements[len(header.elements)-1]
			el.props = append(el.props, prop)
		default:
			return nil, fmt.Errorf("header line %d: unknown keyword %q", lineNum, parts[0])
		}
	}
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) > 0 && parts[0] == "list" {
		if len(parts) != 4 {
			return plyProperty{}, fmt.Errorf("list property expects count type, item type and name")
		}
		prop := plyProperty{isList: true, countType: parts[1], dataType: parts[2], name: parts[3]}
		if _, ok := plyTypeSize[prop.countType]; !ok {
			return plyProperty{}, fmt.Errorf("unknown property type %q", prop.countType)
		}
		if _, ok := plyTypeSize[prop.dataType]; !ok {
			return plyProperty{}, fmt.Errorf("unknown property type %q", prop.dataType)
		}
		return prop, nil
	}

	if len(parts) != 2 {
		return plyProperty{}, fmt.Errorf("property expects a type and name")
	}
	if _, ok := plyTypeSize[parts[0]]; !ok {
		return plyProperty{}, fmt.Errorf("unknown property type %q", parts[0])
	}
	return plyProperty{dataType: parts[0], name: parts[1]}, nil
}

type plyBody struct {
	vertices  []core.Vec3
	faces     [][3]int
	colorSum  core.Vec3
	hasColors bool
}

// material averages the vertex colors, or falls back to the default matte
func (b *plyBody) material() *material.Material {
	if !b.hasColors || len(b.vertices) == 0 {
		return defaultMaterial()
	}
	return material.NewMatte(defaultKa, defaultKd, b.colorSum.Multiply(1/float64(len(b.vertices))))
}

func readPLYBody(header *plyHeader, values plyValues) (*plyBody, error) {
	body := &plyBody{}
	for _, el := range header.elements {
		for i := 0; i < el.count; i++ {
			var pos, color core.Vec3
			for _, prop := range el.props {
				if prop.isList {
					n, err := values.next(prop.countType)
					if err != nil {
						return nil, fmt.Errorf("%s %d: reading %s count: %v", el.name, i, prop.name, err)
					}
					if n < 0 || n > maxPLYListLength {
						return nil, fmt.Errorf("%s %d: %s count %v outside [0, %d]", el.name, i, prop.name, n, maxPLYListLength)
					}
					items := make([]int, int(n))
					for j := range items {
						v, err := values.next(prop.dataType)
						if err != nil {
							return nil, fmt.Errorf("%s %d: reading %s: %v", el.name, i, prop.name, err)
						}
						items[j] = int(v)
					}
					if el.name == "face" && (prop.name == "vertex_indices" || prop.name == "vertex_index") {
						if len(items) < 3 {
							return nil, fmt.Errorf("face %d has %d vertices", i, len(items))
						}
						for k := 1; k+1 < len(items); k++ {
							body.faces = append(body.faces, [3]int{items[0], items[k], items[k+1]})
						}
					}
					continue
				}

				v, err := values.next(prop.dataType)
				if err != nil {
					return nil, fmt.Errorf("%s %d: reading %s: %v", el.name, i, prop.name, err)
				}
				if el.name != "vertex" {
					continue
				}
				switch prop.name {
				case "x":
					pos.X = v
				case "y":
					pos.Y = v
				case "z":
					pos.Z = v
				case "red", "r":
					color.X = colorChannel(v, prop.dataType)
					body.hasColors = true
				case "green", "g":
					color.Y = colorChannel(v, prop.dataType)
				case "blue", "b":
					color.Z = colorChannel(v, prop.dataType)
				}
			}
			if el.name == "vertex" {
				body.vertices = append(body.vertices, pos)
				body.colorSum = body.colorSum.Add(color)
			}
		}
	}
	return body, nil
}

// colorChannel normalizes 8 bit color channels to [0,1]
func colorChannel(v float64, dataType string) float64 {
	if dataType == "uchar" || dataType == "uint8" {
		return v / 255
	}
	return v
}

type asciiValues struct {
	words *bufio.Scanner
}

func (a *asciiValues) next(string) (float64, error) {
	if !a.words.Scan() {
		if err := a.words.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.words.Text(), 64)
}

type binaryValues struct {
	r     io.Reader
	order binary.ByteOrder
}

func (b *binaryValues) next(dataType string) (float64, error) {
	var buf [8]byte
	size := plyTypeSize[dataType]
	if _, err := io.ReadFull(b.r, buf[:size]); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf[:2]))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf[:2])), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf[:4]))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf[:4])), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf[:4]))), nil
	default:
		return math.Float64frombits(b.order.Uint64(buf[:8])), nil
	}
}
