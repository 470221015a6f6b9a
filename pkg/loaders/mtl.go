package loaders

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// mtlEntry holds the MTL statements that map onto Whitted materials
type mtlEntry struct {
	name     string
	ka       core.Vec3
	kd       core.Vec3
	ks       core.Vec3
	ke       core.Vec3
	ns       float64
	ni       float64
	dissolve float64
	illum    int
}

func (p *objParser) loadMaterialLib(lib string) error {
	if p.fsys == nil {
		logger.Warningf("%s: no directory to resolve material library %q", p.file, lib)
		return nil
	}
	f, err := p.fsys.Open(lib)
	if err != nil {
		return fmt.Errorf("opening material library %q: %w", lib, err)
	}
	defer f.Close()

	entries, err := parseMTL(f, lib)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, exists := p.materials[e.name]; exists {
			logger.Warningf("%s: material %q redefined", lib, e.name)
		}
		p.materials[e.name] = e.toMaterial()
	}
	return nil
}

// parseMTL reads material definitions in file order
func parseMTL(r io.Reader, file string) ([]*mtlEntry, error) {
	emitError := func(line int, format string, args ...interface{}) error {
		return fmt.Errorf("%w: [%s:%d] %s", ErrMalformedOBJ, file, line, fmt.Sprintf(format, args...))
	}

	var entries []*mtlEntry
	var cur *mtlEntry

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(stripComment(scanner.Text()))
		if len(lineTokens) == 0 {
			continue
		}

		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return nil, emitError(lineNum, "newmtl expects exactly one material name")
			}
			cur = &mtlEntry{name: lineTokens[1], dissolve: 1, ni: 1}
			entries = append(entries, cur)
			continue
		}
		if cur == nil {
			return nil, emitError(lineNum, "%q before newmtl", lineTokens[0])
		}

		var err error
		switch lineTokens[0] {
		case "Ka":
			cur.ka, err = parseVec3(lineTokens)
		case "Kd":
			cur.kd, err = parseVec3(lineTokens)
		case "Ks":
			cur.ks, err = parseVec3(lineTokens)
		case "Ke":
			cur.ke, err = parseVec3(lineTokens)
		case "Ns":
			cur.ns, err = parseFloat(lineTokens)
		case "Ni":
			cur.ni, err = parseFloat(lineTokens)
		case "d":
			cur.dissolve, err = parseFloat(lineTokens)
		case "Tr":
			var tr float64
			tr, err = parseFloat(lineTokens)
			cur.dissolve = 1 - tr
		case "illum":
			var v float64
			v, err = parseFloat(lineTokens)
			cur.illum = int(v)
		default:
			logger.Debugf("[%s:%d] ignoring unsupported statement %q", file, lineNum, lineTokens[0])
		}
		if err != nil {
			return nil, emitError(lineNum, "%v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return entries, nil
}

func parseFloat(lineTokens []string) (float64, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf("%s needs a value", lineTokens[0])
	}
	v, err := strconv.ParseFloat(lineTokens[1], 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse %s value %q: %v", lineTokens[0], lineTokens[1], err)
	}
	return v, nil
}

// toMaterial picks the closest Whitted material for an MTL definition:
//
//	Ke, or Ka above 1       emissive
//	Ni > 1 and d < 1        dielectric
//	illum 3 with Ks         reflective
//	Ks                      phong
//	otherwise               matte
func (e *mtlEntry) toMaterial() *material.Material {
	switch {
	case e.ke.MaxComponent() > 0:
		ls := e.ke.MaxComponent()
		return material.NewEmissive(ls, e.ke.Multiply(1/ls))
	case e.ka.MaxComponent() > 1:
		// Exporters that lack Ke store radiance in Ka
		return material.NewEmissive(e.ka.MaxComponent(), e.kd)
	case e.ni > 1 && e.dissolve < 1:
		return material.NewDielectric(e.ni, clamp01(e.ks.MaxComponent()), e.exponent())
	}

	ks := e.ks.MaxComponent()
	if ks <= 0 {
		return material.NewMatte(defaultKa, defaultKd, e.kd)
	}

	// kd + ks must stay below 1 to conserve energy
	ks = min(ks, maxKs)
	kd := min(defaultKd, 0.99-ks)
	if e.illum == 3 {
		return material.NewReflective(defaultKa, kd, ks, e.exponent(), e.ks.MaxComponent(), e.kd, e.ks)
	}
	return material.NewPhong(defaultKa, kd, ks, e.exponent(), e.kd)
}

func (e *mtlEntry) exponent() float64 {
	if e.ns <= 0 {
		return 1
	}
	return e.ns
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
