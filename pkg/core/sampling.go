package core

import (
	"iter"
	"math"
	"math/rand/v2"
)

// JitteredSampler produces stratified sample offsets inside a pixel. It holds
// only a seed, so every call to Samples replays the same sequence.
type JitteredSampler struct {
	seed uint64
}

// NewJitteredSampler creates a sampler for the given seed
func NewJitteredSampler(seed uint64) JitteredSampler {
	return JitteredSampler{seed: seed}
}

// Samples returns count offsets in [0,1)², one per cell of a rows x cols grid
// with rows*cols == count. A single sample is the pixel center. The sequence
// is lazy and restartable: ranging over it twice yields identical points.
func (s JitteredSampler) Samples(count int) iter.Seq[Vec2] {
	return func(yield func(Vec2) bool) {
		if count <= 0 {
			return
		}
		if count == 1 {
			yield(NewVec2(0.5, 0.5))
			return
		}

		rows, cols := StrataGrid(count)
		random := NewRand(s.seed)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				x := (float64(j) + random.Float64()) / float64(cols)
				y := (float64(i) + random.Float64()) / float64(rows)
				if !yield(NewVec2(belowOne(x), belowOne(y))) {
					return
				}
			}
		}
	}
}

// StrataGrid splits count into rows x cols cells, picking rows as the largest
// divisor of count not exceeding its square root. Prime counts degrade to a
// single row of count columns.
func StrataGrid(count int) (rows, cols int) {
	if count <= 0 {
		return 0, 0
	}
	rows = int(math.Sqrt(float64(count)))
	for rows > 1 && count%rows != 0 {
		rows--
	}
	return rows, count / rows
}

func belowOne(v float64) float64 {
	if v >= 1 {
		return math.Nextafter(1, 0)
	}
	return v
}

// PixelSeed derives a sampler seed from pixel coordinates and a stream index,
// so random streams depend only on the pixel and never on scheduling.
func PixelSeed(x, y, stream int) uint64 {
	h := splitmix64(uint64(uint32(x)) | uint64(uint32(y))<<32)
	return splitmix64(h ^ uint64(stream)*0x9e3779b97f4a7c15)
}

func splitmix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// NewRand creates a PCG-backed generator for the given seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, splitmix64(seed)))
}

// SquareToDisk maps a unit-square sample onto the unit disk using the
// concentric mapping, which keeps neighbouring strata adjacent.
func SquareToDisk(sample Vec2) Vec2 {
	a := 2*sample.X - 1
	b := 2*sample.Y - 1
	if a == 0 && b == 0 {
		return Vec2{}
	}

	var r, phi float64
	if math.Abs(a) > math.Abs(b) {
		r = a
		phi = (math.Pi / 4) * (b / a)
	} else {
		r = b
		phi = math.Pi/2 - (math.Pi/4)*(a/b)
	}
	return NewVec2(r*math.Cos(phi), r*math.Sin(phi))
}

// SquareToHemisphere maps a sample to a cosine-weighted direction in the
// hemisphere around the unit normal.
func SquareToHemisphere(normal Vec3, sample Vec2) Vec3 {
	d := SquareToDisk(sample)
	z := math.Sqrt(math.Max(0, 1-d.X*d.X-d.Y*d.Y))
	u, v := OrthonormalBasis(normal)
	return u.Multiply(d.X).Add(v.Multiply(d.Y)).Add(normal.Multiply(z)).Normalize()
}

// SquareToTriangle maps a sample uniformly onto the triangle (a, b, c)
func SquareToTriangle(a, b, c Vec3, sample Vec2) Vec3 {
	su := math.Sqrt(sample.X)
	u := 1 - su
	v := sample.Y * su
	return a.Multiply(u).Add(b.Multiply(v)).Add(c.Multiply(1 - u - v))
}
