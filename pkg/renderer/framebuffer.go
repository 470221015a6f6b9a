package renderer

import (
	"image"
	"image/color"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// FrameBuffer holds the final linear color of every pixel, row by row with
// (0, 0) at the top left. Values are tone mapped into [0, 1].
type FrameBuffer struct {
	Width  int
	Height int
	Pixels []core.Vec3
}

// NewFrameBuffer creates a black frame. Non-positive sizes give an empty one.
func NewFrameBuffer(width, height int) *FrameBuffer {
	width, height = max(width, 0), max(height, 0)
	if width == 0 || height == 0 {
		width, height = 0, 0
	}
	return &FrameBuffer{Width: width, Height: height, Pixels: make([]core.Vec3, width*height)}
}

// At returns the color of pixel (x, y)
func (fb *FrameBuffer) At(x, y int) core.Vec3 {
	return fb.Pixels[y*fb.Width+x]
}

// Set stores the color of pixel (x, y)
func (fb *FrameBuffer) Set(x, y int, c core.Vec3) {
	fb.Pixels[y*fb.Width+x] = c
}

// Empty reports whether the frame has no pixels
func (fb *FrameBuffer) Empty() bool {
	return len(fb.Pixels) == 0
}

// Average returns the mean pixel color
func (fb *FrameBuffer) Average() core.Vec3 {
	if fb.Empty() {
		return core.Vec3{}
	}
	var sum core.Vec3
	for _, p := range fb.Pixels {
		sum = sum.Add(p)
	}
	return sum.Multiply(1 / float64(len(fb.Pixels)))
}

// ToRGBA converts the frame to 8-bit color after gamma correction. A gamma
// of 1 or 0 leaves values linear.
func (fb *FrameBuffer) ToRGBA(gamma float64) *image.RGBA {
	if gamma <= 0 {
		gamma = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, vec3ToColor(fb.At(x, y), gamma))
		}
	}
	return img
}

// vec3ToColor converts a Vec3 color to RGBA with gamma correction and clamping
func vec3ToColor(colorVec core.Vec3, gamma float64) color.RGBA {
	colorVec = colorVec.GammaCorrect(gamma).Clamp(0.0, 1.0)
	return color.RGBA{
		R: uint8(255*colorVec.X + 0.5),
		G: uint8(255*colorVec.Y + 0.5),
		B: uint8(255*colorVec.Z + 0.5),
		A: 255,
	}
}
