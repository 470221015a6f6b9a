package output

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

func testFrame() *renderer.FrameBuffer {
	fb := renderer.NewFrameBuffer(3, 2)
	fb.Set(0, 0, core.NewVec3(1, 0, 0))
	fb.Set(2, 1, core.NewVec3(0, 0, 1))
	return fb
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.png", PNG},
		{"dir/OUT.PNG", PNG},
		{"frame.bmp", BMP},
		{"frame.tif", TIFF},
		{"frame.tiff", TIFF},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := FormatFor("frame.jpg")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = FormatFor("frame")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteImageRoundTrip(t *testing.T) {
	decoders := map[string]func(*os.File) (image.Image, error){
		"frame.png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"frame.bmp":  func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
		"frame.tiff": func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
	}

	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, WriteImage(path, testFrame(), Options{Gamma: 1}))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			img, err := decode(f)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

			r, g, b, _ := img.At(0, 0).RGBA()
			assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})
			r, g, b, _ = img.At(2, 1).RGBA()
			assert.Equal(t, [3]uint32{0, 0, 0xffff}, [3]uint32{r, g, b})
			assert.Equal(t, color.RGBAModel.Convert(img.At(1, 0)), color.RGBA{0, 0, 0, 255})
		})
	}
}

func TestWriteImageUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.gif")
	err := WriteImage(path, testFrame(), Options{Gamma: 1})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing should be written")
}

func TestImageDownsamples(t *testing.T) {
	fb := renderer.NewFrameBuffer(8, 4)
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			fb.Set(x, y, core.NewVec3(0.5, 0.5, 0.5))
		}
	}

	img := Image(fb, Options{Width: 4, Height: 2})
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	r, _, _, _ := img.At(1, 1).RGBA()
	assert.InDelta(t, 128<<8, float64(r), 2<<8, "a flat frame keeps its value")

	same := Image(fb, Options{Width: 8, Height: 4})
	assert.IsType(t, &image.RGBA{}, same, "matching sizes skip resampling")
	assert.Equal(t, fb.ToRGBA(0), Image(fb, Options{}))
}
