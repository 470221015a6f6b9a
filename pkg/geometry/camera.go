package geometry

import (
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// CameraConfig describes where the camera is and how it projects
type CameraConfig struct {
	Center        core.Vec3 // eye position
	LookAt        core.Vec3
	Up            core.Vec3
	VFov          float64 // vertical field of view in degrees
	Aperture      float64 // lens diameter; 0 is a pinhole camera
	FocusDistance float64 // distance to the plane in focus; 0 uses |LookAt - Center|
}

// Camera maps pixels to primary rays. A Camera is a value: ForImage returns
// a copy bound to a resolution and GenerateRay never mutates it.
type Camera struct {
	config CameraConfig

	width, height int
	u, v, w       core.Vec3
	upperLeft     core.Vec3
	horizontal    core.Vec3 // spans the full image width on the focus plane
	vertical      core.Vec3 // spans the full image height, pointing down
	lensRadius    float64
}

// NewCamera creates a camera for a square image. Call ForImage before
// rendering at any other resolution.
func NewCamera(config CameraConfig) Camera {
	if config.Up.IsZero() {
		config.Up = core.NewVec3(0, 1, 0)
	}
	if config.VFov <= 0 {
		config.VFov = 40
	}
	return Camera{config: config}.ForImage(1, 1)
}

// DefaultApertureRatio sizes the lens of a thin lens camera that has no
// aperture of its own, as a fraction of the focus distance
const DefaultApertureRatio = 0.02

// Focus returns the distance to the plane in focus
func (cfg CameraConfig) Focus() float64 {
	focus := cfg.FocusDistance
	if focus <= 0 {
		focus = cfg.LookAt.Subtract(cfg.Center).Length()
	}
	if focus <= 0 {
		focus = 1
	}
	return focus
}

// Config returns the configuration the camera was built from
func (c Camera) Config() CameraConfig {
	return c.config
}

// ForImage returns the camera set up for a width x height image
func (c Camera) ForImage(width, height int) Camera {
	cfg := c.config
	c.width, c.height = width, height
	if width <= 0 || height <= 0 {
		return c
	}

	focus := cfg.Focus()

	theta := cfg.VFov * math.Pi / 180
	viewportHeight := 2 * math.Tan(theta/2) * focus
	viewportWidth := viewportHeight * float64(width) / float64(height)

	c.u, c.v, c.w = cameraBasis(cfg)

	c.horizontal = c.u.Multiply(viewportWidth)
	c.vertical = c.v.Multiply(-viewportHeight)
	c.upperLeft = cfg.Center.
		Subtract(c.w.Multiply(focus)).
		Subtract(c.horizontal.Multiply(0.5)).
		Subtract(c.vertical.Multiply(0.5))
	c.lensRadius = cfg.Aperture / 2
	return c
}

// cameraBasis returns the right, up and backward unit vectors of the camera.
// An eye on its target looks down -Z; an up vector parallel to the view
// direction is replaced by an arbitrary perpendicular one.
func cameraBasis(cfg CameraConfig) (u, v, w core.Vec3) {
	w = cfg.Center.Subtract(cfg.LookAt)
	if w.Length() < ParallelEpsilon {
		logger.Warningf("camera at %v looks at itself, looking down -Z instead", cfg.Center)
		w = core.NewVec3(0, 0, 1)
	}
	w = w.Normalize()

	side := cfg.Up.Cross(w)
	if side.Length() < ParallelEpsilon*math.Max(1, cfg.Up.Length()) {
		logger.Warningf("camera up %v is parallel to the view direction, picking another", cfg.Up)
		u, v = core.OrthonormalBasis(w)
		return u, v, w
	}
	u = side.Normalize()
	return u, w.Cross(u), w
}

// Size returns the resolution the camera is bound to
func (c Camera) Size() (width, height int) {
	return c.width, c.height
}

// GenerateRay returns the primary ray through pixel (x, y) at the sub-pixel
// offset in [0,1)². Pixel (0, 0) is the top-left corner. With a lens, the
// same offset mapped onto the unit disk picks the point on the lens.
func (c Camera) GenerateRay(x, y int, offset core.Vec2) core.Ray {
	s := (float64(x) + offset.X) / float64(c.width)
	t := (float64(y) + offset.Y) / float64(c.height)
	target := c.upperLeft.Add(c.horizontal.Multiply(s)).Add(c.vertical.Multiply(t))

	origin := c.config.Center
	if c.lensRadius > 0 {
		d := core.SquareToDisk(offset)
		origin = origin.Add(c.u.Multiply(d.X * c.lensRadius)).Add(c.v.Multiply(d.Y * c.lensRadius))
	}
	return core.NewRay(origin, target.Subtract(origin).Normalize())
}
