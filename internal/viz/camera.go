package viz

import "math"

// Camera projects the 3-dimensional particle cloud onto the canvas
// plane with a simple perspective transform. Rotations accumulate per
// axis, which is enough for an orbiting inspection view.
type Camera struct {
	distance         float64
	rotX, rotY, rotZ float64
	zoom             float64
}

func NewCamera(distance float64) *Camera {
	return &Camera{distance: distance, zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.rotX += a }
func (c *Camera) RotateY(a float64) { c.rotY += a }
func (c *Camera) RotateZ(a float64) { c.rotZ += a }
func (c *Camera) ZoomIn()           { c.zoom = math.Min(10, c.zoom*1.2) }
func (c *Camera) ZoomOut()          { c.zoom = math.Max(0.1, c.zoom/1.2) }

// Project maps a world point, already centered on the box middle, to
// window coordinates in [-1,1]. The boolean reports whether the point
// lies in front of the camera.
func (c *Camera) Project(x, y, z float64) (float64, float64, bool) {
	cx, sx := math.Cos(c.rotX), math.Sin(c.rotX)
	y, z = y*cx-z*sx, y*sx+z*cx
	cy, sy := math.Cos(c.rotY), math.Sin(c.rotY)
	x, z = x*cy+z*sy, -x*sy+z*cy
	cz, sz := math.Cos(c.rotZ), math.Sin(c.rotZ)
	x, y = x*cz-y*sz, x*sz+y*cz

	x, y, z = x*c.zoom, y*c.zoom, z*c.zoom
	if z >= c.distance {
		return 0, 0, false
	}
	scale := c.distance / (c.distance - z)
	return x * scale, y * scale, true
}
