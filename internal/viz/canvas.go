package viz

import "strings"

// Braille cells pack 2x4 dots per character, so an W by H canvas gives
// 2W by 4H addressable pixels. Unicode braille starts at 0x2800 with
// one bit per dot:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille-dot drawing surface with an attached world
// coordinate window, so callers plot in simulation units.
type Canvas struct {
	Width, Height          int
	xmin, xmax, ymin, ymax float64
	grid                   [][]rune
}

// NewCanvas returns a canvas of w by h characters mapping the world
// window [xmin,xmax] x [ymin,ymax] onto its pixels. The y axis points
// up, as in simulation coordinates.
func NewCanvas(w, h int, xmin, xmax, ymin, ymax float64) *Canvas {
	c := &Canvas{
		Width: w, Height: h,
		xmin: xmin, xmax: xmax, ymin: ymin, ymax: ymax,
		grid: make([][]rune, h),
	}
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for i := range c.grid {
		for j := range c.grid[i] {
			c.grid[i][j] = 0x2800
		}
	}
}

// pixel maps world coordinates to sub-pixel coordinates.
func (c *Canvas) pixel(x, y float64) (int, int) {
	px := int((x - c.xmin) / (c.xmax - c.xmin) * float64(2*c.Width))
	py := int((c.ymax - y) / (c.ymax - c.ymin) * float64(4*c.Height))
	return px, py
}

// Plot sets the dot nearest to the world coordinate (x, y). Points
// outside the window are dropped.
func (c *Canvas) Plot(x, y float64) {
	c.setPixel(c.pixel(x, y))
}

// Line draws a world-coordinate segment with Bresenham stepping over
// the sub-pixel grid.
func (c *Canvas) Line(x0, y0, x1, y1 float64) {
	px0, py0 := c.pixel(x0, y0)
	px1, py1 := c.pixel(x1, y1)

	dx := abs(px1 - px0)
	dy := abs(py1 - py0)
	sx, sy := 1, 1
	if px0 > px1 {
		sx = -1
	}
	if py0 > py1 {
		sy = -1
	}
	err := dx - dy
	for {
		c.setPixel(px0, py0)
		if px0 == px1 && py0 == py1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			px0 += sx
		}
		if e2 < dx {
			err += dx
			py0 += sy
		}
	}
}

func (c *Canvas) setPixel(px, py int) {
	if px < 0 || py < 0 {
		return
	}
	col, row := px/2, py/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.grid[row][col] |= dotBits[py%4][px%2]
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
