package cartpole

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/fogleman/gg"
)

const (
	screenWidth  = 600
	screenHeight = 400
	cartWidth    = 50.0
	cartHeight   = 30.0
	poleWidth    = 10.0
)

// Render draws the current state of the environment and saves it as
// the next numbered PNG frame in the render directory
func (c *Cartpole) Render() error {
	if c.renderDir == "" {
		return fmt.Errorf("render: no render directory configured")
	}
	if c.state == nil {
		return fmt.Errorf("render: environment must be reset before " +
			"rendering")
	}

	dc := gg.NewContext(screenWidth, screenHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	scale := screenWidth / (2 * PositionThreshold)
	x, th := c.state.AtVec(0), c.state.AtVec(2)
	cartX := x*scale + screenWidth/2
	cartY := screenHeight * 0.6

	// Track
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(0, cartY+cartHeight/2, screenWidth, cartY+cartHeight/2)
	dc.Stroke()

	// Cart
	dc.DrawRectangle(cartX-cartWidth/2, cartY-cartHeight/2, cartWidth,
		cartHeight)
	dc.Fill()

	// Pole, hinged at the top of the cart
	poleLength := scale * 2 * HalfPoleLength
	hingeY := cartY - cartHeight/2
	dc.SetRGB(0.8, 0.6, 0.4)
	dc.SetLineWidth(poleWidth)
	dc.DrawLine(cartX, hingeY, cartX+poleLength*math.Sin(th),
		hingeY-poleLength*math.Cos(th))
	dc.Stroke()

	dc.SetRGB(0.5, 0.5, 0.8)
	dc.DrawCircle(cartX, hingeY, poleWidth/2)
	dc.Fill()

	path := filepath.Join(c.renderDir, fmt.Sprintf("frame-%06d.png",
		c.frame))
	c.frame++
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("render: could not save frame: %v", err)
	}
	return nil
}
