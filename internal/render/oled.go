// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/earbud_motion/internal/animation"
)

// Display is the subset of *ssd1306.Dev used here.
type Display interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// OLED draws the proxy on a 1-bit display. The left 64x64 square holds
// the head, the rest of the panel shows the frame numbers.
type OLED struct {
	dev Display
}

// NewOLED wraps dev.
func NewOLED(dev Display) *OLED {
	return &OLED{dev: dev}
}

func (o *OLED) Render(cmd animation.RenderCommand) error {
	bounds := o.dev.Bounds()
	img := blank(bounds)

	square := bounds.Dy()
	if bounds.Dx() < square {
		square = bounds.Dx()
	}
	v := newViewport(image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+square, bounds.Min.Y+square), cmd.Extent)

	ring, center, heading := proxyOutline(v, cmd)
	for _, p := range append(ring, line(center, heading)...) {
		if p.In(bounds) {
			img.SetBit(p.X, p.Y, image1bit.On)
		}
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	x := square + 2
	drawer.Dot = fixed.P(x, 13)
	drawer.DrawString(string(cmd.Activity))
	drawer.Dot = fixed.P(x, 26)
	drawer.DrawString(fmt.Sprintf("%d/%d", cmd.Index+1, cmd.Total))
	drawer.Dot = fixed.P(x, 39)
	drawer.DrawString(fmt.Sprintf("x%+.1f", cmd.Frame.DX))
	drawer.Dot = fixed.P(x, 52)
	drawer.DrawString(fmt.Sprintf("y%+.1f", cmd.Frame.DY))

	return o.dev.Draw(bounds, img, image.Point{})
}

// Splash shows a waiting screen until the first frame arrives.
func (o *OLED) Splash() error {
	img := blank(o.dev.Bounds())

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	drawer.Dot = fixed.P(10, 26)
	drawer.DrawString("Earbud motion")
	drawer.Dot = fixed.P(10, 43)
	drawer.DrawString("Waiting...")

	return o.dev.Draw(o.dev.Bounds(), img, image.Point{})
}

func blank(r image.Rectangle) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(r)
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	return img
}
