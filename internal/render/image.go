// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/earbud_motion/internal/animation"
)

var (
	background = color.RGBA{R: 0x10, G: 0x10, B: 0x14, A: 0xff}
	foreground = color.RGBA{R: 0x4f, G: 0xa3, B: 0xff, A: 0xff}
	labelColor = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// Image rasterises each frame. With a head image the picture is scaled
// into the proxy box and rotated; without one a rotated circle with a
// heading tick is drawn. If Dir is set every frame is also written there
// as frame_NNNNN.png.
type Image struct {
	mu   sync.Mutex
	rect image.Rectangle
	head image.Image
	dir  string
	last *image.RGBA
}

// NewImage returns an Image renderer of width x height pixels. head and
// dir are optional.
func NewImage(width, height int, head image.Image, dir string) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image renderer: invalid size %dx%d", width, height)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("image renderer: create frames dir: %w", err)
		}
	}
	return &Image{rect: image.Rect(0, 0, width, height), head: head, dir: dir}, nil
}

// LoadHead decodes a PNG used as the head proxy.
func LoadHead(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open head image: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode head image %s: %w", path, err)
	}
	return img, nil
}

func (r *Image) Render(cmd animation.RenderCommand) error {
	img := image.NewRGBA(r.rect)
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	v := newViewport(img.Bounds(), cmd.Extent)
	if r.head != nil {
		drawHead(img, v, r.head, cmd)
	} else {
		ring, center, heading := proxyOutline(v, cmd)
		for _, p := range ring {
			img.Set(p.X, p.Y, foreground)
		}
		for _, p := range line(center, heading) {
			img.Set(p.X, p.Y, foreground)
		}
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 13),
	}
	drawer.DrawString(fmt.Sprintf("%s %d/%d", cmd.Activity, cmd.Index+1, cmd.Total))

	r.mu.Lock()
	r.last = img
	r.mu.Unlock()

	if r.dir == "" {
		return nil
	}
	return writePNG(filepath.Join(r.dir, fmt.Sprintf("frame_%05d.png", cmd.Index)), img)
}

// Last returns the most recent frame, or nil before the first render.
func (r *Image) Last() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	return r.last
}

// WritePNG encodes the most recent frame.
func (r *Image) WritePNG(w io.Writer) error {
	img := r.Last()
	if img == nil {
		return fmt.Errorf("no frame rendered yet")
	}
	return png.Encode(w, img)
}

// drawHead places head inside the proxy box, rotated about its centre.
func drawHead(dst *image.RGBA, v viewport, head image.Image, cmd animation.RenderCommand) {
	proxy := cmd.Extent.Proxy
	if proxy <= 0 {
		proxy = animation.DefaultExtent.Proxy
	}
	sb := head.Bounds()
	box := 2 * proxy * v.scale
	kx := box / float64(sb.Dx())
	ky := box / float64(sb.Dy())

	// pixel space has y down, so a counter-clockwise view rotation is
	// clockwise on screen
	phi := -cmd.Frame.Rotation
	cos, sin := math.Cos(phi), math.Sin(phi)

	a, b := cos*kx, -sin*ky
	d, e := sin*kx, cos*ky
	srcCX := float64(sb.Min.X) + float64(sb.Dx())/2
	srcCY := float64(sb.Min.Y) + float64(sb.Dy())/2
	cx, cy := v.toPixel(cmd.Frame.DX, cmd.Frame.DY)

	m := f64.Aff3{
		a, b, cx - (a*srcCX + b*srcCY),
		d, e, cy - (d*srcCX + e*srcCY),
	}
	draw.BiLinear.Transform(dst, m, head, sb, draw.Over, nil)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode frame: %w", err)
	}
	return f.Close()
}
