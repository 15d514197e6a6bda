// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package render contains the sinks that consume animation render commands:
// terminal, raster image, OLED, MQTT and websocket.
package render

import (
	"image"
	"math"

	"github.com/relabs-tech/earbud_motion/internal/animation"
)

// viewport maps view coordinates (y up, origin at the centre) to pixels
// (y down, origin top-left). The view is square and fits the shorter side.
type viewport struct {
	bounds image.Rectangle
	scale  float64 // pixels per view unit
}

func newViewport(bounds image.Rectangle, ext animation.Extent) viewport {
	side := math.Min(float64(bounds.Dx()), float64(bounds.Dy()))
	view := ext.View
	if view <= 0 {
		view = animation.DefaultExtent.View
	}
	return viewport{bounds: bounds, scale: side / (2 * view)}
}

func (v viewport) toPixel(x, y float64) (float64, float64) {
	cx := float64(v.bounds.Min.X) + float64(v.bounds.Dx())/2
	cy := float64(v.bounds.Min.Y) + float64(v.bounds.Dy())/2
	return cx + x*v.scale, cy - y*v.scale
}

// proxyOutline returns the pixels of the head circle for cmd and the end
// point of its heading tick. Rotation is counter-clockwise in view space.
func proxyOutline(v viewport, cmd animation.RenderCommand) (ring []image.Point, center, heading image.Point) {
	proxy := cmd.Extent.Proxy
	if proxy <= 0 {
		proxy = animation.DefaultExtent.Proxy
	}
	cx, cy := v.toPixel(cmd.Frame.DX, cmd.Frame.DY)
	r := proxy * v.scale

	steps := int(2*math.Pi*r) + 16
	seen := make(map[image.Point]bool, steps)
	for i := 0; i < steps; i++ {
		t := 2*math.Pi*float64(i)/float64(steps) + cmd.Frame.Rotation
		p := image.Pt(int(math.Round(cx+r*math.Cos(t))), int(math.Round(cy-r*math.Sin(t))))
		if !seen[p] {
			seen[p] = true
			ring = append(ring, p)
		}
	}

	up := math.Pi/2 + cmd.Frame.Rotation
	center = image.Pt(int(math.Round(cx)), int(math.Round(cy)))
	heading = image.Pt(int(math.Round(cx+r*math.Cos(up))), int(math.Round(cy-r*math.Sin(up))))
	return ring, center, heading
}

// line returns the pixels between a and b (inclusive).
func line(a, b image.Point) []image.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	n := max(abs(dx), abs(dy))
	if n == 0 {
		return []image.Point{a}
	}
	pts := make([]image.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		x := a.X + int(math.Round(float64(dx*i)/float64(n)))
		y := a.Y + int(math.Round(float64(dy*i)/float64(n)))
		pts = append(pts, image.Pt(x, y))
	}
	return pts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
