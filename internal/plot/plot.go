// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package plot draws static views of a recording pair and of the motion
// frames derived from it.
package plot

import (
	"fmt"
	"image/color"
	"os"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/relabs-tech/earbud_motion/internal/dataset"
	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/motion"
)

// Axis colours: x red, y green, z blue. Gyro uses the same colours dashed.
var axisColors = []color.Color{
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
}

var gyroDashes = []vg.Length{vg.Points(4), vg.Points(2)}

const (
	panelWidth  = 14 * vg.Inch
	panelHeight = 5 * vg.Inch
)

// Title returns the panel title for one side of a pair.
func Title(userID int, activity imu.Activity, side imu.Side) string {
	name := "Left"
	if side == imu.Right {
		name = "Right"
	}
	return fmt.Sprintf("User %d - %s IMU (%s)", userID, activity, name)
}

// WriteDualPanel writes a PNG with the left recording above the right one.
// Each panel shows the three accel channels solid and the three gyro
// channels dashed against the sample timestamp.
func WriteDualPanel(pair dataset.Pair, path string) error {
	panels := make([][]*gplot.Plot, 0, 2)
	for _, side := range []imu.Side{imu.Left, imu.Right} {
		p, err := sidePlot(pair.Side(side), Title(pair.UserID, pair.Activity, side))
		if err != nil {
			return fmt.Errorf("plot %s: %w", side, err)
		}
		panels = append(panels, []*gplot.Plot{p})
	}

	img := vgimg.New(panelWidth, 2*panelHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2,
		Cols: 1,
		PadX: vg.Millimeter,
		PadY: 4 * vg.Millimeter,
	}

	canvases := gplot.Align(panels, tiles, dc)
	for i := range panels {
		panels[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write plot %s: %w", path, err)
	}
	return f.Close()
}

func sidePlot(rec imu.Recording, title string) (*gplot.Plot, error) {
	if rec.Len() == 0 {
		return nil, imu.ErrEmptyRecording
	}

	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Acceleration (g) / Gyroscope (dps)"

	ts := rec.Timestamps()
	for i, c := range imu.AllChannels {
		values := rec.Channel(c)
		pts := make(plotter.XYs, len(values))
		for j, v := range values {
			pts[j] = plotter.XY{X: ts[j], Y: v}
		}

		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		l.Color = axisColors[i%3]
		l.Width = vg.Points(1)
		if !c.IsAccel() {
			l.Dashes = gyroDashes
		}
		p.Add(l)
		p.Legend.Add(string(c), l)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())
	return p, nil
}

// WriteMotionTrace plots dx, dy and rotation against the frame index.
func WriteMotionTrace(frames []motion.Frame, activity imu.Activity, path string) error {
	if len(frames) == 0 {
		return fmt.Errorf("motion trace: %w", imu.ErrEmptyRecording)
	}

	p := gplot.New()
	p.Title.Text = fmt.Sprintf("%s - Motion Frames", activity)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Offset / Rotation (rad)"

	series := []struct {
		name string
		get  func(motion.Frame) float64
	}{
		{"dx", func(f motion.Frame) float64 { return f.DX }},
		{"dy", func(f motion.Frame) float64 { return f.DY }},
		{"rotation", func(f motion.Frame) float64 { return f.Rotation }},
	}
	for i, s := range series {
		pts := make(plotter.XYs, len(frames))
		for j, f := range frames {
			pts[j] = plotter.XY{X: float64(j), Y: s.get(f)}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = axisColors[i]
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(s.name, l)
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if err := p.Save(panelWidth, panelHeight, path); err != nil {
		return fmt.Errorf("save motion trace %s: %w", path, err)
	}
	return nil
}
