// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion maps one normalized IMU sample to the displacement and
// rotation of the head proxy.
//
// The mapping is a direct scaling of the current sample. There is no
// integration and no memory between frames, so the proxy position is not a
// physical head pose.
package motion

import (
	"github.com/relabs-tech/earbud_motion/internal/imu"
)

// DefaultRotationGain converts a normalized gyro value to a rotation proxy.
// It is independent of the displacement scale factor.
const DefaultRotationGain = 0.01

// Frame is the render-relevant output for one animation tick.
type Frame struct {
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	Rotation float64 `json:"rotation"`
}

// Mapper turns samples into frames. The zero value has no rotation; use
// NewMapper for the default gain.
type Mapper struct {
	RotationGain float64
}

// NewMapper returns a Mapper with DefaultRotationGain.
func NewMapper() Mapper {
	return Mapper{RotationGain: DefaultRotationGain}
}

// MapFrame picks the driving channels for activity:
//
//	nod:   dy = ay*scale, rotation = gy*gain
//	shake: dx = ax*scale, rotation = gx*gain
//	other: dx = ax*scale, dy = ay*scale, rotation = gz*gain
//
// The activity is assumed to be validated already.
func (m Mapper) MapFrame(activity imu.Activity, s imu.Sample, scale float64) Frame {
	switch activity {
	case imu.Nod:
		return Frame{
			DY:       s.Ay * scale,
			Rotation: s.Gy * m.RotationGain,
		}
	case imu.Shake:
		return Frame{
			DX:       s.Ax * scale,
			Rotation: s.Gx * m.RotationGain,
		}
	default:
		return Frame{
			DX:       s.Ax * scale,
			DY:       s.Ay * scale,
			Rotation: s.Gz * m.RotationGain,
		}
	}
}

// MapRecording maps every frame of rec, for static cross-check plots.
func (m Mapper) MapRecording(activity imu.Activity, rec imu.Recording, scale float64) []Frame {
	frames := make([]Frame, rec.Len())
	for i, s := range rec.Samples {
		frames[i] = m.MapFrame(activity, s, scale)
	}
	return frames
}

// MapFrame maps s with the default rotation gain.
func MapFrame(activity imu.Activity, s imu.Sample, scale float64) Frame {
	return NewMapper().MapFrame(activity, s, scale)
}
