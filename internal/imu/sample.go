// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyRecording is returned when a zero-length recording reaches an
// operation that needs at least one sample (centering, animation start).
var ErrEmptyRecording = errors.New("empty recording")

// Side identifies which earbud produced a recording.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// ParseSide accepts "left" or "right" (case-insensitive).
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Left:
		return Left, nil
	case Right:
		return Right, nil
	default:
		return "", fmt.Errorf("invalid side %q (want left or right)", s)
	}
}

// Sample is one time step of one earbud IMU.
type Sample struct {
	Timestamp float64 `json:"timestamp"`

	Ax float64 `json:"ax"` // accel
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"` // gyro
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`
}

// Get returns the value of channel c.
func (s Sample) Get(c Channel) float64 {
	switch c {
	case Ax:
		return s.Ax
	case Ay:
		return s.Ay
	case Az:
		return s.Az
	case Gx:
		return s.Gx
	case Gy:
		return s.Gy
	case Gz:
		return s.Gz
	}
	panic(fmt.Sprintf("imu: unknown channel %q", string(c)))
}

// Set stores v in channel c.
func (s *Sample) Set(c Channel, v float64) {
	switch c {
	case Ax:
		s.Ax = v
	case Ay:
		s.Ay = v
	case Az:
		s.Az = v
	case Gx:
		s.Gx = v
	case Gy:
		s.Gy = v
	case Gz:
		s.Gz = v
	default:
		panic(fmt.Sprintf("imu: unknown channel %q", string(c)))
	}
}

// Recording is the ordered sample sequence of one (user, activity, side).
// The position of a sample is its frame index.
type Recording struct {
	Side    Side     `json:"side"`
	Samples []Sample `json:"samples"`
}

// Len returns the number of frames.
func (r Recording) Len() int { return len(r.Samples) }

// At returns frame i.
func (r Recording) At(i int) Sample { return r.Samples[i] }

// Channel returns a copy of one channel as a slice.
func (r Recording) Channel(c Channel) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Get(c)
	}
	return out
}

// Timestamps returns the timestamp column.
func (r Recording) Timestamps() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Timestamp
	}
	return out
}

// Clone returns a deep copy so transforms never alias the input.
func (r Recording) Clone() Recording {
	samples := make([]Sample, len(r.Samples))
	copy(samples, r.Samples)
	return Recording{Side: r.Side, Samples: samples}
}
