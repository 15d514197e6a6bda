// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "math"

// MockSampleRate is the rate of generated mock recordings, in Hz.
const MockSampleRate = 50

// NewMockRecording generates n smooth, non-constant samples so the
// visualiser can run without a dataset on disk.
func NewMockRecording(side Side, n int) Recording {
	phase := 0.0
	if side == Right {
		phase = math.Pi / 8
	}

	samples := make([]Sample, n)
	for i := range samples {
		t := float64(i) / MockSampleRate
		samples[i] = Sample{
			Timestamp: t,
			Ax:        0.20 * math.Sin(2*math.Pi*0.5*t+phase),
			Ay:        0.15 * math.Cos(2*math.Pi*0.35*t+phase),
			Az:        1.0 + 0.05*math.Sin(2*math.Pi*t),
			Gx:        20 * math.Cos(2*math.Pi*0.5*t+phase),
			Gy:        15 * math.Sin(2*math.Pi*0.35*t+phase),
			Gz:        math.Mod(30*t, 60) - 30,
		}
	}
	return Recording{Side: side, Samples: samples}
}
