// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package normalize rescales recording channels before they are mapped to
// motion. Inputs are never modified; every transform returns a new
// recording.
package normalize

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/earbud_motion/internal/imu"
)

// DegenerateChannelError is returned by ZScore when a channel has zero
// standard deviation and the policy is PolicyFail.
type DegenerateChannelError struct {
	Channel imu.Channel
	Value   float64
}

func (e *DegenerateChannelError) Error() string {
	return fmt.Sprintf("channel %s is constant (%g): standard deviation is zero", e.Channel, e.Value)
}

// Policy decides what ZScore does with a constant channel.
type Policy int

const (
	// PolicyFail returns a DegenerateChannelError.
	PolicyFail Policy = iota
	// PolicyZero replaces the channel with zeros.
	PolicyZero
	// PolicySkip leaves the channel as it was.
	PolicySkip
)

func (p Policy) String() string {
	switch p {
	case PolicyFail:
		return "fail"
	case PolicyZero:
		return "zero"
	case PolicySkip:
		return "skip"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses "fail", "zero" or "skip".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail":
		return PolicyFail, nil
	case "zero":
		return PolicyZero, nil
	case "skip":
		return PolicySkip, nil
	}
	return 0, fmt.Errorf("unknown zero-variance policy %q (want fail, zero or skip)", s)
}

// ZScore replaces each listed channel with (v - mean) / std, using the
// population standard deviation over the whole recording.
func ZScore(rec imu.Recording, channels []imu.Channel, policy Policy) (imu.Recording, error) {
	if rec.Len() == 0 {
		return imu.Recording{}, fmt.Errorf("z-score: %w", imu.ErrEmptyRecording)
	}

	out := rec.Clone()
	for _, c := range channels {
		values := rec.Channel(c)
		mean, std := stat.PopMeanStdDev(values, nil)

		if std == 0 || constant(values) {
			switch policy {
			case PolicySkip:
				continue
			case PolicyZero:
				for i := range out.Samples {
					out.Samples[i].Set(c, 0)
				}
				continue
			default:
				return imu.Recording{}, &DegenerateChannelError{Channel: c, Value: values[0]}
			}
		}

		for i, v := range values {
			out.Samples[i].Set(c, (v-mean)/std)
		}
	}
	return out, nil
}

// Center subtracts the first sample from every sample of each listed
// channel, so frame 0 is exactly zero. Applying it twice changes nothing.
func Center(rec imu.Recording, channels []imu.Channel) (imu.Recording, error) {
	if rec.Len() == 0 {
		return imu.Recording{}, fmt.Errorf("center: %w", imu.ErrEmptyRecording)
	}

	out := rec.Clone()
	first := rec.At(0)
	for _, c := range channels {
		origin := first.Get(c)
		for i := range out.Samples {
			out.Samples[i].Set(c, rec.Samples[i].Get(c)-origin)
		}
	}
	return out, nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
