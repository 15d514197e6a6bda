// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"
	"strings"
)

// Channel names one of the six IMU columns.
type Channel string

const (
	Ax Channel = "ax"
	Ay Channel = "ay"
	Az Channel = "az"
	Gx Channel = "gx"
	Gy Channel = "gy"
	Gz Channel = "gz"
)

// AllChannels lists the channels in CSV column order.
var AllChannels = []Channel{Ax, Ay, Az, Gx, Gy, Gz}

// IsAccel reports whether c is an accelerometer channel.
func (c Channel) IsAccel() bool {
	return c == Ax || c == Ay || c == Az
}

// ParseChannel validates a single channel name.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllChannels {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// ParseChannels parses a comma separated list such as "ax,ay,gz".
// Duplicates are dropped, order is kept.
func ParseChannels(s string) ([]Channel, error) {
	var out []Channel
	seen := make(map[Channel]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseChannel(part)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no channels in %q", s)
	}
	return out, nil
}
