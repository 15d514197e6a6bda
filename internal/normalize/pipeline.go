// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package normalize

import (
	"fmt"
	"strings"

	"github.com/relabs-tech/earbud_motion/internal/imu"
)

// Mode selects which transforms a Pipeline applies.
type Mode string

const (
	ModeNone         Mode = "none"
	ModeZScore       Mode = "zscore"
	ModeCenter       Mode = "center"
	ModeZScoreCenter Mode = "zscore+center"
)

// ParseMode parses a Mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeNone, ModeZScore, ModeCenter, ModeZScoreCenter:
		return m, nil
	}
	return "", fmt.Errorf("unknown normalize mode %q (want none, zscore, center or zscore+center)", s)
}

// Pipeline is the configurable normalization step between loading and
// animation. When both transforms are requested z-score runs first, so the
// normalized (not the raw) first sample is anchored at zero.
type Pipeline struct {
	Mode     Mode
	Channels []imu.Channel
	Policy   Policy
}

// DefaultPipeline z-scores then centers all six channels and fails on a
// constant channel.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Mode:     ModeZScoreCenter,
		Channels: imu.AllChannels,
		Policy:   PolicyFail,
	}
}

// Apply runs the pipeline on rec and returns the transformed copy.
func (p Pipeline) Apply(rec imu.Recording) (imu.Recording, error) {
	mode, err := ParseMode(string(p.Mode))
	if err != nil {
		return imu.Recording{}, err
	}
	if rec.Len() == 0 {
		return imu.Recording{}, imu.ErrEmptyRecording
	}

	channels := p.Channels
	if len(channels) == 0 {
		channels = imu.AllChannels
	}

	out := rec.Clone()

	if mode == ModeZScore || mode == ModeZScoreCenter {
		out, err = ZScore(out, channels, p.Policy)
		if err != nil {
			return imu.Recording{}, fmt.Errorf("%s recording: %w", rec.Side, err)
		}
	}
	if mode == ModeCenter || mode == ModeZScoreCenter {
		out, err = Center(out, channels)
		if err != nil {
			return imu.Recording{}, fmt.Errorf("%s recording: %w", rec.Side, err)
		}
	}
	return out, nil
}
