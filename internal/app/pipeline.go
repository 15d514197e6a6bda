// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"

	"github.com/relabs-tech/earbud_motion/internal/config"
	"github.com/relabs-tech/earbud_motion/internal/dataset"
	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/normalize"
)

// mockSamples is the length of generated recordings (10 s at 50 Hz).
const mockSamples = 10 * imu.MockSampleRate

// LoadNormalized loads both sides of a user/activity pair and runs the
// normalization pipeline on each. Nothing is returned unless both sides
// load and normalize cleanly.
func LoadNormalized(loader *dataset.Loader, p normalize.Pipeline, userID int, activity imu.Activity) (dataset.Pair, error) {
	pair, err := loader.Load(userID, activity)
	if err != nil {
		return dataset.Pair{}, err
	}
	return normalizePair(pair, p)
}

func normalizePair(pair dataset.Pair, p normalize.Pipeline) (dataset.Pair, error) {
	left, err := p.Apply(pair.Left)
	if err != nil {
		return dataset.Pair{}, fmt.Errorf("normalize user %d %s: %w", pair.UserID, pair.Activity, err)
	}
	right, err := p.Apply(pair.Right)
	if err != nil {
		return dataset.Pair{}, fmt.Errorf("normalize user %d %s: %w", pair.UserID, pair.Activity, err)
	}
	pair.Left, pair.Right = left, right
	return pair, nil
}

// Source hands normalized pairs to the runners, either from the dataset
// or, with Mock set, from generated recordings.
type Source struct {
	Loader   *dataset.Loader
	Pipeline normalize.Pipeline
	Mock     bool
}

// NewSource builds a Source from the config.
func NewSource(cfg *config.Config, mock bool) *Source {
	return &Source{
		Loader:   dataset.NewLoader(cfg.DatasetRoot),
		Pipeline: cfg.Pipeline(),
		Mock:     mock,
	}
}

// Load validates userID and activity and returns the normalized pair.
func (s *Source) Load(userID int, activity imu.Activity) (dataset.Pair, error) {
	if !s.Mock {
		return LoadNormalized(s.Loader, s.Pipeline, userID, activity)
	}

	if err := dataset.ValidateUserID(userID); err != nil {
		return dataset.Pair{}, err
	}
	if !activity.Valid() {
		return dataset.Pair{}, &imu.InvalidActivityError{Activity: string(activity)}
	}
	log.Printf("dataset: using mock recordings for user %d %s", userID, activity)

	return normalizePair(dataset.Pair{
		UserID:   userID,
		Activity: activity,
		Left:     imu.NewMockRecording(imu.Left, mockSamples),
		Right:    imu.NewMockRecording(imu.Right, mockSamples),
	}, s.Pipeline)
}
