// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"
	"strings"
)

// Activity is one of the recorded earbud activities.
type Activity string

const (
	Nod   Activity = "nod"
	Shake Activity = "shake"
)

// Activities is the complete activity vocabulary of the dataset.
var Activities = []Activity{
	"brow-lowerer", "brow-raiser", "chewing", "chin-raiser", "eyes-lr", "eyes-ud",
	"lip-puller", "mouth-stretch", "nod", "running", "shake", "speaking",
	"still", "swallowing", "tilt", "walking", "wink-l", "wink-r",
}

// InvalidActivityError reports a name outside the vocabulary.
type InvalidActivityError struct {
	Activity string
}

func (e *InvalidActivityError) Error() string {
	return fmt.Sprintf("invalid activity %q (valid: %s)", e.Activity, activityList())
}

// Valid reports whether a is part of the vocabulary.
func (a Activity) Valid() bool {
	for _, known := range Activities {
		if a == known {
			return true
		}
	}
	return false
}

// ParseActivity normalises case and whitespace, then checks the vocabulary.
func ParseActivity(s string) (Activity, error) {
	a := Activity(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", &InvalidActivityError{Activity: s}
	}
	return a, nil
}

func activityList() string {
	names := make([]string, len(Activities))
	for i, a := range Activities {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
