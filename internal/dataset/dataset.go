// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dataset locates and parses the per-user earbud IMU CSV files.
//
// Layout on disk:
//
//	{root}/P{U}/EARBUDS/{U}-{activity}-imu-left.csv
//	{root}/P{U}/EARBUDS/{U}-{activity}-imu-right.csv
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/relabs-tech/earbud_motion/internal/imu"
)

const (
	MinUserID = 0
	MaxUserID = 29
)

// InvalidUserIDError reports a user id outside [MinUserID, MaxUserID].
type InvalidUserIDError struct {
	Value string
}

func (e *InvalidUserIDError) Error() string {
	return fmt.Sprintf("invalid user id %q (want %d-%d)", e.Value, MinUserID, MaxUserID)
}

// MissingFileError is returned when one or both per-side CSVs are absent.
type MissingFileError struct {
	UserID   int
	Activity imu.Activity
	Path     string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("data files for activity %q not found for user %d: %s", e.Activity, e.UserID, e.Path)
}

// Pair holds the left and right recordings of one user/activity.
type Pair struct {
	UserID   int
	Activity imu.Activity
	Left     imu.Recording
	Right    imu.Recording
}

// Side returns the recording for s.
func (p Pair) Side(s imu.Side) imu.Recording {
	if s == imu.Right {
		return p.Right
	}
	return p.Left
}

// ValidateUserID checks the user id domain.
func ValidateUserID(id int) error {
	if id < MinUserID || id > MaxUserID {
		return &InvalidUserIDError{Value: strconv.Itoa(id)}
	}
	return nil
}

// ParseUserID parses and validates a user id typed by a user.
func ParseUserID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &InvalidUserIDError{Value: s}
	}
	if err := ValidateUserID(id); err != nil {
		return 0, &InvalidUserIDError{Value: s}
	}
	return id, nil
}

// Path returns the CSV path for one side.
func Path(root string, userID int, activity imu.Activity, side imu.Side) string {
	name := fmt.Sprintf("%d-%s-imu-%s.csv", userID, activity, side)
	return filepath.Join(root, fmt.Sprintf("P%d", userID), "EARBUDS", name)
}

// Paths returns the left and right CSV paths.
func Paths(root string, userID int, activity imu.Activity) (left, right string) {
	return Path(root, userID, activity, imu.Left), Path(root, userID, activity, imu.Right)
}

// Loader reads recordings below a dataset root.
type Loader struct {
	Root string
}

// NewLoader returns a Loader rooted at root.
func NewLoader(root string) *Loader {
	return &Loader{Root: root}
}

// Load validates its inputs, checks that both files exist, then parses
// them. Nothing is parsed unless both sides are present.
func (l *Loader) Load(userID int, activity imu.Activity) (Pair, error) {
	if err := ValidateUserID(userID); err != nil {
		return Pair{}, err
	}
	if !activity.Valid() {
		return Pair{}, &imu.InvalidActivityError{Activity: string(activity)}
	}

	leftPath, rightPath := Paths(l.Root, userID, activity)
	for _, p := range []string{leftPath, rightPath} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Pair{}, &MissingFileError{UserID: userID, Activity: activity, Path: p}
			}
			return Pair{}, fmt.Errorf("stat %s: %w", p, err)
		}
	}

	left, err := ReadFile(leftPath, imu.Left)
	if err != nil {
		return Pair{}, err
	}
	right, err := ReadFile(rightPath, imu.Right)
	if err != nil {
		return Pair{}, err
	}

	log.Printf("dataset: loaded user %d %s (left=%d right=%d samples)",
		userID, activity, left.Len(), right.Len())

	return Pair{UserID: userID, Activity: activity, Left: left, Right: right}, nil
}

// ReadFile opens and parses one CSV recording.
func ReadFile(path string, side imu.Side) (imu.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return imu.Recording{}, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	rec, err := Read(f, path)
	if err != nil {
		return imu.Recording{}, err
	}
	rec.Side = side
	return rec, nil
}
