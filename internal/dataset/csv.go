// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/relabs-tech/earbud_motion/internal/imu"
)

// Columns is the required CSV header, in file order.
var Columns = []string{"timestamp", "ax", "ay", "az", "gx", "gy", "gz"}

// MalformedRecordError reports a missing, non-numeric or non-finite column.
// Line is 1-based and counts the header; 0 means the header itself.
type MalformedRecordError struct {
	Source string
	Line   int
	Column string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: malformed header: column %q: %v", e.Source, e.Column, e.Err)
	}
	return fmt.Sprintf("%s:%d: column %q: %v", e.Source, e.Line, e.Column, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

var (
	errMissingColumn = errors.New("missing column")
	errEmptyValue    = errors.New("empty value")
	errNonFinite     = errors.New("value is not finite")
)

// Read parses a recording from r. Columns are located by header name, so
// their order does not matter and extra columns are ignored. source is
// only used in error messages.
func Read(r io.Reader, source string) (imu.Recording, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return imu.Recording{}, &MalformedRecordError{Source: source, Column: Columns[0], Err: errMissingColumn}
		}
		return imu.Recording{}, fmt.Errorf("%s: read header: %w", source, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make([]int, len(Columns))
	for i, name := range Columns {
		pos, ok := index[name]
		if !ok {
			return imu.Recording{}, &MalformedRecordError{Source: source, Column: name, Err: errMissingColumn}
		}
		cols[i] = pos
	}

	var samples []imu.Sample
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imu.Recording{}, fmt.Errorf("%s:%d: %w", source, line, err)
		}

		var values [7]float64
		for i, pos := range cols {
			if pos >= len(row) {
				return imu.Recording{}, &MalformedRecordError{Source: source, Line: line, Column: Columns[i], Err: errMissingColumn}
			}
			field := strings.TrimSpace(row[pos])
			if field == "" {
				return imu.Recording{}, &MalformedRecordError{Source: source, Line: line, Column: Columns[i], Err: errEmptyValue}
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return imu.Recording{}, &MalformedRecordError{Source: source, Line: line, Column: Columns[i], Err: err}
			}
			// ParseFloat accepts NaN and Inf
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return imu.Recording{}, &MalformedRecordError{Source: source, Line: line, Column: Columns[i], Err: errNonFinite}
			}
			values[i] = v
		}

		samples = append(samples, imu.Sample{
			Timestamp: values[0],
			Ax:        values[1],
			Ay:        values[2],
			Az:        values[3],
			Gx:        values[4],
			Gy:        values[5],
			Gz:        values[6],
		})
	}

	return imu.Recording{Samples: samples}, nil
}

// Write encodes rec with the standard header. Used to build fixtures and
// to export mock recordings.
func Write(w io.Writer, rec imu.Recording) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, s := range rec.Samples {
		row := []string{
			ftoa(s.Timestamp),
			ftoa(s.Ax), ftoa(s.Ay), ftoa(s.Az),
			ftoa(s.Gx), ftoa(s.Gy), ftoa(s.Gz),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
