// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package models

import (
	"fmt"
	"time"
)

// localTimeLayout is the persisted timestamp format: ISO-8601 local
// date-time without a UTC offset. This matches the on-disk blob contract
// and must not change without a data migration.
const localTimeLayout = "2006-01-02T15:04:05"

// LocalTime is a time.Time that serializes as ISO-8601 local date-time
// without an offset ("2006-01-02T15:04:05").
type LocalTime struct {
	time.Time
}

// NewLocalTime truncates t to second precision, matching what survives a
// serialization round-trip.
func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{t.Truncate(time.Second)}
}

// MarshalJSON implements json.Marshaler.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(localTimeLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *LocalTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid local time %q", s)
	}
	parsed, err := time.ParseInLocation(localTimeLayout, s[1:len(s)-1], time.Local)
	if err != nil {
		return fmt.Errorf("parse local time: %w", err)
	}
	t.Time = parsed
	return nil
}
