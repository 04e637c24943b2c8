// Package timeconv converts raw epoch-millisecond timestamps from the event
// log into calendar timestamps and the derived time-dimension fields.
//
// Conversion happens in an explicit *time.Location. The historical behavior
// of the job is host-local time, so Location("") and Location("Local") both
// resolve to time.Local; pass "UTC" (or any IANA zone name) to pin the run to
// a fixed zone instead.
package timeconv

import (
	"fmt"
	"time"
)

// Location resolves a configured zone name to a *time.Location.
// An empty name or "Local" selects the host zone, which is what the
// compatibility mode of the pipeline relies on.
func Location(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	default:
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("timeconv: load zone %q: %w", name, err)
		}
		return loc, nil
	}
}

// Decode converts epoch milliseconds into a timestamp in loc. The input may
// carry a fractional part; precision below one millisecond is discarded.
func Decode(ms float64, loc *time.Location) time.Time {
	return time.UnixMilli(int64(ms)).In(loc)
}

// Fields is the calendar decomposition of a single timestamp, one per
// qualifying event.
type Fields struct {
	Hour    int32
	Day     int32
	Week    int32 // ISO 8601 week of year
	Month   int32
	Year    int32
	Weekday int32 // Sunday=1 .. Saturday=7
}

// Calendar derives the six time-dimension fields from t.
//
// Week is the ISO week number. Weekday uses the Sunday=1..Saturday=7
// numbering the downstream analytics queries were written against.
func Calendar(t time.Time) Fields {
	_, week := t.ISOWeek()
	return Fields{
		Hour:    int32(t.Hour()),
		Day:     int32(t.Day()),
		Week:    int32(week),
		Month:   int32(t.Month()),
		Year:    int32(t.Year()),
		Weekday: int32(t.Weekday()) + 1,
	}
}
