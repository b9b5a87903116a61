// Package bucket maps capture timestamps to destination folder names at a
// chosen time granularity.
package bucket

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Period is the time granularity used to derive bucket folder names.
type Period int

const (
	Year Period = iota
	Month
	Week
	Day
)

// UnknownDate is the folder for files without a readable capture date.
// The name is kept from earlier releases so existing layouts stay valid.
const UnknownDate = "date_inconnue"

// TrashFolder receives files whose name carries the trashed marker.
const TrashFolder = "_trash"

// trashMarker flags files some gallery apps leave behind when the user
// deleted a photo that was never purged from disk.
const trashMarker = ".trashed"

// ErrUnsupportedPeriod is returned for granularities outside year, month,
// week and day.
var ErrUnsupportedPeriod = errors.New("unsupported period")

// ParsePeriod parses a period name.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "year":
		return Year, nil
	case "month":
		return Month, nil
	case "week":
		return Week, nil
	case "day":
		return Day, nil
	default:
		return 0, fmt.Errorf("%w: %q (want year, month, week or day)", ErrUnsupportedPeriod, s)
	}
}

// String returns the period name.
func (p Period) String() string {
	switch p {
	case Year:
		return "year"
	case Month:
		return "month"
	case Week:
		return "week"
	case Day:
		return "day"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the defined granularities.
func (p Period) Valid() bool {
	switch p {
	case Year, Month, Week, Day:
		return true
	default:
		return false
	}
}

// Name derives the bucket folder name for a capture time:
// year 2006, month 2006-01, week 2006-W02 (ISO week, Monday start),
// day 2006-01-02.
func Name(t time.Time, p Period) string {
	switch p {
	case Year:
		return t.Format("2006")
	case Month:
		return t.Format("2006-01")
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Day:
		return t.Format("2006-01-02")
	default:
		return UnknownDate
	}
}

// NameOrUnknown derives the bucket name when a capture time is known and
// the unknown-date sentinel otherwise.
func NameOrUnknown(t time.Time, known bool, p Period) string {
	if !known {
		return UnknownDate
	}
	return Name(t, p)
}

// MarkedTrashed reports whether a file name carries the trashed marker.
// Marked files bypass date bucketing and go to TrashFolder.
func MarkedTrashed(name string) bool {
	return strings.Contains(strings.ToLower(name), trashMarker)
}
