// Package metadata reads capture timestamps from embedded image metadata.
// It is the only place that knows about EXIF; callers just get a timestamp
// or "unknown".
package metadata

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// CaptureDate returns the capture timestamp of an image, preferring
// DateTimeOriginal, then DateTimeDigitized, then DateTime. The second
// return is false when the file has no readable capture date for any
// reason (missing EXIF, corrupt file, unparseable tag).
func CaptureDate(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}

	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		if t, err := parseDateTag(tag); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parseDateTag parses an EXIF datetime tag value.
func parseDateTag(tag *tiff.Tag) (time.Time, error) {
	if tag == nil {
		return time.Time{}, fmt.Errorf("tag is nil")
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read EXIF date tag: %w", err)
	}
	return ParseExifTime(s)
}

// ParseExifTime parses the EXIF datetime string format
// "YYYY:MM:DD HH:MM:SS", falling back to date-only "YYYY:MM:DD".
func ParseExifTime(s string) (time.Time, error) {
	const layout = "2006:01:02 15:04:05"
	if t, err := time.Parse(layout, s); err == nil {
		return t, nil
	}
	const layoutDateOnly = "2006:01:02"
	t, err := time.Parse(layoutDateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse EXIF date %q: %w", s, err)
	}
	return t, nil
}
