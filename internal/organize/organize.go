// Package organize sorts the photos of one folder into date-derived
// subfolders.
package organize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"photodedup/internal/bucket"
	"photodedup/internal/imghash"
	"photodedup/internal/metadata"
	"photodedup/internal/relocate"
)

// DateLookup is the capture-date collaborator: given a file path it
// returns the capture timestamp, or false when none is readable.
type DateLookup func(path string) (time.Time, bool)

// Organizer moves or copies the direct image files of a source folder
// into per-period subfolders of a destination root. Files marked as
// trashed go to the _trash folder, files without a capture date to the
// unknown-date folder.
type Organizer struct {
	source     string
	dest       string
	period     bucket.Period
	copyMode   bool
	extensions map[string]bool
	dateFn     DateLookup
	progressFn func(done, total int)
}

// Option configures an Organizer
type Option func(*Organizer)

// WithDest sets the destination root (default: the source folder)
func WithDest(dir string) Option {
	return func(o *Organizer) {
		if dir != "" {
			o.dest = dir
		}
	}
}

// WithPeriod sets the bucketing granularity (default: month)
func WithPeriod(p bucket.Period) Option {
	return func(o *Organizer) {
		o.period = p
	}
}

// WithCopy makes the organizer copy files instead of moving them
func WithCopy(copyMode bool) Option {
	return func(o *Organizer) {
		o.copyMode = copyMode
	}
}

// WithExtensions replaces the recognized image extension set
func WithExtensions(exts []string) Option {
	return func(o *Organizer) {
		if len(exts) > 0 {
			o.extensions = imghash.ExtensionSet(exts)
		}
	}
}

// WithDateLookup replaces the capture-date collaborator (tests use this)
func WithDateLookup(fn DateLookup) Option {
	return func(o *Organizer) {
		if fn != nil {
			o.dateFn = fn
		}
	}
}

// WithProgress sets a progress callback invoked after every file
func WithProgress(fn func(done, total int)) Option {
	return func(o *Organizer) {
		o.progressFn = fn
	}
}

// New creates an Organizer for a source folder
func New(source string, opts ...Option) *Organizer {
	o := &Organizer{
		source:     source,
		dest:       source,
		period:     bucket.Month,
		extensions: imghash.ExtensionSet(imghash.DefaultExtensions),
		dateFn:     metadata.CaptureDate,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run validates the configuration, then routes every direct image file of
// the source folder. Validation failures surface before any file is
// touched; per-file failures are collected in the result and never stop
// the batch.
func (o *Organizer) Run(ctx context.Context) (*relocate.Result, error) {
	if !o.period.Valid() {
		return nil, fmt.Errorf("%w: %d", bucket.ErrUnsupportedPeriod, o.period)
	}
	info, err := os.Stat(o.source)
	if err != nil {
		return nil, fmt.Errorf("source folder not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", o.source)
	}

	files, err := o.listFiles()
	if err != nil {
		return nil, err
	}

	result := &relocate.Result{Folders: make(map[string][]string)}
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		src := filepath.Join(o.source, name)
		folder := o.routeFile(src, name)

		if _, err := relocate.RelocateTo(src, filepath.Join(o.dest, folder), o.copyMode); err != nil {
			result.Errors = append(result.Errors, &relocate.FileError{Path: src, Err: err})
		} else {
			// The result keys the original name, not the possibly
			// suffixed destination name
			result.Folders[folder] = append(result.Folders[folder], name)
		}

		if o.progressFn != nil {
			o.progressFn(i+1, len(files))
		}
	}

	return result, nil
}

// routeFile picks the destination folder name for one file. The trashed
// marker wins over date bucketing.
func (o *Organizer) routeFile(src, name string) string {
	if bucket.MarkedTrashed(name) {
		return bucket.TrashFolder
	}
	t, ok := o.dateFn(src)
	return bucket.NameOrUnknown(t, ok, o.period)
}

// listFiles returns the direct (non-recursive) image files of the source
// folder, sorted for deterministic processing order.
func (o *Organizer) listFiles() ([]string, error) {
	entries, err := os.ReadDir(o.source)
	if err != nil {
		return nil, fmt.Errorf("failed to read source folder: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if imghash.IsSupportedImage(e.Name(), o.extensions) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
