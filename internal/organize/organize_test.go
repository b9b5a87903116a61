package organize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodedup/internal/bucket"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// fixedDates builds a capture-date collaborator from a filename->date map;
// files not in the map have no readable date.
func fixedDates(dates map[string]time.Time) DateLookup {
	return func(path string) (time.Time, bool) {
		t, ok := dates[filepath.Base(path)]
		return t, ok
	}
}

func TestRun_BucketsByMonth(t *testing.T) {
	source := t.TempDir()
	june := time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC)
	july := time.Date(2023, 7, 2, 9, 0, 0, 0, time.UTC)

	dates := map[string]time.Time{
		"a.jpg": june,
		"b.jpg": june,
		"c.jpg": june,
		"d.jpg": july,
		"e.jpg": july,
	}
	for name := range dates {
		writeFile(t, filepath.Join(source, name), "img-"+name)
	}
	// A sixth file with no metadata
	writeFile(t, filepath.Join(source, "nodate.jpg"), "img-nodate")

	o := New(source,
		organizeWithDates(dates),
		WithPeriod(bucket.Month),
	)
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	assert.Len(t, result.Folders, 3)
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg", "c.jpg"}, result.Folders["2023-06"])
	assert.ElementsMatch(t, []string{"d.jpg", "e.jpg"}, result.Folders["2023-07"])
	assert.ElementsMatch(t, []string{"nodate.jpg"}, result.Folders[bucket.UnknownDate])

	// Files actually moved, contents intact
	assert.Equal(t, "img-a.jpg", readBack(t, filepath.Join(source, "2023-06", "a.jpg")))
	assert.Equal(t, "img-nodate", readBack(t, filepath.Join(source, bucket.UnknownDate, "nodate.jpg")))
	assert.NoFileExists(t, filepath.Join(source, "a.jpg"))
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func organizeWithDates(dates map[string]time.Time) Option {
	return WithDateLookup(fixedDates(dates))
}

func TestRun_TrashedMarkerWinsOverDate(t *testing.T) {
	source := t.TempDir()
	name := "IMG_1.trashed.jpg"
	writeFile(t, filepath.Join(source, name), "deleted-on-phone")

	// Even with a perfectly good date the marker routes to _trash
	o := New(source, organizeWithDates(map[string]time.Time{
		name: time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC),
	}))
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	assert.Equal(t, []string{name}, result.Folders[bucket.TrashFolder])
	assert.NotContains(t, result.Folders, "2023-06")
	assert.FileExists(t, filepath.Join(source, bucket.TrashFolder, name))
}

func TestRun_CopyModeKeepsSources(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(source, "a.jpg"), "payload")

	o := New(source,
		WithDest(dest),
		WithCopy(true),
		organizeWithDates(nil),
	)
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	assert.FileExists(t, filepath.Join(source, "a.jpg"))
	assert.Equal(t, "payload", readBack(t, filepath.Join(dest, bucket.UnknownDate, "a.jpg")))
}

func TestRun_WeekPeriod(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.jpg"), "x")

	o := New(source,
		WithPeriod(bucket.Week),
		organizeWithDates(map[string]time.Time{
			"a.jpg": time.Date(2023, 6, 7, 0, 0, 0, 0, time.UTC),
		}),
	)
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Folders, "2023-W23")
}

func TestRun_SkipsNonImagesAndSubfolders(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.jpg"), "x")
	writeFile(t, filepath.Join(source, "notes.txt"), "not an image")
	writeFile(t, filepath.Join(source, "nested", "b.jpg"), "nested stays")

	o := New(source, organizeWithDates(nil))
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded())
	assert.FileExists(t, filepath.Join(source, "notes.txt"))
	assert.FileExists(t, filepath.Join(source, "nested", "b.jpg"))
}

func TestRun_CollisionInBucket(t *testing.T) {
	sourceA := t.TempDir()
	sourceB := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(sourceA, "photo.jpg"), "first")
	writeFile(t, filepath.Join(sourceB, "photo.jpg"), "second")

	for _, source := range []string{sourceA, sourceB} {
		o := New(source, WithDest(dest), organizeWithDates(nil))
		result, err := o.Run(context.Background())
		require.NoError(t, err)
		require.Empty(t, result.Errors)
	}

	unknown := filepath.Join(dest, bucket.UnknownDate)
	assert.Equal(t, "first", readBack(t, filepath.Join(unknown, "photo.jpg")))
	assert.Equal(t, "second", readBack(t, filepath.Join(unknown, "photo_1.jpg")))
}

func TestRun_InvalidSourceFailsFast(t *testing.T) {
	o := New(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := o.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_InvalidPeriodFailsFast(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.jpg"), "x")

	o := New(source, WithPeriod(bucket.Period(99)))
	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, bucket.ErrUnsupportedPeriod)

	// Fail fast means no file was touched
	assert.FileExists(t, filepath.Join(source, "a.jpg"))
}

func TestRun_ProgressReachesTotal(t *testing.T) {
	source := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		writeFile(t, filepath.Join(source, name), name)
	}

	var calls [][2]int
	o := New(source,
		organizeWithDates(nil),
		WithProgress(func(done, total int) {
			calls = append(calls, [2]int{done, total})
		}),
	)
	_, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, calls, 3)
	for i, c := range calls {
		assert.Equal(t, i+1, c[0], "progress must be monotonic")
		assert.Equal(t, 3, c[1])
	}
}

func TestRun_Cancellation(t *testing.T) {
	source := t.TempDir()
	writeFile(t, filepath.Join(source, "a.jpg"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(source, organizeWithDates(nil))
	_, err := o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// Nothing moved
	assert.FileExists(t, filepath.Join(source, "a.jpg"))
}
