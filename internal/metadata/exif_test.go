package metadata

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExifTime(t *testing.T) {
	got, err := ParseExifTime("2023:06:07 14:30:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 7, 14, 30, 5, 0, time.UTC), got)
}

func TestParseExifTime_DateOnly(t *testing.T) {
	got, err := ParseExifTime("2023:06:07")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 7, 0, 0, 0, 0, time.UTC), got)
}

func TestParseExifTime_Invalid(t *testing.T) {
	for _, s := range []string{"", "not a date", "2023-06-07 14:30:05", "0000:00:00 00:00:00"} {
		_, err := ParseExifTime(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestCaptureDate_MissingFile(t *testing.T) {
	_, ok := CaptureDate(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.False(t, ok)
}

func TestCaptureDate_NoExif(t *testing.T) {
	// PNG without any EXIF payload
	path := filepath.Join(t.TempDir(), "plain.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	require.NoError(t, f.Close())

	_, ok := CaptureDate(path)
	assert.False(t, ok)
}

func TestCaptureDate_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not image data"), 0644))

	_, ok := CaptureDate(path)
	assert.False(t, ok)
}
