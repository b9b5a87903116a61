// Package imghash computes perceptual fingerprints for image files.
//
// Fingerprints are 64-bit difference hashes compared by Hamming distance:
// visually similar images produce hashes a few bits apart even after
// resizing or recompression.
package imghash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"photodedup/internal/models"
)

// DefaultExtensions is the union of the recognized image extensions,
// lowercase with leading dot. HEIC is listed so the files are visible to
// scans; without a registered decoder they count as skipped.
var DefaultExtensions = []string{
	".png", ".jpg", ".jpeg", ".bmp", ".gif", ".webp", ".tiff", ".tif", ".heic",
}

// ExtensionSet builds a lookup set from a list of extensions. Entries are
// normalized to lowercase with a leading dot.
func ExtensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

// IsSupportedImage checks a path against an extension set. A nil set means
// the default set.
func IsSupportedImage(path string, set map[string]bool) bool {
	if set == nil {
		set = defaultSet
	}
	return set[strings.ToLower(filepath.Ext(path))]
}

var defaultSet = ExtensionSet(DefaultExtensions)

// Hasher computes perceptual hashes for images
type Hasher struct{}

// NewHasher creates a new Hasher
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashImage computes the perceptual hash and extracts metadata for an image
func (h *Hasher) HashImage(path string) (*models.ImageInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	// Check for EXIF data before decoding, Decode consumes the reader
	hasExif := checkExif(path)

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}

	bounds := img.Bounds()
	info := &models.ImageInfo{
		Path:     path,
		Hash:     hash.GetHash(),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   strings.ToLower(format),
		FileSize: stat.Size(),
		ModTime:  stat.ModTime(),
		HasExif:  hasExif,
	}
	info.Score = CalculateScore(info)

	return info, nil
}

// HashImageWithTimeout hashes an image, giving up after the timeout.
// Corrupt files can stall some decoders.
func (h *Hasher) HashImageWithTimeout(path string, timeout time.Duration) (*models.ImageInfo, error) {
	done := make(chan struct{})
	var info *models.ImageInfo
	var err error

	go func() {
		info, err = h.HashImage(path)
		close(done)
	}()

	select {
	case <-done:
		return info, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout hashing image: %s", path)
	}
}

// checkExif checks if an image file contains EXIF data
func checkExif(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	_, err = exif.Decode(file)
	return err == nil
}

// CalculateScore computes the quality score for an image
func CalculateScore(info *models.ImageInfo) float64 {
	resolution := float64(info.Width * info.Height)
	return resolution *
		models.FormatQualityMultiplier(info.Format) *
		models.MetadataMultiplier(info.HasExif)
}

// FileSHA256 computes the SHA256 hash of a file's content
func FileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HammingDistance calculates the Hamming distance between two hashes
func HammingDistance(hash1, hash2 uint64) int {
	return bits.OnesCount64(hash1 ^ hash2)
}
