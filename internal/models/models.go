package models

import "time"

// ImageInfo holds metadata and fingerprint information for an image
type ImageInfo struct {
	ID       int64     `json:"id"`
	Path     string    `json:"path"`
	Hash     uint64    `json:"hash"`
	FileHash string    `json:"file_hash,omitempty"` // SHA256 hash for exact matching
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Format   string    `json:"format"`
	FileSize int64     `json:"file_size"`
	ModTime  time.Time `json:"mod_time"`
	HasExif  bool      `json:"has_exif"`
	Score    float64   `json:"score"`
	GroupID  int       `json:"group_id,omitempty"`
}

// DuplicateGroup represents a group of similar images. Images is ordered
// lexicographically by path; Keep/Remove is the quality-based split of the
// same members.
type DuplicateGroup struct {
	ID     int          `json:"id"`
	Images []*ImageInfo `json:"images"`
	Keep   *ImageInfo   `json:"keep"`
	Remove []*ImageInfo `json:"remove"`
}

// Paths returns the member paths of the group in their stored order.
func (g *DuplicateGroup) Paths() []string {
	paths := make([]string, len(g.Images))
	for i, img := range g.Images {
		paths[i] = img.Path
	}
	return paths
}

// ScanResult holds the result of a folder scan
type ScanResult struct {
	TotalScanned    int               `json:"total_scanned"`
	TotalSkipped    int               `json:"total_skipped"`
	TotalGroups     int               `json:"total_groups"`
	TotalDuplicates int               `json:"total_duplicates"`
	Groups          []*DuplicateGroup `json:"groups"`
}

// FormatQualityMultiplier returns quality multiplier for image format
func FormatQualityMultiplier(format string) float64 {
	switch format {
	case "png", "tiff", "bmp":
		return 1.2 // Lossless formats
	case "webp":
		return 1.1 // Often lossless or high quality
	case "jpeg", "jpg":
		return 1.0 // Lossy
	case "gif":
		return 0.9 // Limited colors
	default:
		return 1.0
	}
}

// MetadataMultiplier returns quality multiplier based on metadata presence
func MetadataMultiplier(hasExif bool) float64 {
	if hasExif {
		return 1.1 // Prefer images with metadata
	}
	return 1.0
}
