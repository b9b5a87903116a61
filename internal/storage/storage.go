// Package storage persists scan results in a SQLite database so groups
// can be listed and cleaned in later invocations.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"photodedup/internal/models"
)

// Storage handles persistence of image hashes and duplicate groups
type Storage struct {
	db *sql.DB
}

// NewStorage opens (creating if needed) the database at dbPath
func NewStorage(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT UNIQUE NOT NULL,
		hash INTEGER NOT NULL,
		file_hash TEXT DEFAULT '',
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		format TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		mod_time DATETIME NOT NULL,
		has_exif INTEGER DEFAULT 0,
		score REAL NOT NULL,
		group_id INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_images_hash ON images(hash);
	CREATE INDEX IF NOT EXISTS idx_images_group_id ON images(group_id);
	CREATE INDEX IF NOT EXISTS idx_images_path ON images(path);

	CREATE TABLE IF NOT EXISTS scan_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder TEXT NOT NULL,
		scanned_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		total_images INTEGER NOT NULL,
		total_skipped INTEGER NOT NULL DEFAULT 0,
		total_groups INTEGER NOT NULL,
		total_duplicates INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveImages saves or updates multiple images
func (s *Storage) SaveImages(images []*models.ImageInfo) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO images (path, hash, file_hash, width, height, format, file_size, mod_time, has_exif, score, group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, img := range images {
		// Cast uint64 to int64 for SQLite compatibility
		hasExifInt := 0
		if img.HasExif {
			hasExifInt = 1
		}
		_, err := stmt.Exec(
			img.Path,
			int64(img.Hash),
			img.FileHash,
			img.Width,
			img.Height,
			img.Format,
			img.FileSize,
			img.ModTime.Format("2006-01-02 15:04:05"),
			hasExifInt,
			img.Score,
			img.GroupID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert image %s: %w", img.Path, err)
		}
	}

	return tx.Commit()
}

// ReplaceGroups resets stored group assignments and applies the given ones
func (s *Storage) ReplaceGroups(groups []*models.DuplicateGroup) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE images SET group_id = 0"); err != nil {
		return fmt.Errorf("failed to reset groups: %w", err)
	}

	stmt, err := tx.Prepare("UPDATE images SET group_id = ? WHERE path = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, group := range groups {
		for _, img := range group.Images {
			if _, err := stmt.Exec(group.ID, img.Path); err != nil {
				return fmt.Errorf("failed to update group for %s: %w", img.Path, err)
			}
		}
	}

	return tx.Commit()
}

// imagesByGroupID returns the images of one group, best score first
func (s *Storage) imagesByGroupID(groupID int) ([]*models.ImageInfo, error) {
	rows, err := s.db.Query(`
		SELECT id, path, hash, file_hash, width, height, format, file_size, mod_time, has_exif, score, group_id
		FROM images
		WHERE group_id = ?
		ORDER BY score DESC, file_size DESC, path ASC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	return scanImages(rows)
}

func scanImages(rows *sql.Rows) ([]*models.ImageInfo, error) {
	var images []*models.ImageInfo
	for rows.Next() {
		img := &models.ImageInfo{}
		var modTime string
		var hashInt int64
		var hasExifInt int
		var fileHash sql.NullString
		err := rows.Scan(
			&img.ID,
			&img.Path,
			&hashInt,
			&fileHash,
			&img.Width,
			&img.Height,
			&img.Format,
			&img.FileSize,
			&modTime,
			&hasExifInt,
			&img.Score,
			&img.GroupID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		img.Hash = uint64(hashInt)
		img.FileHash = fileHash.String
		img.HasExif = hasExifInt == 1
		img.ModTime, _ = time.Parse("2006-01-02 15:04:05", modTime)
		images = append(images, img)
	}

	return images, rows.Err()
}

// DuplicateGroups returns all stored duplicate groups with their images
func (s *Storage) DuplicateGroups() ([]*models.DuplicateGroup, error) {
	rows, err := s.db.Query("SELECT DISTINCT group_id FROM images WHERE group_id > 0 ORDER BY group_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groupIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		groupIDs = append(groupIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var groups []*models.DuplicateGroup
	for _, id := range groupIDs {
		images, err := s.imagesByGroupID(id)
		if err != nil {
			return nil, err
		}
		if len(images) < 2 {
			continue
		}

		groups = append(groups, &models.DuplicateGroup{
			ID:     id,
			Images: images,
			Keep:   images[0], // Already sorted by score DESC
			Remove: images[1:],
		})
	}

	return groups, nil
}

// DeleteImage removes an image from the database
func (s *Storage) DeleteImage(path string) error {
	_, err := s.db.Exec("DELETE FROM images WHERE path = ?", path)
	return err
}

// RecordScan records a scan in history
func (s *Storage) RecordScan(folder string, totalImages, totalSkipped, totalGroups, totalDuplicates int) error {
	_, err := s.db.Exec(`
		INSERT INTO scan_history (folder, total_images, total_skipped, total_groups, total_duplicates)
		VALUES (?, ?, ?, ?, ?)
	`, folder, totalImages, totalSkipped, totalGroups, totalDuplicates)
	return err
}

// LastScanRoot returns the folder of the most recent scan. Dedupe places
// the quarantine folder there.
func (s *Storage) LastScanRoot() (string, error) {
	var folder string
	err := s.db.QueryRow("SELECT folder FROM scan_history ORDER BY id DESC LIMIT 1").Scan(&folder)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no scan recorded yet")
	}
	if err != nil {
		return "", err
	}
	return folder, nil
}
