package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"photodedup/internal/imghash"
	"photodedup/internal/match"
	"photodedup/internal/models"
	"photodedup/internal/scan"
	"photodedup/internal/storage"
)

var exactOnly bool

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Scan a folder for duplicate images",
	Long: `Scan a folder recursively for images and detect duplicates.

The scan will:
1. Find all supported images (jpg, png, gif, webp, etc.)
2. Compute perceptual hashes for each image
3. Group similar images by chained hash distance
4. Store results in the database for later use

A previous run's _duplicates_trash folder is excluded from the scan.

Example:
  photodedup scan ./photos
  photodedup scan /path/to/images --threshold 5
  photodedup scan ./photos --exact        # byte-identical files only`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&exactOnly, "exact", false, "Group byte-identical files instead of similar images")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	absFolder, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absFolder)
	if err != nil {
		return fmt.Errorf("folder not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absFolder)
	}

	logger.Info("scanning", "folder", absFolder, "threshold", threshold, "workers", workers)

	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	s := scan.NewScanner(
		scan.WithWorkers(workers),
		scan.WithExtensions(viper.GetStringSlice("extensions")),
		scan.WithProgress(newProgress("hashing")),
	)

	res, err := s.ScanFolder(cmd.Context(), absFolder)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if res.Skipped > 0 {
		logger.Warn("some files could not be hashed", "skipped", res.Skipped)
	}
	if len(res.Images) == 0 {
		fmt.Println("No images found.")
		return nil
	}

	groups, err := findGroups(res.Images)
	if err != nil {
		return err
	}

	if err := store.SaveImages(res.Images); err != nil {
		return fmt.Errorf("failed to save images: %w", err)
	}
	if err := store.ReplaceGroups(groups); err != nil {
		return fmt.Errorf("failed to update groups: %w", err)
	}

	totalDuplicates := 0
	for _, group := range groups {
		totalDuplicates += len(group.Remove)
	}
	if err := store.RecordScan(absFolder, len(res.Images), res.Skipped, len(groups), totalDuplicates); err != nil {
		logger.Warn("failed to record scan history", "err", err)
	}

	fmt.Println()
	fmt.Println("=== Scan Complete ===")
	fmt.Printf("Total images:     %d\n", len(res.Images))
	fmt.Printf("Unreadable files: %d\n", res.Skipped)
	fmt.Printf("Duplicate groups: %d\n", len(groups))
	fmt.Printf("Duplicates found: %d\n", totalDuplicates)

	if len(groups) > 0 {
		fmt.Println()
		fmt.Println("Run 'photodedup list' to see duplicate groups")
		fmt.Println("Run 'photodedup dedupe --dry-run' to preview the quarantine move")
	}

	return nil
}

// findGroups clusters the hashed images with the configured matcher.
func findGroups(images []*models.ImageInfo) ([]*models.DuplicateGroup, error) {
	if !exactOnly {
		return match.NewPerceptualMatcher(threshold).FindGroups(images), nil
	}

	// Exact matching compares full file contents, not fingerprints
	for _, img := range images {
		fh, err := imghash.FileSHA256(img.Path)
		if err != nil {
			logger.Warn("failed to hash file contents", "path", img.Path, "err", err)
			continue
		}
		img.FileHash = fh
	}
	return match.NewExactMatcher().FindGroups(images), nil
}
