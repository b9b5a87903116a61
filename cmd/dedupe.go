package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photodedup/internal/models"
	"photodedup/internal/relocate"
	"photodedup/internal/storage"
)

var (
	dedupeDryRun  bool
	dedupeYes     bool
	dedupeRoot    string
	dedupeGroupID []int
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Move duplicate images to the quarantine folder",
	Long: `Move duplicate images into _duplicates_trash, keeping the highest
quality version of each group.

The move is reversible: 'photodedup restore <folder>' puts everything in
the quarantine folder back. Files are never overwritten; name collisions
inside the quarantine get numbered suffixes.

Options:
  --dry-run     Preview what would be moved without touching anything
  --yes         Skip confirmation prompt
  --root        Override the scan root (default: folder of the last scan)
  --group       Only process specific group IDs (repeatable)

Example:
  photodedup dedupe                       # Quarantine all duplicates
  photodedup dedupe --dry-run             # Preview only
  photodedup dedupe --group=1 --group=3   # Only groups 1 and 3`,
	RunE: runDedupe,
}

func init() {
	dedupeCmd.Flags().BoolVar(&dedupeDryRun, "dry-run", false, "Preview without moving")
	dedupeCmd.Flags().BoolVarP(&dedupeYes, "yes", "y", false, "Skip confirmation prompt")
	dedupeCmd.Flags().StringVar(&dedupeRoot, "root", "", "Scan root holding the quarantine folder")
	dedupeCmd.Flags().IntSliceVarP(&dedupeGroupID, "group", "g", nil, "Group IDs to process (can be specified multiple times)")
	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	groups, err := store.DuplicateGroups()
	if err != nil {
		return fmt.Errorf("failed to get groups: %w", err)
	}
	if len(groups) == 0 {
		fmt.Println("No duplicate groups found.")
		return nil
	}

	if len(dedupeGroupID) > 0 {
		groups = filterGroups(groups, dedupeGroupID)
		if len(groups) == 0 {
			fmt.Printf("No matching groups found for IDs: %v\n", dedupeGroupID)
			fmt.Println("Run 'photodedup list' to see available group IDs.")
			return nil
		}
		fmt.Printf("Processing %d selected group(s): %v\n\n", len(groups), dedupeGroupID)
	}

	root := dedupeRoot
	if root == "" {
		root, err = store.LastScanRoot()
		if err != nil {
			return fmt.Errorf("cannot determine scan root (use --root): %w", err)
		}
	}

	// Only files that still exist go into the batch
	var toRemove []string
	var totalSize int64
	sizes := make(map[string]int64)
	for _, group := range groups {
		for _, img := range group.Remove {
			if _, err := os.Stat(img.Path); err == nil {
				toRemove = append(toRemove, img.Path)
				sizes[img.Path] = img.FileSize
				totalSize += img.FileSize
			}
		}
	}

	if len(toRemove) == 0 {
		fmt.Println("No files to move (files may have been moved already).")
		return nil
	}

	fmt.Printf("Will move %d files (%s) to %s/%s\n\n",
		len(toRemove), humanize.IBytes(uint64(totalSize)), root, relocate.TrashDirName)

	if dedupeDryRun {
		fmt.Println("Files to be moved:")
		for _, path := range toRemove {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
		fmt.Println("(Dry run - no files were modified)")
		return nil
	}

	if !dedupeYes && !confirm(fmt.Sprintf("Move %d files to quarantine? [y/N]: ", len(toRemove))) {
		fmt.Println("Aborted.")
		return nil
	}

	result := relocate.ToTrash(toRemove, root, newProgress("moving"))

	// Drop successfully moved files from the database
	failed := make(map[string]bool, len(result.Errors))
	for _, fe := range result.Errors {
		failed[fe.Path] = true
	}
	for _, path := range toRemove {
		if !failed[path] {
			if err := store.DeleteImage(path); err != nil {
				logger.Warn("failed to prune database entry", "path", path, "err", err)
			}
		}
	}

	printBatchSummary(result.Succeeded(), result.Errors)
	fmt.Printf("Space reclaimed: %s\n", humanize.IBytes(uint64(movedBytes(toRemove, sizes, result.Errors))))
	fmt.Printf("Undo with: photodedup restore %s\n", root)

	return nil
}

// movedBytes sums the sizes of the batch files that were actually moved,
// leaving out the failures.
func movedBytes(paths []string, sizes map[string]int64, errs []*relocate.FileError) int64 {
	failed := make(map[string]bool, len(errs))
	for _, fe := range errs {
		failed[fe.Path] = true
	}

	var n int64
	for _, path := range paths {
		if !failed[path] {
			n += sizes[path]
		}
	}
	return n
}

func filterGroups(groups []*models.DuplicateGroup, ids []int) []*models.DuplicateGroup {
	idSet := make(map[int]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	var filtered []*models.DuplicateGroup
	for _, group := range groups {
		if idSet[group.ID] {
			filtered = append(filtered, group)
		}
	}
	return filtered
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// printBatchSummary reports per-file outcomes once at batch completion,
// with the failure list bounded to a preview.
func printBatchSummary(succeeded int, errs []*relocate.FileError) {
	fmt.Println()
	fmt.Printf("%d succeeded, %d failed\n", succeeded, len(errs))
	for i, fe := range errs {
		if i == failurePreview {
			fmt.Printf("  ... and %d more\n", len(errs)-failurePreview)
			break
		}
		fmt.Printf("  %v\n", fe)
	}
}
