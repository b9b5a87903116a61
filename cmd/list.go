package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photodedup/internal/models"
	"photodedup/internal/storage"
)

var (
	listVerbose bool
	listSummary bool
	listLimit   int
	listOffset  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all duplicate groups",
	Long: `Display all detected duplicate groups with their images.

Each group shows:
- Group ID
- Images in the group with their quality scores
- Which image will be kept (highest score) marked with ✓
- Which images will be moved to quarantine marked with ✗

Example:
  photodedup list              # Show first 10 groups (default)
  photodedup list -n 0         # Show all groups
  photodedup list -s           # Summary view (compact)
  photodedup list --offset 10  # Groups 11-20`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "Show detailed image info")
	listCmd.Flags().BoolVarP(&listSummary, "summary", "s", false, "Show summary only (group counts and sizes)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "Limit number of groups to display (0 = all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Skip first N groups (for pagination)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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
		fmt.Println("Run 'photodedup scan <folder>' to scan for duplicates.")
		return nil
	}

	totalDuplicates := 0
	var totalSavings int64
	for _, group := range groups {
		for _, img := range group.Remove {
			totalDuplicates++
			totalSavings += img.FileSize
		}
	}

	fmt.Printf("Found %d duplicate groups (%d duplicates, %s reclaimable)\n\n",
		len(groups), totalDuplicates, humanize.IBytes(uint64(totalSavings)))

	totalGroups := len(groups)
	groups, startIdx := paginate(groups, listOffset, listLimit)

	if len(groups) == 0 {
		fmt.Printf("No groups in range (offset %d exceeds total %d)\n", listOffset, totalGroups)
	} else if listSummary {
		printSummaryTable(groups)
	} else {
		for _, group := range groups {
			printGroup(group, listVerbose)
		}
	}

	endIdx := startIdx + len(groups)
	if len(groups) > 0 {
		fmt.Printf("Showing groups %d-%d of %d\n", startIdx+1, endIdx, totalGroups)
		if endIdx < totalGroups {
			limitArg := ""
			if listLimit > 0 {
				limitArg = fmt.Sprintf(" -n %d", listLimit)
			}
			fmt.Printf("Next page: photodedup list%s --offset %d\n", limitArg, endIdx)
		}
	}

	fmt.Println()
	fmt.Println("Run 'photodedup dedupe --dry-run' to preview the quarantine move")
	fmt.Println("Run 'photodedup dedupe' to move duplicates to quarantine")

	return nil
}

// paginate returns the window of groups selected by offset and limit,
// along with the index of its first element. Out-of-range values clamp
// instead of failing.
func paginate(groups []*models.DuplicateGroup, offset, limit int) ([]*models.DuplicateGroup, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(groups) {
		offset = len(groups)
	}
	groups = groups[offset:]
	if limit > 0 && limit < len(groups) {
		groups = groups[:limit]
	}
	return groups, offset
}

func printSummaryTable(groups []*models.DuplicateGroup) {
	fmt.Printf("%-8s  %-8s  %-12s  %s\n", "Group", "Images", "Reclaimable", "Keep (best quality)")
	fmt.Println(strings.Repeat("-", 70))

	for _, group := range groups {
		var reclaimable int64
		for _, img := range group.Remove {
			reclaimable += img.FileSize
		}

		keepName := filepath.Base(group.Keep.Path)
		if len(keepName) > 35 {
			keepName = keepName[:32] + "..."
		}

		fmt.Printf("#%-7d  %-8d  %-12s  %s\n",
			group.ID, len(group.Images), humanize.IBytes(uint64(reclaimable)), keepName)
	}
	fmt.Println()
}

func printGroup(group *models.DuplicateGroup, verbose bool) {
	fmt.Printf("Group #%d (%d images)\n", group.ID, len(group.Images))
	fmt.Println(strings.Repeat("-", 60))

	for _, img := range group.Images {
		marker := "✗"
		if img.Path == group.Keep.Path {
			marker = "✓"
		}

		if verbose {
			fmt.Printf("  %s %s\n", marker, img.Path)
			fmt.Printf("      Resolution: %dx%d  Format: %s  Size: %s\n",
				img.Width, img.Height, strings.ToUpper(img.Format), humanize.IBytes(uint64(img.FileSize)))
			fmt.Printf("      Score: %.0f\n", img.Score)
		} else {
			fmt.Printf("  %s %-40s  %dx%d  %-4s  %8s  Score: %.0f\n",
				marker, shortenPath(img.Path, 40), img.Width, img.Height,
				strings.ToUpper(img.Format), humanize.IBytes(uint64(img.FileSize)), img.Score)
		}
	}
	fmt.Println()
}

func shortenPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	// Keep the filename and as much of the directory as fits
	dir, file := filepath.Split(path)
	if len(file) >= maxLen-3 {
		return "..." + file[len(file)-(maxLen-3):]
	}

	remaining := maxLen - len(file) - 4 // 4 for ".../"
	if remaining > 0 && len(dir) > remaining {
		dir = dir[len(dir)-remaining:]
	}
	return "..." + dir + file
}
