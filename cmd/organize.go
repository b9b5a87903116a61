package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"photodedup/internal/bucket"
	"photodedup/internal/organize"
)

var (
	organizeDest   string
	organizePeriod string
	organizeCopy   bool
)

var organizeCmd = &cobra.Command{
	Use:   "organize <source>",
	Short: "Sort photos into date-bucket folders",
	Long: `Sort the photos of a folder into subfolders derived from their EXIF
capture date.

Granularities: year (2024), month (2024-06), week (2024-W23, ISO weeks,
Monday start), day (2024-06-07). Photos without a readable capture date
go to the date_inconnue folder. Files whose name contains '.trashed' go
to _trash instead of a date bucket.

Only the direct files of <source> are considered, not subfolders.

Example:
  photodedup organize ./photos
  photodedup organize ./photos --period week --dest ./sorted
  photodedup organize ./photos --copy     # keep the originals in place`,
	Args: cobra.ExactArgs(1),
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().StringVar(&organizeDest, "dest", "", "Destination root (default: the source folder)")
	organizeCmd.Flags().StringVar(&organizePeriod, "period", "month", "Bucket granularity: year, month, week or day")
	organizeCmd.Flags().BoolVar(&organizeCopy, "copy", false, "Copy files instead of moving them")
	rootCmd.AddCommand(organizeCmd)
}

func runOrganize(cmd *cobra.Command, args []string) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	period, err := bucket.ParsePeriod(organizePeriod)
	if err != nil {
		return err
	}

	logger.Info("organizing", "source", source, "period", period, "copy", organizeCopy)

	o := organize.New(source,
		organize.WithDest(organizeDest),
		organize.WithPeriod(period),
		organize.WithCopy(organizeCopy),
		organize.WithExtensions(viper.GetStringSlice("extensions")),
		organize.WithProgress(newProgress("organizing")),
	)

	result, err := o.Run(cmd.Context())
	if err != nil {
		return err
	}

	if result.Succeeded() == 0 && len(result.Errors) == 0 {
		fmt.Println("No photos to organize.")
		return nil
	}

	folders := make([]string, 0, len(result.Folders))
	for folder := range result.Folders {
		folders = append(folders, folder)
	}
	sort.Strings(folders)

	fmt.Println()
	for _, folder := range folders {
		fmt.Printf("  %-20s %d file(s)\n", folder, len(result.Folders[folder]))
	}

	printBatchSummary(result.Succeeded(), result.Errors)

	return nil
}
