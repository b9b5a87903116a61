package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"photodedup/internal/relocate"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <folder>",
	Short: "Move quarantined duplicates back to the scan root",
	Long: `Undo a previous dedupe by moving every file directly under
<folder>/_duplicates_trash back into <folder>.

Files whose original name is taken at the root are renamed with a
_restored suffix; nothing is ever overwritten.

Example:
  photodedup restore ./photos`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	restored, errs, err := relocate.Restore(root, newProgress("restoring"))
	if err != nil {
		return err
	}

	if len(restored) == 0 && len(errs) == 0 {
		fmt.Println("Nothing to restore: the quarantine folder is empty.")
		return nil
	}

	printBatchSummary(len(restored), errs)
	fmt.Printf("Restored into %s\n", root)

	return nil
}
