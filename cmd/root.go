package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dbPath    string
	threshold int
	workers   int
	logLevel  string

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
)

var rootCmd = &cobra.Command{
	Use:   "photodedup",
	Short: "Find duplicate photos and organize them by capture date",
	Long: `photodedup finds near-duplicate images and relocates photos safely.

It uses perceptual hashing to detect images that are similar even after
resizing or compression, groups them by chained similarity, and can move
duplicates into a reversible quarantine folder. It can also sort a folder
of photos into date buckets (year, month, week or day) read from EXIF.

Example usage:
  photodedup scan ./photos              # Scan a folder for duplicates
  photodedup list                       # List duplicate groups
  photodedup dedupe --dry-run           # Preview the quarantine move
  photodedup dedupe                     # Move duplicates to _duplicates_trash
  photodedup restore ./photos           # Undo a previous dedupe
  photodedup organize ./photos --period month`,
}

// Execute runs the CLI. Interrupts cancel the active command's context so
// a long scan stops between files, never mid-file.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".photodedup", "photodedup.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite database")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 8, "Hamming distance threshold (0-64, lower = stricter)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 8, "Number of parallel hashing workers")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("threshold", rootCmd.PersistentFlags().Lookup("threshold"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig merges flag defaults with ~/.photodedup.yaml and
// PHOTODEDUP_* environment variables.
func initConfig() {
	viper.SetConfigName(".photodedup")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("PHOTODEDUP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("loaded config file", "path", viper.ConfigFileUsed())
	}

	dbPath = viper.GetString("db")
	threshold = viper.GetInt("threshold")
	workers = viper.GetInt("workers")

	if lvl, err := log.ParseLevel(viper.GetString("log-level")); err == nil {
		logger.SetLevel(lvl)
	}
}

// progressGate serializes a (done, total) callback so it is safe to invoke
// from concurrent workers, and drops out-of-order updates so the wrapped
// sink only ever sees increasing done values.
func progressGate(sink func(done, total int)) func(done, total int) {
	var mu sync.Mutex
	var last int
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if done <= last {
			return
		}
		last = done
		sink(done, total)
	}
}

// newProgress returns a (done, total) callback backed by a terminal
// progress bar created on the first call, once the total is known.
// Scan drives the callback from its worker pool, so it must be
// goroutine-safe.
func newProgress(description string) func(done, total int) {
	var bar *progressbar.ProgressBar
	return progressGate(func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(description),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionSetWriter(os.Stderr),
			)
		}
		_ = bar.Set(done)
	})
}

// failurePreview bounds how many per-file errors are printed in batch
// summaries.
const failurePreview = 5
