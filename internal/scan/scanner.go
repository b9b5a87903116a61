// Package scan walks a directory tree and fingerprints every recognized
// image with a pool of hashing workers.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"photodedup/internal/imghash"
	"photodedup/internal/models"
	"photodedup/internal/relocate"
)

// Scanner scans folders for images and computes hashes
type Scanner struct {
	hasher     *imghash.Hasher
	workers    int
	timeout    time.Duration
	extensions map[string]bool
	progressFn func(done, total int)
}

// Result holds the hashed images of one scan pass plus the number of
// files that could not be hashed (unreadable or corrupt images).
type Result struct {
	Images  []*models.ImageInfo
	Skipped int
}

// Option configures a Scanner
type Option func(*Scanner)

// WithWorkers sets the number of parallel hashing workers
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTimeout sets the timeout for hashing each image
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		s.timeout = d
	}
}

// WithProgress sets a progress callback, invoked after every file
// (hashed or skipped). done is monotonic and reaches total on completion.
func WithProgress(fn func(done, total int)) Option {
	return func(s *Scanner) {
		s.progressFn = fn
	}
}

// WithExtensions replaces the recognized image extension set
func WithExtensions(exts []string) Option {
	return func(s *Scanner) {
		if len(exts) > 0 {
			s.extensions = imghash.ExtensionSet(exts)
		}
	}
}

// NewScanner creates a new Scanner
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		hasher:     imghash.NewHasher(),
		workers:    8,
		timeout:    30 * time.Second,
		extensions: imghash.ExtensionSet(imghash.DefaultExtensions),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanFolder recursively collects image files under folder and hashes them.
// The quarantine folder left by previous runs is excluded from the walk.
// Hash failures are counted, not reported per file.
func (s *Scanner) ScanFolder(ctx context.Context, folder string) (*Result, error) {
	paths, err := s.collectPaths(folder)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return &Result{}, nil
	}

	var (
		results   []*models.ImageInfo
		resultsMu sync.Mutex
		wg        sync.WaitGroup
		done      int64
		skipped   int64
		total     = len(paths)
	)

	work := make(chan string, len(paths))
	for _, p := range paths {
		work <- p
	}
	close(work)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}

				info, err := s.hasher.HashImageWithTimeout(path, s.timeout)
				if err != nil {
					atomic.AddInt64(&skipped, 1)
				} else {
					resultsMu.Lock()
					results = append(results, info)
					resultsMu.Unlock()
				}

				n := atomic.AddInt64(&done, 1)
				if s.progressFn != nil {
					s.progressFn(int(n), total)
				}
			}
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Workers finish out of order; clustering wants a stable input
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return &Result{Images: results, Skipped: int(skipped)}, nil
}

// collectPaths walks the tree and returns every recognized image path.
func (s *Scanner) collectPaths(folder string) ([]string, error) {
	var (
		paths []string
		mu    sync.Mutex
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if d.Name() == relocate.TrashDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if imghash.IsSupportedImage(path, s.extensions) {
			mu.Lock()
			paths = append(paths, path)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk folder: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}
