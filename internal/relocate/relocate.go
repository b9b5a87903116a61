// Package relocate moves or copies files without ever overwriting or
// losing data. A source file is removed only after its destination write
// is confirmed, and destination name collisions are resolved by suffixing,
// never by replacement.
package relocate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// TrashDirName is the reversible quarantine folder created inside the scan
// root. Restore only considers files directly under it, non-recursively,
// so the folder itself is the manifest of what can be restored.
const TrashDirName = "_duplicates_trash"

// maxNameAttempts bounds the collision-suffix search so a pathological
// destination directory cannot loop forever.
const maxNameAttempts = 10000

// ErrTooManyCollisions is returned when no free destination name is found
// within maxNameAttempts candidates.
var ErrTooManyCollisions = errors.New("too many naming collisions")

// FileError records a single file that failed to relocate. Batches collect
// these and keep going; one bad file never aborts the rest.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result maps destination folder names to the file names placed in them,
// alongside the per-file failures of the batch.
type Result struct {
	Folders map[string][]string
	Errors  []*FileError
}

// Succeeded returns the number of files relocated.
func (r *Result) Succeeded() int {
	n := 0
	for _, names := range r.Folders {
		n += len(names)
	}
	return n
}

// ToTrash moves paths into root/_duplicates_trash, creating the folder on
// first use. Collisions get numbered suffixes (photo_1.jpg, photo_2.jpg).
// progress may be nil; when set it is called after every file.
func ToTrash(paths []string, root string, progress func(done, total int)) *Result {
	result := &Result{Folders: make(map[string][]string)}
	trashDir := filepath.Join(root, TrashDirName)

	for i, src := range paths {
		name, err := relocateFile(src, trashDir, false, numberedDest)
		if err != nil {
			result.Errors = append(result.Errors, &FileError{Path: src, Err: err})
		} else {
			result.Folders[TrashDirName] = append(result.Folders[TrashDirName], name)
		}
		if progress != nil {
			progress(i+1, len(paths))
		}
	}

	return result
}

// Restore moves every regular file directly under root/_duplicates_trash
// back to root. Names already taken at the root get a _restored suffix,
// then numbered suffixes. Returns the restored file names and per-file
// failures; the error is non-nil only when the trash folder itself cannot
// be read.
func Restore(root string, progress func(done, total int)) ([]string, []*FileError, error) {
	trashDir := filepath.Join(root, TrashDirName)
	entries, err := os.ReadDir(trashDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read trash folder: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}

	var restored []string
	var errs []*FileError
	for i, name := range files {
		src := filepath.Join(trashDir, name)
		dest, err := restoreDest(root, name)
		if err == nil {
			err = MoveFile(src, dest)
		}
		if err != nil {
			errs = append(errs, &FileError{Path: src, Err: err})
		} else {
			restored = append(restored, filepath.Base(dest))
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}

	return restored, errs, nil
}

// RelocateTo moves (or copies) one file into destDir under its own base
// name, disambiguating collisions with numbered suffixes. It returns the
// final base name used.
func RelocateTo(src, destDir string, copyMode bool) (string, error) {
	return relocateFile(src, destDir, copyMode, numberedDest)
}

func relocateFile(src, destDir string, copyMode bool, namer func(dir, filename string) (string, error)) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	dest, err := namer(destDir, filepath.Base(src))
	if err != nil {
		return "", err
	}

	if copyMode {
		err = CopyFile(src, dest)
	} else {
		err = MoveFile(src, dest)
	}
	if err != nil {
		return "", err
	}
	return filepath.Base(dest), nil
}

// numberedDest returns a free destination path for filename in dir,
// appending _1, _2, ... until a free name is found.
func numberedDest(dir, filename string) (string, error) {
	if dest := filepath.Join(dir, filename); notExists(dest) {
		return dest, nil
	}

	ext := filepath.Ext(filename)
	base := filename[:len(filename)-len(ext)]
	for i := 1; i <= maxNameAttempts; i++ {
		dest := filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if notExists(dest) {
			return dest, nil
		}
	}
	return "", fmt.Errorf("%w for %s in %s", ErrTooManyCollisions, filename, dir)
}

// restoreDest is like numberedDest but marks restored collisions with a
// _restored suffix first, so a restore after a partial re-scan is visible.
func restoreDest(dir, filename string) (string, error) {
	if dest := filepath.Join(dir, filename); notExists(dest) {
		return dest, nil
	}

	ext := filepath.Ext(filename)
	base := filename[:len(filename)-len(ext)]
	if dest := filepath.Join(dir, base+"_restored"+ext); notExists(dest) {
		return dest, nil
	}
	for i := 1; i <= maxNameAttempts; i++ {
		dest := filepath.Join(dir, fmt.Sprintf("%s_restored_%d%s", base, i, ext))
		if notExists(dest) {
			return dest, nil
		}
	}
	return "", fmt.Errorf("%w for %s in %s", ErrTooManyCollisions, filename, dir)
}

func notExists(path string) bool {
	_, err := os.Lstat(path)
	return errors.Is(err, os.ErrNotExist)
}

// MoveFile moves src to dest. Rename is atomic on one filesystem; across
// filesystems it falls back to a verified copy, and the source is removed
// only after the copy is committed at dest.
func MoveFile(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if err := CopyFile(src, dest); err != nil {
			return err
		}
		return os.Remove(src)
	}

	return err
}

// CopyFile copies src to dest, preserving mode and modification time. The
// data goes to a temporary file in the destination directory first and is
// renamed into place only after the byte count matches the source, so dest
// never exists half-written.
func CopyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, in)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n != srcInfo.Size() {
		err = fmt.Errorf("short copy: wrote %d of %d bytes", n, srcInfo.Size())
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Chmod(tmpName, srcInfo.Mode()); err != nil {
		os.Remove(tmpName)
		return err
	}
	// Best effort, mtime is metadata not data
	_ = os.Chtimes(tmpName, srcInfo.ModTime(), srcInfo.ModTime())

	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
