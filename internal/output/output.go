// Package output places downloaded videos on disk.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Extension is appended to every job ID to form the output file name.
const Extension = ".mp4"

var (
	// ErrLocked reports that another process is already writing the file.
	ErrLocked = errors.New("output: file is being written by another process")

	// ErrInvalidID reports a job ID that cannot name a file inside the output
	// directory.
	ErrInvalidID = errors.New("invalid video id")
)

// ValidateID rejects IDs that are blank, are "." or "..", or contain a path
// separator. Only such IDs are safe to pass to Path.
func ValidateID(jobID string) error {
	switch {
	case strings.TrimSpace(jobID) == "", jobID == ".", jobID == "..":
		return ErrInvalidID
	case strings.ContainsAny(jobID, `/\`), filepath.Base(jobID) != jobID:
		return ErrInvalidID
	}
	return nil
}

// Path returns the destination for a job's video inside dir.
func Path(dir, jobID string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, jobID+Extension)
}

// File is an output file guarded by an advisory lock on "<path>.lock". Close
// unlocks but never unlinks the lock file.
type File struct {
	*os.File
	lock *flock.Flock
}

// Create opens path for writing, truncating any previous content. Parent
// directories are created as needed.
func Create(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("output path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open output: %w", err)
	}
	return &File{File: file, lock: lock}, nil
}

// Close closes the file and releases the lock.
func (f *File) Close() error {
	err := f.File.Close()
	_ = f.lock.Unlock()
	return err
}
