// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run holds the output directory lock.
var ErrLocked = errors.New("another grayscaler run is using this output directory")

// LockPath returns the lock file guarding outputDir. It sits beside the
// directory so the directory itself only ever holds converted images.
func LockPath(outputDir string) string {
	return filepath.Clean(outputDir) + ".lock"
}

// AcquireLock takes the exclusive lock for outputDir without blocking.
// The caller releases it with Unlock.
func AcquireLock(outputDir string) (*flock.Flock, error) {
	path := LockPath(outputDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return lock, nil
}
