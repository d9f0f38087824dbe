// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract unpacks a zip archive into an extraction directory.
// Each entry keeps its relative path inside the archive. Extraction reports
// success only after every written entry has been synced and closed.
package extract

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pdiddy/grayscaler/pkg/types"
)

// errUnsafeEntry marks archive entries that would land outside the
// extraction directory.
var errUnsafeEntry = errors.New("entry path escapes extraction directory")

// Result describes what an extraction wrote.
type Result struct {
	// Dir is the extraction directory.
	Dir string

	// Files lists written file paths in archive order.
	Files []string

	// Bytes is the total uncompressed size written.
	Bytes int64
}

// Extract decompresses the zip archive at sourcePath into destDir, creating
// destDir (and parents) if missing. The archive is opened before destDir is
// created, so a missing or unreadable archive leaves no directory behind.
func Extract(fsys afero.Fs, sourcePath, destDir string) (*Result, error) {
	f, err := fsys.Open(sourcePath)
	if err != nil {
		return nil, types.NewStageError(types.ErrExtraction, sourcePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, types.NewStageError(types.ErrExtraction, sourcePath, err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, types.NewStageError(types.ErrExtraction, sourcePath, err)
	}

	if err := fsys.MkdirAll(destDir, 0o755); err != nil {
		return nil, types.NewStageError(types.ErrDirectoryCreation, destDir, err)
	}

	res := &Result{Dir: destDir}
	for _, zf := range zr.File {
		target, err := entryPath(destDir, zf.Name)
		if err != nil {
			return nil, types.NewStageError(types.ErrExtraction, zf.Name, err)
		}

		if zf.FileInfo().IsDir() {
			if err := fsys.MkdirAll(target, 0o755); err != nil {
				return nil, types.NewStageError(types.ErrDirectoryCreation, target, err)
			}
			continue
		}

		parent := filepath.Dir(target)
		if err := fsys.MkdirAll(parent, 0o755); err != nil {
			return nil, types.NewStageError(types.ErrDirectoryCreation, parent, err)
		}

		n, err := writeEntry(fsys, zf, target)
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, target)
		res.Bytes += n
	}

	return res, nil
}

// entryPath resolves an archive entry name to a path under destDir.
func entryPath(destDir, name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", errUnsafeEntry, name)
	}
	return filepath.Join(destDir, rel), nil
}

// writeEntry copies one archive entry to target. The entry counts as written
// only once the sink has been synced and closed.
func writeEntry(fsys afero.Fs, zf *zip.File, target string) (int64, error) {
	rc, err := zf.Open()
	if err != nil {
		return 0, types.NewStageError(types.ErrExtraction, zf.Name, err)
	}
	defer rc.Close()

	out, err := fsys.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entryPerm(zf.Mode()))
	if err != nil {
		return 0, types.NewStageError(types.ErrExtraction, target, err)
	}

	n, copyErr := io.Copy(out, rc)
	syncErr := out.Sync()
	closeErr := out.Close()
	if err := errors.Join(copyErr, syncErr, closeErr); err != nil {
		return n, types.NewStageError(types.ErrExtraction, target, err)
	}
	return n, nil
}

func entryPerm(mode fs.FileMode) fs.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o644
	}
	// The owner must be able to rewrite the file on a later run.
	return perm | 0o600
}
