// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan finds PNG images in an extraction directory.
package scan

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/grayscaler/pkg/types"
)

const pngExt = ".png"

// IsPNG reports whether name has a .png extension, ignoring case.
func IsPNG(name string) bool {
	return strings.EqualFold(filepath.Ext(name), pngExt)
}

// ListImages returns the full paths of the direct entries of dir that are
// PNG files. Order follows the directory listing. Subdirectories are not
// descended into, even if their names end in .png.
func ListImages(fsys afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, types.NewStageError(types.ErrListing, dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsPNG(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// Walk is the recursive form of ListImages: it returns every PNG file under
// dir in lexical walk order.
func Walk(fsys afero.Fs, dir string) ([]string, error) {
	var paths []string
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsPNG(info.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, types.NewStageError(types.ErrListing, dir, err)
	}
	return paths, nil
}
