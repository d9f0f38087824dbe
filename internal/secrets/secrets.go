// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials that must stay out of grayscaler.yaml and
// the environment. They live in secrets_dir (default .grayscaler/secrets),
// one file per credential, so the ledger and exports never see them.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ArchiveToken names the file whose contents are sent as a bearer token when
// the archive is downloaded over http(s).
const ArchiveToken = "archive-token"

// Load maps each credential file in dir to its value with surrounding
// whitespace removed. Hidden files, subdirectories and blank files are
// ignored. A dir that does not exist yields no credentials. A file that
// cannot be read is logged and left out.
func Load(fsys afero.Fs, dir string) (map[string]string, error) {
	infos, err := afero.ReadDir(fsys, dir)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing credentials in %s: %w", dir, err)
	}

	creds := make(map[string]string, len(infos))
	for _, info := range infos {
		key := info.Name()
		if info.IsDir() || strings.HasPrefix(key, ".") {
			continue
		}
		value, err := readValue(fsys, filepath.Join(dir, key))
		if err != nil {
			slog.Warn("skipping unreadable credential", "path", filepath.Join(dir, key), "error", err)
			continue
		}
		if value != "" {
			creds[key] = value
		}
	}
	return creds, nil
}

func readValue(fsys afero.Fs, path string) (string, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
