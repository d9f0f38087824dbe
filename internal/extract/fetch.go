// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/afero"

	"github.com/pdiddy/grayscaler/internal/httputil"
	"github.com/pdiddy/grayscaler/pkg/types"
)

// IsRemote reports whether source names an http(s) URL rather than a path.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch downloads the archive at source into a temporary file under dir and
// returns its path. The caller removes the file once extraction is done.
// Rate-limited responses are retried through httputil.DoWithRetry.
func Fetch(ctx context.Context, client *http.Client, fsys afero.Fs, source, dir string, cfg types.HTTPConfig) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", types.NewStageError(types.ErrExtraction, source, fmt.Errorf("creating request: %w", err))
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}
	req.Header.Set("Accept", "application/zip")

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return "", types.NewStageError(types.ErrExtraction, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", types.NewStageError(types.ErrExtraction, source, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", types.NewStageError(types.ErrDirectoryCreation, dir, err)
	}

	tmp, err := afero.TempFile(fsys, dir, ".fetch-*.zip")
	if err != nil {
		return "", types.NewStageError(types.ErrExtraction, dir, fmt.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, resp.Body)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, syncErr, closeErr); err != nil {
		fsys.Remove(tmpPath)
		return "", types.NewStageError(types.ErrExtraction, source, fmt.Errorf("writing download: %w", err))
	}

	return tmpPath, nil
}
