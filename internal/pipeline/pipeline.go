// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the extract → scan → grayscale stages in order.
//
// The grayscale stage fans out one task per discovered image. A failing task
// does not cancel its siblings: every image is attempted, each failure is
// logged on its own, and the returned error joins all failures in scan order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/pdiddy/grayscaler/internal/extract"
	"github.com/pdiddy/grayscaler/internal/grayscale"
	"github.com/pdiddy/grayscaler/internal/logging"
	"github.com/pdiddy/grayscaler/internal/scan"
	"github.com/pdiddy/grayscaler/pkg/types"
)

// Recorder persists a finished run.
type Recorder interface {
	RecordRun(ctx context.Context, summary *types.RunSummary) error
}

// RecordError reports that a finished run could not be written to the
// Recorder. The run itself may have succeeded.
type RecordError struct {
	Err error
}

func (e *RecordError) Error() string { return "recording run: " + e.Err.Error() }

func (e *RecordError) Unwrap() error { return e.Err }

// Options carries the collaborators of a run. Every field is optional.
type Options struct {
	Logger   *slog.Logger
	Recorder Recorder

	// Client downloads remote archives. Nil builds one from the HTTP config.
	Client *http.Client
}

// Run executes the whole pipeline described by cfg against fsys. The summary
// is returned even when err is non-nil so callers can report partial
// progress; nothing already written is rolled back.
func Run(ctx context.Context, fsys afero.Fs, cfg types.PipelineConfig, opts Options) (*types.RunSummary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	summary := &types.RunSummary{
		ID:         uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		Archive:    cfg.Extract.Archive,
		ExtractDir: cfg.Extract.Dir,
		OutputDir:  cfg.Transform.OutputDir,
	}
	logger = logger.With("run_id", summary.ID)

	err := run(ctx, fsys, cfg, opts, logger, summary)
	summary.FinishedAt = time.Now().UTC()
	if err != nil {
		summary.Error = err.Error()
	}

	if opts.Recorder != nil {
		if recErr := opts.Recorder.RecordRun(context.WithoutCancel(ctx), summary); recErr != nil {
			logger.Error("recording run failed", "error", recErr)
			err = errors.Join(err, &RecordError{Err: recErr})
		}
	}

	if err != nil {
		logger.Error("pipeline failed",
			"found", summary.Found(),
			"converted", summary.Converted(),
			"failed", summary.Failed())
		return summary, err
	}
	logger.Info("all grayscale conversions complete",
		"converted", summary.Converted(),
		"duration", summary.Duration())
	return summary, nil
}

func run(ctx context.Context, fsys afero.Fs, cfg types.PipelineConfig, opts Options, logger *slog.Logger, summary *types.RunSummary) error {
	archive := cfg.Extract.Archive
	if extract.IsRemote(archive) {
		client := opts.Client
		if client == nil {
			client = &http.Client{Timeout: cfg.Extract.Timeout}
		}
		logger.Info("downloading archive", "url", archive)
		local, err := extract.Fetch(ctx, client, fsys, archive, filepath.Dir(cfg.Extract.Dir), cfg.Extract.HTTPConfig)
		if err != nil {
			logger.Error("download failed", "path", archive, "error", err)
			return err
		}
		defer fsys.Remove(local)
		archive = local
	}

	extracted, err := extract.Extract(fsys, archive, cfg.Extract.Dir)
	if err != nil {
		logger.Error("extraction failed", "path", types.FailedPath(err), "error", err)
		return err
	}
	summary.Extracted = len(extracted.Files)
	summary.ExtractedBytes = extracted.Bytes
	logger.Info("extraction complete", "dir", extracted.Dir, "files", len(extracted.Files), "bytes", extracted.Bytes)

	inputs, err := discover(fsys, cfg.Extract.Dir, cfg.Scan.Recursive)
	if err != nil {
		logger.Error("scan failed", "path", types.FailedPath(err), "error", err)
		return err
	}
	logger.Info("found png files", "count", len(inputs))

	if err := fsys.MkdirAll(cfg.Transform.OutputDir, 0o755); err != nil {
		err = types.NewStageError(types.ErrDirectoryCreation, cfg.Transform.OutputDir, err)
		logger.Error("creating output directory failed", "path", cfg.Transform.OutputDir, "error", err)
		return err
	}

	return transformAll(ctx, fsys, cfg, logger, inputs, summary)
}

func discover(fsys afero.Fs, dir string, recursive bool) ([]string, error) {
	if recursive {
		return scan.Walk(fsys, dir)
	}
	return scan.ListImages(fsys, dir)
}

// transformAll converts every input concurrently and waits for all of them.
func transformAll(ctx context.Context, fsys afero.Fs, cfg types.PipelineConfig, logger *slog.Logger, inputs []string, summary *types.RunSummary) error {
	summary.Files = make([]types.FileResult, len(inputs))
	errs := make([]error, len(inputs))

	p := pool.New()
	if cfg.Transform.Workers > 0 {
		p = p.WithMaxGoroutines(cfg.Transform.Workers)
	}

	for i, in := range inputs {
		out := OutputPath(cfg.Extract.Dir, cfg.Transform.OutputDir, cfg.Transform.Prefix, in)
		p.Go(func() {
			res := types.FileResult{Input: in, Output: out}
			err := ctx.Err()
			if err != nil {
				err = fmt.Errorf("%s: not started: %w", in, err)
			} else {
				var r *grayscale.Result
				if r, err = grayscale.ToGrayscale(fsys, in, out); err == nil {
					res.Width, res.Height = r.Width, r.Height
				}
			}

			if err != nil {
				res.Status = types.FileFailed
				res.Error = err.Error()
				errs[i] = err
				logger.Error("grayscale conversion failed", "path", in, "error", err)
			} else {
				res.Status = types.FileConverted
				logger.Debug("converted", "input", in, "output", out)
			}
			summary.Files[i] = res
		})
	}
	p.Wait()

	return errors.Join(errs...)
}

// OutputPath returns where the grayscale copy of input is written: the base
// name gets prefix, and input's directory relative to extractDir is mirrored
// under outputDir.
func OutputPath(extractDir, outputDir, prefix, input string) string {
	rel, err := filepath.Rel(extractDir, filepath.Dir(input))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = "."
	}
	return filepath.Join(outputDir, rel, prefix+filepath.Base(input))
}
