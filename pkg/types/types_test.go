// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStageError(t *testing.T) {
	err := NewStageError(ErrDecode, "unzipped/bad.png", errors.New("png: invalid format"))

	assert.Equal(t, "decode failed: unzipped/bad.png: png: invalid format", err.Error())
	assert.ErrorIs(t, err, ErrDecode)
	assert.NotErrorIs(t, err, ErrWrite)
	assert.Equal(t, "unzipped/bad.png", FailedPath(err))

	wrapped := fmt.Errorf("stage: %w", NewStageError(ErrListing, "unzipped", fs.ErrNotExist))
	assert.ErrorIs(t, wrapped, ErrListing)
	assert.ErrorIs(t, wrapped, fs.ErrNotExist)
	assert.Equal(t, "unzipped", FailedPath(wrapped))

	joined := errors.Join(nil, NewStageError(ErrWrite, "out/a.png", nil))
	assert.ErrorIs(t, joined, ErrWrite)
	assert.Equal(t, "write failed: out/a.png", joined.Error())

	assert.Empty(t, FailedPath(errors.New("plain")))
}

func TestRunSummaryCounts(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &RunSummary{
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Files: []FileResult{
			{Status: FileConverted},
			{Status: FileFailed},
			{Status: FileConverted},
		},
	}

	assert.Equal(t, 3, s.Found())
	assert.Equal(t, 2, s.Converted())
	assert.Equal(t, 1, s.Failed())
	assert.True(t, s.HasFailures())
	assert.Equal(t, 2*time.Second, s.Duration())

	ok := &RunSummary{Files: []FileResult{{Status: FileConverted}}}
	assert.False(t, ok.HasFailures())
	assert.Zero(t, ok.Duration())

	stageFailure := &RunSummary{Error: "extraction failed"}
	assert.True(t, stageFailure.HasFailures())
}

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.Equal(t, "myfile.zip", cfg.Extract.Archive)
	assert.Equal(t, "unzipped", cfg.Extract.Dir)
	assert.Equal(t, "grayscaled", cfg.Transform.OutputDir)
	assert.Equal(t, "gray_", cfg.Transform.Prefix)
	assert.Zero(t, cfg.Transform.Workers)
	assert.True(t, cfg.Ledger.Enabled)
}
