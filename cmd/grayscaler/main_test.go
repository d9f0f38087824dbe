// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/grayscaler/internal/ledger"
	"github.com/pdiddy/grayscaler/internal/pipeline"
	"github.com/pdiddy/grayscaler/pkg/types"
)

func TestPrintSummary(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &types.RunSummary{
		ID:             "run-1",
		StartedAt:      start,
		FinishedAt:     start.Add(1500 * time.Millisecond),
		ExtractDir:     "unzipped",
		Extracted:      3,
		ExtractedBytes: 1536,
		Files: []types.FileResult{
			{Input: "unzipped/a.png", Output: "grayscaled/gray_a.png", Status: types.FileConverted, Width: 4, Height: 2},
			{Input: "unzipped/b.png", Output: "grayscaled/gray_b.png", Status: types.FileFailed, Error: "decode: unzipped/b.png: bad"},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "Extracted 3 file(s) (1.5 kB) into unzipped")
	assert.Contains(t, out, "converted: unzipped/a.png -> grayscaled/gray_a.png (4x2)")
	assert.Contains(t, out, "failed:    unzipped/b.png (decode: unzipped/b.png: bad)")
	assert.Contains(t, out, "Batch summary: 1 converted, 1 failed (total: 2) in 1.5s [run run-1]")
}

func TestRunError(t *testing.T) {
	failing := &types.RunSummary{Files: []types.FileResult{
		{Input: "a.png", Status: types.FileConverted},
		{Input: "b.png", Status: types.FileFailed},
	}}
	imageErr := errors.New("decode: b.png: bad")
	ledgerErr := errors.New("database is locked")

	t.Run("success", func(t *testing.T) {
		assert.NoError(t, runError(&types.RunSummary{}, nil))
	})

	t.Run("stage error passes through", func(t *testing.T) {
		stageErr := errors.New("extraction: myfile.zip: missing")
		assert.Same(t, stageErr, runError(&types.RunSummary{}, stageErr))
	})

	t.Run("image failures are counted", func(t *testing.T) {
		err := runError(failing, imageErr)
		require.Error(t, err)
		assert.Equal(t, "1 of 2 image(s) failed conversion", err.Error())
	})

	t.Run("ledger failure is kept with image failures", func(t *testing.T) {
		err := runError(failing, errors.Join(imageErr, &pipeline.RecordError{Err: ledgerErr}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 image(s) failed conversion")
		assert.ErrorIs(t, err, ledgerErr)
		var recErr *pipeline.RecordError
		assert.ErrorAs(t, err, &recErr)
	})
}

func TestArgOr(t *testing.T) {
	args := []string{"a.zip", ""}
	assert.Equal(t, "a.zip", argOr(args, 0, "default"))
	assert.Equal(t, "default", argOr(args, 1, "default"))
	assert.Equal(t, "default", argOr(args, 2, "default"))
	assert.Equal(t, "default", argOr(nil, 0, "default"))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0190f3a1", shortID("0190f3a1-7b2c-4d5e-8f90-a1b2c3d4e5f6"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name string
		rec  ledger.RunRecord
		want string
	}{
		{"clean run", ledger.RunRecord{Found: 2, Converted: 2}, "ok"},
		{"image failures", ledger.RunRecord{Found: 2, Converted: 1, Failed: 1, Error: "x"}, "failed"},
		{"stage error before scan", ledger.RunRecord{Error: "extraction: myfile.zip: missing"}, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runStatus(tt.rec))
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Name", "Count"}, [][]string{{"alpha", "1"}, {"beta"}}, 1)
	require.NotEmpty(t, out)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
	assert.Equal(t, 6, strings.Count(out, "\n")+1, "top border, header, separator, two rows, bottom border")

	assert.Empty(t, renderTable(nil, [][]string{{"x"}}))
}
