// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FileStatus indicates the outcome of converting one image.
type FileStatus string

const (
	FileConverted FileStatus = "converted"
	FileFailed    FileStatus = "failed"
)

// FileResult records the outcome for one discovered image.
type FileResult struct {
	// Input is the path of the source PNG under the extraction directory.
	Input string `json:"input" yaml:"input"`

	// Output is the path the grayscale PNG was (or would have been) written to.
	Output string `json:"output" yaml:"output"`

	Status FileStatus `json:"status" yaml:"status"`
	Width  int        `json:"width,omitempty" yaml:"width,omitempty"`
	Height int        `json:"height,omitempty" yaml:"height,omitempty"`

	// Error holds the failure message when Status is FileFailed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunSummary describes one pipeline run.
type RunSummary struct {
	// ID uniquely identifies the run.
	ID string `json:"id" yaml:"id"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Archive    string `json:"archive" yaml:"archive"`
	ExtractDir string `json:"extract_dir" yaml:"extract_dir"`
	OutputDir  string `json:"output_dir" yaml:"output_dir"`

	// Extracted counts files written by the extraction stage.
	Extracted      int   `json:"extracted" yaml:"extracted"`
	ExtractedBytes int64 `json:"extracted_bytes" yaml:"extracted_bytes"`

	Files []FileResult `json:"files" yaml:"files"`

	// Error holds the aggregate failure message, empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Found returns the number of images discovered by the scan stage.
func (s *RunSummary) Found() int {
	return len(s.Files)
}

// Converted returns the number of images written successfully.
func (s *RunSummary) Converted() int {
	n := 0
	for _, f := range s.Files {
		if f.Status == FileConverted {
			n++
		}
	}
	return n
}

// Failed returns the number of images that could not be converted.
func (s *RunSummary) Failed() int {
	return s.Found() - s.Converted()
}

// HasFailures reports whether the run failed at any stage.
func (s *RunSummary) HasFailures() bool {
	return s.Error != "" || s.Failed() > 0
}

// Duration returns the elapsed time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
