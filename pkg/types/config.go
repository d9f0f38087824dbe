// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Default locations used when no configuration overrides them.
const (
	DefaultArchive    = "myfile.zip"
	DefaultExtractDir = "unzipped"
	DefaultOutputDir  = "grayscaled"
	DefaultPrefix     = "gray_"
	DefaultLedgerPath = ".grayscaler/ledger.db"
	DefaultSecretsDir = ".grayscaler/secrets"
)

// HTTPConfig holds settings used when the archive source is an http(s) URL.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with archive downloads.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on 429/503 responses (0 = default).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Token, when set, is sent as a bearer token. It is loaded from the
	// secrets directory and never serialized.
	Token string `json:"-" yaml:"-"`
}

// ExtractConfig holds settings for the extraction stage.
type ExtractConfig struct {
	HTTPConfig `yaml:",inline"`

	// Archive is the path (or http(s) URL) of the zip archive to extract.
	Archive string `json:"archive" yaml:"archive"`

	// Dir is the exact directory that receives the archive's entries.
	Dir string `json:"extract_dir" yaml:"extract_dir"`
}

// ScanConfig holds settings for the scan stage.
type ScanConfig struct {
	// Recursive walks subdirectories of the extraction directory instead of
	// listing only its direct entries.
	Recursive bool `json:"recursive" yaml:"recursive"`
}

// TransformConfig holds settings for the grayscale stage.
type TransformConfig struct {
	// OutputDir receives the grayscale images.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Prefix is prepended to each source base name (e.g. "gray_").
	Prefix string `json:"prefix" yaml:"prefix"`

	// Workers caps concurrent transforms; 0 runs one goroutine per image.
	Workers int `json:"workers" yaml:"workers"`
}

// LedgerConfig holds settings for the run ledger.
type LedgerConfig struct {
	// Enabled controls whether runs are recorded.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Extract   ExtractConfig   `json:"extract" yaml:"extract"`
	Scan      ScanConfig      `json:"scan" yaml:"scan"`
	Transform TransformConfig `json:"transform" yaml:"transform"`
	Ledger    LedgerConfig    `json:"ledger" yaml:"ledger"`
}

// DefaultPipelineConfig returns the configuration used when nothing is set.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Extract: ExtractConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "grayscaler/0.1",
			},
			Archive: DefaultArchive,
			Dir:     DefaultExtractDir,
		},
		Transform: TransformConfig{
			OutputDir: DefaultOutputDir,
			Prefix:    DefaultPrefix,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    DefaultLedgerPath,
		},
	}
}
