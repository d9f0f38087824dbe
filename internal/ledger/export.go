// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/grayscaler/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes the newest runs (up to limit, 0 = all) with their file
// results to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, path string, limit int) error {
	runs, err := s.exportRuns(ctx, limit)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(runs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeExport(path, data)
}

// ExportJSON is ExportYAML with JSON output.
func (s *Store) ExportJSON(ctx context.Context, path string, limit int) error {
	runs, err := s.exportRuns(ctx, limit)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeExport(path, data)
}

func (s *Store) exportRuns(ctx context.Context, limit int) ([]*types.RunSummary, error) {
	if limit <= 0 {
		limit = exportLimit
	}
	records, err := s.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	runs := make([]*types.RunSummary, 0, len(records))
	for _, r := range records {
		summary, err := s.Run(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		runs = append(runs, summary)
	}
	return runs, nil
}

func writeExport(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
