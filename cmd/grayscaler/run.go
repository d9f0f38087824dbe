// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/grayscaler/internal/extract"
	"github.com/pdiddy/grayscaler/internal/ledger"
	"github.com/pdiddy/grayscaler/internal/pipeline"
	"github.com/pdiddy/grayscaler/internal/secrets"
	"github.com/pdiddy/grayscaler/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract an archive and convert every PNG in it to grayscale",
	Long: `Run extracts the configured zip archive (a local path or an http(s) URL),
lists the PNG files at the top of the extraction directory (or the whole tree
with --recursive) and writes a grayscale copy of each one to the output
directory as <prefix><name>.

Every image is attempted even when another one fails; the command exits
non-zero if any stage or any image failed.`,
	Args: cobra.NoArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		bindFlag(flags, keyArchive, "archive")
		bindFlag(flags, keyExtractDir, "extract-dir")
		bindFlag(flags, keyOutputDir, "output-dir")
		bindFlag(flags, keyPrefix, "prefix")
		bindFlag(flags, keyWorkers, "workers")
		bindFlag(flags, keyRecursive, "recursive")
		bindFlag(flags, keyLedgerEnabled, "ledger")
		bindFlag(flags, keyLedgerPath, "ledger-path")
		bindFlag(flags, keySecretsDir, "secrets-dir")
	},
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("archive", types.DefaultArchive, "zip archive path or http(s) URL")
	runCmd.Flags().String("extract-dir", types.DefaultExtractDir, "directory that receives the archive contents")
	runCmd.Flags().String("output-dir", types.DefaultOutputDir, "directory for grayscale images")
	runCmd.Flags().String("prefix", types.DefaultPrefix, "prefix added to each output file name")
	runCmd.Flags().Int("workers", 0, "maximum concurrent conversions (0 = one per image)")
	runCmd.Flags().Bool("recursive", false, "also convert PNGs in subdirectories, mirroring their layout")
	runCmd.Flags().Bool("ledger", true, "record the run in the ledger")
	runCmd.Flags().String("ledger-path", types.DefaultLedgerPath, "ledger database file")
	runCmd.Flags().String("secrets-dir", types.DefaultSecretsDir, "directory holding credential files such as archive-token")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	cfg := pipelineConfig()
	fsys := afero.NewOsFs()

	if extract.IsRemote(cfg.Extract.Archive) {
		creds, err := secrets.Load(fsys, viper.GetString(keySecretsDir))
		if err != nil {
			return err
		}
		cfg.Extract.Token = creds[secrets.ArchiveToken]
	}

	lock, err := pipeline.AcquireLock(cfg.Transform.OutputDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	opts := pipeline.Options{Logger: logger}
	if cfg.Ledger.Enabled {
		store, err := ledger.NewStore(cfg.Ledger)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Recorder = store
	}

	summary, err := pipeline.Run(cmd.Context(), fsys, cfg, opts)
	printSummary(cmd.OutOrStdout(), summary)
	return runError(summary, err)
}

// runError condenses per-image failures into a count, which the summary
// already itemizes. A ledger failure is kept alongside it.
func runError(s *types.RunSummary, err error) error {
	if err == nil || s.Failed() == 0 {
		return err
	}
	failed := fmt.Errorf("%d of %d image(s) failed conversion", s.Failed(), s.Found())
	var recErr *pipeline.RecordError
	if errors.As(err, &recErr) {
		return errors.Join(failed, recErr)
	}
	return failed
}

func printSummary(w io.Writer, s *types.RunSummary) {
	fmt.Fprintf(w, "Extracted %d file(s) (%s) into %s\n",
		s.Extracted, humanize.Bytes(uint64(s.ExtractedBytes)), s.ExtractDir)
	for _, f := range s.Files {
		switch f.Status {
		case types.FileConverted:
			fmt.Fprintf(w, "converted: %s -> %s (%dx%d)\n", f.Input, f.Output, f.Width, f.Height)
		case types.FileFailed:
			fmt.Fprintf(w, "failed:    %s (%s)\n", f.Input, f.Error)
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed (total: %d) in %s [run %s]\n",
		s.Converted(), s.Failed(), s.Found(), s.Duration().Round(time.Millisecond), s.ID)
}
