// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/grayscaler/internal/ledger"
	"github.com/pdiddy/grayscaler/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded pipeline runs",
	Long: `History lists runs recorded in the ledger, newest first, with their
image counts and outcome. Use "history show <run-id>" for per-image results
and "history export" to dump runs as YAML or JSON.`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		bindFlag(cmd.Flags(), keyLedgerPath, "ledger-path")
	},
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			humanize.Time(r.StartedAt),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			r.Archive,
			strconv.Itoa(r.Found),
			strconv.Itoa(r.Converted),
			strconv.Itoa(r.Failed),
			runStatus(r),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Started", "Duration", "Archive", "Found", "Converted", "Failed", "Status"},
		rows, 4, 5, 6))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the per-image results of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLedger()
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s (%s)\n", summary.ID, summary.StartedAt.Local().Format(time.RFC1123))
		fmt.Fprintf(out, "Archive: %s -> %s (%d file(s), %s)\n",
			summary.Archive, summary.ExtractDir, summary.Extracted, humanize.Bytes(uint64(summary.ExtractedBytes)))
		if summary.Error != "" {
			fmt.Fprintf(out, "Error: %s\n", summary.Error)
		}

		rows := make([][]string, 0, len(summary.Files))
		for _, f := range summary.Files {
			size := ""
			if f.Status == types.FileConverted {
				size = fmt.Sprintf("%dx%d", f.Width, f.Height)
			}
			rows = append(rows, []string{f.Input, f.Output, string(f.Status), size, f.Error})
		}
		fmt.Fprintln(out, renderTable([]string{"Input", "Output", "Status", "Size", "Error"}, rows, 3))
		return nil
	},
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs to YAML or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		path, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openLedger()
		if err != nil {
			return err
		}
		defer store.Close()

		switch format {
		case "yaml", "":
			if path == "" {
				path = "grayscaler-runs.yaml"
			}
			err = store.ExportYAML(cmd.Context(), path, limit)
		case "json":
			if path == "" {
				path = "grayscaler-runs.json"
			}
			err = store.ExportJSON(cmd.Context(), path, limit)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Exported to", path)
		return nil
	},
}

// --- shared helpers ---

func openLedger() (*ledger.Store, error) {
	return ledger.NewStore(types.LedgerConfig{
		Enabled: true,
		Path:    viper.GetString(keyLedgerPath),
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runStatus(r ledger.RunRecord) string {
	switch {
	case r.Succeeded():
		return "ok"
	case r.Found == 0 && r.Error != "":
		return "error"
	default:
		return "failed"
	}
}

func init() {
	historyCmd.PersistentFlags().String("ledger-path", types.DefaultLedgerPath, "ledger database file")

	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("out", "", "output file (default: grayscaler-runs.<format>)")
	historyExportCmd.Flags().Int("limit", 0, "maximum runs to export (0 = all)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
