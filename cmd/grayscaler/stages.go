// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/grayscaler/internal/extract"
	"github.com/pdiddy/grayscaler/internal/grayscale"
	"github.com/pdiddy/grayscaler/internal/scan"
)

// --- extract subcommand ---

var extractCmd = &cobra.Command{
	Use:   "extract [archive] [dir]",
	Short: "Extract a zip archive into a directory",
	Long: `Extract writes every entry of a local zip archive into dir, keeping the
archive's relative paths. Arguments default to the configured archive and
extract_dir.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive := argOr(args, 0, viper.GetString(keyArchive))
		dir := argOr(args, 1, viper.GetString(keyExtractDir))

		res, err := extract.Extract(afero.NewOsFs(), archive, dir)
		if err != nil {
			return err
		}
		for _, f := range res.Files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Extraction operation complete: %d file(s), %s\n",
			len(res.Files), humanize.Bytes(uint64(res.Bytes)))
		return nil
	},
}

// --- scan subcommand ---

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "List the PNG files in a directory",
	Long: `Scan prints the full path of every .png file (any letter case) directly
inside dir, one per line. With --recursive, subdirectories are included.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := argOr(args, 0, viper.GetString(keyExtractDir))
		recursive, _ := cmd.Flags().GetBool("recursive")

		list := scan.ListImages
		if recursive {
			list = scan.Walk
		}
		paths, err := list(afero.NewOsFs(), dir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

// --- gray subcommand ---

var grayCmd = &cobra.Command{
	Use:   "gray <input.png> <output.png>",
	Short: "Convert a single PNG to grayscale",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := grayscale.ToGrayscale(afero.NewOsFs(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "converted: %s -> %s (%dx%d)\n", res.Input, res.Output, res.Width, res.Height)
		return nil
	},
}

func argOr(args []string, i int, fallback string) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return fallback
}

func init() {
	scanCmd.Flags().Bool("recursive", false, "include PNGs in subdirectories")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(grayCmd)
}
