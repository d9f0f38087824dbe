// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the grayscaler CLI.
// The run subcommand drives the full extract → scan → grayscale pipeline;
// extract, scan and gray expose each stage on its own.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/grayscaler/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the grayscaler CLI.
var rootCmd = &cobra.Command{
	Use:   "grayscaler",
	Short: "Extract PNG images from a zip archive and convert them to grayscale",
	Long: `grayscaler decompresses a zip archive, finds the PNG images it contains and
writes a grayscale copy of each one (BT.709 luma, alpha preserved) to an output
directory.

Paths come from flags, GRAYSCALER_* environment variables or a grayscaler.yaml
config file. Every run is recorded in a local SQLite ledger; use the history
subcommand to inspect earlier runs.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./grayscaler.yaml or ~/.config/grayscaler/grayscaler.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", logging.FormatAuto, "log format: auto, text, json")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("grayscaler")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "grayscaler"))
		}
	}

	viper.SetEnvPrefix("GRAYSCALER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from the log.* settings.
func newLogger() (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
