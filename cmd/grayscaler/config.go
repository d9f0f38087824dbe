// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/grayscaler/pkg/types"
)

// Config keys. Nested keys map to GRAYSCALER_<SECTION>_<KEY> env variables.
const (
	keyArchive        = "archive"
	keyExtractDir     = "extract_dir"
	keyOutputDir      = "output_dir"
	keyPrefix         = "prefix"
	keyRecursive      = "scan.recursive"
	keyWorkers        = "transform.workers"
	keyHTTPTimeout    = "http.timeout"
	keyHTTPUserAgent  = "http.user_agent"
	keyHTTPMaxRetries = "http.max_retries"
	keyLedgerEnabled  = "ledger.enabled"
	keyLedgerPath     = "ledger.path"
	keySecretsDir     = "secrets_dir"
)

func init() {
	d := types.DefaultPipelineConfig()
	viper.SetDefault(keyArchive, d.Extract.Archive)
	viper.SetDefault(keyExtractDir, d.Extract.Dir)
	viper.SetDefault(keyOutputDir, d.Transform.OutputDir)
	viper.SetDefault(keyPrefix, d.Transform.Prefix)
	viper.SetDefault(keyRecursive, d.Scan.Recursive)
	viper.SetDefault(keyWorkers, d.Transform.Workers)
	viper.SetDefault(keyHTTPTimeout, d.Extract.Timeout)
	viper.SetDefault(keyHTTPUserAgent, d.Extract.UserAgent)
	viper.SetDefault(keyHTTPMaxRetries, d.Extract.MaxRetries)
	viper.SetDefault(keyLedgerEnabled, d.Ledger.Enabled)
	viper.SetDefault(keyLedgerPath, d.Ledger.Path)
	viper.SetDefault(keySecretsDir, types.DefaultSecretsDir)
}

// bindFlag ties a command flag to a config key so the flag, when set, wins
// over env and config file values.
func bindFlag(flags *pflag.FlagSet, key, flag string) {
	if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
		panic(err)
	}
}

// pipelineConfig assembles the pipeline configuration from viper.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Extract: types.ExtractConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:    viper.GetDuration(keyHTTPTimeout),
				UserAgent:  viper.GetString(keyHTTPUserAgent),
				MaxRetries: viper.GetInt(keyHTTPMaxRetries),
			},
			Archive: viper.GetString(keyArchive),
			Dir:     viper.GetString(keyExtractDir),
		},
		Scan: types.ScanConfig{
			Recursive: viper.GetBool(keyRecursive),
		},
		Transform: types.TransformConfig{
			OutputDir: viper.GetString(keyOutputDir),
			Prefix:    viper.GetString(keyPrefix),
			Workers:   viper.GetInt(keyWorkers),
		},
		Ledger: types.LedgerConfig{
			Enabled: viper.GetBool(keyLedgerEnabled),
			Path:    viper.GetString(keyLedgerPath),
		},
	}
}
