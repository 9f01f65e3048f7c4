// Package config builds the component configurations the CLI commands run
// with, applying flag values on top of the library defaults.
package config

import (
	"fmt"
	"time"

	"golang-consolidation-service/internal/accounts"
	"golang-consolidation-service/internal/consolidator"
	"golang-consolidation-service/internal/loader"
	"golang-consolidation-service/internal/merger"
	"golang-consolidation-service/internal/reporter"
	"golang-consolidation-service/internal/securities"
)

// PipelineOptions carries the consolidate command's flag values.
type PipelineOptions struct {
	AccountsFile         string
	KeepDuplicates       bool
	SkipContinuityCheck  bool
	ContinueOnFileErrors bool
	Consolidated         bool
	MaxConcurrency       int
	Progress             consolidator.ProgressCallback
}

// CreatePipelineConfig builds the pipeline configuration for a run.
func CreatePipelineConfig(opts PipelineOptions) (*consolidator.PipelineConfig, error) {
	var registry *accounts.Registry
	if opts.AccountsFile != "" {
		var err error
		registry, err = accounts.Load(opts.AccountsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load accounts file: %w", err)
		}
	}

	loadConfig := loader.DefaultLoadConfig()
	loadConfig.Registry = registry
	loadConfig.CheckContinuity = !opts.SkipContinuityCheck
	if opts.MaxConcurrency > 0 {
		loadConfig.MaxConcurrency = opts.MaxConcurrency
	}

	mergeConfig := merger.DefaultMergeConfig()
	mergeConfig.KeepDuplicates = opts.KeepDuplicates
	if registry != nil {
		mergeConfig.Registry = registry
		mergeConfig.ValidateAccounts = true
	}

	return &consolidator.PipelineConfig{
		Load:                 loadConfig,
		Merge:                mergeConfig,
		Consolidated:         opts.Consolidated,
		ContinueOnFileErrors: opts.ContinueOnFileErrors,
		Progress:             opts.Progress,
	}, nil
}

// CreateReportConfig builds a report configuration for the output format.
func CreateReportConfig(format string) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		// row errors go to stderr so the CSV stays machine readable
		config.IncludeRowErrors = false
	default:
		return nil, fmt.Errorf("invalid output format '%s', valid formats: console, json, csv", format)
	}

	return config, nil
}

// CreateClientConfig builds the market data client configuration.
func CreateClientConfig(cacheDir string, disableCache bool, timeout time.Duration) *securities.ClientConfig {
	config := securities.DefaultClientConfig()
	config.CacheDir = cacheDir
	config.DisableCache = disableCache
	if timeout > 0 {
		config.Timeout = timeout
	}
	return config
}
