package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang-consolidation-service/cmd/consolidator/config"
	"golang-consolidation-service/internal/consolidator"
	"golang-consolidation-service/internal/loader"
	"golang-consolidation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the consolidate command
var (
	accountsFile   string
	outputFormat   string
	outputFile     string
	segregateDir   string
	consolidated   bool
	keepDuplicates bool
	skipContinuity bool
	continueOnErr  bool
	maxConcurrency int
	showProgress   bool
)

// consolidateCmd represents the consolidate command
var consolidateCmd = &cobra.Command{
	Use:   "consolidate <statements-dir>",
	Short: "Merge bank statement files into one unified dataset",
	Long: `Consolidate loads every statement file in a directory, detects each
bank's export format, normalizes the rows into canonical records and merges
everything into one deduplicated, ordered dataset.

Statement files must be named <owner>_<bank>_<year>.<ext> or
<owner>_<bank>_<startyear>_<endyear>.<ext>, where the year is the starting
calendar year of a financial year (April to March).

Examples:
  # Consolidate a directory and print the report
  consolidator consolidate ./statements

  # Resolve account identifiers from an accounts file
  consolidator consolidate ./statements --accounts accounts.yaml

  # Export the unified dataset as CSV
  consolidator consolidate ./statements --output-format csv --output-file all.csv

  # Build the consolidated statement view with running balances
  consolidator consolidate ./statements --consolidated

  # Split the result into one CSV per financial year
  consolidator consolidate ./statements --segregate-dir ./by-year

  # Keep going when single files fail to load
  consolidator consolidate ./statements --continue-on-errors`,

	Args:    cobra.ExactArgs(1),
	PreRunE: validateConsolidateFlags,
	RunE:    runConsolidate,
}

func init() {
	rootCmd.AddCommand(consolidateCmd)

	consolidateCmd.Flags().StringVarP(&accountsFile, "accounts", "A", "", "path to the accounts YAML file")

	// Output flags
	consolidateCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	consolidateCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	consolidateCmd.Flags().StringVar(&segregateDir, "segregate-dir", "", "write one CSV per financial year into this directory")

	// Pipeline flags
	consolidateCmd.Flags().BoolVar(&consolidated, "consolidated", false, "rebuild the consolidated statement view with running balances")
	consolidateCmd.Flags().BoolVar(&keepDuplicates, "keep-duplicates", false, "keep records that appear in overlapping statements")
	consolidateCmd.Flags().BoolVar(&skipContinuity, "skip-continuity-check", false, "allow gaps in the financial years a file set covers")
	consolidateCmd.Flags().BoolVar(&continueOnErr, "continue-on-errors", false, "continue when individual files fail to load")
	consolidateCmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 4, "how many files to load at once")

	// UI flags
	consolidateCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	// Bind flags to viper
	viper.BindPFlag("accounts", consolidateCmd.Flags().Lookup("accounts"))
	viper.BindPFlag("output-format", consolidateCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", consolidateCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("segregate-dir", consolidateCmd.Flags().Lookup("segregate-dir"))
	viper.BindPFlag("consolidated", consolidateCmd.Flags().Lookup("consolidated"))
	viper.BindPFlag("keep-duplicates", consolidateCmd.Flags().Lookup("keep-duplicates"))
	viper.BindPFlag("skip-continuity-check", consolidateCmd.Flags().Lookup("skip-continuity-check"))
	viper.BindPFlag("continue-on-errors", consolidateCmd.Flags().Lookup("continue-on-errors"))
	viper.BindPFlag("max-concurrency", consolidateCmd.Flags().Lookup("max-concurrency"))
	viper.BindPFlag("progress", consolidateCmd.Flags().Lookup("progress"))
}

func validateConsolidateFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	accountsFile = viper.GetString("accounts")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	segregateDir = viper.GetString("segregate-dir")
	consolidated = viper.GetBool("consolidated")
	keepDuplicates = viper.GetBool("keep-duplicates")
	skipContinuity = viper.GetBool("skip-continuity-check")
	continueOnErr = viper.GetBool("continue-on-errors")
	maxConcurrency = viper.GetInt("max-concurrency")
	showProgress = viper.GetBool("progress")

	dir := args[0]
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("statements directory does not exist: %s", dir)
	}
	if err != nil {
		return fmt.Errorf("error accessing statements directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("statements path is not a directory: %s", dir)
	}

	if accountsFile != "" {
		if _, err := os.Stat(accountsFile); os.IsNotExist(err) {
			return fmt.Errorf("accounts file does not exist: %s", accountsFile)
		}
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if maxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive")
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dir := args[0]

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting consolidation...\n")
		fmt.Fprintf(os.Stderr, "Statements directory: %s\n", dir)
		if accountsFile != "" {
			fmt.Fprintf(os.Stderr, "Accounts file: %s\n", accountsFile)
		}
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	opts := config.PipelineOptions{
		AccountsFile:         accountsFile,
		KeepDuplicates:       keepDuplicates,
		SkipContinuityCheck:  skipContinuity,
		ContinueOnFileErrors: continueOnErr,
		Consolidated:         consolidated,
		MaxConcurrency:       maxConcurrency,
	}
	if showProgress {
		opts.Progress = func(stage string, percent int) {
			fmt.Fprintf(os.Stderr, "\r[%3d%%] %-12s", percent, stage)
		}
	}

	pipelineConfig, err := config.CreatePipelineConfig(opts)
	if err != nil {
		return err
	}

	pipeline, err := consolidator.NewPipeline(pipelineConfig)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	result, err := pipeline.Run(ctx, dir)
	if showProgress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	// Generate report
	reportConfig, err := config.CreateReportConfig(outputFormat)
	if err != nil {
		return err
	}
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	// Determine output destination
	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.Generate(result.Report(), output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// CSV output keeps the data stream clean, so failures go to stderr
	if outputFormat == "csv" && result.HasRowErrors() {
		if err := reporter.WriteRowErrorReport(result.RowErrors, os.Stderr); err != nil {
			return fmt.Errorf("failed to write row error report: %w", err)
		}
	}

	if segregateDir != "" {
		if err := writeSegregated(result, segregateDir); err != nil {
			return err
		}
	}

	// Show completion message
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nConsolidation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Loaded %d files into %d records.\n",
			result.FilesLoaded(), result.MergeStats.OutputRecords)
		fmt.Fprintf(os.Stderr, "Removed %d duplicates, found %d amount conflicts.\n",
			result.MergeStats.DuplicatesRemoved, result.MergeStats.Conflicts)
		if result.HasRowErrors() {
			fmt.Fprintf(os.Stderr, "Skipped %d unreadable rows.\n", len(result.RowErrors))
		}
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Duration)
	}

	return nil
}

// writeSegregated splits the merged records by financial year and writes
// one CSV per year into dir.
func writeSegregated(result *consolidator.Result, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create segregation directory: %w", err)
	}

	years, byYear := loader.Segregate(result.Dataset.Records)
	var written []string
	for _, fy := range years {
		name := fmt.Sprintf("consolidated_%s.csv", fy)
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := reporter.WriteRecordsCSV(f, byYear[fy], ',', true); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", path, err)
		}
		written = append(written, name)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Segregated %d financial years: %s\n",
			len(written), strings.Join(written, ", "))
	}
	return nil
}
