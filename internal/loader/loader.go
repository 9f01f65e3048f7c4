// Package loader turns a directory of statement files into normalized
// datasets ready for merging. It parses file names for owner, bank and
// financial year coverage, checks year continuity per account, and loads
// files concurrently.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"golang-consolidation-service/internal/accounts"
	"golang-consolidation-service/internal/merger"
	"golang-consolidation-service/internal/models"
	"golang-consolidation-service/internal/normalizer"
	"golang-consolidation-service/internal/parsers"
	"golang-consolidation-service/internal/readers"
	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

// LoadConfig holds configuration options for directory loading.
type LoadConfig struct {
	// MaxConcurrency caps how many files are loaded at once.
	MaxConcurrency int
	// CheckContinuity fails the load when an account's files leave a
	// financial year uncovered.
	CheckContinuity bool
	// Registry resolves account identifiers from owner and bank. Without
	// it accounts get synthetic identifiers.
	Registry *accounts.Registry
	Logger   logger.Logger
}

// DefaultLoadConfig returns the default load configuration.
func DefaultLoadConfig() *LoadConfig {
	return &LoadConfig{
		MaxConcurrency:  4,
		CheckContinuity: true,
		Logger:          logger.GetGlobalLogger(),
	}
}

// Validate validates the load configuration.
func (c *LoadConfig) Validate() error {
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", c.MaxConcurrency)
	}
	return nil
}

// FileResult is the outcome of loading one statement file.
type FileResult struct {
	File    *StatementFile        `json:"file"`
	Dataset *merger.Dataset       `json:"-"`
	Stats   *parsers.ParseStats   `json:"stats,omitempty"`
	Errors  []*apperrors.RowError `json:"errors,omitempty"`
	Err     error                 `json:"-"`
}

// LoadResult is the outcome of loading a directory.
type LoadResult struct {
	// BatchID tags every load run for log correlation.
	BatchID   string                `json:"batch_id"`
	Files     []*FileResult         `json:"files"`
	Datasets  []*merger.Dataset     `json:"-"`
	RowErrors []*apperrors.RowError `json:"row_errors,omitempty"`
}

// Records counts the normalized records across all datasets.
func (r *LoadResult) Records() int {
	n := 0
	for _, ds := range r.Datasets {
		n += len(ds.Records)
	}
	return n
}

// Loader loads statement directories.
type Loader struct {
	config     *LoadConfig
	parser     *parsers.StatementParser
	normalizer *normalizer.Normalizer
	logger     logger.Logger
}

// NewLoader creates a loader over the given parser and normalizer. A nil
// config uses defaults.
func NewLoader(parser *parsers.StatementParser, norm *normalizer.Normalizer, config *LoadConfig) (*Loader, error) {
	if config == nil {
		config = DefaultLoadConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid load configuration: %w", err)
	}
	if parser == nil {
		var err error
		parser, err = parsers.NewStatementParser(nil, nil)
		if err != nil {
			return nil, err
		}
	}
	if norm == nil {
		norm = normalizer.NewNormalizer(nil)
	}
	log := config.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Loader{
		config:     config,
		parser:     parser,
		normalizer: norm,
		logger:     log.WithComponent("loader"),
	}, nil
}

// ScanDirectory finds the statement files in a directory. Files with an
// unsupported extension or a name outside the conventions are skipped
// with a warning; a directory with no usable files is an error.
func (l *Loader) ScanDirectory(dir string) ([]*StatementFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.FileError(apperrors.CodeDirectoryError, dir, err)
	}

	var files []*StatementFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !readers.IsSupported(path) {
			continue
		}
		f, err := ParseStatementFileName(path)
		if err != nil {
			l.logger.WithField("file", entry.Name()).
				Warn("Skipping file outside the statement naming convention")
			continue
		}
		files = append(files, f)
	}

	if len(files) == 0 {
		return nil, apperrors.FileError(apperrors.CodeDirectoryError, dir, nil).
			WithSuggestion("name statement files <owner>_<bank>_<year>.<ext>")
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Load scans and loads a whole statement directory.
func (l *Loader) Load(ctx context.Context, dir string) (*LoadResult, error) {
	files, err := l.ScanDirectory(dir)
	if err != nil {
		return nil, err
	}
	if l.config.CheckContinuity {
		if err := CheckContinuity(files); err != nil {
			return nil, err
		}
	}
	return l.LoadFiles(ctx, files)
}

// LoadFiles loads the given statement files, at most MaxConcurrency at a
// time. File-level failures are reported per file, not as a load failure.
func (l *Loader) LoadFiles(ctx context.Context, files []*StatementFile) (*LoadResult, error) {
	result := &LoadResult{BatchID: uuid.NewString()}
	log := l.logger.WithField("batch_id", result.BatchID)
	log.WithField("files", len(files)).Info("Loading statement files")

	progress := logger.NewProgressTracker(log, "statement load", len(files))

	semaphore := make(chan struct{}, l.config.MaxConcurrency)
	results := make([]*FileResult, len(files))
	var wg sync.WaitGroup

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, apperrors.Wrap(err, apperrors.CategoryInternal,
				apperrors.CodeUnexpectedError, "statement load canceled")
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, apperrors.Wrap(ctx.Err(), apperrors.CategoryInternal,
				apperrors.CodeUnexpectedError, "statement load canceled")
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, f *StatementFile) {
			defer wg.Done()
			defer func() { <-semaphore }()

			fr := l.loadFile(f)
			results[i] = fr
			if fr.Err != nil {
				progress.IncrementError()
			} else {
				progress.Increment()
			}
		}(i, f)
	}
	wg.Wait()
	progress.Complete()

	for _, fr := range results {
		result.Files = append(result.Files, fr)
		if fr.Dataset != nil {
			result.Datasets = append(result.Datasets, fr.Dataset)
		}
		result.RowErrors = append(result.RowErrors, fr.Errors...)
	}

	log.WithFields(logger.Fields{
		"datasets":   len(result.Datasets),
		"records":    result.Records(),
		"row_errors": len(result.RowErrors),
	}).Info("Statement load finished")

	return result, nil
}

// loadFile reads, parses and normalizes one statement file.
func (l *Loader) loadFile(f *StatementFile) *FileResult {
	fr := &FileResult{File: f}

	rows, err := readers.ReadStatement(f.Path)
	if err != nil {
		fr.Err = err
		return fr
	}

	extracted, stats, err := l.parser.Parse(f.Name, f.Owner, f.Bank, rows)
	if err != nil {
		fr.Err = err
		return fr
	}
	fr.Stats = stats
	fr.Errors = append(fr.Errors, stats.Errors...)

	// The file name bank token is only a pre-detection hint; AUTO files
	// carry the bank the parser detected.
	bank := stats.Bank
	accountID := l.accountID(f.Owner, bank)
	records, rowErrs := l.normalizer.NormalizeAll(extracted, accountID)
	fr.Errors = append(fr.Errors, rowErrs...)

	fr.Dataset = &merger.Dataset{
		Owner:     f.Owner,
		AccountID: accountID,
		Bank:      bank,
		Records:   records,
	}
	return fr
}

// accountID resolves the account a file belongs to, falling back to a
// synthetic bank-plus-owner identifier when the registry has no entry.
func (l *Loader) accountID(owner string, bank models.Bank) string {
	if l.config.Registry != nil {
		if a, ok := l.config.Registry.ForBank(owner, bank); ok {
			return a.ID
		}
	}
	return bank.ShortCode() + "-" + owner
}

// Segregate splits records by the financial year their date falls in,
// for exporting a multi-year file as per-year statements. Keys come back
// sorted.
func Segregate(records []*models.CanonicalRecord) ([]models.FinancialYear, map[models.FinancialYear][]*models.CanonicalRecord) {
	byYear := make(map[models.FinancialYear][]*models.CanonicalRecord)
	for _, r := range records {
		fy := models.FinancialYearOf(r.Date)
		byYear[fy] = append(byYear[fy], r)
	}

	years := make([]models.FinancialYear, 0, len(byYear))
	for fy := range byYear {
		years = append(years, fy)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Compare(years[j]) < 0 })
	return years, byYear
}
