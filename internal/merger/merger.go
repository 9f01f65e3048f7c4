// Package merger combines normalized statement datasets into one unified
// dataset: optional account validation, exact-duplicate collapsing with
// first occurrence winning, and a deterministic sort order.
package merger

import (
	"fmt"
	"sort"

	"golang-consolidation-service/internal/accounts"
	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

// Dataset is one input to a merge: the records of one account, already in
// canonical form.
type Dataset struct {
	Owner     string
	AccountID string
	Bank      models.Bank
	Records   []*models.CanonicalRecord
}

// MergeConfig holds configuration options for merging.
type MergeConfig struct {
	// KeepDuplicates disables exact-duplicate collapsing.
	KeepDuplicates bool
	// ValidateAccounts rejects datasets whose owner and account pair is
	// not in the registry. Requires Registry.
	ValidateAccounts bool
	Registry         *accounts.Registry
	Logger           logger.Logger
}

// DefaultMergeConfig returns the default merge configuration.
func DefaultMergeConfig() *MergeConfig {
	return &MergeConfig{
		Logger: logger.GetGlobalLogger(),
	}
}

// Validate validates the merge configuration.
func (c *MergeConfig) Validate() error {
	if c.ValidateAccounts && c.Registry == nil {
		return fmt.Errorf("account validation requires an account registry")
	}
	return nil
}

// MergeStats summarizes one merge.
type MergeStats struct {
	Datasets          int `json:"datasets"`
	InputRecords      int `json:"input_records"`
	OutputRecords     int `json:"output_records"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	Conflicts         int `json:"conflicts"`
	ZeroAmountRecords int `json:"zero_amount_records"`
}

// Merger combines datasets into a unified dataset.
type Merger struct {
	config *MergeConfig
	logger logger.Logger
}

// NewMerger creates a merger. A nil config uses defaults.
func NewMerger(config *MergeConfig) (*Merger, error) {
	if config == nil {
		config = DefaultMergeConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid merge configuration: %w", err)
	}
	log := config.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Merger{config: config, logger: log.WithComponent("merger")}, nil
}

// Merge combines the datasets. Input order decides which of two exact
// duplicates survives, so merging is idempotent and, for duplicate-free
// inputs, insensitive to dataset order.
func (m *Merger) Merge(datasets []*Dataset) (*models.UnifiedDataset, *MergeStats, error) {
	stats := &MergeStats{Datasets: len(datasets)}

	if err := m.validateInputs(datasets); err != nil {
		return nil, nil, err
	}

	index := NewRecordIndex()
	var merged []*models.CanonicalRecord

	for _, ds := range datasets {
		for _, record := range ds.Records {
			stats.InputRecords++
			if record.ZeroAmount {
				stats.ZeroAmountRecords++
			}

			if !m.config.KeepDuplicates {
				if first := index.Insert(record); first != nil {
					stats.DuplicatesRemoved++
					continue
				}
			}
			merged = append(merged, record)
		}
	}

	sortRecords(merged)

	if !m.config.KeepDuplicates {
		stats.Conflicts = index.Conflicts()
	}
	stats.OutputRecords = len(merged)

	m.logger.WithFields(logger.Fields{
		"datasets":   stats.Datasets,
		"input":      stats.InputRecords,
		"output":     stats.OutputRecords,
		"duplicates": stats.DuplicatesRemoved,
		"conflicts":  stats.Conflicts,
	}).Info("Merged statement datasets")

	return &models.UnifiedDataset{Records: merged}, stats, nil
}

// validateInputs checks dataset identity against the registry and every
// record against the canonical invariants. Normalized inputs always pass;
// a failure here is a caller bug.
func (m *Merger) validateInputs(datasets []*Dataset) error {
	for _, ds := range datasets {
		if m.config.ValidateAccounts && !m.config.Registry.Contains(ds.Owner, ds.AccountID) {
			return apperrors.UnknownAccount(ds.Owner, ds.AccountID)
		}
		for _, record := range ds.Records {
			if err := record.Validate(); err != nil {
				return apperrors.MergeError(apperrors.CodeProcessingError,
					fmt.Sprintf("merge input validation for %s/%s", ds.Owner, ds.AccountID), err)
			}
		}
	}
	return nil
}

// sortRecords orders by owner, account and date, keeping input order as
// the tie-break.
func sortRecords(records []*models.CanonicalRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		return a.Date.Before(b.Date)
	})
}
