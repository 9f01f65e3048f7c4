package consolidator

import (
	"time"

	"golang-consolidation-service/internal/loader"
	"golang-consolidation-service/internal/merger"
	"golang-consolidation-service/internal/models"
	"golang-consolidation-service/internal/reporter"
	apperrors "golang-consolidation-service/pkg/errors"
)

// Result is the outcome of one pipeline run.
type Result struct {
	BatchID string `json:"batch_id"`

	// Dataset is the merged, ordered unified dataset.
	Dataset *models.UnifiedDataset `json:"dataset"`
	// Consolidated is the single-statement view, when requested.
	Consolidated []*models.CanonicalRecord `json:"consolidated,omitempty"`

	MergeStats *merger.MergeStats    `json:"merge_stats"`
	Files      []*loader.FileResult  `json:"files"`
	RowErrors  []*apperrors.RowError `json:"row_errors,omitempty"`

	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
}

// FilesLoaded counts the files that produced a dataset.
func (r *Result) FilesLoaded() int {
	n := 0
	for _, fr := range r.Files {
		if fr.Err == nil {
			n++
		}
	}
	return n
}

// HasRowErrors reports whether any row failed parsing or normalization.
func (r *Result) HasRowErrors() bool {
	return len(r.RowErrors) > 0
}

// Report converts the result into reporter input. The consolidated view
// is reported when present, the unified dataset otherwise.
func (r *Result) Report() *reporter.Report {
	records := r.Dataset.Records
	if len(r.Consolidated) > 0 {
		records = r.Consolidated
	}
	return &reporter.Report{
		GeneratedAt: r.CompletedAt,
		BatchID:     r.BatchID,
		FilesLoaded: r.FilesLoaded(),
		Merge:       r.MergeStats,
		Records:     records,
		RowErrors:   r.RowErrors,
	}
}
