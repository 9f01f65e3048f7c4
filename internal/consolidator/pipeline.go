// Package consolidator orchestrates the full consolidation pipeline: scan
// and load a statement directory, normalize every file, merge the datasets
// into one unified dataset, and optionally build the consolidated
// single-statement view.
package consolidator

import (
	"context"
	"fmt"
	"time"

	"golang-consolidation-service/internal/loader"
	"golang-consolidation-service/internal/merger"
	apperrors "golang-consolidation-service/pkg/errors"
	"golang-consolidation-service/pkg/logger"
)

// ProgressCallback receives pipeline progress updates.
type ProgressCallback func(stage string, percent int)

// PipelineConfig holds configuration options for the pipeline.
type PipelineConfig struct {
	Load  *loader.LoadConfig
	Merge *merger.MergeConfig
	// Consolidated additionally builds the single-statement view with
	// brought-forward rows and a recomputed running balance.
	Consolidated bool
	// ContinueOnFileErrors keeps going when individual files fail to
	// load, reporting them in the result instead of aborting.
	ContinueOnFileErrors bool
	Progress             ProgressCallback
	Logger               logger.Logger
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Load:   loader.DefaultLoadConfig(),
		Merge:  merger.DefaultMergeConfig(),
		Logger: logger.GetGlobalLogger(),
	}
}

// Pipeline runs the consolidation stages in order.
type Pipeline struct {
	config *PipelineConfig
	loader *loader.Loader
	merger *merger.Merger
	logger logger.Logger
}

// NewPipeline creates a pipeline. A nil config uses defaults.
func NewPipeline(config *PipelineConfig) (*Pipeline, error) {
	if config == nil {
		config = DefaultPipelineConfig()
	}

	l, err := loader.NewLoader(nil, nil, config.Load)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}
	m, err := merger.NewMerger(config.Merge)
	if err != nil {
		return nil, fmt.Errorf("failed to create merger: %w", err)
	}
	log := config.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Pipeline{
		config: config,
		loader: l,
		merger: m,
		logger: log.WithComponent("pipeline"),
	}, nil
}

// Run consolidates every statement file in the directory.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Result, error) {
	result := &Result{StartedAt: time.Now()}
	op := logger.StartOperation(p.logger, "consolidation", logger.Fields{"dir": dir})

	p.progress("load", 0)
	loadResult, err := p.loader.Load(ctx, dir)
	if err != nil {
		op.Failure(err, nil)
		return nil, err
	}
	result.BatchID = loadResult.BatchID
	result.Files = loadResult.Files
	result.RowErrors = loadResult.RowErrors

	if err := p.checkFileErrors(loadResult); err != nil {
		op.Failure(err, nil)
		return nil, err
	}
	p.progress("load", 60)

	dataset, stats, err := p.merger.Merge(loadResult.Datasets)
	if err != nil {
		op.Failure(err, nil)
		return nil, err
	}
	result.Dataset = dataset
	result.MergeStats = stats
	p.progress("merge", 85)

	if p.config.Consolidated {
		result.Consolidated = merger.Consolidate(dataset)
	}
	p.progress("consolidate", 100)

	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	op.Success(logger.Fields{
		"records":    dataset.Len(),
		"duplicates": stats.DuplicatesRemoved,
		"row_errors": len(result.RowErrors),
	})
	return result, nil
}

// checkFileErrors aborts on file-level failures unless configured to carry
// on with the files that did load.
func (p *Pipeline) checkFileErrors(loadResult *loader.LoadResult) error {
	var failed []*apperrors.ConsolidatorError
	for _, fr := range loadResult.Files {
		if fr.Err == nil {
			continue
		}
		cerr := apperrors.WrapIfNeeded(fr.Err, apperrors.CategoryFile,
			apperrors.CodeFileUnreadable, fr.File.Name)
		failed = append(failed, cerr)
		p.logger.WithError(fr.Err).WithField("file", fr.File.Name).Error("Statement file failed to load")
	}
	if len(failed) == 0 {
		return nil
	}
	if p.config.ContinueOnFileErrors {
		p.logger.WithField("failed_files", len(failed)).Warn("Continuing without the failed files")
		return nil
	}
	if len(failed) == 1 {
		return failed[0]
	}
	return apperrors.NewErrorSummary(failed)
}

func (p *Pipeline) progress(stage string, percent int) {
	if p.config.Progress != nil {
		p.config.Progress(stage, percent)
	}
}
