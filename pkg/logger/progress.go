package logger

import (
	"sync"
	"time"
)

// ProgressTracker reports progress of long-running batch work, such as
// loading a directory of statement files. Updates are logged at the
// configured interval rather than per item. Safe for concurrent use.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int
	processed   int
	errors      int
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// NewProgressTracker creates a tracker for an operation over total items.
func NewProgressTracker(logger Logger, operation string, total int) *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		logger:      logger.WithComponent("progress"),
		operation:   operation,
		total:       total,
		startTime:   now,
		lastLogTime: now,
		logInterval: 5 * time.Second,
	}
}

// SetLogInterval overrides how often intermediate progress is logged.
func (pt *ProgressTracker) SetLogInterval(interval time.Duration) {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.logInterval = interval
}

// Increment records one successfully processed item.
func (pt *ProgressTracker) Increment() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.processed++
	pt.maybeLog(false)
}

// IncrementError records one failed item.
func (pt *ProgressTracker) IncrementError() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.processed++
	pt.errors++
	pt.maybeLog(false)
}

// Complete logs the final progress summary.
func (pt *ProgressTracker) Complete() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.maybeLog(true)
}

func (pt *ProgressTracker) maybeLog(force bool) {
	now := time.Now()
	if !force && now.Sub(pt.lastLogTime) < pt.logInterval && pt.processed < pt.total {
		return
	}
	pt.lastLogTime = now

	elapsed := now.Sub(pt.startTime)
	fields := Fields{
		"operation": pt.operation,
		"processed": pt.processed,
		"total":     pt.total,
		"errors":    pt.errors,
		"elapsed":   elapsed.Round(time.Millisecond).String(),
	}
	if pt.total > 0 {
		fields["percent"] = pt.processed * 100 / pt.total
	}

	if force {
		pt.logger.WithFields(fields).Infof("%s complete", pt.operation)
	} else {
		pt.logger.WithFields(fields).Infof("%s in progress", pt.operation)
	}
}

// OperationLogger logs the lifecycle of a named pipeline step with timing.
type OperationLogger struct {
	logger    Logger
	operation string
	startTime time.Time
}

// StartOperation logs the start of an operation and returns its logger.
func StartOperation(logger Logger, operation string, fields Fields) *OperationLogger {
	ol := &OperationLogger{
		logger:    logger.WithField("operation", operation),
		operation: operation,
		startTime: time.Now(),
	}
	if fields != nil {
		ol.logger = ol.logger.WithFields(fields)
	}
	ol.logger.Infof("Starting %s", operation)
	return ol
}

// Success logs successful completion with the elapsed time.
func (ol *OperationLogger) Success(fields Fields) {
	l := ol.logger.WithField("duration", time.Since(ol.startTime).Round(time.Millisecond).String())
	if fields != nil {
		l = l.WithFields(fields)
	}
	l.Infof("Completed %s", ol.operation)
}

// Failure logs a failed completion with the elapsed time and error.
func (ol *OperationLogger) Failure(err error, fields Fields) {
	l := ol.logger.
		WithField("duration", time.Since(ol.startTime).Round(time.Millisecond).String()).
		WithError(err)
	if fields != nil {
		l = l.WithFields(fields)
	}
	l.Errorf("Failed %s", ol.operation)
}
