// Package scheduler re-converts one registry export at fixed times of day
// and monitors that conversions keep succeeding.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/trialsites/converter"
	"github.com/giygas/trialsites/health"
	"github.com/giygas/trialsites/interfaces"
	"github.com/giygas/trialsites/logging"
	"github.com/go-co-op/gocron"
)

// DefaultTimes are the daily conversion times used when none are given
const DefaultTimes = "06:00;18:00"

const (
	monitorInterval = 1 * time.Hour
	staleAfter      = 25 * time.Hour
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// FileConverter converts an export file into a workbook file
type FileConverter interface {
	ConvertFile(inPath, outPath string, opts converter.Options) (*converter.Result, error)
}

// Job describes the file pair a scheduler keeps converting
type Job struct {
	Input   string
	Output  string
	Options converter.Options
	At      string // Semicolon separated HH:MM times, DefaultTimes when empty
}

// Scheduler handles periodic conversions and health monitoring using dependency injection
type Scheduler struct {
	runStore  interfaces.RunStore
	converter FileConverter
	job       Job
	scheduler *gocron.Scheduler
	stop      chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(runStore interfaces.RunStore, conv FileConverter, job Job) *Scheduler {
	if job.At == "" {
		job.At = DefaultTimes
	}

	return &Scheduler{
		runStore:  runStore,
		converter: conv,
		job:       job,
		scheduler: gocron.NewScheduler(time.Local),
		stop:      make(chan struct{}),
	}
}

// Start runs a first conversion, then schedules the following ones
func (s *Scheduler) Start() error {
	// Initial conversion
	if err := s.convert(); err != nil {
		logging.Error("Failed to perform initial conversion", "error", err)
		return fmt.Errorf("initial conversion failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.job.At).Do(func() {
		if err := s.convert(); err != nil {
			logging.Error("Scheduled conversion failed", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule conversions", "error", err, "at", s.job.At)
		return fmt.Errorf("failed to schedule conversions at %q: %w", s.job.At, err)
	}

	s.scheduler.StartAsync()

	if _, next := s.scheduler.NextRun(); !next.IsZero() {
		logging.Info("Next conversion scheduled", "at", next.Format(time.RFC3339))
	}

	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler and the health monitor
func (s *Scheduler) Stop() {
	select {
	case <-s.stop:
		return
	default:
		close(s.stop)
	}
	s.scheduler.Stop()
}

// NextRun returns the time of the next scheduled conversion, zero before Start
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

// convert performs one conversion and records it in the run store
func (s *Scheduler) convert() error {
	// Prevent overlapping conversions
	if !s.runStore.BeginRun() {
		logging.Info("Conversion already in progress, skipping...")
		return nil
	}
	defer s.runStore.EndRun()

	logging.Info(fmt.Sprintf("Starting conversion at: %s", time.Now().Format(time.RFC3339)))

	result, err := s.converter.ConvertFile(s.job.Input, s.job.Output, s.job.Options)

	summary := interfaces.ConversionSummary{
		Analysis: string(s.job.Options.Analysis),
		Err:      err,
		At:       time.Now(),
	}
	if result != nil {
		summary.Analysis = string(result.Analysis)
		summary.Studies = result.Studies
		summary.Locations = result.Locations
		summary.Rows = result.Rows
	}
	s.runStore.RecordConversion(summary)

	return err
}

// startHealthMonitoring warns when conversions stop succeeding
func (s *Scheduler) startHealthMonitoring() {
	checker := health.NewHealthChecker(s.runStore, staleAfter)

	go func() {
		ticker := time.NewTicker(monitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if status, details, _ := checker.HealthCheck(); status != "healthy" {
					logging.Warn("Scheduled conversions are not succeeding",
						"status", status,
						"last_success", details["last_success"],
						"last_error", details["last_error"],
					)
				}
			}
		}
	}()
}
