// Package data keeps the shared state of the long-running modes: the last
// conversion, success and failure counts and the overlapping-run guard.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/trialsites/interfaces"
)

// Compile-time check to ensure RunContainer implements RunStore
var _ interfaces.RunStore = (*RunContainer)(nil)

// RunContainer holds run state with atomic values so handlers never block on a conversion
type RunContainer struct {
	lastConversion atomic.Pointer[interfaces.ConversionSummary]
	lastSuccess    atomic.Value // time.Time
	succeeded      atomic.Int64
	failed         atomic.Int64
	running        atomic.Bool
	startTime      time.Time
}

// NewRunContainer creates an empty container started now
func NewRunContainer() *RunContainer {
	rc := &RunContainer{startTime: time.Now()}
	rc.lastSuccess.Store(time.Time{})
	return rc
}

// RecordConversion stores summary as the last conversion and updates the counters
func (rc *RunContainer) RecordConversion(summary interfaces.ConversionSummary) {
	if summary.At.IsZero() {
		summary.At = time.Now()
	}

	rc.lastConversion.Store(&summary)

	if summary.Err != nil {
		rc.failed.Add(1)
		return
	}
	rc.succeeded.Add(1)
	rc.lastSuccess.Store(summary.At)
}

// GetLastConversion returns the last recorded conversion, if any
func (rc *RunContainer) GetLastConversion() (interfaces.ConversionSummary, bool) {
	if last := rc.lastConversion.Load(); last != nil {
		return *last, true
	}
	return interfaces.ConversionSummary{}, false
}

// GetLastSuccess returns the time of the last successful conversion, zero if none
func (rc *RunContainer) GetLastSuccess() time.Time {
	if t, ok := rc.lastSuccess.Load().(time.Time); ok {
		return t
	}
	return time.Time{}
}

// GetConversionCount returns how many conversions succeeded and failed
func (rc *RunContainer) GetConversionCount() (succeeded, failed int64) {
	return rc.succeeded.Load(), rc.failed.Load()
}

// GetStartTime returns when the container was created
func (rc *RunContainer) GetStartTime() time.Time {
	return rc.startTime
}

// BeginRun marks the start of a conversion run.
// Returns true if the run can proceed, false if another run is in progress
func (rc *RunContainer) BeginRun() bool {
	return rc.running.CompareAndSwap(false, true)
}

// EndRun marks the end of a conversion run
func (rc *RunContainer) EndRun() {
	rc.running.Store(false)
}

// IsRunning returns true if a conversion run is in progress
func (rc *RunContainer) IsRunning() bool {
	return rc.running.Load()
}
