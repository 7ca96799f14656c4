package data

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/trialsites/interfaces"
)

func TestRunContainer_Initial(t *testing.T) {
	rc := NewRunContainer()

	if _, ok := rc.GetLastConversion(); ok {
		t.Error("new container should have no conversion")
	}
	if !rc.GetLastSuccess().IsZero() {
		t.Error("last success should be zero")
	}
	if s, f := rc.GetConversionCount(); s != 0 || f != 0 {
		t.Errorf("counts = (%d, %d), want (0, 0)", s, f)
	}
	if rc.GetStartTime().IsZero() {
		t.Error("start time should be set")
	}
	if rc.IsRunning() {
		t.Error("new container should not be running")
	}
}

func TestRunContainer_RecordConversion(t *testing.T) {
	rc := NewRunContainer()

	at := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	rc.RecordConversion(interfaces.ConversionSummary{Analysis: "location-studies", Studies: 4, At: at})

	last, ok := rc.GetLastConversion()
	if !ok || last.Studies != 4 {
		t.Fatalf("GetLastConversion() = %+v, %v", last, ok)
	}
	if !rc.GetLastSuccess().Equal(at) {
		t.Errorf("last success = %v, want %v", rc.GetLastSuccess(), at)
	}

	rc.RecordConversion(interfaces.ConversionSummary{Err: errors.New("missing column")})

	last, _ = rc.GetLastConversion()
	if last.Err == nil {
		t.Error("last conversion should be the failed one")
	}
	if last.At.IsZero() {
		t.Error("missing timestamps should default to now")
	}
	if !rc.GetLastSuccess().Equal(at) {
		t.Error("a failure must not move the last success")
	}
	if s, f := rc.GetConversionCount(); s != 1 || f != 1 {
		t.Errorf("counts = (%d, %d), want (1, 1)", s, f)
	}
}

// ============================================================================
// CONCURRENCY TESTS
// ============================================================================

func TestRunContainer_BeginRunIsExclusive(t *testing.T) {
	rc := NewRunContainer()

	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rc.BeginRun() {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	if started.Load() != 1 {
		t.Errorf("%d runs started, want exactly 1", started.Load())
	}
	if !rc.IsRunning() {
		t.Error("container should be running")
	}

	rc.EndRun()
	if rc.IsRunning() {
		t.Error("container should be idle after EndRun")
	}
	if !rc.BeginRun() {
		t.Error("BeginRun should succeed after EndRun")
	}
}

func TestRunContainer_ConcurrentRecords(t *testing.T) {
	rc := NewRunContainer()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%4 == 0 {
				err = errors.New("failed")
			}
			rc.RecordConversion(interfaces.ConversionSummary{Studies: i, Err: err})
			rc.GetLastConversion()
			rc.GetLastSuccess()
		}(i)
	}
	wg.Wait()

	if s, f := rc.GetConversionCount(); s != 75 || f != 25 {
		t.Errorf("counts = (%d, %d), want (75, 25)", s, f)
	}
}
