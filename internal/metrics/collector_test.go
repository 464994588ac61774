package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTimingAggregates(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpJobStatus, 10*time.Millisecond, false)
	c.RecordTiming(OpJobStatus, 30*time.Millisecond, false)
	c.RecordTiming(OpJobStatus, 20*time.Millisecond, true)

	snap := c.Snapshot()
	s, ok := snap.Operations[OpJobStatus]
	if !ok {
		t.Fatal("expected job_status stats")
	}
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.Errors != 1 {
		t.Errorf("Errors = %d, want 1", s.Errors)
	}
	if s.MinTimeMs != 10 || s.MaxTimeMs != 30 {
		t.Errorf("min/max = %d/%d, want 10/30", s.MinTimeMs, s.MaxTimeMs)
	}
	if s.AvgTimeMs != 20 {
		t.Errorf("AvgTimeMs = %v, want 20", s.AvgTimeMs)
	}
}

func TestSnapshotOmitsUnrecordedOps(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpSubmit, time.Millisecond, false)

	snap := c.Snapshot()
	if len(snap.Operations) != 1 {
		t.Errorf("Operations = %d entries, want 1", len(snap.Operations))
	}
	if _, ok := snap.Operations[OpExport]; ok {
		t.Error("export should be absent without recordings")
	}
}

func TestConcurrentRecording(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpUpdateItem, time.Millisecond, false)
		}()
	}
	wg.Wait()

	if got := c.Snapshot().Operations[OpUpdateItem].Count; got != 50 {
		t.Errorf("Count = %d, want 50", got)
	}
}
