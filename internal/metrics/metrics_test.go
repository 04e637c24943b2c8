package metrics

import (
	"testing"
	"time"
)

type captureBackend struct {
	counters  map[string]float64
	durations map[string]time.Duration
}

func (c *captureBackend) IncCounter(name string, delta float64, _ Labels) {
	c.counters[name] += delta
}

func (c *captureBackend) ObserveDuration(name string, d time.Duration, _ Labels) {
	c.durations[name] = d
}

func (c *captureBackend) Flush() error { return nil }

func TestDefaultBackendIsSafe(t *testing.T) {
	// The nop backend must absorb calls before anything is configured.
	IncCounter(RecordsRead, 1, Labels{"source": "song_data"})
	ObserveDuration(StageDuration, time.Second, Labels{"stage": "run"})
	if err := Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
}

func TestSetBackendRoutesCalls(t *testing.T) {
	c := &captureBackend{
		counters:  map[string]float64{},
		durations: map[string]time.Duration{},
	}
	SetBackend(c)
	defer SetBackend(nopBackend{})

	IncCounter(RowsWritten, 5, Labels{"table": "songs"})
	IncCounter(RowsWritten, 3, Labels{"table": "artists"})
	ObserveDuration(StageDuration, 2*time.Second, Labels{"stage": "catalog"})

	if got := c.counters[RowsWritten]; got != 8 {
		t.Fatalf("counter = %v; want 8", got)
	}
	if got := c.durations[StageDuration]; got != 2*time.Second {
		t.Fatalf("duration = %v", got)
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	c := &captureBackend{counters: map[string]float64{}, durations: map[string]time.Duration{}}
	SetBackend(c)
	defer SetBackend(nopBackend{})

	SetBackend(nil)
	IncCounter(RecordsRead, 1, nil)
	if c.counters[RecordsRead] != 1 {
		t.Fatal("nil backend must not replace the active one")
	}
}
