package cli

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSimpleProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(4)
	progress.Increment(false)
	progress.Increment(true)
	progress.Increment(false)
	progress.Increment(false)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Progress:") {
		t.Error("expected progress output to contain 'Progress:'")
	}
	if !strings.Contains(output, "100.0%") || !strings.Contains(output, "(4/4, 1 failed)") {
		t.Errorf("unexpected final state: %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("expected Finish to end the line")
	}
}

func TestSimpleProgress_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(0)
	progress.Increment(false)
	progress.Finish()

	if strings.Contains(buf.String(), "Progress:") {
		t.Error("nothing should render without a total")
	}
}

func TestSimpleProgress_Throttled(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)
	now := time.Unix(0, 0)
	progress.now = func() time.Time { return now }

	progress.Start(10)
	for i := 0; i < 5; i++ {
		progress.Increment(false)
	}
	if got := strings.Count(buf.String(), "Progress:"); got != 1 {
		t.Errorf("expected only the initial render, got %d", got)
	}

	now = now.Add(time.Second)
	progress.Increment(false)
	if got := strings.Count(buf.String(), "Progress:"); got != 2 {
		t.Errorf("expected a redraw after the interval, got %d", got)
	}
}

func TestSimpleProgress_Concurrent(t *testing.T) {
	progress := NewProgressReporter(&bytes.Buffer{})
	progress.Start(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				progress.Increment(j%2 == 0)
			}
		}()
	}
	wg.Wait()

	if progress.current != 100 || progress.failed != 50 {
		t.Errorf("expected 100 done and 50 failed, got %d and %d", progress.current, progress.failed)
	}
}
