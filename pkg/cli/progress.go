package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running operations. It is
// safe for concurrent use.
type ProgressReporter interface {
	Start(total int64)
	Increment(failed bool)
	Finish()
}

// SimpleProgress renders a single-line progress bar with request counts
// and throughput.
type SimpleProgress struct {
	mu       sync.Mutex
	total    int64
	current  int64
	failed   int64
	started  time.Time
	rendered time.Time
	interval time.Duration
	writer   io.Writer
	now      func() time.Time
}

// NewProgressReporter creates a new progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) *SimpleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{
		writer:   w,
		interval: 100 * time.Millisecond,
		now:      time.Now,
	}
}

// Start initializes the progress reporter with the total number of items.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.failed = 0
	p.started = p.now()
	p.render()
}

// Increment counts one finished item. Redraws are throttled.
func (p *SimpleProgress) Increment(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	if failed {
		p.failed++
	}
	if p.now().Sub(p.rendered) >= p.interval {
		p.render()
	}
}

// Finish draws the final state and ends the line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.render()
	fmt.Fprintln(p.writer)
}

func (p *SimpleProgress) render() {
	if p.total <= 0 {
		return
	}
	p.rendered = p.now()

	done := min(p.current, p.total)
	percent := float64(done) / float64(p.total) * 100
	barWidth := 40
	filled := int(float64(barWidth) * percent / 100)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	rate := 0.0
	if elapsed := p.rendered.Sub(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	fmt.Fprintf(p.writer, "\rProgress: [%s] %.1f%% (%d/%d, %d failed) %.1f req/s",
		bar, percent, p.current, p.total, p.failed, rate)
}

var _ ProgressReporter = (*SimpleProgress)(nil)
