package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/hisrgb/internal/stream"
)

const barWidth = 30

// Progress reports how many rows of a band have been converted.
type Progress struct {
	mu      sync.Mutex
	out     io.Writer
	start   time.Time
	done    int
	rows    int
	enabled bool
	drawn   int // rows at last redraw, -1 before the first
}

// NewProgress returns a tracker for rows rows. When enabled it redraws a
// single status line on stderr.
func NewProgress(rows int, enabled bool) *Progress {
	return &Progress{
		out:     os.Stderr,
		start:   time.Now(),
		rows:    rows,
		enabled: enabled,
		drawn:   -1,
	}
}

// Callback returns the tracker as a stream.ProgressFunc.
func (p *Progress) Callback() stream.ProgressFunc {
	return p.Update
}

// Update records that completed of total rows are written. Redraws happen
// roughly every 2% of total, plus the first and last row.
func (p *Progress) Update(completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done, p.rows = completed, total
	if !p.enabled {
		return
	}
	if p.drawn < 0 || completed == total || completed-p.drawn >= redrawInterval(total) {
		p.drawLocked()
	}
}

// Done draws the final state and ends the status line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return
	}
	p.drawLocked()
	fmt.Fprintln(p.out)
}

// Summary describes the finished run for the log.
func (p *Progress) Summary() string {
	p.mu.Lock()
	done, rows, elapsed := p.done, p.rows, time.Since(p.start)
	p.mu.Unlock()

	return fmt.Sprintf("Converted %d/%d rows in %s (%.1f rows/sec)",
		done, rows, formatDuration(elapsed), rowsPerSecond(done, elapsed))
}

func (p *Progress) drawLocked() {
	p.drawn = p.done
	fmt.Fprint(p.out, statusLine(p.done, p.rows, time.Since(p.start)))
}

func redrawInterval(total int) int {
	return max(total/50, 1)
}

func rowsPerSecond(done int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(done) / elapsed.Seconds()
}

// statusLine renders "\r[####----] done/rows rows (pct%) - rate rows/sec - ETA".
func statusLine(done, rows int, elapsed time.Duration) string {
	frac := 1.0
	if rows > 0 {
		frac = float64(done) / float64(rows)
	}
	filled := int(frac * barWidth)

	var b strings.Builder
	b.WriteString("\r[")
	b.WriteString(strings.Repeat("#", filled))
	b.WriteString(strings.Repeat("-", barWidth-filled))
	fmt.Fprintf(&b, "] %d/%d rows (%3.0f%%)", done, rows, frac*100)

	rate := rowsPerSecond(done, elapsed)
	fmt.Fprintf(&b, " - %.1f rows/sec", rate)

	switch {
	case done >= rows:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(elapsed))
	case rate > 0:
		eta := time.Duration(float64(rows-done) / rate * float64(time.Second))
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}

	// clear leftovers of a longer previous line
	b.WriteString(strings.Repeat(" ", 10))
	return b.String()
}

// formatDuration renders d as "42s", "3m07s" or "1h05m".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
