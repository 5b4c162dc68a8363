package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gitscribe/gitscribe/internal/domain"
	"github.com/gitscribe/gitscribe/internal/infra/fetch"
)

// ─── Progress Bar ───────────────────────────────────────────────────────────
// Renders download progress on stderr:
//   [=============>................]  45% | 512 MB / 1.1 GB | 44.1 MB/s | ETA 14s
// When the server reported no size, degrades to byte-count-only:
//   downloading qwen2.5-coder: 512 MB | 44.1 MB/s

const barWidth = 30 // Characters for the progress bar

type progressBar struct {
	model   string
	started time.Time
	active  bool // a live line is on screen and needs a trailing newline
}

func newProgressBar(model string) *progressBar {
	return &progressBar{model: model, started: time.Now()}
}

// callback is the fetch.ProgressFunc fed into the orchestrator.
func (p *progressBar) callback(ev fetch.Progress) {
	switch ev.Status {
	case "connecting":
		p.clearLine()
		fmt.Fprintf(os.Stderr, "downloading %s...", p.model)
		p.active = true
	case "done":
		p.clearLine()
		fmt.Fprintf(os.Stderr, "downloaded %s (%s)\n", p.model, domain.HumanSize(ev.Received))
		p.active = false
	default:
		p.render(ev)
		p.active = true
	}
}

// finish terminates a live progress line so later output starts clean.
func (p *progressBar) finish() {
	if p.active {
		fmt.Fprintln(os.Stderr)
		p.active = false
	}
}

func (p *progressBar) render(ev fetch.Progress) {
	p.clearLine()

	speed := formatSpeed(ev.BytesPerSec)

	if ev.Total <= 0 {
		// Size unknown — bytes and speed only.
		fmt.Fprintf(os.Stderr, "downloading %s: %s | %s",
			p.model, domain.HumanSize(ev.Received), speed)
		return
	}

	pct := float64(ev.Received) / float64(ev.Total) * 100
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	var bar string
	switch {
	case filled == barWidth:
		bar = strings.Repeat("=", barWidth)
	case filled > 0:
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", barWidth-filled)
	default:
		bar = strings.Repeat(".", barWidth)
	}

	fmt.Fprintf(os.Stderr, "[%s] %3.0f%% | %s / %s | %s | %s",
		bar, pct,
		domain.HumanSize(ev.Received), domain.HumanSize(ev.Total),
		speed, p.eta(ev))
}

// eta estimates remaining time from the average rate so far.
func (p *progressBar) eta(ev fetch.Progress) string {
	elapsed := time.Since(p.started).Seconds()
	if elapsed < 1 || ev.Received == 0 || ev.Total <= 0 {
		return "ETA --"
	}
	avg := float64(ev.Received) / elapsed
	remaining := float64(ev.Total-ev.Received) / avg
	if remaining < 0 {
		remaining = 0
	}

	switch {
	case remaining < 60:
		return fmt.Sprintf("ETA %ds", int(remaining))
	case remaining < 3600:
		return fmt.Sprintf("ETA %dm%ds", int(remaining)/60, int(remaining)%60)
	default:
		return fmt.Sprintf("ETA %dh%dm", int(remaining)/3600, (int(remaining)%3600)/60)
	}
}

func formatSpeed(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "-- MB/s"
	}
	return domain.HumanSize(int64(bytesPerSec)) + "/s"
}

func (p *progressBar) clearLine() {
	fmt.Fprintf(os.Stderr, "\r\033[K")
}
