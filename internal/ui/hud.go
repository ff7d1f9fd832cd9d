package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bamsammich/cloudmig/internal/stats"
)

// hudPresenter provides a rich TTY display with a scrolling feed of finished
// files and a 3-line HUD that redraws in place.
type hudPresenter struct {
	w     io.Writer
	stats stats.ReadTicker
	width int

	// Internal state.
	hudDrawn      bool
	hudLineCount  int
	current       Event // last stage event of the file in flight
	lastCompleted string
	lastHUDDraw   time.Time
}

const (
	sparklineWidth   = 20
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
)

func (p *hudPresenter) Run(events <-chan Event) error {
	// Fire first tick quickly to seed the ring buffer with initial speed data,
	// then switch to 1s interval.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw while a long hydration or copy produces no events.
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(1 * time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	if ev.Type.Stage() != "" {
		p.current = ev
		if ev.LastCompleted != "" {
			p.lastCompleted = ev.LastCompleted
		}
		return
	}

	switch ev.Type {
	case FileCompleted:
		p.feed(fmt.Sprintf("%s  %s  %10s",
			styleIconDone.Render("✓"), p.styledPath(ev.Path),
			styleFileSize.Render(FormatBytes(ev.Size))))
		p.finish(ev)

	case FileSkipped:
		p.feed(fmt.Sprintf("%s  %s  %10s  %s",
			styleIconSkipped.Render("–"), p.styledPath(ev.Path),
			styleFileSize.Render(FormatBytes(ev.Size)), styleFileDir.Render("skipped")))
		p.finish(ev)

	case FileFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		p.feed(fmt.Sprintf("%s  %s  %s",
			styleIconFailed.Render("✗"), p.styledPath(ev.Path), styleError.Render(errMsg)))
		p.finish(ev)

	case DehydrateFailed:
		p.feed(fmt.Sprintf("%s  %s  %s",
			styleIconWarn.Render("!"), p.styledPath(ev.Path),
			styleIconWarn.Render(fmt.Sprintf("stays local: %v", ev.Error))))
	}
}

func (p *hudPresenter) finish(ev Event) {
	p.lastCompleted = ev.Path
	p.current = Event{}
}

// feed prints a line above the HUD.
func (p *hudPresenter) feed(line string) {
	p.clearHUD()
	fmt.Fprintln(p.w, line)
	p.drawHUD()
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()
	p.clearHUD()

	var pct float64
	if snap.BytesTotal > 0 {
		pct = float64(snap.BytesDone) / float64(snap.BytesTotal)
	}

	// Line 1: current task and last completed file.
	task := "waiting"
	if p.current.Type != 0 {
		task = fmt.Sprintf("[%d/%d] %s %s", p.current.Index, p.current.Total,
			styleStage.Render(p.current.Type.Stage()), p.current.Path)
	}
	fmt.Fprintln(p.w, truncPath(task, p.width))
	lines := 1
	if p.lastCompleted != "" {
		fmt.Fprintln(p.w, styleFileDir.Render(truncPath("last  "+p.lastCompleted, p.width)))
		lines++
	}

	// Throughput sparkline + speed + byte totals.
	spark := Sparkline(p.stats.SparklineData(sparklineWidth), sparklineWidth)
	fmt.Fprintf(p.w, "       %s   %s   %s / %s\n",
		styleSparkline.Render(spark), FormatRate(p.stats.RollingSpeed(10)),
		FormatBytes(snap.BytesDone), FormatBytes(snap.BytesTotal))
	lines++

	// Progress bar + files + eta.
	fmt.Fprintf(p.w, " %3.0f%%  %s   %s / %s files   eta %s\n",
		pct*100, styledBar(pct, progressBarWidth),
		FormatCount(snap.FilesDone()), FormatCount(snap.FilesTotal),
		FormatETA(p.stats.ETA()))
	lines++

	p.hudDrawn = true
	p.hudLineCount = lines
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", p.hudLineCount)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}

// styledPath dims the directory portion so the filename stands out.
func (p *hudPresenter) styledPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return styleFilePath.Render(base)
	}
	return styleFileDir.Render(dir+string(filepath.Separator)) + styleFilePath.Render(base)
}

func styledBar(pct float64, width int) string {
	bar := []rune(ProgressBar(pct, width))
	filled := int(clampPct(pct) * float64(width))
	return styleProgressFilled.Render(string(bar[:filled])) +
		styleProgressEmpty.Render(string(bar[filled:]))
}

// truncPath shortens s to at most maxLen runes, keeping the tail.
func truncPath(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[len(r)-maxLen:])
	}
	return "..." + string(r[len(r)-maxLen+3:])
}
