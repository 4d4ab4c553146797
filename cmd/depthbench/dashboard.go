package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/depth"
)

// sparkChars provides 8-level vertical resolution.
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// sparkline maps the trailing values onto block characters, padded to width
// with the lowest bar. Auto-scales when min and max are both zero.
func sparkline(values []float64, width int, min, max float64) string {
	if width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	if min == 0 && max == 0 && len(values) > 0 {
		min, max = values[0], values[0]
		for _, v := range values {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	for _, v := range values {
		norm := (v - min) / span
		if norm < 0 {
			norm = 0
		}
		if norm > 1 {
			norm = 1
		}
		idx := int(norm * 7.99)
		if idx > 7 {
			idx = 7
		}
		sb.WriteRune(sparkChars[idx])
	}
	for i := len(values); i < width; i++ {
		sb.WriteRune(sparkChars[0])
	}
	return sb.String()
}

// history keeps the trailing samples of one metric.
type history struct {
	limit int
	vals  []float64
}

func newHistory(limit int) *history { return &history{limit: limit} }

func (h *history) push(v float64) {
	h.vals = append(h.vals, v)
	if len(h.vals) > h.limit {
		h.vals = h.vals[len(h.vals)-h.limit:]
	}
}

type dashboard struct {
	screen tcell.Screen
	bench  *bench

	fps      *history
	frameMS  *history
	hitRate  *history
	cullRate *history
}

// runDashboard drives the bench at ~60 ticks per second and draws live
// stats until q/Escape, or until maxFrames when positive.
func runDashboard(b *bench, maxFrames int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	// Library warnings go to a file so they do not tear the terminal.
	if f, err := os.Create("depthbench.log"); err == nil {
		depth.SetLogger(slog.New(slog.NewTextHandler(f, nil)))
		defer depth.SetLogger(nil)
		defer f.Close()
	}

	d := &dashboard{
		screen:   screen,
		bench:    b,
		fps:      newHistory(120),
		frameMS:  newHistory(120),
		hitRate:  newHistory(120),
		cullRate: newHistory(120),
	}

	events := make(chan tcell.Event, 32)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	frames := 0
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case <-ticker.C:
			b.step(1.0 / 60)
			frames++

			mst := b.pipeline.MonitorStats()
			cst := b.pipeline.CacheStats()
			d.fps.push(mst.FPS)
			d.frameMS.push(float64(mst.LastFrameTime) / float64(time.Millisecond))
			d.hitRate.push(cst.HitRate * 100)
			d.cullRate.push(mst.CullRate * 100)
			d.draw(frames, mst, cst)

			if maxFrames > 0 && frames >= maxFrames {
				return nil
			}
		}
	}
}

var (
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleLabel  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleValue  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSpark  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleWarn   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleFooter = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

func (d *dashboard) draw(frame int, mst depth.MonitorStats, cst depth.CacheStats) {
	s := d.screen
	s.Clear()
	w, _ := s.Size()

	sparkW := w - 30
	if sparkW > 60 {
		sparkW = 60
	}
	if sparkW < 10 {
		sparkW = 10
	}

	drawText(s, 1, 0, styleTitle, fmt.Sprintf("depthbench  %d sprites  frame %d  mode %s",
		len(d.bench.sprites), frame, mst.Mode))

	d.row(1, 2, "fps", fmt.Sprintf("%6.1f", mst.FPS), d.fps, sparkW, 0, 120)
	d.row(1, 3, "frame ms", fmt.Sprintf("%6.2f", float64(mst.LastFrameTime)/float64(time.Millisecond)), d.frameMS, sparkW, 0, 0)
	d.row(1, 4, "hit %", fmt.Sprintf("%6.1f", cst.HitRate*100), d.hitRate, sparkW, 0, 100)
	d.row(1, 5, "cull %", fmt.Sprintf("%6.1f", mst.CullRate*100), d.cullRate, sparkW, 0, 100)

	drawText(s, 1, 7, styleLabel, "cache")
	drawText(s, 12, 7, styleValue, fmt.Sprintf("%d/%d entries  %s  gen %d  denied %d  evicted %d",
		cst.Entries, cst.Capacity, fmtBytes(cst.BytesCached), cst.Generated, cst.BudgetDenied, cst.Evictions))
	drawText(s, 1, 8, styleLabel, "sprites")
	drawText(s, 12, 8, styleValue, fmt.Sprintf("rendered %d  culled %d  deferred %d  skipped %d  sorts %d",
		mst.Rendered, mst.Culled, mst.Deferred, mst.Skipped, mst.Sorts))

	y := 10
	for _, warn := range mst.Warnings {
		drawText(s, 1, y, styleWarn, fmt.Sprintf("! %s: %s", warn.Kind, warn.Message))
		y++
	}

	drawText(s, 1, y+1, styleFooter, "q to quit")
	s.Show()
}

func (d *dashboard) row(x, y int, label, value string, h *history, width int, min, max float64) {
	drawText(d.screen, x, y, styleLabel, label)
	drawText(d.screen, x+11, y, styleValue, value)
	drawText(d.screen, x+19, y, styleSpark, sparkline(h.vals, width, min, max))
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		s.SetContent(col, y, r, nil, style)
		col++
	}
}

func fmtBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
