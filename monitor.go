package depth

import (
	"fmt"
	"sync"
	"time"
)

// Mode is the advisory performance tier SuggestMode returns. The library
// never acts on it; hosts map tiers to their own degradation choices
// (sprite counts, effect density, update rates).
type Mode uint8

const (
	ModeHigh Mode = iota
	ModeMedium
	ModeLow
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeHigh:
		return "High"
	case ModeMedium:
		return "Medium"
	case ModeLow:
		return "Low"
	default:
		return "Unknown"
	}
}

// Warning is one breach of a configured threshold, identified by a stable
// Kind ("fps_critical", "cache_miss_rate", ...) plus a readable message.
type Warning struct {
	Kind    string
	Message string
}

// Monitor tuning. Warnings re-log per kind at most once per cooldown; the
// mode suggestion moves at most once per hysteresis period; FPS derives
// from the trailing fpsWindow samples of a sampleWindow ring.
const (
	sampleWindow   = 300
	fpsWindow      = 60
	fpsRecompute   = time.Second
	warnCooldown   = 5 * time.Second
	modeHysteresis = 10 * time.Second
	defaultFPS     = 60.0

	minFrameTimeSamples = 30
	minCullObservations = 100
)

// PerformanceMonitor aggregates frame timing, render dispositions and
// cache snapshots into FPS estimates, threshold warnings and an advisory
// performance mode. All methods are safe for concurrent use; the pipeline
// drives StartFrame/EndFrame from its render goroutine and hosts may read
// snapshots from anywhere.
type PerformanceMonitor struct {
	mu    sync.Mutex
	cfg   Config
	clock Clock

	samples   [sampleWindow]time.Duration
	windowSum time.Duration
	count     int
	head      int

	frameStart time.Time
	inFrame    bool
	frames     uint64

	fps           float64
	fpsComputedAt time.Time

	rendered uint64
	culled   uint64
	skipped  uint64
	deferred uint64

	sorts      uint64
	sortTime   time.Duration
	lastSorted int

	cacheStats CacheStats
	cacheWarn  []Warning

	lastWarn map[string]time.Time
	warnings []Warning

	mode       Mode
	modeEvalAt time.Time
}

// NewPerformanceMonitor builds a monitor from cfg's thresholds, validating
// cfg first. Pipelines construct one automatically; direct construction
// suits hosts instrumenting their own loop.
func NewPerformanceMonitor(cfg Config) (*PerformanceMonitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newPerformanceMonitor(cfg, SystemClock()), nil
}

func newPerformanceMonitor(cfg Config, clock Clock) *PerformanceMonitor {
	return &PerformanceMonitor{
		cfg:      cfg,
		clock:    clock,
		fps:      defaultFPS,
		lastWarn: make(map[string]time.Time),
		mode:     ModeHigh,
	}
}

// setClock rewires the time source; the pipeline injects its own.
func (m *PerformanceMonitor) setClock(clk Clock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clk
}

// StartFrame marks the beginning of a frame. Pipeline.RenderScene calls
// the StartFrame/EndFrame pair around its group walk.
func (m *PerformanceMonitor) StartFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frameStart = m.clock.Now()
	m.inFrame = true
}

// EndFrame records the frame duration into the sample ring, refreshes the
// FPS estimate (at most once per second), evaluates warnings, and
// re-evaluates the suggested mode (at most once per 10s). An EndFrame
// without a matching StartFrame is ignored.
func (m *PerformanceMonitor) EndFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inFrame {
		return
	}
	m.inFrame = false
	now := m.clock.Now()
	d := now.Sub(m.frameStart)

	m.windowSum += d - m.samples[m.head]
	m.samples[m.head] = d
	m.head = (m.head + 1) % sampleWindow
	if m.count < sampleWindow {
		m.count++
	}
	m.frames++

	if now.Sub(m.fpsComputedAt) >= fpsRecompute {
		m.fps = m.computeFPS()
		m.fpsComputedAt = now
	}
	m.evaluateWarnings(now)
	if now.Sub(m.modeEvalAt) >= modeHysteresis {
		m.modeEvalAt = now
		if next := m.ladder(); next != m.mode {
			Logger().Info("performance mode suggestion changed",
				"from", m.mode, "to", next, "fps", m.fps)
			m.mode = next
		}
	}
}

// computeFPS derives FPS from the mean of the trailing samples, up to
// fpsWindow of them. Caller holds the lock.
func (m *PerformanceMonitor) computeFPS() float64 {
	n := m.count
	if n > fpsWindow {
		n = fpsWindow
	}
	if n == 0 {
		return defaultFPS
	}
	var sum time.Duration
	for i := 1; i <= n; i++ {
		sum += m.samples[(m.head-i+sampleWindow)%sampleWindow]
	}
	mean := sum / time.Duration(n)
	if mean <= 0 {
		return defaultFPS
	}
	return float64(time.Second) / float64(mean)
}

// avgFrame is the mean over the whole ring. Caller holds the lock.
func (m *PerformanceMonitor) avgFrame() time.Duration {
	if m.count == 0 {
		return 0
	}
	return m.windowSum / time.Duration(m.count)
}

// cullRate is the cumulative fraction of entities culled among all
// dispositions. Caller holds the lock.
func (m *PerformanceMonitor) cullRate() float64 {
	total := m.rendered + m.culled + m.skipped + m.deferred
	if total == 0 {
		return 0
	}
	return float64(m.culled) / float64(total)
}

// evaluateWarnings gathers current breaches (the monitor's own thresholds
// plus the last cache snapshot's) into the warnings snapshot, then logs
// those off cooldown. Caller holds the lock.
func (m *PerformanceMonitor) evaluateWarnings(now time.Time) {
	var ws []Warning
	if m.fps < m.cfg.FPSCritical {
		ws = append(ws, Warning{
			Kind:    "fps_critical",
			Message: fmt.Sprintf("fps %.1f below critical %.1f", m.fps, m.cfg.FPSCritical),
		})
	} else if m.fps < m.cfg.FPSWarning {
		ws = append(ws, Warning{
			Kind:    "fps_warning",
			Message: fmt.Sprintf("fps %.1f below %.1f", m.fps, m.cfg.FPSWarning),
		})
	}
	if avg := m.avgFrame(); m.cfg.FrameTimeWarning > 0 && m.count >= minFrameTimeSamples && avg > m.cfg.FrameTimeWarning {
		ws = append(ws, Warning{
			Kind:    "frame_time",
			Message: fmt.Sprintf("avg frame time %s above %s", avg, m.cfg.FrameTimeWarning),
		})
	}
	if total := m.rendered + m.culled + m.skipped + m.deferred; total >= minCullObservations {
		if cr := m.cullRate(); cr > m.cfg.CullRateWarning {
			ws = append(ws, Warning{
				Kind:    "cull_rate",
				Message: fmt.Sprintf("cull rate %.0f%% above %.0f%%", cr*100, m.cfg.CullRateWarning*100),
			})
		}
	}
	ws = append(ws, m.cacheWarn...)

	m.warnings = ws
	for _, w := range ws {
		if now.Sub(m.lastWarn[w.Kind]) < warnCooldown {
			continue
		}
		m.lastWarn[w.Kind] = now
		Logger().Warn("performance warning", "kind", w.Kind, "detail", w.Message)
	}
}

// ladder maps the current estimates onto a tier. Caller holds the lock.
func (m *PerformanceMonitor) ladder() Mode {
	lookups := m.cacheStats.Hits + m.cacheStats.Misses
	switch {
	case m.fps < m.cfg.FPSCritical:
		return ModeLow
	case m.fps < m.cfg.FPSWarning && lookups >= warningMinLookups && m.cacheStats.HitRate < qualityColdRate:
		return ModeLow
	case m.fps < m.cfg.FPSWarning:
		return ModeMedium
	case m.cfg.FrameTimeWarning > 0 && m.count >= minFrameTimeSamples && m.avgFrame() > m.cfg.FrameTimeWarning:
		return ModeMedium
	default:
		return ModeHigh
	}
}

// recordRender accumulates one render pass's entity dispositions.
func (m *PerformanceMonitor) recordRender(rendered, culled, skipped, deferred int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered += uint64(rendered)
	m.culled += uint64(culled)
	m.skipped += uint64(skipped)
	m.deferred += uint64(deferred)
}

// noteSort records one depth re-sort: its duration and how many sprites it
// ordered.
func (m *PerformanceMonitor) noteSort(d time.Duration, sprites int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sorts++
	m.sortTime += d
	m.lastSorted = sprites
}

// ObserveCache folds a cache snapshot and its threshold breaches into the
// monitor. Pipeline.RenderScene calls it once per frame; the breaches join
// the monitor's own on the next evaluation.
func (m *PerformanceMonitor) ObserveCache(st CacheStats, breaches []Warning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheStats = st
	m.cacheWarn = breaches
}

// FPS returns the most recent estimate. Before enough frames arrive it
// reports 60, so thresholds do not fire on startup.
func (m *PerformanceMonitor) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps
}

// SuggestMode returns the advisory tier. Suggestions move at most once per
// 10s; the library itself never degrades anything.
func (m *PerformanceMonitor) SuggestMode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// LastWarnings returns the breaches found by the most recent evaluation.
// Cooldowns gate logging only, never this snapshot.
func (m *PerformanceMonitor) LastWarnings() []Warning {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Warning, len(m.warnings))
	copy(out, m.warnings)
	return out
}

// MonitorStats is a point-in-time snapshot for overlays and dashboards.
type MonitorStats struct {
	FPS           float64
	Frames        uint64
	AvgFrameTime  time.Duration
	LastFrameTime time.Duration

	Rendered uint64
	Culled   uint64
	Skipped  uint64
	Deferred uint64
	CullRate float64

	Sorts       uint64
	AvgSortTime time.Duration
	LastSorted  int

	Mode     Mode
	Warnings []Warning
}

// Stats returns the current aggregates. Safe to call from any goroutine.
func (m *PerformanceMonitor) Stats() MonitorStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := MonitorStats{
		FPS:          m.fps,
		Frames:       m.frames,
		AvgFrameTime: m.avgFrame(),
		Rendered:     m.rendered,
		Culled:       m.culled,
		Skipped:      m.skipped,
		Deferred:     m.deferred,
		CullRate:     m.cullRate(),
		Sorts:        m.sorts,
		LastSorted:   m.lastSorted,
		Mode:         m.mode,
		Warnings:     append([]Warning(nil), m.warnings...),
	}
	if m.count > 0 {
		st.LastFrameTime = m.samples[(m.head-1+sampleWindow)%sampleWindow]
	}
	if m.sorts > 0 {
		st.AvgSortTime = m.sortTime / time.Duration(m.sorts)
	}
	return st
}
