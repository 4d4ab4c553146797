// Command depthbench drives a synthetic depth scene (sprites drifting in
// XY and oscillating in depth) through a full pipeline and reports cache
// and monitor behavior, either as a live terminal dashboard or headless.
//
// Profiling:
//
//	go build ./cmd/depthbench
//	./depthbench -headless -frames 2000 -profile cpu
//	go tool pprof -http=":8000" ./depthbench cpu.pprof
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/pkg/profile"

	"github.com/gogpu/depth"
)

func main() {
	var (
		sprites  = flag.Int("sprites", 500, "number of drifting sprites")
		frames   = flag.Int("frames", 0, "stop after this many frames (0: dashboard runs until quit, headless runs 600)")
		headless = flag.Bool("headless", false, "run without the terminal dashboard")
		profMode = flag.String("profile", "", "write a profile: cpu or mem")
		seed     = flag.Int64("seed", 1, "workload seed")
	)
	flag.Parse()

	b, err := newBench(depth.DefaultConfig(), *sprites, *seed)
	if err != nil {
		log.Fatalf("depthbench: %v", err)
	}

	var prof interface{ Stop() }
	switch *profMode {
	case "":
	case "cpu":
		prof = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		prof = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		log.Fatalf("depthbench: unknown -profile %q (want cpu or mem)", *profMode)
	}

	if *headless {
		n := *frames
		if n <= 0 {
			n = 600
		}
		runHeadless(b, n)
	} else if err := runDashboard(b, *frames); err != nil {
		log.Fatalf("depthbench: %v", err)
	}

	if prof != nil {
		prof.Stop()
	}
}

func runHeadless(b *bench, frames int) {
	const dt = 1.0 / 60
	start := time.Now()
	for range frames {
		b.step(dt)
	}
	elapsed := time.Since(start)

	mst := b.pipeline.MonitorStats()
	cst := b.pipeline.CacheStats()

	fmt.Printf("frames    %d in %s (%.1f/s)\n",
		frames, elapsed.Round(time.Millisecond), float64(frames)/elapsed.Seconds())
	fmt.Printf("frame     avg %s  last %s  mode %s\n",
		mst.AvgFrameTime.Round(time.Microsecond), mst.LastFrameTime.Round(time.Microsecond), mst.Mode)
	fmt.Printf("sprites   rendered %d  culled %d (%.0f%%)  deferred %d  skipped %d  sorts %d\n",
		mst.Rendered, mst.Culled, mst.CullRate*100, mst.Deferred, mst.Skipped, mst.Sorts)
	fmt.Printf("cache     %d/%d entries  %s  hit %.1f%%\n",
		cst.Entries, cst.Capacity, fmtBytes(cst.BytesCached), cst.HitRate*100)
	fmt.Printf("          generated %d (avg %s)  denied %d  rejected %d  evicted %d  peak demand %d/frame\n",
		cst.Generated, cst.AvgGeneration.Round(time.Microsecond), cst.BudgetDenied, cst.Rejected, cst.Evictions, cst.PeakFrameDemand)
	for _, w := range mst.Warnings {
		fmt.Printf("warning   %s: %s\n", w.Kind, w.Message)
	}
}
