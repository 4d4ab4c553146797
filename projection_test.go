package depth

import (
	"errors"
	"math"
	"testing"
)

func mustProjection(t testing.TB, cfg Config) *Projection {
	t.Helper()
	p, err := NewProjection(cfg)
	if err != nil {
		t.Fatalf("NewProjection() = %v", err)
	}
	return p
}

func TestNewProjectionRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DepthFactor = 0
	_, err := NewProjection(cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("NewProjection() = %v, want ErrInvalidConfig", err)
	}
}

func TestRawScaleFormula(t *testing.T) {
	p := mustProjection(t, DefaultConfig()) // DepthFactor 0.002, MaxDepth 1000

	tests := []struct {
		z    float64
		want float64
	}{
		{0, 1.0},
		{500, 0.5},        // 1 / (1 + 500*0.002)
		{1000, 1.0 / 3.0}, // 1 / (1 + 2)
		{-50, 1.0},        // clamped to 0
		{5000, 1.0 / 3.0}, // clamped to MaxDepth
	}
	for _, tt := range tests {
		if got := p.RawScale(tt.z); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("RawScale(%g) = %g, want %g", tt.z, got, tt.want)
		}
	}
}

func TestRawScaleIdentityAtZero(t *testing.T) {
	p := mustProjection(t, DefaultConfig())
	if got := p.RawScale(0); got != 1.0 {
		t.Errorf("RawScale(0) = %v, want exactly 1.0", got)
	}
}

func TestRawScaleMonotonicInDepth(t *testing.T) {
	p := mustProjection(t, DefaultConfig())
	prev := p.RawScale(0)
	for z := 10.0; z <= 1000; z += 10 {
		got := p.RawScale(z)
		if got >= prev {
			t.Fatalf("RawScale not strictly decreasing at z=%g: %g then %g", z, prev, got)
		}
		prev = got
	}
}

func TestBucketsTable(t *testing.T) {
	cfg := DefaultConfig()
	p := mustProjection(t, cfg)
	buckets := p.Buckets()

	if len(buckets) != cfg.ScaleBuckets {
		t.Fatalf("len(Buckets()) = %d, want %d", len(buckets), cfg.ScaleBuckets)
	}
	if buckets[0] != cfg.MinScale {
		t.Errorf("first bucket = %g, want %g", buckets[0], cfg.MinScale)
	}
	if buckets[len(buckets)-1] != cfg.MaxScale {
		t.Errorf("last bucket = %g, want %g", buckets[len(buckets)-1], cfg.MaxScale)
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			t.Fatalf("buckets not ascending at %d: %g then %g", i, buckets[i-1], buckets[i])
		}
	}
}

func TestQuantizeSnapsToNearestBucket(t *testing.T) {
	cfg := DefaultConfig()
	p := mustProjection(t, cfg)
	buckets := p.Buckets()
	step := (cfg.MaxScale - cfg.MinScale) / float64(cfg.ScaleBuckets-1)

	inTable := func(v float64) bool {
		for _, b := range buckets {
			if b == v {
				return true
			}
		}
		return false
	}

	for s := cfg.MinScale; s <= cfg.MaxScale; s += 0.003 {
		got := p.Quantize(s)
		if !inTable(got) {
			t.Fatalf("Quantize(%g) = %g, not a bucket value", s, got)
		}
		if d := math.Abs(got - s); d > step/2+1e-12 {
			t.Fatalf("Quantize(%g) = %g, off by %g > half step %g", s, got, d, step/2)
		}
	}
}

func TestQuantizeClampsOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	p := mustProjection(t, cfg)
	if got := p.Quantize(5.0); got != cfg.MaxScale {
		t.Errorf("Quantize(5.0) = %g, want %g", got, cfg.MaxScale)
	}
	if got := p.Quantize(0.001); got != cfg.MinScale {
		t.Errorf("Quantize(0.001) = %g, want %g", got, cfg.MinScale)
	}
}

func TestQuantizeIdempotent(t *testing.T) {
	p := mustProjection(t, DefaultConfig())
	for s := 0.05; s <= 1.0; s += 0.017 {
		once := p.Quantize(s)
		if twice := p.Quantize(once); twice != once {
			t.Fatalf("Quantize(Quantize(%g)): %g != %g", s, twice, once)
		}
	}
}

func TestScaleForUsesBuckets(t *testing.T) {
	p := mustProjection(t, DefaultConfig())
	for z := 0.0; z <= 1000; z += 37 {
		want := p.Quantize(p.RawScale(z))
		if got := p.ScaleFor(z); got != want {
			t.Fatalf("ScaleFor(%g) = %g, want %g", z, got, want)
		}
	}
	// The near plane must land exactly on the top bucket.
	if got := p.ScaleFor(0); got != 1.0 {
		t.Errorf("ScaleFor(0) = %g, want 1.0", got)
	}
}

func TestScreenPositionIdentityAtZeroDepth(t *testing.T) {
	p := mustProjection(t, DefaultConfig())
	for _, pt := range [][2]float64{{0, 0}, {123.5, 456.25}, {800, 600}, {-40, 1200}} {
		sx, sy := p.ScreenPosition(pt[0], pt[1], 0)
		if sx != pt[0] || sy != pt[1] {
			t.Errorf("ScreenPosition(%g, %g, 0) = (%g, %g), want identity", pt[0], pt[1], sx, sy)
		}
	}
}

func TestScreenPositionConvergesTowardVanishingPoint(t *testing.T) {
	cfg := DefaultConfig() // 800x600, vp (0.5, 0.33), perspective (0.8, 0.5)
	p := mustProjection(t, cfg)
	vpX := cfg.VanishingPointX * float64(cfg.ScreenWidth)
	vpY := cfg.VanishingPointY * float64(cfg.ScreenHeight)

	// At max depth each axis covers its full perspective fraction.
	sx, sy := p.ScreenPosition(0, 0, cfg.MaxDepth)
	wantX := vpX * cfg.PerspectiveX
	wantY := vpY * cfg.PerspectiveY
	if math.Abs(sx-wantX) > 1e-9 || math.Abs(sy-wantY) > 1e-9 {
		t.Errorf("ScreenPosition(0,0,max) = (%g, %g), want (%g, %g)", sx, sy, wantX, wantY)
	}

	// Distance to the vanishing point shrinks monotonically with depth.
	prev := math.Hypot(0-vpX, 0-vpY)
	for z := 100.0; z <= 1000; z += 100 {
		x, y := p.ScreenPosition(0, 0, z)
		d := math.Hypot(x-vpX, y-vpY)
		if d >= prev {
			t.Fatalf("distance to vanishing point grew at z=%g: %g then %g", z, prev, d)
		}
		prev = d
	}
}

func TestScreenPositionAxesIndependent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerspectiveY = 0 // y axis opts out of convergence
	p := mustProjection(t, cfg)

	sx, sy := p.ScreenPosition(100, 480, 900)
	if sy != 480 {
		t.Errorf("y moved to %g with PerspectiveY=0, want 480", sy)
	}
	if sx == 100 {
		t.Error("x did not move despite nonzero PerspectiveX")
	}
}

func TestLODThresholds(t *testing.T) {
	p := mustProjection(t, DefaultConfig()) // high >= 0.7, medium >= 0.35

	tests := []struct {
		scale float64
		want  LOD
	}{
		{1.0, LODHigh},
		{0.7, LODHigh},
		{0.69, LODMedium},
		{0.35, LODMedium},
		{0.34, LODLow},
		{0.05, LODLow},
	}
	for _, tt := range tests {
		if got := p.LODFor(tt.scale); got != tt.want {
			t.Errorf("LODFor(%g) = %v, want %v", tt.scale, got, tt.want)
		}
	}
}

func TestLODStrings(t *testing.T) {
	if LODHigh.String() != "high" || LODMedium.String() != "medium" || LODLow.String() != "low" {
		t.Error("unexpected LOD strings")
	}
	if s := LOD(9).String(); s != "LOD(9)" {
		t.Errorf("LOD(9).String() = %q", s)
	}
}

func TestUpdateIntervals(t *testing.T) {
	p := mustProjection(t, DefaultConfig()) // rates 1.0 / 0.5 / 0.25

	if got := p.updateInterval(LODHigh); got != 1 {
		t.Errorf("high interval = %d, want 1", got)
	}
	if got := p.updateInterval(LODMedium); got != 2 {
		t.Errorf("medium interval = %d, want 2", got)
	}
	if got := p.updateInterval(LODLow); got != 4 {
		t.Errorf("low interval = %d, want 4", got)
	}
}

func TestFogIntensity(t *testing.T) {
	cfg := DefaultConfig() // fog start 0.65, cap 0.85
	p := mustProjection(t, cfg)

	if got := p.FogFor(1.0); got != 0 {
		t.Errorf("FogFor(1.0) = %g, want 0", got)
	}
	if got := p.FogFor(cfg.FogStartScale); got != 0 {
		t.Errorf("FogFor(start) = %g, want 0", got)
	}
	// Halfway below the start scale.
	if got := p.FogFor(0.325); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("FogFor(0.325) = %g, want 0.5", got)
	}
	// Deep scales hit the cap, not 1.0.
	if got := p.FogFor(0.05); got != cfg.FogMaxIntensity {
		t.Errorf("FogFor(0.05) = %g, want cap %g", got, cfg.FogMaxIntensity)
	}
}

func TestFogDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FogEnabled = false
	p := mustProjection(t, cfg)
	for _, s := range []float64{0.05, 0.3, 0.65, 1.0} {
		if got := p.FogFor(s); got != 0 {
			t.Errorf("FogFor(%g) = %g with fog disabled, want 0", s, got)
		}
	}
}

func BenchmarkScaleFor(b *testing.B) {
	p := mustProjection(b, DefaultConfig())
	b.ReportAllocs()
	z := 0.0
	for b.Loop() {
		_ = p.ScaleFor(z)
		z += 1.3
		if z > 1000 {
			z = 0
		}
	}
}

func BenchmarkScreenPosition(b *testing.B) {
	p := mustProjection(b, DefaultConfig())
	b.ReportAllocs()
	for b.Loop() {
		_, _ = p.ScreenPosition(123, 456, 789)
	}
}
