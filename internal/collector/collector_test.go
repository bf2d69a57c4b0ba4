package collector

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/playok/resmon/internal/model"
)

type fakeSource struct {
	memUsed, memTotal uint64
	memErr            error
	diskFree          uint64
	diskTotal         uint64
	diskErr           error
	load              float64
	loadErr           error
	loadPanic         bool

	memCalls atomic.Int32
}

func (f *fakeSource) Memory(ctx context.Context) (uint64, uint64, error) {
	f.memCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	return f.memUsed, f.memTotal, f.memErr
}

func (f *fakeSource) DiskUsage(ctx context.Context, _ string) (uint64, uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	return f.diskFree, f.diskTotal, f.diskErr
}

func (f *fakeSource) LoadAverage(ctx context.Context) (float64, error) {
	if f.loadPanic {
		panic("no /proc/loadavg")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return f.load, f.loadErr
}

func (f *fakeSource) Hostname(context.Context) (string, error) { return "web-01", nil }

type staticSettings struct{ s model.Settings }

func (s staticSettings) Current() model.Settings { return s.s.Clone() }

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func healthySource() *fakeSource {
	return &fakeSource{
		memUsed: 4 << 30, memTotal: 16 << 30,
		diskFree: 8 << 30, diskTotal: 100 << 30,
		load: 1.25,
	}
}

func newTestEngine(src HostSource, s model.Settings) (*Engine, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	e := NewEngine(NewDefaultRegistry(src, "", "/"), src, staticSettings{s}, nil, zap.NewNop())
	e.now = clock.now
	e.cache.now = clock.now
	e.probe.now = clock.now
	return e, clock
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "512.00 B", FormatBytes(512))
	assert.Equal(t, "1.50 KB", FormatBytes(1536))
	assert.Equal(t, "1.00 GB", FormatBytes(1<<30))
	assert.Equal(t, "2048.00 TB", FormatBytes(math.Pow(1024, 5)*2))
}

func TestParseMemoryLimit(t *testing.T) {
	assert.EqualValues(t, 134217728, ParseMemoryLimit("128M"))
	assert.EqualValues(t, 2<<30, ParseMemoryLimit("2g"))
	assert.EqualValues(t, 512<<10, ParseMemoryLimit(" 512k "))
	assert.EqualValues(t, 1000, ParseMemoryLimit("1000"))
	assert.EqualValues(t, 12<<20, ParseMemoryLimit("12.5M"))
	assert.EqualValues(t, 1<<30, ParseMemoryLimit("1.5G"))

	for _, in := range []string{"", "0", "-1", "abc", "M", ".5G", "99999999999G"} {
		assert.Equal(t, MemoryLimitUnbounded, ParseMemoryLimit(in), in)
	}
}

func TestFormatLoad(t *testing.T) {
	assert.Equal(t, "0.00", FormatLoad(-0.5))
	assert.Equal(t, "3.14", FormatLoad(3.14159))
}

func TestEvaluate(t *testing.T) {
	s := model.DefaultSettings()

	// Disk base 85: 92 is 108% of the threshold.
	ev := Evaluate(s, model.ResourceDisk, 92)
	assert.Equal(t, model.StatusCritical, ev.Status)
	assert.InDelta(t, 108.24, ev.PercentOfThreshold, 0.001)

	assert.Equal(t, model.StatusWarning, Evaluate(s, model.ResourceMemory, 64).Status)
	assert.Equal(t, model.StatusNormal, Evaluate(s, model.ResourceMemory, 63.9).Status)
	assert.Equal(t, model.StatusCritical, Evaluate(s, model.ResourceCPU, 4.5).Status)

	s.BaseThresholds[model.ResourceCPU] = 0
	ev = Evaluate(s, model.ResourceCPU, 100)
	assert.Equal(t, model.StatusNormal, ev.Status)
	assert.Zero(t, ev.PercentOfThreshold)
}

func TestBreached(t *testing.T) {
	s := model.DefaultSettings()
	assert.True(t, Breached(s, model.ResourceDisk, 80))
	assert.False(t, Breached(s, model.ResourceDisk, 79.99))
	assert.True(t, Breached(s, model.ResourceCPU, 5))
	assert.False(t, Breached(s, model.ResourceCPU, 4.99))
}

func TestMemorySampler(t *testing.T) {
	src := healthySource()

	r, err := NewMemorySampler(src, "").Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25.0, r.Level)
	assert.Equal(t, "4.00 GB", r.Value)
	assert.Equal(t, "16.00 GB", r.LimitValue)

	r, err = NewMemorySampler(src, "8G").Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, r.Level)

	r, err = NewMemorySampler(src, "bogus").Sample(context.Background())
	require.NoError(t, err)
	assert.Zero(t, r.Level)
	assert.Equal(t, "unlimited", r.LimitValue)

	src.memTotal = 0
	_, err = NewMemorySampler(src, "").Sample(context.Background())
	assert.ErrorIs(t, err, model.ErrSample)
}

func TestDiskSampler(t *testing.T) {
	src := healthySource()

	r, err := NewDiskSampler(src, "").Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 92.0, r.Level)
	assert.Equal(t, "8.00 GB", r.Free)
	assert.Equal(t, "100.00 GB", r.LimitValue)

	src.diskErr = errors.New("no such file or directory")
	_, err = NewDiskSampler(src, "/missing").Sample(context.Background())
	assert.ErrorIs(t, err, model.ErrSample)
	assert.Equal(t, model.KindSample, model.KindOf(err))
}

func TestProbeMarksFailuresUnsupported(t *testing.T) {
	src := healthySource()
	src.loadPanic = true
	src.diskErr = errors.New("statfs failed")

	p := NewSupportProbe(NewDefaultRegistry(src, "", "/"), nil)
	got := p.Probe(context.Background())

	assert.Equal(t, map[model.ResourceType]bool{
		model.ResourceMemory: true,
		model.ResourceDisk:   false,
		model.ResourceCPU:    false,
	}, got)
}

func TestProbeLogsUnsupportedKind(t *testing.T) {
	src := healthySource()
	src.diskErr = errors.New("statfs failed")
	core, logs := observer.New(zap.WarnLevel)

	p := NewSupportProbe(NewDefaultRegistry(src, "", "/"), zap.New(core))
	p.Probe(context.Background())

	entries := logs.FilterMessage("resource unsupported on this host").All()
	require.Len(t, entries, 1)

	var logged error
	for _, f := range entries[0].Context {
		if f.Key == "error" {
			logged, _ = f.Interface.(error)
		}
	}
	require.Error(t, logged)
	assert.Contains(t, logged.Error(), "disk: unsupported on this host")
	assert.ErrorIs(t, logged, model.ErrUnsupported)
	assert.Equal(t, model.KindUnsupported, model.KindOf(logged))
}

func TestProbeResetForcesReprobe(t *testing.T) {
	src := healthySource()
	p := NewSupportProbe(NewDefaultRegistry(src, "", "/"), nil)

	assert.True(t, p.Probe(context.Background())[model.ResourceMemory])
	src.memErr = errors.New("gone")
	assert.True(t, p.Probe(context.Background())[model.ResourceMemory])

	p.Reset()
	assert.False(t, p.Probe(context.Background())[model.ResourceMemory])
}

func TestProbeCachesForAnHour(t *testing.T) {
	src := healthySource()
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewSupportProbe(NewDefaultRegistry(src, "", "/"), nil)
	p.now = clock.now

	first := p.Probe(context.Background())
	first[model.ResourceMemory] = false // callers get a copy

	src.memErr = errors.New("gone")
	clock.advance(59 * time.Minute)
	assert.True(t, p.Probe(context.Background())[model.ResourceMemory])

	clock.advance(2 * time.Minute)
	assert.False(t, p.Probe(context.Background())[model.ResourceMemory])
}

func TestEngineSnapshotIsCached(t *testing.T) {
	src := healthySource()
	e, clock := newTestEngine(src, model.DefaultSettings())
	ctx := context.Background()

	first := e.GetSnapshot(ctx, false)
	clock.advance(30 * time.Second)
	second := e.GetSnapshot(ctx, false)
	assert.Same(t, first, second)

	clock.advance(31 * time.Second)
	third := e.GetSnapshot(ctx, false)
	assert.NotSame(t, first, third)

	forced := e.GetSnapshot(ctx, true)
	assert.NotSame(t, third, forced)

	e.Invalidate()
	assert.NotSame(t, forced, e.GetSnapshot(ctx, false))
}

func TestEngineForceRefreshResamples(t *testing.T) {
	src := healthySource()
	e, _ := newTestEngine(src, model.DefaultSettings())
	ctx := context.Background()

	e.GetSnapshot(ctx, false)
	calls := src.memCalls.Load()
	e.GetSnapshot(ctx, false)
	assert.Equal(t, calls, src.memCalls.Load())

	e.GetSnapshot(ctx, true)
	assert.Greater(t, src.memCalls.Load(), calls)
}

func TestEngineForceRefreshReprobesSupport(t *testing.T) {
	src := healthySource()
	src.diskErr = errors.New("not mounted yet")
	e, _ := newTestEngine(src, model.DefaultSettings())
	ctx := context.Background()

	assert.False(t, e.GetSnapshot(ctx, false).Support[model.ResourceDisk])

	src.diskErr = nil
	e.Invalidate()
	assert.False(t, e.GetSnapshot(ctx, false).Support[model.ResourceDisk])
	assert.True(t, e.GetSnapshot(ctx, true).Support[model.ResourceDisk])
}

func TestEngineBuildIgnoresCallerCancellation(t *testing.T) {
	src := healthySource()
	e, _ := newTestEngine(src, model.DefaultSettings())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := e.GetSnapshot(ctx, false)

	for _, typ := range model.ResourceTypes {
		assert.True(t, snap.Support[typ], typ)
	}
	assert.Equal(t, 25.0, snap.Reading(model.ResourceMemory).Level)

	// The support map cached by that build stays valid for later readers.
	e.Invalidate()
	assert.True(t, e.GetSnapshot(context.Background(), false).Support[model.ResourceCPU])
}

func TestEngineEvaluatesReadings(t *testing.T) {
	src := healthySource()
	e, clock := newTestEngine(src, model.DefaultSettings())

	snap := e.GetSnapshot(context.Background(), false)

	disk := snap.Reading(model.ResourceDisk)
	assert.True(t, disk.Supported)
	assert.Equal(t, model.StatusCritical, disk.Status)
	assert.True(t, disk.Warning)

	mem := snap.Reading(model.ResourceMemory)
	assert.Equal(t, model.StatusNormal, mem.Status)
	assert.False(t, mem.Warning)

	assert.Equal(t, []model.ResourceType{model.ResourceDisk}, snap.Breached())
	assert.Equal(t, "web-01", snap.Hostname)
	assert.Equal(t, clock.t.Unix(), snap.CollectedAt)
	assert.Equal(t, clock.t.Add(SnapshotTTL).Unix(), snap.ExpiresAt)
}

func TestEngineIsolatesSampleFailures(t *testing.T) {
	src := healthySource()
	e, _ := newTestEngine(src, model.DefaultSettings())
	ctx := context.Background()

	// Supported at probe time, failing afterwards.
	e.Probe(ctx)
	src.loadErr = errors.New("transient")

	snap := e.GetSnapshot(ctx, false)
	cpu := snap.Reading(model.ResourceCPU)
	assert.True(t, cpu.Supported)
	assert.Equal(t, model.NotAvailable, cpu.Value)
	assert.False(t, snap.Warnings[model.ResourceCPU])

	assert.Equal(t, 25.0, snap.Reading(model.ResourceMemory).Level)
}

func TestUnsupportedResourceHasPlaceholder(t *testing.T) {
	src := healthySource()
	src.diskErr = errors.New("statfs failed")
	e, _ := newTestEngine(src, model.DefaultSettings())

	snap := e.GetSnapshot(context.Background(), false)
	disk := snap.Reading(model.ResourceDisk)
	assert.False(t, disk.Supported)
	assert.False(t, snap.Support[model.ResourceDisk])
	assert.Equal(t, model.NotAvailable, disk.Value)
	assert.Equal(t, model.NotAvailable, disk.Free)
	assert.False(t, snap.Warnings[model.ResourceDisk])
}

func TestSchedulerRunsImmediatelyAndSurvivesPanics(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(func(context.Context) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	}, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerUpdateInterval(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(func(context.Context) { calls.Add(1) }, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.UpdateInterval(time.Second)
	assert.Equal(t, time.Second, s.Interval())
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
