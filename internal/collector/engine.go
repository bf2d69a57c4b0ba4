package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/playok/resmon/internal/model"
)

const (
	// SnapshotKey is the cache key of the resource snapshot.
	SnapshotKey = "resources"
	// SnapshotTTL is how long a snapshot is served from cache.
	SnapshotTTL = 60 * time.Second
)

// SettingsSource provides the active thresholds.
type SettingsSource interface {
	Current() model.Settings
}

// Observer receives engine events. The metrics package implements it.
type Observer interface {
	CacheLookup(hit bool)
	ObserveSnapshot(*model.Snapshot)
}

type nopObserver struct{}

func (nopObserver) CacheLookup(bool)                {}
func (nopObserver) ObserveSnapshot(*model.Snapshot) {}

// Engine produces evaluated snapshots: cache, then support probe, then one
// sample per supported type, then threshold evaluation.
type Engine struct {
	registry *Registry
	probe    *SupportProbe
	settings SettingsSource
	src      HostSource
	cache    *ttlCache[*model.Snapshot]
	observer Observer
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates an engine over registry. src is used for the host
// name only and may be nil.
func NewEngine(registry *Registry, src HostSource, settings SettingsSource, observer Observer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Engine{
		registry: registry,
		probe:    NewSupportProbe(registry, logger),
		settings: settings,
		src:      src,
		cache:    newTTLCache[*model.Snapshot](),
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// Probe returns the current support map.
func (e *Engine) Probe(ctx context.Context) map[model.ResourceType]bool {
	return e.probe.Probe(ctx)
}

// GetSnapshot returns the cached snapshot while it is younger than
// SnapshotTTL. force discards the cached value and the support map and
// samples again. The returned snapshot is shared and must not be modified.
// The build ignores ctx cancellation; its result is shared by every reader.
func (e *Engine) GetSnapshot(ctx context.Context, force bool) *model.Snapshot {
	if force {
		e.probe.Reset()
	}
	snap, hit := e.cache.GetOrCompute(SnapshotKey, SnapshotTTL, force, func() *model.Snapshot {
		return e.build(context.WithoutCancel(ctx))
	})
	e.observer.CacheLookup(hit)
	return snap
}

// Invalidate drops the cached snapshot so the next read samples again.
func (e *Engine) Invalidate() {
	e.cache.Invalidate(SnapshotKey)
}

func (e *Engine) build(ctx context.Context) *model.Snapshot {
	support := e.probe.Probe(ctx)
	cfg := e.settings.Current()
	snap := model.NewSnapshot(support)

	for _, t := range model.ResourceTypes {
		if !support[t] {
			continue
		}
		s, ok := e.registry.Get(t)
		if !ok {
			continue
		}
		r, err := safeSample(ctx, s)
		if err != nil {
			e.logger.Warn("sample failed", zap.String("resource", string(t)), zap.Error(err))
			continue
		}
		ev := Evaluate(cfg, t, r.Level)
		r.Type = t
		r.Supported = true
		r.ThresholdPercent = ev.PercentOfThreshold
		r.Status = ev.Status
		r.Warning = Breached(cfg, t, r.Level)
		snap.Resources[t] = r
		snap.Warnings[t] = r.Warning
	}

	if e.src != nil {
		if name, err := e.src.Hostname(ctx); err == nil {
			snap.Hostname = name
		}
	}
	now := e.now()
	snap.CollectedAt = now.Unix()
	snap.ExpiresAt = now.Add(SnapshotTTL).Unix()

	e.observer.ObserveSnapshot(snap)
	return snap
}
