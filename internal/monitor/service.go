// Package monitor ties sampling, alert history, notification and the
// scheduled check together behind the operations used by the API and the
// CLI.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playok/resmon/internal/collector"
	"github.com/playok/resmon/internal/metrics"
	"github.com/playok/resmon/internal/model"
	"github.com/playok/resmon/internal/notify"
	"github.com/playok/resmon/internal/settings"
)

// AlertStore persists the alert history.
type AlertStore interface {
	AppendAlert(ctx context.Context, rec *model.AlertRecord) (int64, error)
	ListAlerts(ctx context.Context, filter string, page int) (*model.AlertPage, error)
	ClearAlerts(ctx context.Context) error
}

// Broadcaster pushes live updates to connected clients.
type Broadcaster interface {
	BroadcastSnapshot(snap *model.Snapshot)
	BroadcastAlerts(alerts []model.AlertRecord)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Engine   *collector.Engine
	Settings *settings.Manager
	Alerts   AlertStore
	Gate     *notify.Gate
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Service implements the monitoring operations.
type Service struct {
	engine    *collector.Engine
	settings  *settings.Manager
	alerts    AlertStore
	gate      *notify.Gate
	metrics   *metrics.Metrics
	scheduler *collector.Scheduler
	logger    *zap.Logger

	mu          sync.Mutex
	broadcaster Broadcaster
	now         func() time.Time
}

// New creates a service. Settings changes drop the cached snapshot so the
// next read is evaluated against the new thresholds.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		engine:   d.Engine,
		settings: d.Settings,
		alerts:   d.Alerts,
		gate:     d.Gate,
		metrics:  d.Metrics,
		logger:   logger,
		now:      time.Now,
	}
	s.scheduler = collector.NewScheduler(s.scheduledCheck,
		d.Settings.Current().PollInterval.Duration(), logger.Named("scheduler"))
	d.Settings.OnChange(func(model.Settings) { s.engine.Invalidate() })
	return s
}

// SetBroadcaster sets the sink for live updates.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

func (s *Service) getBroadcaster() Broadcaster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcaster
}

// Run runs the scheduled check until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", zap.Duration("interval", s.scheduler.Interval()))
	return s.scheduler.Run(ctx)
}

// GetSnapshot returns the current evaluated snapshot. force discards the
// cached one first.
func (s *Service) GetSnapshot(ctx context.Context, force bool) *model.Snapshot {
	return s.engine.GetSnapshot(ctx, force)
}

// Settings returns a copy of the active settings.
func (s *Service) Settings() model.Settings {
	return s.settings.Current()
}

// SaveThresholds stores the warning/critical pairs. Nothing is saved when
// any pair has critical <= warning.
func (s *Service) SaveThresholds(ctx context.Context, levels map[model.ResourceType]model.ThresholdPair) error {
	return s.settings.SaveWarningLevels(ctx, levels)
}

// SaveBaseThresholds stores the base thresholds used for severity.
func (s *Service) SaveBaseThresholds(ctx context.Context, thresholds map[model.ResourceType]float64) error {
	return s.settings.SaveBaseThresholds(ctx, thresholds)
}

// SaveEmailSettings stores the notification settings.
func (s *Service) SaveEmailSettings(ctx context.Context, in settings.EmailInput) error {
	return s.settings.SaveEmail(ctx, in)
}

// SaveRefreshInterval stores the dashboard refresh period.
func (s *Service) SaveRefreshInterval(ctx context.Context, seconds int) error {
	return s.settings.SaveRefreshInterval(ctx, seconds)
}

// UpdatePollInterval stores the check cadence and reschedules the check.
func (s *Service) UpdatePollInterval(ctx context.Context, p model.PollInterval) error {
	if err := s.settings.SavePollInterval(ctx, p); err != nil {
		return err
	}
	s.scheduler.UpdateInterval(s.settings.Current().PollInterval.Duration())
	return nil
}

// ListAlerts returns one page of the alert history.
func (s *Service) ListAlerts(ctx context.Context, filter string, page int) (*model.AlertPage, error) {
	return s.alerts.ListAlerts(ctx, filter, page)
}

// ClearAlerts deletes the whole alert history.
func (s *Service) ClearAlerts(ctx context.Context) error {
	if err := s.alerts.ClearAlerts(ctx); err != nil {
		return err
	}
	s.logger.Info("alert history cleared")
	return nil
}

func (s *Service) scheduledCheck(ctx context.Context) {
	s.Check(ctx)
}
