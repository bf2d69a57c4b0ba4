package monitor

import (
	"context"

	"go.uber.org/zap"

	"github.com/playok/resmon/internal/collector"
	"github.com/playok/resmon/internal/model"
	"github.com/playok/resmon/internal/notify"
)

// CheckResult is the outcome of one resource check.
type CheckResult struct {
	Snapshot *model.Snapshot     `json:"snapshot"`
	Alerts   []model.AlertRecord `json:"alerts"`
	Notified bool                `json:"notified"`
}

// Check evaluates the current snapshot, records one alert per breached
// resource and runs the notification gate. Store and mail failures are
// logged; the check itself never fails.
func (s *Service) Check(ctx context.Context) CheckResult {
	start := s.now()
	snap := s.engine.GetSnapshot(ctx, false)
	res := CheckResult{Snapshot: snap, Alerts: []model.AlertRecord{}}

	breached := snap.Breached()
	if len(breached) > 0 {
		cfg := s.settings.Current()
		for _, t := range breached {
			rec := alertRecord(t, snap.Reading(t), cfg.BaseThresholds[t])
			evicted, err := s.alerts.AppendAlert(ctx, &rec)
			if err != nil {
				s.logger.Error("failed to record alert", zap.String("resource", string(t)), zap.Error(err))
				continue
			}
			if evicted > 0 {
				s.logger.Debug("alert history trimmed", zap.Int64("evicted", evicted))
			}
			s.metrics.RecordAlert(t, evicted)
			res.Alerts = append(res.Alerts, rec)
		}

		res.Notified = s.gate.MaybeNotify(ctx, snap.Warnings, snap)
	}

	if b := s.getBroadcaster(); b != nil {
		b.BroadcastSnapshot(snap)
		if len(res.Alerts) > 0 {
			b.BroadcastAlerts(res.Alerts)
		}
	}

	s.metrics.RecordCheck(s.now().Sub(start))
	s.logger.Debug("check complete",
		zap.Int("breached", len(breached)), zap.Int("recorded", len(res.Alerts)), zap.Bool("notified", res.Notified))
	return res
}

// alertRecord builds the history entry for a breached resource. Memory and
// disk values are percentages; cpu values are load averages.
func alertRecord(t model.ResourceType, r model.Reading, threshold float64) model.AlertRecord {
	rec := model.AlertRecord{AlertType: t}
	switch t {
	case model.ResourceMemory:
		rec.Message = "Memory usage exceeded threshold"
		rec.ResourceValue = notify.FormatLevel(r.Level) + "%"
		rec.ThresholdValue = notify.FormatLevel(threshold) + "%"
	case model.ResourceDisk:
		rec.Message = "Disk usage exceeded threshold"
		rec.ResourceValue = notify.FormatLevel(r.Level) + "%"
		rec.ThresholdValue = notify.FormatLevel(threshold) + "%"
	case model.ResourceCPU:
		rec.Message = "CPU load exceeded threshold"
		rec.ResourceValue = collector.FormatLoad(r.Raw)
		rec.ThresholdValue = notify.FormatLevel(threshold)
	}
	return rec
}
