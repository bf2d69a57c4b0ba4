package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/playok/resmon/internal/collector"
	"github.com/playok/resmon/internal/model"
)

// SettingsStore provides the e-mail settings and records dispatches.
type SettingsStore interface {
	Current() model.Settings
	MarkSent(ctx context.Context, t time.Time) error
}

// Recorder counts dispatch outcomes.
type Recorder interface {
	RecordNotification(ok bool)
}

// Options are the process-level values used in the digest.
type Options struct {
	SiteName     string
	AdminEmail   string
	DashboardURL string
}

// Gate decides whether a breach is e-mailed and sends the digest.
type Gate struct {
	settings SettingsStore
	mailer   Mailer
	opts     Options
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewGate creates a gate. A nil mailer disables delivery; recorder may be
// nil.
func NewGate(settings SettingsStore, mailer Mailer, opts Options, recorder Recorder, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		settings: settings,
		mailer:   mailer,
		opts:     opts,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// MaybeNotify e-mails a digest of the warned resources when the severity
// flags and the frequency allow it. It reports whether at least one
// recipient received the message; failures are logged, never returned.
func (g *Gate) MaybeNotify(ctx context.Context, warnings map[model.ResourceType]bool, snap *model.Snapshot) bool {
	var warned []model.ResourceType
	for _, t := range model.ResourceTypes {
		if warnings[t] {
			warned = append(warned, t)
		}
	}
	if len(warned) == 0 || snap == nil {
		return false
	}

	cfg := g.settings.Current()
	email := cfg.Email

	hasWarning, hasCritical := false, false
	for _, t := range warned {
		switch collector.Evaluate(cfg, t, snap.Reading(t).Level).Status {
		case model.StatusCritical:
			hasCritical = true
		case model.StatusWarning:
			hasWarning = true
		}
	}
	if !(hasWarning && email.NotifyWarning) && !(hasCritical && email.NotifyCritical) {
		return false
	}

	now := g.now()
	if gap := email.Frequency.MinGap(); gap > 0 && now.Sub(time.Unix(email.LastSent, 0)) < gap {
		g.logger.Debug("notification suppressed by frequency",
			zap.String("frequency", string(email.Frequency)))
		return false
	}

	if !email.Enabled {
		return false
	}
	recipients := email.Recipients
	if len(recipients) == 0 && g.opts.AdminEmail != "" {
		recipients = []string{g.opts.AdminEmail}
	}
	if len(recipients) == 0 {
		return false
	}
	if g.mailer == nil {
		g.logger.Warn("notification skipped: no mailer configured", zap.Int("recipients", len(recipients)))
		return false
	}

	msg := Message{
		FromName: g.opts.SiteName,
		Subject:  Subject(g.opts.SiteName, hasCritical),
		Body:     Body(g.opts.SiteName, g.opts.DashboardURL, warned, snap),
	}
	sent := false
	for _, to := range recipients {
		msg.To = to
		if err := g.mailer.Send(ctx, msg); err != nil {
			g.logger.Warn("notification failed", zap.Error(model.NewNotificationError(to, err)))
			g.record(false)
			continue
		}
		g.record(true)
		sent = true
	}
	if !sent {
		return false
	}

	if err := g.settings.MarkSent(ctx, now); err != nil {
		g.logger.Error("failed to record notification time", zap.Error(err))
	}
	g.logger.Info("notification sent",
		zap.Bool("critical", hasCritical), zap.Int("recipients", len(recipients)))
	return true
}

func (g *Gate) record(ok bool) {
	if g.recorder != nil {
		g.recorder.RecordNotification(ok)
	}
}
