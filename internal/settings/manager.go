// Package settings owns the runtime configuration: thresholds, e-mail
// settings and the poll interval. It is loaded once, merged with defaults
// at load time and changed only through the Save* mutators.
package settings

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playok/resmon/internal/model"
)

// optionsKey is the settings-table key holding the JSON blob.
const optionsKey = "options"

// Backend persists the settings blob.
type Backend interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// ChangeFunc is called after every successful save.
type ChangeFunc func(model.Settings)

// Manager is the process-wide configuration store.
type Manager struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.RWMutex
	current  model.Settings
	loaded   bool
	onChange []ChangeFunc
}

// NewManager returns a manager holding the defaults until Load is called.
func NewManager(backend Backend, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		backend: backend,
		logger:  logger,
		current: model.DefaultSettings(),
	}
}

// Load reads the persisted settings once. Later calls are no-ops; use
// Reload to force a re-read.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()
	if loaded {
		return nil
	}
	return m.Reload(ctx)
}

// Reload re-reads the persisted settings and merges them with defaults.
func (m *Manager) Reload(ctx context.Context) error {
	raw, err := m.backend.GetSetting(ctx, optionsKey)
	if err != nil {
		return err
	}
	s := model.DefaultSettings()
	if raw != "" {
		saved := model.DefaultSettings()
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			m.logger.Warn("stored settings are unreadable, using defaults", zap.Error(err))
		} else {
			s = sanitize(saved)
		}
	}

	m.mu.Lock()
	m.current = s
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// sanitize replaces every invalid field of saved with its default. saved
// was decoded over the defaults, so absent fields already hold them.
func sanitize(saved model.Settings) model.Settings {
	def := model.DefaultSettings()
	s := def.Clone()
	s.Email = saved.Email
	for _, t := range model.ResourceTypes {
		if v, ok := saved.BaseThresholds[t]; ok && v > 0 {
			s.BaseThresholds[t] = v
		}
		if p, ok := saved.WarningLevels[t]; ok && p.Critical > p.Warning {
			s.WarningLevels[t] = p
		}
	}
	if f, ok := model.ParseFrequency(string(saved.Email.Frequency)); ok {
		s.Email.Frequency = f
	} else {
		s.Email.Frequency = def.Email.Frequency
	}
	if s.Email.Recipients == nil {
		s.Email.Recipients = []string{}
	}
	if p, ok := model.ParsePollInterval(string(saved.PollInterval)); ok {
		s.PollInterval = p
	}
	if saved.RefreshSeconds >= model.MinRefreshSeconds && saved.RefreshSeconds <= model.MaxRefreshSeconds {
		s.RefreshSeconds = saved.RefreshSeconds
	}
	return s
}

// Current returns a copy of the active settings.
func (m *Manager) Current() model.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// OnChange registers fn to run after every successful save.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// update applies mutate to a copy of the current settings, persists it and
// swaps it in. Nothing changes when mutate or the write fails.
func (m *Manager) update(ctx context.Context, mutate func(*model.Settings) error) error {
	m.mu.Lock()
	next := m.current.Clone()
	if err := mutate(&next); err != nil {
		m.mu.Unlock()
		return err
	}
	next.Version = model.SettingsVersion
	data, err := json.Marshal(next)
	if err != nil {
		m.mu.Unlock()
		return model.NewPersistenceError("encode settings", err)
	}
	if err := m.backend.SetSetting(ctx, optionsKey, string(data)); err != nil {
		m.mu.Unlock()
		return err
	}
	m.current = next
	m.loaded = true
	hooks := append([]ChangeFunc(nil), m.onChange...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(next.Clone())
	}
	return nil
}

// SaveWarningLevels replaces the warning/critical pairs. Memory and disk
// levels are clamped to 0-100 and cpu levels to >= 0; every type must end
// up with critical above warning or nothing is saved.
func (m *Manager) SaveWarningLevels(ctx context.Context, levels map[model.ResourceType]model.ThresholdPair) error {
	validated, err := ValidateWarningLevels(levels)
	if err != nil {
		return err
	}
	return m.update(ctx, func(s *model.Settings) error {
		for t, p := range validated {
			s.WarningLevels[t] = p
		}
		return nil
	})
}

// SaveBaseThresholds replaces the base thresholds used for severity bands.
func (m *Manager) SaveBaseThresholds(ctx context.Context, thresholds map[model.ResourceType]float64) error {
	validated, err := ValidateBaseThresholds(thresholds)
	if err != nil {
		return err
	}
	return m.update(ctx, func(s *model.Settings) error {
		for t, v := range validated {
			s.BaseThresholds[t] = v
		}
		return nil
	})
}

// EmailInput is the user-editable part of the e-mail settings.
type EmailInput struct {
	Enabled        bool     `json:"enabled"`
	Recipients     []string `json:"recipients"`
	Frequency      string   `json:"frequency"`
	NotifyWarning  bool     `json:"notify_warning"`
	NotifyCritical bool     `json:"notify_critical"`
}

// SaveEmail validates and stores the e-mail settings. Saving resets the
// last-sent time so the next breach is reported regardless of frequency.
func (m *Manager) SaveEmail(ctx context.Context, in EmailInput) error {
	email, err := ValidateEmail(in)
	if err != nil {
		return err
	}
	return m.update(ctx, func(s *model.Settings) error {
		s.Email = email
		return nil
	})
}

// SavePollInterval stores the scheduled check cadence.
func (m *Manager) SavePollInterval(ctx context.Context, p model.PollInterval) error {
	parsed, ok := model.ParsePollInterval(string(p))
	if !ok {
		return model.NewValidationError("unknown poll interval %q", p)
	}
	return m.update(ctx, func(s *model.Settings) error {
		s.PollInterval = parsed
		return nil
	})
}

// SaveRefreshInterval stores the dashboard polling period in seconds.
func (m *Manager) SaveRefreshInterval(ctx context.Context, seconds int) error {
	if seconds < model.MinRefreshSeconds || seconds > model.MaxRefreshSeconds {
		return model.NewValidationError("refresh interval must be between %d and %d seconds",
			model.MinRefreshSeconds, model.MaxRefreshSeconds)
	}
	return m.update(ctx, func(s *model.Settings) error {
		s.RefreshSeconds = seconds
		return nil
	})
}

// MarkSent records a successful notification dispatch at t.
func (m *Manager) MarkSent(ctx context.Context, t time.Time) error {
	return m.update(ctx, func(s *model.Settings) error {
		s.Email.LastSent = t.Unix()
		return nil
	})
}
