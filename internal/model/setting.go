package model

import (
	"strings"
	"time"
)

// Frequency is the minimum cadence between notification e-mails.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
)

// ParseFrequency returns the frequency named by s.
func ParseFrequency(s string) (Frequency, bool) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyImmediate:
		return FrequencyImmediate, true
	case FrequencyHourly:
		return FrequencyHourly, true
	case FrequencyDaily:
		return FrequencyDaily, true
	default:
		return "", false
	}
}

// MinGap returns the minimum time between two dispatches.
func (f Frequency) MinGap() time.Duration {
	switch f {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// PollInterval is the cadence of the scheduled resource check.
type PollInterval string

const (
	Poll5Min   PollInterval = "5min"
	Poll15Min  PollInterval = "15min"
	Poll30Min  PollInterval = "30min"
	PollHourly PollInterval = "hourly"
)

// ParsePollInterval returns the poll interval named by s.
func ParsePollInterval(s string) (PollInterval, bool) {
	switch PollInterval(strings.ToLower(strings.TrimSpace(s))) {
	case Poll5Min:
		return Poll5Min, true
	case Poll15Min:
		return Poll15Min, true
	case Poll30Min:
		return Poll30Min, true
	case PollHourly:
		return PollHourly, true
	default:
		return "", false
	}
}

// Duration returns the tick period of the interval.
func (p PollInterval) Duration() time.Duration {
	switch p {
	case Poll5Min:
		return 5 * time.Minute
	case Poll15Min:
		return 15 * time.Minute
	case Poll30Min:
		return 30 * time.Minute
	default:
		return time.Hour
	}
}

// EmailSettings controls notification e-mails.
type EmailSettings struct {
	Enabled        bool      `json:"enabled"`
	Recipients     []string  `json:"recipients"`
	Frequency      Frequency `json:"frequency"`
	NotifyWarning  bool      `json:"notify_warning"`
	NotifyCritical bool      `json:"notify_critical"`
	// LastSent is the unix time of the last successful dispatch.
	LastSent int64 `json:"last_sent"`
}

// Settings is the runtime configuration persisted in the database.
type Settings struct {
	Version        string                         `json:"version"`
	BaseThresholds map[ResourceType]float64       `json:"thresholds"`
	WarningLevels  map[ResourceType]ThresholdPair `json:"warning_levels"`
	Email          EmailSettings                  `json:"email"`
	PollInterval   PollInterval                   `json:"cron_interval"`
	RefreshSeconds int                            `json:"refresh_seconds"`
}

// SettingsVersion is written with every saved settings blob.
const SettingsVersion = "1.0.0"

// Dashboard refresh bounds, in seconds.
const (
	MinRefreshSeconds     = 10
	MaxRefreshSeconds     = 300
	DefaultRefreshSeconds = 60
)

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() Settings {
	return Settings{
		Version: SettingsVersion,
		BaseThresholds: map[ResourceType]float64{
			ResourceMemory: 80,
			ResourceDisk:   85,
			ResourceCPU:    5,
		},
		WarningLevels: map[ResourceType]ThresholdPair{
			ResourceMemory: {Warning: 80, Critical: 90},
			ResourceDisk:   {Warning: 80, Critical: 90},
			ResourceCPU:    {Warning: 5, Critical: 8},
		},
		Email: EmailSettings{
			Enabled:        true,
			Recipients:     []string{},
			Frequency:      FrequencyImmediate,
			NotifyWarning:  true,
			NotifyCritical: true,
		},
		PollInterval:   PollHourly,
		RefreshSeconds: DefaultRefreshSeconds,
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	out.BaseThresholds = make(map[ResourceType]float64, len(s.BaseThresholds))
	for k, v := range s.BaseThresholds {
		out.BaseThresholds[k] = v
	}
	out.WarningLevels = make(map[ResourceType]ThresholdPair, len(s.WarningLevels))
	for k, v := range s.WarningLevels {
		out.WarningLevels[k] = v
	}
	out.Email.Recipients = append([]string{}, s.Email.Recipients...)
	return out
}
