package settings

import (
	"net/mail"
	"strings"

	"github.com/playok/resmon/internal/model"
)

// clampLevel bounds a level to the valid range of resource t.
func clampLevel(t model.ResourceType, v float64) float64 {
	if v < 0 {
		return 0
	}
	if t.IsPercentage() && v > 100 {
		return 100
	}
	return v
}

// ValidateWarningLevels clamps every pair and checks critical > warning.
// The first failing type, in canonical order, is reported.
func ValidateWarningLevels(levels map[model.ResourceType]model.ThresholdPair) (map[model.ResourceType]model.ThresholdPair, error) {
	for t := range levels {
		if !t.Valid() {
			return nil, model.NewValidationError("unknown resource type %q", t)
		}
	}
	out := make(map[model.ResourceType]model.ThresholdPair, len(levels))
	for _, t := range model.ResourceTypes {
		p, ok := levels[t]
		if !ok {
			continue
		}
		p.Warning = clampLevel(t, p.Warning)
		p.Critical = clampLevel(t, p.Critical)
		if p.Critical <= p.Warning {
			return nil, model.NewValidationError("%s: critical level must be greater than warning level", t.Label())
		}
		out[t] = p
	}
	return out, nil
}

// ValidateBaseThresholds clamps every threshold and requires it to be
// positive.
func ValidateBaseThresholds(thresholds map[model.ResourceType]float64) (map[model.ResourceType]float64, error) {
	for t := range thresholds {
		if !t.Valid() {
			return nil, model.NewValidationError("unknown resource type %q", t)
		}
	}
	out := make(map[model.ResourceType]float64, len(thresholds))
	for _, t := range model.ResourceTypes {
		v, ok := thresholds[t]
		if !ok {
			continue
		}
		v = clampLevel(t, v)
		if v <= 0 {
			return nil, model.NewValidationError("%s: threshold must be greater than zero", t.Label())
		}
		out[t] = v
	}
	return out, nil
}

// ValidateEmail normalizes the e-mail input. Recipients are trimmed and
// de-duplicated; any unparsable address rejects the whole input.
func ValidateEmail(in EmailInput) (model.EmailSettings, error) {
	freq, ok := model.ParseFrequency(in.Frequency)
	if !ok {
		return model.EmailSettings{}, model.NewValidationError("unknown notification frequency %q", in.Frequency)
	}

	recipients := []string{}
	seen := make(map[string]bool)
	for _, r := range in.Recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		addr, err := mail.ParseAddress(r)
		if err != nil || addr.Name != "" {
			return model.EmailSettings{}, model.NewValidationError("invalid recipient address %q", r)
		}
		key := strings.ToLower(addr.Address)
		if seen[key] {
			continue
		}
		seen[key] = true
		recipients = append(recipients, addr.Address)
	}

	return model.EmailSettings{
		Enabled:        in.Enabled,
		Recipients:     recipients,
		Frequency:      freq,
		NotifyWarning:  in.NotifyWarning,
		NotifyCritical: in.NotifyCritical,
	}, nil
}
