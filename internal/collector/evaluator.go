package collector

import "github.com/playok/resmon/internal/model"

// Display severity bands, as a percentage of the base threshold.
const (
	warningBand  = 80.0
	criticalBand = 90.0
)

// Evaluation is the display severity of one reading.
type Evaluation struct {
	PercentOfThreshold float64
	Status             model.Status
}

// Evaluate rates value against the base threshold of t. The reading is
// critical at 90% of the threshold and a warning at 80%. A missing or
// non-positive threshold rates everything normal.
func Evaluate(s model.Settings, t model.ResourceType, value float64) Evaluation {
	base := s.BaseThresholds[t]
	if base <= 0 {
		return Evaluation{Status: model.StatusNormal}
	}
	pct := value / base * 100
	ev := Evaluation{PercentOfThreshold: round2(pct), Status: model.StatusNormal}
	switch {
	case pct >= criticalBand:
		ev.Status = model.StatusCritical
	case pct >= warningBand:
		ev.Status = model.StatusWarning
	}
	return ev
}

// Breached reports whether value reaches the warning level of t. This is
// what records alerts and triggers notifications.
func Breached(s model.Settings, t model.ResourceType, value float64) bool {
	p, ok := s.WarningLevels[t]
	if !ok {
		return false
	}
	return value >= p.Warning
}
