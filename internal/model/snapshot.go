package model

// NotAvailable is shown for values that could not be measured.
const NotAvailable = "N/A"

// Reading is the evaluated sample of a single resource.
type Reading struct {
	Type      ResourceType `json:"type"`
	Supported bool         `json:"supported"`

	// Raw is bytes in use for memory and disk, the 1-minute load average for cpu.
	Raw   float64 `json:"raw"`
	Limit float64 `json:"limit,omitempty"`

	Value      string `json:"value"`
	LimitValue string `json:"limit_value,omitempty"`
	Free       string `json:"free,omitempty"`

	// Level is a percentage for memory and disk and the load average for cpu.
	Level            float64 `json:"level"`
	ThresholdPercent float64 `json:"threshold_percent"`
	Status           Status  `json:"status"`
	Warning          bool    `json:"warning"`
}

// EmptyReading returns the placeholder used for unmeasured resources.
func EmptyReading(t ResourceType, supported bool) Reading {
	r := Reading{
		Type:      t,
		Supported: supported,
		Value:     NotAvailable,
		Status:    StatusNormal,
	}
	if t != ResourceCPU {
		r.LimitValue = NotAvailable
	}
	if t == ResourceDisk {
		r.Free = NotAvailable
	}
	return r
}

// Snapshot is one evaluation cycle across all resource types.
// A snapshot is never modified after it has been produced.
type Snapshot struct {
	Hostname    string                   `json:"hostname,omitempty"`
	Resources   map[ResourceType]Reading `json:"resources"`
	Support     map[ResourceType]bool    `json:"support"`
	Warnings    map[ResourceType]bool    `json:"warnings"`
	CollectedAt int64                    `json:"collected_at"`
	ExpiresAt   int64                    `json:"expires_at"`
}

// NewSnapshot returns a snapshot with every resource set to its placeholder.
func NewSnapshot(support map[ResourceType]bool) *Snapshot {
	s := &Snapshot{
		Resources: make(map[ResourceType]Reading, len(ResourceTypes)),
		Support:   make(map[ResourceType]bool, len(ResourceTypes)),
		Warnings:  make(map[ResourceType]bool, len(ResourceTypes)),
	}
	for _, t := range ResourceTypes {
		s.Support[t] = support[t]
		s.Warnings[t] = false
		s.Resources[t] = EmptyReading(t, support[t])
	}
	return s
}

// Reading returns the reading for t, or its placeholder.
func (s *Snapshot) Reading(t ResourceType) Reading {
	if r, ok := s.Resources[t]; ok {
		return r
	}
	return EmptyReading(t, false)
}

// AnyWarning reports whether any resource breached its warning level.
func (s *Snapshot) AnyWarning() bool {
	for _, t := range ResourceTypes {
		if s.Warnings[t] {
			return true
		}
	}
	return false
}

// Breached returns the breached resource types in canonical order.
func (s *Snapshot) Breached() []ResourceType {
	var out []ResourceType
	for _, t := range ResourceTypes {
		if s.Warnings[t] {
			out = append(out, t)
		}
	}
	return out
}
