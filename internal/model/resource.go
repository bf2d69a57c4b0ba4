package model

import "strings"

// ResourceType identifies one of the monitored host resources.
type ResourceType string

const (
	ResourceMemory ResourceType = "memory"
	ResourceDisk   ResourceType = "disk"
	ResourceCPU    ResourceType = "cpu"
)

// ResourceTypes is the closed, ordered set of monitored resources.
var ResourceTypes = []ResourceType{ResourceMemory, ResourceDisk, ResourceCPU}

// ParseResourceType returns the resource type named by s.
func ParseResourceType(s string) (ResourceType, bool) {
	switch ResourceType(strings.ToLower(strings.TrimSpace(s))) {
	case ResourceMemory:
		return ResourceMemory, true
	case ResourceDisk:
		return ResourceDisk, true
	case ResourceCPU:
		return ResourceCPU, true
	default:
		return "", false
	}
}

// Valid reports whether t is a member of the closed resource set.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceMemory, ResourceDisk, ResourceCPU:
		return true
	default:
		return false
	}
}

// Label returns the human-readable name used in messages.
func (t ResourceType) Label() string {
	switch t {
	case ResourceMemory:
		return "Memory"
	case ResourceDisk:
		return "Disk"
	case ResourceCPU:
		return "CPU"
	default:
		return string(t)
	}
}

// IsPercentage reports whether levels of t are percentages (memory, disk)
// rather than absolute load values (cpu).
func (t ResourceType) IsPercentage() bool {
	switch t {
	case ResourceMemory, ResourceDisk:
		return true
	default:
		return false
	}
}

// Status is the display severity of a reading.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// ThresholdPair holds the warning and critical levels for one resource.
type ThresholdPair struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}
