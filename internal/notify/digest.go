package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/playok/resmon/internal/model"
)

// Subject returns the digest subject line.
func Subject(site string, critical bool) string {
	if critical {
		return fmt.Sprintf("[%s] Resource Critical Alert", site)
	}
	return fmt.Sprintf("[%s] Resource Warning", site)
}

// Body returns the plain-text digest listing every warned resource.
func Body(site, dashboardURL string, warned []model.ResourceType, snap *model.Snapshot) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "Resource usage warnings have been triggered on %s:\n\n", site)
	for _, t := range warned {
		msg.WriteString(ResourceLine(t, snap.Reading(t)))
		msg.WriteString("\n")
	}
	fmt.Fprintf(&msg, "\nView details: %s", dashboardURL)
	return msg.String()
}

// ResourceLine describes one reading, e.g. "Disk Usage: 92%".
func ResourceLine(t model.ResourceType, r model.Reading) string {
	switch t {
	case model.ResourceMemory:
		return fmt.Sprintf("Memory Usage: %s%% (%s of %s)", FormatLevel(r.Level), r.Value, r.LimitValue)
	case model.ResourceDisk:
		return fmt.Sprintf("Disk Usage: %s%%", FormatLevel(r.Level))
	case model.ResourceCPU:
		return fmt.Sprintf("CPU Load: %s", r.Value)
	default:
		return ""
	}
}

// FormatLevel prints a level with the shortest exact representation, so
// 92 prints as "92" and 92.5 as "92.5".
func FormatLevel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
