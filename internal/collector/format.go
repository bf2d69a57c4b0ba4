package collector

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MemoryLimitUnbounded is returned by ParseMemoryLimit for input it
// cannot turn into a positive byte count.
const MemoryLimitUnbounded int64 = math.MaxInt64

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders b with a binary unit, e.g. "1.50 KB".
func FormatBytes(b float64) string {
	if b <= 0 {
		return "0 B"
	}
	pow := int(math.Floor(math.Log2(b) / 10))
	if pow < 0 {
		pow = 0
	}
	if pow > len(byteUnits)-1 {
		pow = len(byteUnits) - 1
	}
	return fmt.Sprintf("%.2f %s", b/math.Pow(1024, float64(pow)), byteUnits[pow])
}

// ParseMemoryLimit converts a size such as "128M" or "2g" to bytes. The
// k, m and g suffixes are case-insensitive and multiply by 1024 per step.
// Only the leading integer is used, so "12.5M" is 12M. Input without a
// positive leading integer yields MemoryLimitUnbounded.
func ParseMemoryLimit(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return MemoryLimitUnbounded
	}

	steps := 0
	switch s[len(s)-1] {
	case 'g', 'G':
		steps = 3
	case 'm', 'M':
		steps = 2
	case 'k', 'K':
		steps = 1
	}
	if steps > 0 {
		s = strings.TrimSpace(s[:len(s)-1])
	}

	n, err := strconv.ParseInt(leadingInt(s), 10, 64)
	if err != nil || n <= 0 {
		return MemoryLimitUnbounded
	}
	for i := 0; i < steps; i++ {
		if n > math.MaxInt64/1024 {
			return MemoryLimitUnbounded
		}
		n *= 1024
	}
	return n
}

// leadingInt returns the optional sign and digits s starts with.
func leadingInt(s string) string {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// FormatLoad renders a load average with two decimals. Negative values
// are shown as zero.
func FormatLoad(v float64) string {
	if v < 0 {
		v = 0
	}
	return fmt.Sprintf("%.2f", v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
