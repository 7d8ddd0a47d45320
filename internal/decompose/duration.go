package decompose

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var unitReplacer = strings.NewReplacer(
	"minutes", "m",
	"minute", "m",
	"mins", "m",
	"min", "m",
	"hours", "h",
	"hour", "h",
	"hrs", "h",
	"hr", "h",
	" ", "",
)

// ParseMinutes converts an estimated time string to whole minutes.
// It accepts Go durations with "min" spelled out ("30min", "1h30m", "1.5h")
// and bare integers ("90"). Anything else is zero.
func ParseMinutes(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	if d, err := time.ParseDuration(unitReplacer.Replace(s)); err == nil {
		if d < 0 {
			return 0
		}
		return int(d.Minutes())
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// FormatMinutes renders minutes as "4h 20min", or "45min" under an hour.
func FormatMinutes(total int) string {
	hours, minutes := total/60, total%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	}
	return fmt.Sprintf("%dmin", minutes)
}
