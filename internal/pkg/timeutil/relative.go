package timeutil

import (
	"fmt"
	"time"
)

// FormatRelative renders t relative to now the way the history sidebar shows it.
// Months are approximated as 30 days; anything older keeps counting months.
func FormatRelative(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		return plural(int(diff/time.Minute), "minute")
	}
	if diff < 24*time.Hour {
		return plural(int(diff/time.Hour), "hour")
	}
	days := int(diff / (24 * time.Hour))
	if days < 30 {
		return plural(days, "day")
	}
	return plural(days/30, "month")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
