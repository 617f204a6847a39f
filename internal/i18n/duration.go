package i18n

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders d as hours, minutes and seconds, e.g. "1 hour and 30 minutes".
// Sub-second remainders are dropped.
func FormatDuration(d time.Duration, lang string) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, plural(hours, Get("%d hour", lang), Get("%d hours", lang)))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, Get("%d minute", lang), Get("%d minutes", lang)))
	}
	if seconds > 0 {
		parts = append(parts, plural(seconds, Get("%d second", lang), Get("%d seconds", lang)))
	}
	if len(parts) == 0 {
		return fmt.Sprintf(Get("%d seconds", lang), 0)
	}
	return strings.Join(parts, " "+Get("and", lang)+" ")
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return fmt.Sprintf(one, n)
	}
	return fmt.Sprintf(many, n)
}
