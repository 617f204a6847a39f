package moderation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/rottengram/rottenshield/internal/i18n"
)

var (
	ErrDurationNotPositive = errors.New("duration must be positive")
	ErrHoursLimit          = errors.New("hours cannot exceed 24")
	ErrMinutesLimit        = errors.New("minutes cannot exceed 60")
	ErrSecondsLimit        = errors.New("seconds cannot exceed 60")
	ErrDurationTooLong     = errors.New("duration exceeds the maximum")
	ErrDurationFormat      = errors.New("invalid duration format")
)

var (
	durationToken = regexp.MustCompile(`^(\d+[hms])+$`)
	durationPart  = regexp.MustCompile(`(\d+)([hms])`)
)

// SplitDuration separates duration tokens such as "1h30m" or "20s" from the other arguments.
func SplitDuration(args []string) (parts, rest []string) {
	for _, arg := range args {
		if durationToken.MatchString(strings.ToLower(arg)) {
			parts = append(parts, strings.ToLower(arg))
			continue
		}
		rest = append(rest, arg)
	}
	return parts, rest
}

// ParseDuration sums tokens like "1h 30m 20s" or "1h30m". Each amount must be
// positive, hours at most 24, minutes and seconds at most 60, and the total at most limit.
func ParseDuration(s string, limit time.Duration) (time.Duration, error) {
	matches := durationPart.FindAllStringSubmatch(strings.ToLower(s), -1)
	if len(matches) == 0 {
		return 0, ErrDurationFormat
	}

	var total time.Duration
	for _, m := range matches {
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, errors.Wrap(ErrDurationFormat, err.Error())
		}
		if amount <= 0 {
			return 0, ErrDurationNotPositive
		}
		switch m[2] {
		case "h":
			if amount > 24 {
				return 0, ErrHoursLimit
			}
			total += time.Duration(amount) * time.Hour
		case "m":
			if amount > 60 {
				return 0, ErrMinutesLimit
			}
			total += time.Duration(amount) * time.Minute
		case "s":
			if amount > 60 {
				return 0, ErrSecondsLimit
			}
			total += time.Duration(amount) * time.Second
		}
	}
	if total > limit {
		return 0, ErrDurationTooLong
	}
	return total, nil
}

func durationErrorText(err error, limit time.Duration, lang string) string {
	var reason string
	switch {
	case errors.Is(err, ErrDurationNotPositive):
		reason = i18n.Get("The duration must be positive.", lang)
	case errors.Is(err, ErrHoursLimit):
		reason = i18n.Get("Hours cannot exceed 24.", lang)
	case errors.Is(err, ErrMinutesLimit):
		reason = i18n.Get("Minutes cannot exceed 60.", lang)
	case errors.Is(err, ErrSecondsLimit):
		reason = i18n.Get("Seconds cannot exceed 60.", lang)
	case errors.Is(err, ErrDurationTooLong):
		reason = fmt.Sprintf(i18n.Get("The maximum allowed duration is %s.", lang), i18n.FormatDuration(limit, lang))
	default:
		reason = i18n.Get("Invalid duration format. Use for example: 5m, 1h30m, 30s or 1h 30m 20s.", lang)
	}
	return fmt.Sprintf(i18n.Get("❌ %s\nValid examples: 5m, 1h30m, 30s, 1h 10m 20s.", lang), reason)
}
