package services

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLegDuration converts a textual leg duration from the optimizer into
// fractional minutes. The unit is taken strictly from the suffix: "3600s" is
// seconds, "21 mins" is minutes, "1 hour 5 mins" is hours plus minutes, and
// a bare number is seconds. The magnitude never guesses the unit.
func ParseLegDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse leg duration: empty value")
	}

	// Compact seconds form: "1234s", "123.4s".
	if strings.HasSuffix(s, "s") && !strings.Contains(s, " ") {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64); err == nil {
			return v / 60, nil
		}
	}

	// Bare number: seconds.
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v / 60, nil
	}

	// Word form: alternating value/unit tokens ("1 hour 5 mins").
	fields := strings.Fields(s)
	if len(fields)%2 != 0 {
		return 0, fmt.Errorf("parse leg duration: malformed value %q", s)
	}

	total := 0.0
	for i := 0; i < len(fields); i += 2 {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, fmt.Errorf("parse leg duration: bad number %q in %q", fields[i], s)
		}

		switch strings.ToLower(strings.TrimSuffix(fields[i+1], ".")) {
		case "hour", "hours", "hr", "hrs", "h":
			total += v * 60
		case "min", "mins", "minute", "minutes", "m":
			total += v
		case "sec", "secs", "second", "seconds", "s":
			total += v / 60
		default:
			return 0, fmt.Errorf("parse leg duration: unknown unit %q in %q", fields[i+1], s)
		}
	}

	return total, nil
}
