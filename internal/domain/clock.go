package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const SecondsPerDay = 24 * 3600

// ParseClock converts "HH:MM" or "HH:MM:SS" into seconds since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("parse clock %q: %w", s, ErrInvalidClock)
	}

	limits := []int{23, 59, 59}
	fields := make([]int, 3)
	for i, p := range parts {
		if p == "" || len(p) > 2 || strings.TrimLeft(p, "0123456789") != "" {
			return 0, fmt.Errorf("parse clock %q: %w", s, ErrInvalidClock)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("parse clock %q: %w", s, ErrInvalidClock)
		}
		fields[i] = v
	}

	return fields[0]*3600 + fields[1]*60 + fields[2], nil
}

// FormatClock renders seconds since midnight as "HH:MM".
// Hours keep counting past 23 so that arrivals after midnight stay ordered.
func FormatClock(sec int) string {
	if sec < 0 {
		return "-" + FormatClock(-sec)
	}
	return fmt.Sprintf("%02d:%02d", sec/3600, (sec%3600)/60)
}
