package service

import (
	"fmt"
	"strconv"
	"strings"
)

// parseClock converts a wall-clock "HH:MM" string into minutes since midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", value)
	}
	return hours*60 + minutes, nil
}

// overlaps reports whether two half-open intervals [startA, endA) and
// [startB, endB) intersect. Touching boundaries do not overlap.
func overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// mustClock is for values already validated upstream; malformed input maps to
// minute 0 so a bad row never panics a detection pass.
func mustClock(value string) int {
	m, err := parseClock(value)
	if err != nil {
		return 0
	}
	return m
}
