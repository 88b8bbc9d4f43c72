package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts an HH:MM time of day to minutes after midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("time %q must be HH:MM", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("time %q has invalid hour", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q has invalid minute", value)
	}
	return hours*60 + minutes, nil
}

// Interval is a half-open [Start, End) range in minutes after midnight.
type Interval struct {
	Start int
	End   int
}

// ParseInterval parses and validates a start/end pair.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if e <= s {
		return Interval{}, fmt.Errorf("end time %s must be after start time %s", end, start)
	}
	return Interval{Start: s, End: e}, nil
}

// Overlaps applies the strict half-open test; touching intervals do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}
