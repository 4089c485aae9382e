// Package worktime converts route working-time segments into decimal hours.
package worktime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/route-roster/backend/internal/domain"
)

const minutesPerDay = 24 * 60

// ParseWorkingHours decodes the stored working_hours document. Older rows hold the document
// as a JSON string, so a quoted payload is unwrapped once before decoding.
func ParseWorkingHours(raw []byte) (domain.WorkingHours, error) {
	var wh domain.WorkingHours

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return wh, nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return wh, fmt.Errorf("%w: working hours: %v", domain.ErrMalformedData, err)
		}
		trimmed = inner
	}

	if err := json.Unmarshal([]byte(trimmed), &wh); err != nil {
		return domain.WorkingHours{}, fmt.Errorf("%w: working hours: %v", domain.ErrMalformedData, err)
	}

	return wh, nil
}

// HasSegments reports whether at least one segment carries both a start and an end.
func HasSegments(wh domain.WorkingHours) bool {
	for _, seg := range wh.Segments {
		if strings.TrimSpace(seg.Start) != "" && strings.TrimSpace(seg.End) != "" {
			return true
		}
	}
	return false
}

// Duration returns the total length of all segments in decimal hours.
// A segment whose end is before its start crosses midnight. Equal start and end is zero.
// Any malformed segment makes the whole result 0 together with an ErrMalformedData error.
func Duration(wh domain.WorkingHours) (float64, error) {
	total := 0

	for i, seg := range wh.Segments {
		if strings.TrimSpace(seg.Start) == "" && strings.TrimSpace(seg.End) == "" {
			continue
		}

		minutes, err := segmentMinutes(seg)
		if err != nil {
			return 0, fmt.Errorf("segment %d: %w", i, err)
		}
		total += minutes
	}

	return float64(total) / 60, nil
}

// RouteDuration parses the raw working hours of a route and returns its duration.
func RouteDuration(route *domain.Route) (float64, error) {
	wh, err := ParseWorkingHours(route.WorkingHours)
	if err != nil {
		return 0, err
	}
	return Duration(wh)
}

// segmentMinutes returns the minutes between start and end, wrapping past midnight.
func segmentMinutes(seg domain.Segment) (int, error) {
	start, err := clockMinutes(seg.Start)
	if err != nil {
		return 0, err
	}
	end, err := clockMinutes(seg.End)
	if err != nil {
		return 0, err
	}

	if end < start {
		end += minutesPerDay
	}
	return end - start, nil
}

// clockMinutes parses HH:MM (or HH:MM:SS, seconds dropped) into minutes after midnight.
func clockMinutes(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: invalid clock time %q", domain.ErrMalformedData, s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: invalid hour in %q", domain.ErrMalformedData, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: invalid minute in %q", domain.ErrMalformedData, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: invalid second in %q", domain.ErrMalformedData, s)
		}
	}

	return h*60 + m, nil
}
