// Package slots enumerates bookable time windows for a staff member and
// service, and decides conflicts against existing calendar events.
package slots

import "time"

// BusyInterval is an occupied window on a staff member's calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [aStart, aEnd) intersects [bStart, bEnd).
// Intervals are half-open: a slot ending exactly when another begins does
// not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// IsBookable decides whether a candidate interval can be booked given the
// staff member's busy intervals and blackout days. A candidate on a
// blackout day is rejected unconditionally, regardless of the blocking
// event's own time span. Blackout days are keyed by date string
// ("2006-01-02") in the candidate's location.
func IsBookable(start, end time.Time, busy []BusyInterval, blackoutDays map[string]struct{}) bool {
	if _, blocked := blackoutDays[start.Format(dateLayout)]; blocked {
		return false
	}
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return false
		}
	}
	return true
}
