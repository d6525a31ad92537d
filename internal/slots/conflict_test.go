package slots

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 9, 7, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		aStart   time.Time
		aEnd     time.Time
		bStart   time.Time
		bEnd     time.Time
		expected bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"a contains b", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"b contains a", at(10, 0), at(11, 0), at(9, 0), at(12, 0), true},
		{"touching end-to-start", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching start-to-end", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(9, 0), at(10, 0), at(11, 0), at(12, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
			// Overlap is symmetric.
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.expected {
				t.Errorf("symmetric call: expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsBookable(t *testing.T) {
	busy := []BusyInterval{
		{Start: at(10, 0), End: at(11, 0)},
		{Start: at(14, 0), End: at(14, 30)},
	}

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected bool
	}{
		{"free morning", at(9, 0), at(10, 0), true},
		{"conflicts with first busy", at(10, 30), at(11, 30), false},
		{"between busy intervals", at(11, 0), at(14, 0), true},
		{"conflicts with second busy", at(14, 0), at(15, 0), false},
		{"after all busy", at(14, 30), at(15, 30), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBookable(tt.start, tt.end, busy, nil); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsBookableBlackoutDay(t *testing.T) {
	blackout := map[string]struct{}{"2026-09-07": {}}

	// No busy intervals at all, still rejected: the whole day is blocked.
	if IsBookable(at(9, 0), at(10, 0), nil, blackout) {
		t.Error("blackout day must reject every candidate")
	}

	nextDay := time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC)
	if !IsBookable(nextDay, nextDay.Add(time.Hour), nil, blackout) {
		t.Error("day after blackout must be bookable")
	}
}
