// Package schedule resolves staff working hours from weekly shift codes
// and per-weekday overrides.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"glamora/internal/config"
)

// ErrStaffNotFound is returned when a staff name is not in the roster.
var ErrStaffNotFound = errors.New("staff not found")

// Interval is a wall-clock working window within a single day.
type Interval struct {
	Start string // "09:00"
	End   string // "15:00"
}

// OnDate materializes the interval on a calendar date in its location.
func (iv Interval) OnDate(date time.Time) (time.Time, time.Time, error) {
	start, err := ParseClock(date, iv.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseClock(date, iv.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ParseClock combines a "HH:MM" string with the date's day and location.
func ParseClock(date time.Time, clock string) (time.Time, error) {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %s", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute: %w", err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// Staff is one roster entry.
type Staff struct {
	Name       string
	Capability string

	// shiftCodes maps weekday to the configured shift-code sequence.
	// Code 0 means no shift (a weekday override may still apply).
	shiftCodes map[time.Weekday][]int
}

// Roster holds the staff list, the shift-code table and overrides.
// It is built once at startup and read-only afterwards.
type Roster struct {
	staff     []*Staff
	byName    map[string]*Staff
	shifts    map[int]Interval
	overrides map[string]map[time.Weekday]Interval
}

// New builds a roster from salon configuration.
func New(cfg *config.SalonConfig) (*Roster, error) {
	r := &Roster{
		byName:    make(map[string]*Staff, len(cfg.Staff)),
		shifts:    make(map[int]Interval, len(cfg.Shifts)),
		overrides: make(map[string]map[time.Weekday]Interval),
	}

	for _, sh := range cfg.Shifts {
		r.shifts[sh.Code] = Interval{Start: sh.Start, End: sh.End}
	}

	for _, sc := range cfg.Staff {
		st := &Staff{
			Name:       sc.Name,
			Capability: sc.Capability,
			shiftCodes: make(map[time.Weekday][]int, len(sc.Schedule)),
		}
		for dayName, codes := range sc.Schedule {
			day, err := parseWeekday(dayName)
			if err != nil {
				return nil, fmt.Errorf("staff %s: %w", sc.Name, err)
			}
			st.shiftCodes[day] = codes
		}
		r.staff = append(r.staff, st)
		r.byName[st.Name] = st
	}

	for _, o := range cfg.Overrides {
		day, err := parseWeekday(o.Weekday)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", o.Staff, err)
		}
		if r.overrides[o.Staff] == nil {
			r.overrides[o.Staff] = make(map[time.Weekday]Interval)
		}
		r.overrides[o.Staff][day] = Interval{Start: o.Start, End: o.End}
	}

	return r, nil
}

// WorkingHours returns the working interval for a staff member on a
// weekday. ok is false when the staff member does not work that day;
// that is a valid result, not an error. An unknown staff name returns
// ErrStaffNotFound.
func (r *Roster) WorkingHours(staffName string, day time.Weekday) (Interval, bool, error) {
	staff, ok := r.byName[staffName]
	if !ok {
		return Interval{}, false, fmt.Errorf("%w: %s", ErrStaffNotFound, staffName)
	}

	// Overrides win over the shift-code table.
	if iv, ok := r.overrides[staffName][day]; ok {
		return iv, true, nil
	}

	codes := staff.shiftCodes[day]
	if len(codes) == 0 || codes[0] == 0 {
		return Interval{}, false, nil
	}

	iv, ok := r.shifts[codes[0]]
	if !ok {
		return Interval{}, false, fmt.Errorf("staff %s: unknown shift code %d", staffName, codes[0])
	}
	return iv, true, nil
}

// Find returns a roster entry by name.
func (r *Roster) Find(name string) (*Staff, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// ByCapability returns staff with the given capability tag in declaration
// order.
func (r *Roster) ByCapability(tag string) []*Staff {
	var out []*Staff
	for _, s := range r.staff {
		if s.Capability == tag {
			out = append(out, s)
		}
	}
	return out
}

// All returns the roster in declaration order.
func (r *Roster) All() []*Staff {
	return r.staff
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(name) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
