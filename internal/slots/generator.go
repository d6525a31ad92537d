package slots

import (
	"context"
	"fmt"
	"time"

	"glamora/internal/calendar"
	"glamora/internal/catalog"
	"glamora/internal/schedule"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Slot is a candidate or confirmed bookable window. It is always derived,
// never the source of truth.
type Slot struct {
	Date        string `json:"date"`    // "2026-09-01"
	Time        string `json:"time"`    // "10:00"
	EndTime     string `json:"endTime"` // "11:00"
	StaffName   string `json:"staffName"`
	Available   bool   `json:"available"`
	Provisional bool   `json:"provisional,omitempty"`
}

// ExcludedSlot identifies a slot a client has already seen and rejected.
// An empty StaffName matches any staff member.
type ExcludedSlot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	StaffName string `json:"staffName,omitempty"`
}

func (e ExcludedSlot) matches(s Slot) bool {
	return e.Date == s.Date && e.Time == s.Time &&
		(e.StaffName == "" || e.StaffName == s.StaffName)
}

// CalendarReader is the read side of the external calendar used during
// slot generation.
type CalendarReader interface {
	ListEvents(ctx context.Context, start, end time.Time, subcalendarIDs []int64) ([]calendar.Event, error)
}

// Config holds generation knobs. Zero values fall back to 30-minute
// granularity, a 15-minute advance buffer and a 14-day horizon.
type Config struct {
	Granularity time.Duration
	MinAdvance  time.Duration
	HorizonDays int
}

// Generator enumerates available slots for a staff member and service.
type Generator struct {
	roster   *schedule.Roster
	services *catalog.Catalog
	cal      CalendarReader
	subcals  map[string]int64
	blackout calendar.BlackoutMatcher
	loc      *time.Location

	granularity time.Duration
	minAdvance  time.Duration
	horizonDays int

	now func() time.Time
}

// NewGenerator creates a slot generator.
func NewGenerator(
	roster *schedule.Roster,
	services *catalog.Catalog,
	cal CalendarReader,
	subcals map[string]int64,
	blackout calendar.BlackoutMatcher,
	loc *time.Location,
	cfg Config,
) *Generator {
	if cfg.Granularity <= 0 {
		cfg.Granularity = 30 * time.Minute
	}
	if cfg.MinAdvance <= 0 {
		cfg.MinAdvance = 15 * time.Minute
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 14
	}
	return &Generator{
		roster:      roster,
		services:    services,
		cal:         cal,
		subcals:     subcals,
		blackout:    blackout,
		loc:         loc,
		granularity: cfg.Granularity,
		minAdvance:  cfg.MinAdvance,
		horizonDays: cfg.HorizonDays,
		now:         time.Now,
	}
}

// SetClock overrides the time source.
func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// FindAvailableSlots walks the search window day by day and returns up to
// maxSlots bookable slots in (date, time) ascending order. startDate and
// endDate are "2006-01-02" strings; empty startDate defaults to tomorrow,
// a past startDate clamps to tomorrow, empty endDate defaults to
// startDate plus the search horizon.
//
// The whole window costs exactly two calendar reads: one unfiltered (for
// blackout attribution) and one filtered to the staff member (for busy
// intervals).
func (g *Generator) FindAvailableSlots(
	ctx context.Context,
	staffName, serviceName string,
	startDate, endDate string,
	maxSlots int,
	exclude []ExcludedSlot,
) ([]Slot, error) {
	svc, ok := g.services.Find(serviceName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrServiceNotFound, serviceName)
	}
	subID, ok := g.subcals[staffName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schedule.ErrStaffNotFound, staffName)
	}
	if maxSlots <= 0 {
		maxSlots = 10
	}

	now := g.now().In(g.loc)
	today := dayStart(now)
	tomorrow := today.AddDate(0, 0, 1)

	start := tomorrow
	if startDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, startDate, g.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
		start = parsed
	}
	if start.Before(today) {
		start = tomorrow
	}

	end := start.AddDate(0, 0, g.horizonDays)
	if endDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, endDate, g.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
		}
		end = parsed
	}

	allEvents, err := g.cal.ListEvents(ctx, start, end, nil)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	staffEvents, err := g.cal.ListEvents(ctx, start, end, []int64{subID})
	if err != nil {
		return nil, fmt.Errorf("list staff events: %w", err)
	}

	blackoutDays := g.blackoutDays(allEvents, subID)
	busyByDay := g.busyByDay(staffEvents)

	var out []Slot
	for day := start; !day.After(end) && len(out) < maxSlots; day = day.AddDate(0, 0, 1) {
		dateStr := day.Format(dateLayout)
		if _, blocked := blackoutDays[dateStr]; blocked {
			continue
		}

		hours, working, err := g.roster.WorkingHours(staffName, day.Weekday())
		if err != nil {
			return nil, err
		}
		if !working {
			continue
		}

		workStart, workEnd, err := hours.OnDate(day)
		if err != nil {
			return nil, err
		}

		cursor := workStart
		if dateStr == now.Format(dateLayout) {
			// Never offer a slot inside the minimum-advance buffer.
			min := now.Add(g.minAdvance)
			if cursor.Before(min) {
				cursor = roundUp(min, g.granularity)
			}
		}

		for !cursor.Add(svc.Duration()).After(workEnd) && len(out) < maxSlots {
			slotEnd := cursor.Add(svc.Duration())
			if IsBookable(cursor, slotEnd, busyByDay[dateStr], nil) {
				slot := Slot{
					Date:      dateStr,
					Time:      cursor.Format(clockLayout),
					EndTime:   slotEnd.Format(clockLayout),
					StaffName: staffName,
					Available: true,
				}
				if !isExcluded(slot, exclude) {
					out = append(out, slot)
				}
			}
			cursor = cursor.Add(g.granularity)
		}
	}

	return out, nil
}

// CheckAvailability decides whether one specific slot is bookable:
// inside working hours, not on a blackout day and free of conflicts.
func (g *Generator) CheckAvailability(ctx context.Context, staffName, date, clock string, durationMinutes int) (bool, error) {
	subID, ok := g.subcals[staffName]
	if !ok {
		return false, fmt.Errorf("%w: %s", schedule.ErrStaffNotFound, staffName)
	}

	day, err := time.ParseInLocation(dateLayout, date, g.loc)
	if err != nil {
		return false, fmt.Errorf("invalid date %q: %w", date, err)
	}
	start, err := schedule.ParseClock(day, clock)
	if err != nil {
		return false, err
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	hours, working, err := g.roster.WorkingHours(staffName, day.Weekday())
	if err != nil {
		return false, err
	}
	if !working {
		return false, nil
	}
	workStart, workEnd, err := hours.OnDate(day)
	if err != nil {
		return false, err
	}
	if start.Before(workStart) || end.After(workEnd) {
		return false, nil
	}

	allEvents, err := g.cal.ListEvents(ctx, day, day, nil)
	if err != nil {
		return false, fmt.Errorf("list events: %w", err)
	}
	staffEvents, err := g.cal.ListEvents(ctx, day, day, []int64{subID})
	if err != nil {
		return false, fmt.Errorf("list staff events: %w", err)
	}

	blackoutDays := g.blackoutDays(allEvents, subID)
	busy := g.busyByDay(staffEvents)[date]

	return IsBookable(start, end, busy, blackoutDays), nil
}

// blackoutDays collects the calendar days on which a blackout event is
// attributed to the staff member's subcalendar. The day the event starts
// on is blocked in full.
func (g *Generator) blackoutDays(events []calendar.Event, subID int64) map[string]struct{} {
	days := make(map[string]struct{})
	for _, ev := range events {
		if g.blackout.Match(ev) && ev.AttributedTo(subID) {
			days[ev.StartDT.In(g.loc).Format(dateLayout)] = struct{}{}
		}
	}
	return days
}

func (g *Generator) busyByDay(events []calendar.Event) map[string][]BusyInterval {
	byDay := make(map[string][]BusyInterval)
	for _, ev := range events {
		start := ev.StartDT.In(g.loc)
		byDay[start.Format(dateLayout)] = append(byDay[start.Format(dateLayout)], BusyInterval{
			Start: start,
			End:   ev.EndDT.In(g.loc),
		})
	}
	return byDay
}

func isExcluded(s Slot, exclude []ExcludedSlot) bool {
	for _, e := range exclude {
		if e.matches(s) {
			return true
		}
	}
	return false
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// roundUp rounds t up to the next granularity boundary within the day.
func roundUp(t time.Time, granularity time.Duration) time.Time {
	step := int(granularity.Minutes())
	minutes := t.Hour()*60 + t.Minute()
	if t.Second() > 0 || t.Nanosecond() > 0 {
		minutes++
	}
	if rem := minutes % step; rem != 0 {
		minutes += step - rem
	}
	return time.Date(t.Year(), t.Month(), t.Day(), minutes/60, minutes%60, 0, 0, t.Location())
}
