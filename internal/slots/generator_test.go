package slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glamora/internal/calendar"
	"glamora/internal/catalog"
	"glamora/internal/config"
	"glamora/internal/schedule"
)

const (
	nikaSubcal  = int64(11754110)
	liviaSubcal = int64(12448216)
)

// fakeCalendar serves canned events and applies the subcalendar filter the
// way the provider would.
type fakeCalendar struct {
	events []calendar.Event
	calls  int
}

func (f *fakeCalendar) ListEvents(_ context.Context, _, _ time.Time, subcalendarIDs []int64) ([]calendar.Event, error) {
	f.calls++
	if len(subcalendarIDs) == 0 {
		return f.events, nil
	}
	var out []calendar.Event
	for _, ev := range f.events {
		for _, id := range subcalendarIDs {
			if ev.AttributedTo(id) {
				out = append(out, ev)
				break
			}
		}
	}
	return out, nil
}

func newTestGenerator(t *testing.T, cal *fakeCalendar) *Generator {
	t.Helper()
	salon := config.DefaultSalon()
	roster, err := schedule.New(salon)
	require.NoError(t, err)

	g := NewGenerator(
		roster,
		catalog.New(salon),
		cal,
		salon.SubcalendarMap(),
		calendar.NewBlackoutMatcher(config.DefaultBlackoutKeywords()),
		time.UTC,
		Config{},
	)
	// Tuesday morning, a week before the searched Monday.
	g.SetClock(func() time.Time {
		return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	})
	return g
}

func event(subcal int64, start, end time.Time, title string) calendar.Event {
	return calendar.Event{
		SubcalendarID: subcal,
		StartDT:       start,
		EndDT:         end,
		Title:         title,
	}
}

func TestFindAvailableSlotsFullDay(t *testing.T) {
	cal := &fakeCalendar{}
	g := newTestGenerator(t, cal)

	// Nika works 09:00-15:00 on Monday; a 60-minute service on a 30-minute
	// grid yields starts 09:00 through 14:00.
	found, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-09-07", "2026-09-07", 50, nil)
	require.NoError(t, err)

	require.Len(t, found, 11)
	assert.Equal(t, "09:00", found[0].Time)
	assert.Equal(t, "10:00", found[0].EndTime)
	assert.Equal(t, "14:00", found[len(found)-1].Time)
	assert.Equal(t, "15:00", found[len(found)-1].EndTime)
	for _, s := range found {
		assert.Equal(t, "2026-09-07", s.Date)
		assert.Equal(t, "Nika", s.StaffName)
		assert.True(t, s.Available)
	}
}

func TestFindAvailableSlotsBusyEvent(t *testing.T) {
	cal := &fakeCalendar{events: []calendar.Event{
		event(nikaSubcal,
			time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
			"Zuzana K. - Strihanie"),
	}}
	g := newTestGenerator(t, cal)

	found, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-09-07", "2026-09-07", 50, nil)
	require.NoError(t, err)

	times := make(map[string]bool, len(found))
	for _, s := range found {
		times[s.Time] = true
	}

	// A 60-minute candidate overlaps the 10:00-11:00 event when it starts
	// at 09:30, 10:00 or 10:30. Touching slots stay bookable.
	assert.True(t, times["09:00"])
	assert.False(t, times["09:30"])
	assert.False(t, times["10:00"])
	assert.False(t, times["10:30"])
	assert.True(t, times["11:00"])
}

func TestFindAvailableSlotsBlackoutDay(t *testing.T) {
	// A vacation event on Livia's subcalendar blocks her whole day even
	// though the event itself spans one hour.
	vacation := event(liviaSubcal,
		time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 8, 10, 0, 0, 0, time.UTC),
		"Dovolenka")
	cal := &fakeCalendar{events: []calendar.Event{vacation}}
	g := newTestGenerator(t, cal)

	found, err := g.FindAvailableSlots(context.Background(),
		"Livia", "Farbenie korienkov", "2026-09-08", "2026-09-08", 50, nil)
	require.NoError(t, err)
	assert.Empty(t, found)

	// The same event must not block other staff.
	found, err = g.FindAvailableSlots(context.Background(),
		"Nika", "Farbenie korienkov", "2026-09-08", "2026-09-08", 50, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, found)
}

func TestFindAvailableSlotsKeywordWithoutAttributionIgnored(t *testing.T) {
	// Blackout keyword in the title but attributed to nobody relevant:
	// a different subcalendar must leave Nika's day open.
	cal := &fakeCalendar{events: []calendar.Event{
		event(liviaSubcal,
			time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
			"Školenie"),
	}}
	g := newTestGenerator(t, cal)

	found, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-09-07", "2026-09-07", 50, nil)
	require.NoError(t, err)
	assert.Len(t, found, 11)
}

func TestFindAvailableSlotsExclusion(t *testing.T) {
	cal := &fakeCalendar{}
	g := newTestGenerator(t, cal)

	exclude := []ExcludedSlot{{Date: "2026-09-07", Time: "09:00"}}
	found, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-09-07", "2026-09-07", 50, exclude)
	require.NoError(t, err)

	require.NotEmpty(t, found)
	assert.Equal(t, "09:30", found[0].Time)
	for _, s := range found {
		assert.NotEqual(t, "09:00", s.Time)
	}
}

func TestFindAvailableSlotsTodayClamp(t *testing.T) {
	cal := &fakeCalendar{}
	g := newTestGenerator(t, cal)
	// Mid-morning on the searched day: 10:05 + 15 min buffer = 10:20,
	// rounded up to the half-hour grid.
	g.SetClock(func() time.Time {
		return time.Date(2026, 9, 7, 10, 5, 0, 0, time.UTC)
	})

	found, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-09-07", "2026-09-07", 50, nil)
	require.NoError(t, err)

	require.NotEmpty(t, found)
	assert.Equal(t, "10:30", found[0].Time)
}

func TestFindAvailableSlotsPastStartClampsToTomorrow(t *testing.T) {
	cal := &fakeCalendar{}
	g := newTestGenerator(t, cal)

	found, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-08-20", "", 5, nil)
	require.NoError(t, err)

	for _, s := range found {
		assert.GreaterOrEqual(t, s.Date, "2026-09-02")
	}
}

func TestFindAvailableSlotsMaxSlots(t *testing.T) {
	cal := &fakeCalendar{}
	g := newTestGenerator(t, cal)

	found, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-09-07", "2026-09-11", 3, nil)
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestFindAvailableSlotsTwoCalendarReads(t *testing.T) {
	cal := &fakeCalendar{}
	g := newTestGenerator(t, cal)

	_, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-09-07", "2026-09-21", 50, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cal.calls)
}

func TestFindAvailableSlotsIdempotent(t *testing.T) {
	cal := &fakeCalendar{events: []calendar.Event{
		event(nikaSubcal,
			time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
			"Booked"),
	}}
	g := newTestGenerator(t, cal)

	first, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-09-07", "2026-09-07", 50, nil)
	require.NoError(t, err)
	second, err := g.FindAvailableSlots(context.Background(),
		"Nika", "Strihanie, umytie, fukanie, cesanie", "2026-09-07", "2026-09-07", 50, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFindAvailableSlotsUnknownInputs(t *testing.T) {
	g := newTestGenerator(t, &fakeCalendar{})

	_, err := g.FindAvailableSlots(context.Background(),
		"Nika", "neexistujuca sluzba", "2026-09-07", "", 10, nil)
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)

	_, err = g.FindAvailableSlots(context.Background(),
		"Zuzana", "Balayage", "2026-09-07", "", 10, nil)
	assert.ErrorIs(t, err, schedule.ErrStaffNotFound)
}

func TestCheckAvailability(t *testing.T) {
	cal := &fakeCalendar{events: []calendar.Event{
		event(nikaSubcal,
			time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
			"Booked"),
	}}
	g := newTestGenerator(t, cal)

	tests := []struct {
		name     string
		staff    string
		date     string
		clock    string
		duration int
		expected bool
	}{
		{"free slot", "Nika", "2026-09-07", "11:00", 60, true},
		{"conflicting slot", "Nika", "2026-09-07", "10:30", 60, false},
		{"touching slot bookable", "Nika", "2026-09-07", "09:00", 60, true},
		{"before working hours", "Nika", "2026-09-07", "08:00", 60, false},
		{"runs past closing", "Nika", "2026-09-07", "14:30", 60, false},
		{"non-working day", "Nika", "2026-09-12", "10:00", 60, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.CheckAvailability(context.Background(), tt.staff, tt.date, tt.clock, tt.duration)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRoundUp(t *testing.T) {
	granularity := 30 * time.Minute

	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC), "10:00"},
		{time.Date(2026, 9, 7, 10, 1, 0, 0, time.UTC), "10:30"},
		{time.Date(2026, 9, 7, 10, 20, 0, 0, time.UTC), "10:30"},
		{time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC), "10:30"},
		{time.Date(2026, 9, 7, 10, 30, 1, 0, time.UTC), "11:00"},
	}

	for _, tt := range tests {
		got := roundUp(tt.in, granularity)
		if got.Format("15:04") != tt.want {
			t.Errorf("roundUp(%v): expected %s, got %s", tt.in, tt.want, got.Format("15:04"))
		}
	}
}
