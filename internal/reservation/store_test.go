package reservation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDetails() BookingDetails {
	return BookingDetails{
		CustomerName:  "Maria Novakova",
		CustomerPhone: "+421912345678",
		Service:       "Balayage",
		Staff:         "Nika",
		Date:          "2026-09-07",
		Time:          "10:00",
		EndTime:       "13:30",
	}
}

func TestCreateAndGet(t *testing.T) {
	store := NewStore(0, 0)

	session := store.Create(testDetails())
	require.NotEmpty(t, session.ID)
	assert.Equal(t, StatusPending, session.Status)

	got, ok := store.Get(session.ID)
	require.True(t, ok)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, "Nika", got.Details.Staff)

	_, ok = store.Get("no-such-session")
	assert.False(t, ok)
}

func TestPendingExpiry(t *testing.T) {
	store := NewStore(5*time.Minute, time.Hour)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	session := store.Create(testDetails())

	// One second before the TTL the session is alive.
	now = now.Add(5*time.Minute - time.Second)
	_, ok := store.Get(session.ID)
	assert.True(t, ok)

	// Past the TTL it is gone, even without a janitor sweep.
	now = now.Add(2 * time.Second)
	_, ok = store.Get(session.ID)
	assert.False(t, ok)

	// And it no longer holds the slot.
	assert.False(t, store.HasConflict("Nika", "2026-09-07", "10:00", "11:00"))
}

func TestConfirmExtendsExpiry(t *testing.T) {
	store := NewStore(5*time.Minute, time.Hour)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	session := store.Create(testDetails())
	require.True(t, store.Confirm(session.ID))

	// Well past the pending TTL but inside the confirmed TTL.
	now = now.Add(30 * time.Minute)
	got, ok := store.Get(session.ID)
	require.True(t, ok)
	assert.Equal(t, StatusConfirmed, got.Status)

	// Confirming twice fails.
	assert.False(t, store.Confirm(session.ID))

	now = now.Add(time.Hour)
	_, ok = store.Get(session.ID)
	assert.False(t, ok)
}

func TestCancel(t *testing.T) {
	store := NewStore(0, 0)

	session := store.Create(testDetails())
	require.True(t, store.Cancel(session.ID))

	_, ok := store.Get(session.ID)
	assert.False(t, ok)
	assert.False(t, store.Cancel(session.ID))
}

func TestHasConflict(t *testing.T) {
	store := NewStore(0, 0)
	store.Create(testDetails()) // Nika 2026-09-07 10:00-13:30

	tests := []struct {
		name     string
		staff    string
		date     string
		start    string
		end      string
		expected bool
	}{
		{"same window", "Nika", "2026-09-07", "10:00", "13:30", true},
		{"overlapping start", "Nika", "2026-09-07", "09:00", "10:30", true},
		{"inside", "Nika", "2026-09-07", "11:00", "12:00", true},
		{"touching before", "Nika", "2026-09-07", "09:00", "10:00", false},
		{"touching after", "Nika", "2026-09-07", "13:30", "14:30", false},
		{"other staff", "Janka", "2026-09-07", "10:00", "13:30", false},
		{"other date", "Nika", "2026-09-08", "10:00", "13:30", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, store.HasConflict(tt.staff, tt.date, tt.start, tt.end))
		})
	}
}

func TestConfirmedSessionDoesNotLock(t *testing.T) {
	store := NewStore(0, 0)

	session := store.Create(testDetails())
	require.True(t, store.Confirm(session.ID))

	// Once confirmed the calendar event exists and is the source of truth;
	// the session no longer blocks overlapping attempts.
	assert.False(t, store.HasConflict("Nika", "2026-09-07", "10:00", "11:00"))
}

func TestCreateIfFreeSerializesConcurrentAttempts(t *testing.T) {
	store := NewStore(0, 0)

	const attempts = 50
	var wg sync.WaitGroup
	wins := make(chan Session, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if session, ok := store.CreateIfFree(testDetails()); ok {
				wins <- session
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []Session
	for s := range wins {
		winners = append(winners, s)
	}
	require.Len(t, winners, 1, "exactly one concurrent attempt must win the slot")
}

func TestCreateIfFreeAllowsDisjointWindows(t *testing.T) {
	store := NewStore(0, 0)

	_, ok := store.CreateIfFree(testDetails())
	require.True(t, ok)

	other := testDetails()
	other.Time = "13:30"
	other.EndTime = "14:30"
	_, ok = store.CreateIfFree(other)
	assert.True(t, ok, "touching window must not conflict")
}

func TestSweep(t *testing.T) {
	store := NewStore(5*time.Minute, time.Hour)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	store.Create(testDetails())
	other := testDetails()
	other.Staff = "Janka"
	store.Create(other)
	assert.Equal(t, 2, store.ActiveCount())

	now = now.Add(10 * time.Minute)
	removed := store.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, store.ActiveCount())
}
