// Package reservation holds short-lived verification sessions that claim
// a slot during the confirm-or-cancel handshake. The session table is the
// sole serialization point preventing two concurrent callers from booking
// the same slot before either's calendar write lands.
package reservation

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// BookingDetails is the full booking a session provisionally claims.
type BookingDetails struct {
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	Service       string `json:"service"`
	Staff         string `json:"staff"`
	Date          string `json:"date"`    // "2026-09-01"
	Time          string `json:"time"`    // "10:00"
	EndTime       string `json:"endTime"` // "11:00"
}

// Session is a reservation lock on one slot.
type Session struct {
	ID        string         `json:"sessionId"`
	Details   BookingDetails `json:"bookingDetails"`
	Status    Status         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Store is a concurrency-safe in-memory session table. Expiry is checked
// lazily on every read; a janitor sweep additionally purges expired
// entries so abandoned sessions do not accumulate.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	pendingTTL   time.Duration
	confirmedTTL time.Duration

	now func() time.Time
}

// NewStore creates a session store. Non-positive TTLs fall back to the
// defaults: 5 minutes pending, 1 hour confirmed.
func NewStore(pendingTTL, confirmedTTL time.Duration) *Store {
	if pendingTTL <= 0 {
		pendingTTL = 5 * time.Minute
	}
	if confirmedTTL <= 0 {
		confirmedTTL = time.Hour
	}
	return &Store{
		sessions:     make(map[string]*Session),
		pendingTTL:   pendingTTL,
		confirmedTTL: confirmedTTL,
		now:          time.Now,
	}
}

// SetClock overrides the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create allocates a pending session with a fresh unguessable identifier.
func (s *Store) Create(details BookingDetails) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(details)
}

// CreateIfFree atomically checks for a pending conflict on the same staff
// and date and, only if none exists, inserts a new pending session. This
// is the check-and-insert that serializes concurrent booking attempts for
// overlapping windows: at most one caller gets ok=true.
func (s *Store) CreateIfFree(details BookingDetails) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasConflictLocked(details.Staff, details.Date, details.Time, details.EndTime) {
		return Session{}, false
	}
	return s.createLocked(details), true
}

func (s *Store) createLocked(details BookingDetails) Session {
	now := s.now()
	session := &Session{
		ID:        uuid.NewString(),
		Details:   details,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.pendingTTL),
	}
	s.sessions[session.ID] = session
	return *session
}

// Get returns a session by ID. Expired sessions are deleted and reported
// as absent even if the janitor has not swept them yet.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, id)
		return Session{}, false
	}
	return *session, true
}

// Confirm transitions a pending session to confirmed and extends its
// expiry so a later read-back can still retrieve the booking details.
// Returns false if the session is absent, expired or not pending.
func (s *Store) Confirm(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || s.now().After(session.ExpiresAt) || session.Status != StatusPending {
		return false
	}
	session.Status = StatusConfirmed
	session.ExpiresAt = s.now().Add(s.confirmedTTL)
	return true
}

// Cancel deletes a session regardless of status. Returns false if absent.
func (s *Store) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// HasConflict reports whether any live pending session claims an
// overlapping window for the same staff member and date. Overlap uses
// half-open [start, end) semantics, matching the conflict detector.
func (s *Store) HasConflict(staff, date, start, end string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasConflictLocked(staff, date, start, end)
}

func (s *Store) hasConflictLocked(staff, date, start, end string) bool {
	now := s.now()
	startMin := clockMinutes(start)
	endMin := clockMinutes(end)

	for _, session := range s.sessions {
		if session.Status != StatusPending || now.After(session.ExpiresAt) {
			continue
		}
		d := session.Details
		if d.Staff != staff || d.Date != date {
			continue
		}
		if startMin < clockMinutes(d.EndTime) && clockMinutes(d.Time) < endMin {
			return true
		}
	}
	return false
}

// ActiveCount returns the number of unexpired sessions.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for _, session := range s.sessions {
		if !now.After(session.ExpiresAt) {
			count++
		}
	}
	return count
}

// Sweep removes expired sessions and returns how many were purged.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps the table periodically until ctx is cancelled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func clockMinutes(clock string) int {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m
}
