// Package calendar talks to the external shared calendar that is the
// system of record for appointments and staff absences.
package calendar

import (
	"context"
	"strings"
	"time"
)

// EventCustom carries the calendar's custom contact fields.
type EventCustom struct {
	Kontakt       string `json:"kontakt,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	Service       string `json:"service,omitempty"`
	Confirmed     bool   `json:"confirmed,omitempty"`
}

// Event is a calendar event as exposed by the provider. The core treats
// events as read-only input except for CreateEvent.
type Event struct {
	ID             string       `json:"id,omitempty"`
	SubcalendarID  int64        `json:"subcalendar_id,omitempty"`
	SubcalendarIDs []int64      `json:"subcalendar_ids,omitempty"`
	StartDT        time.Time    `json:"start_dt"`
	EndDT          time.Time    `json:"end_dt"`
	Title          string       `json:"title,omitempty"`
	Who            string       `json:"who,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	Custom         *EventCustom `json:"custom,omitempty"`
}

// AttributedTo reports whether the event belongs to the given subcalendar.
// Attribution is by explicit subcalendar identifier only; free-text fields
// never attribute an event to a staff member.
func (e Event) AttributedTo(subcalendarID int64) bool {
	if e.SubcalendarID == subcalendarID {
		return true
	}
	for _, id := range e.SubcalendarIDs {
		if id == subcalendarID {
			return true
		}
	}
	return false
}

// MentionsPhone reports whether a phone number appears in the event's
// contact fields. Used for the existing-booking scan.
func (e Event) MentionsPhone(phone string) bool {
	if phone == "" {
		return false
	}
	if strings.Contains(e.Notes, phone) || strings.Contains(e.Who, phone) {
		return true
	}
	return e.Custom != nil && strings.Contains(e.Custom.Kontakt, phone)
}

// BlackoutMatcher classifies events as whole-day blocking (vacation,
// training and similar) by keyword match on title, who and notes.
type BlackoutMatcher struct {
	keywords []string
}

// NewBlackoutMatcher builds a matcher; keywords are compared
// case-insensitively.
func NewBlackoutMatcher(keywords []string) BlackoutMatcher {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		lowered = append(lowered, strings.ToLower(k))
	}
	return BlackoutMatcher{keywords: lowered}
}

// Match reports whether the event is a blackout event. A blackout event
// renders its attributed staff member unavailable for the whole calendar
// day its start falls on, regardless of the event's own time span.
func (m BlackoutMatcher) Match(e Event) bool {
	for _, field := range []string{e.Title, e.Who, e.Notes} {
		if field == "" {
			continue
		}
		lower := strings.ToLower(field)
		for _, kw := range m.keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// Client is the provider-facing calendar interface. ListEvents with no
// subcalendar filter returns events across all staff (needed for blackout
// detection); a filtered call returns one staff member's busy intervals.
type Client interface {
	ListEvents(ctx context.Context, start, end time.Time, subcalendarIDs []int64) ([]Event, error)
	CreateEvent(ctx context.Context, ev Event) (Event, error)
	UpdateEvent(ctx context.Context, id string, ev Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
