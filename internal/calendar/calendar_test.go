package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttributedTo(t *testing.T) {
	ev := Event{SubcalendarID: 100, SubcalendarIDs: []int64{100, 200}}

	assert.True(t, ev.AttributedTo(100))
	assert.True(t, ev.AttributedTo(200))
	assert.False(t, ev.AttributedTo(300))

	// Free text never attributes.
	named := Event{Title: "Nika dovolenka", SubcalendarID: 100}
	assert.False(t, named.AttributedTo(200))
}

func TestMentionsPhone(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		phone    string
		expected bool
	}{
		{"in notes", Event{Notes: "Telefón: +421912345678"}, "+421912345678", true},
		{"in who", Event{Who: "Maria +421912345678"}, "+421912345678", true},
		{"in custom kontakt", Event{Custom: &EventCustom{Kontakt: "+421912345678"}}, "+421912345678", true},
		{"absent", Event{Notes: "Telefón: +421905000111"}, "+421912345678", false},
		{"empty phone", Event{Notes: "+421912345678"}, "", false},
		{"nil custom", Event{}, "+421912345678", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.MentionsPhone(tt.phone))
		})
	}
}

func TestBlackoutMatcher(t *testing.T) {
	m := NewBlackoutMatcher([]string{"dovolenka", "školenie", "vacation"})

	now := time.Now()
	tests := []struct {
		name     string
		event    Event
		expected bool
	}{
		{"title match", Event{Title: "Dovolenka", StartDT: now}, true},
		{"case insensitive", Event{Title: "DOVOLENKA Nika", StartDT: now}, true},
		{"keyword in who", Event{Who: "školenie Bratislava", StartDT: now}, true},
		{"keyword in notes", Event{Notes: "cela posadka na vacation", StartDT: now}, true},
		{"regular booking", Event{Title: "Maria - Strihanie", StartDT: now}, false},
		{"empty event", Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Match(tt.event))
		})
	}
}
