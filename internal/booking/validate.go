package booking

import (
	"regexp"
	"strings"
	"time"

	"glamora/internal/schedule"
)

var (
	phoneStripRe    = regexp.MustCompile(`[\s\-()]`)
	slovakMobileRe  = regexp.MustCompile(`^\+4219\d{8}$`)
	slovakLandline  = regexp.MustCompile(`^\+421[2-5]\d{8}$`)
	phoneDisplayRe  = regexp.MustCompile(`^(\+421)(\d{3})(\d{3})(\d{3})$`)
)

// NormalizePhone validates a Slovak phone number and normalizes it to
// +421XXXXXXXXX form. Accepts +421912345678, 0912345678, 00421912345678
// and spaced/dashed variants. Returns false when the number is invalid
// or not Slovak.
func NormalizePhone(phone string) (string, bool) {
	if phone == "" {
		return "", false
	}

	cleaned := phoneStripRe.ReplaceAllString(phone, "")

	switch {
	case strings.HasPrefix(cleaned, "00421"):
		cleaned = "+421" + cleaned[5:]
	case strings.HasPrefix(cleaned, "0"):
		cleaned = "+421" + cleaned[1:]
	case !strings.HasPrefix(cleaned, "+421"):
		return "", false
	}

	if slovakMobileRe.MatchString(cleaned) || slovakLandline.MatchString(cleaned) {
		return cleaned, true
	}
	return "", false
}

// FormatPhone renders a normalized number for display:
// +421912345678 -> +421 912 345 678.
func FormatPhone(phone string) string {
	if !strings.HasPrefix(phone, "+421") {
		return phone
	}
	return phoneDisplayRe.ReplaceAllString(phone, "$1 $2 $3 $4")
}

// validFutureDateTime checks the requested date (and time, if given)
// against now. A date without time is valid from today onward; a full
// datetime must clear the minimum-advance buffer.
func validFutureDateTime(date, clock string, now time.Time, buffer time.Duration) bool {
	day, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return false
	}

	if clock == "" {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return !day.Before(today)
	}

	at, err := schedule.ParseClock(day, clock)
	if err != nil {
		return false
	}
	return at.After(now.Add(buffer))
}
