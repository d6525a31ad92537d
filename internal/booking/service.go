// Package booking orchestrates the voice agent's intents: it composes the
// catalog, roster, slot generator, reservation lock and external calendar
// into structured booking responses.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"glamora/internal/audit"
	"glamora/internal/calendar"
	"glamora/internal/catalog"
	"glamora/internal/metrics"
	"glamora/internal/notify"
	"glamora/internal/reservation"
	"glamora/internal/schedule"
	"glamora/internal/slots"
)

const (
	dateLayout       = "2006-01-02"
	defaultBookTime  = "10:00"
	alternativeCount = 3
	availabilityDays = 7
	pageSize         = 10
	nextAvailLimit   = 5
)

// Deps are the collaborators the orchestrator composes.
type Deps struct {
	Catalog      *catalog.Catalog
	Roster       *schedule.Roster
	Generator    *slots.Generator
	Sessions     *reservation.Store
	Calendar     calendar.Client
	Subcalendars map[string]int64
	Notifier     notify.Notifier
	Journal      *audit.Journal // optional
	Logger       zerolog.Logger
}

// Options are timing knobs; zero values use the defaults.
type Options struct {
	Location             *time.Location
	MinAdvance           time.Duration
	LookaheadDays        int
	NextAvailableTimeout time.Duration
}

// Service handles booking intents.
type Service struct {
	deps Deps

	loc                  *time.Location
	minAdvance           time.Duration
	lookaheadDays        int
	nextAvailableTimeout time.Duration

	now func() time.Time
}

// New creates the orchestrator.
func New(deps Deps, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MinAdvance <= 0 {
		opts.MinAdvance = 15 * time.Minute
	}
	if opts.LookaheadDays <= 0 {
		opts.LookaheadDays = 30
	}
	if opts.NextAvailableTimeout <= 0 {
		opts.NextAvailableTimeout = 5 * time.Second
	}
	return &Service{
		deps:                 deps,
		loc:                  opts.Location,
		minAdvance:           opts.MinAdvance,
		lookaheadDays:        opts.LookaheadDays,
		nextAvailableTimeout: opts.NextAvailableTimeout,
		now:                  time.Now,
	}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Services lists the catalog for the listing endpoint.
func (s *Service) Services() []catalog.Service {
	return s.deps.Catalog.All()
}

// StaffByCapability lists roster entries for the listing endpoint. An
// empty tag returns everyone.
func (s *Service) StaffByCapability(tag string) []*schedule.Staff {
	if tag == "" || tag == "all" {
		return s.deps.Roster.All()
	}
	return s.deps.Roster.ByCapability(tag)
}

// Handle dispatches one intent to its handler and records the outcome.
func (s *Service) Handle(ctx context.Context, req Request) Response {
	var resp Response
	switch req.Action {
	case ActionBook:
		resp = s.handleBook(ctx, req)
	case ActionCheckAvailability:
		resp = s.handleCheckAvailability(ctx, req)
	case ActionFindNextAvailable:
		resp = s.handleFindNextAvailable(ctx, req)
	case ActionHumanRequest:
		resp = s.handleHumanRequest(ctx, req)
	case "":
		resp = failure(ErrCodeMissingAction, "Action is required")
	default:
		resp = failure(ErrCodeInvalidAction, "Unknown action type")
	}

	outcome := resp.Error
	if resp.Success {
		outcome = "success"
	}
	metrics.IncBooking(req.Action, outcome)
	return resp
}

func (s *Service) handleBook(ctx context.Context, req Request) Response {
	if req.CustomerName == "" || req.CustomerPhone == "" || req.ServiceName == "" {
		return failure(ErrCodeMissingFields, "Missing required information for booking")
	}

	phone, ok := NormalizePhone(req.CustomerPhone)
	if !ok {
		return failure(ErrCodeInvalidPhone, "Customer phone number is not a valid Slovak number")
	}

	now := s.now().In(s.loc)
	date := req.PreferredDate
	if date == "" {
		date = now.AddDate(0, 0, 1).Format(dateLayout)
	}
	startClock := req.PreferredTime
	if startClock == "" {
		startClock = defaultBookTime
	}

	if !validFutureDateTime(date, startClock, now, s.minAdvance) {
		return failure(ErrCodePastDate, "Requested date and time must be in the future")
	}

	svc, found := s.deps.Catalog.Find(req.ServiceName)
	if !found {
		return failure(ErrCodeServiceNotFound, fmt.Sprintf("Service %q not found", req.ServiceName))
	}

	staffName, resp := s.resolveStaff(req.PreferredStaff, svc)
	if resp != nil {
		return *resp
	}

	endClock := clockAdd(startClock, svc.DurationMinutes)
	details := reservation.BookingDetails{
		CustomerName:  req.CustomerName,
		CustomerPhone: phone,
		Service:       svc.Name,
		Staff:         staffName,
		Date:          date,
		Time:          startClock,
		EndTime:       endClock,
	}

	// Lock check before any remote call: a pending session claiming an
	// overlapping window rejects the attempt immediately.
	if s.deps.Sessions.HasConflict(staffName, date, startClock, endClock) {
		return failure(ErrCodeSlotLocked, "This time slot is currently being processed by another customer")
	}

	if ev := s.findExistingBooking(ctx, phone); ev != nil {
		return failure(ErrCodeExistingBooking,
			fmt.Sprintf("An appointment already exists for this phone number on %s",
				ev.StartDT.In(s.loc).Format(dateLayout)))
	}

	available, err := s.deps.Generator.CheckAvailability(ctx, staffName, date, startClock, svc.DurationMinutes)
	if err != nil {
		metrics.IncCalendarError()
		s.deps.Logger.Error().Err(err).Msg("availability check failed")
		return failure(ErrCodeCalendarUnavailable, "Could not reach the calendar, please try again")
	}
	if !available {
		alternatives, altErr := s.deps.Generator.FindAvailableSlots(
			ctx, staffName, svc.Name, date, "", alternativeCount, req.ExcludeSlots)
		if altErr != nil {
			s.deps.Logger.Warn().Err(altErr).Msg("alternative slot search failed")
		}
		return Response{
			Success: false,
			Message: "Requested time is not available",
			Data:    &ResponseData{AvailableSlots: alternatives},
			Error:   ErrCodeTimeNotAvailable,
		}
	}

	// Atomic check-and-insert: at most one of two concurrent attempts for
	// overlapping windows gets a session.
	session, ok := s.deps.Sessions.CreateIfFree(details)
	if !ok {
		return failure(ErrCodeSlotLocked, "This time slot is currently being processed by another customer")
	}
	metrics.SetActiveSessions(s.deps.Sessions.ActiveCount())

	ev, err := s.createEvent(ctx, details, svc)
	if err != nil {
		// Release the claim so the slot is reclaimable immediately
		// instead of waiting out the pending TTL.
		s.deps.Sessions.Cancel(session.ID)
		metrics.SetActiveSessions(s.deps.Sessions.ActiveCount())
		metrics.IncCalendarError()
		s.deps.Logger.Error().Err(err).Str("staff", staffName).Str("date", date).Msg("event creation failed")
		s.journal(ctx, ActionBook, details, ErrCodeBookingFailed)
		return failure(ErrCodeBookingFailed, "Failed to book the appointment. The slot may no longer be available.")
	}

	if !s.deps.Sessions.Confirm(session.ID) {
		// The event exists either way; only the read-back session is lost.
		s.deps.Logger.Warn().Str("session", session.ID).
			Msg("session expired before confirmation, read-back unavailable")
	}
	s.journal(ctx, ActionBook, details, "success")
	s.notifyAsync(notify.KindBookingCreated, fmt.Sprintf(
		"Nová rezervácia: %s, %s %s–%s, %s (%s)",
		staffName, date, startClock, endClock, svc.Name, FormatPhone(phone)))

	return Response{
		Success: true,
		Message: fmt.Sprintf("Your appointment has been booked for %s at %s with %s for %s",
			date, startClock, staffName, svc.Name),
		Data: &ResponseData{
			BookingID: ev.ID,
			SessionID: session.ID,
			BookedSlot: &BookedSlot{
				Date:      date,
				Time:      startClock,
				EndTime:   endClock,
				StaffName: staffName,
				Service:   svc.Name,
			},
		},
	}
}

func (s *Service) handleCheckAvailability(ctx context.Context, req Request) Response {
	if req.ServiceName == "" {
		return failure(ErrCodeMissingService, "Service name is required")
	}
	svc, found := s.deps.Catalog.Find(req.ServiceName)
	if !found {
		return failure(ErrCodeServiceNotFound, fmt.Sprintf("Service %q not found", req.ServiceName))
	}

	staffName, resp := s.resolveStaff(req.PreferredStaff, svc)
	if resp != nil {
		return *resp
	}

	startDate := req.PreferredDate
	if startDate == "" {
		startDate = s.now().In(s.loc).Format(dateLayout)
	}
	start, err := time.ParseInLocation(dateLayout, startDate, s.loc)
	if err != nil {
		return failure(ErrCodePastDate, fmt.Sprintf("Invalid date %q", startDate))
	}
	endDate := start.AddDate(0, 0, availabilityDays).Format(dateLayout)

	began := time.Now()
	open, err := s.deps.Generator.FindAvailableSlots(
		ctx, staffName, svc.Name, startDate, endDate, pageSize, req.ExcludeSlots)
	metrics.ObserveSlotSearch(time.Since(began).Seconds())
	if err != nil {
		metrics.IncCalendarError()
		s.deps.Logger.Error().Err(err).Msg("slot search failed")
		return failure(ErrCodeCalendarUnavailable, "Could not reach the calendar, please try again")
	}

	return Response{
		Success: true,
		Message: fmt.Sprintf("Found %d available slots", len(open)),
		Data:    &ResponseData{AvailableSlots: open},
	}
}

func (s *Service) handleFindNextAvailable(ctx context.Context, req Request) Response {
	if req.ServiceName == "" {
		return failure(ErrCodeMissingService, "Service name is required")
	}
	svc, found := s.deps.Catalog.Find(req.ServiceName)
	if !found {
		return failure(ErrCodeServiceNotFound, fmt.Sprintf("Service %q not found", req.ServiceName))
	}

	var staffNames []string
	if req.PreferredStaff != "" {
		name, resp := s.resolveStaff(req.PreferredStaff, svc)
		if resp != nil {
			return *resp
		}
		staffNames = []string{name}
	} else {
		for _, st := range s.deps.Roster.ByCapability(svc.Capability) {
			staffNames = append(staffNames, st.Name)
		}
		if len(staffNames) == 0 {
			return failure(ErrCodeNoStaffAvailable, "No staff available for this service")
		}
	}

	// The aggregate multi-staff search runs under a hard wall-clock
	// timeout; a voice call cannot wait for a slow calendar.
	searchCtx, cancel := context.WithTimeout(ctx, s.nextAvailableTimeout)
	defer cancel()

	type result struct {
		slots []slots.Slot
		err   error
	}
	results := make(chan result, len(staffNames))
	for _, name := range staffNames {
		go func(name string) {
			found, err := s.deps.Generator.FindAvailableSlots(
				searchCtx, name, svc.Name, "", "", alternativeCount, req.ExcludeSlots)
			results <- result{slots: found, err: err}
		}(name)
	}

	var merged []slots.Slot
	var searchErr error
	for range staffNames {
		r := <-results
		if r.err != nil {
			searchErr = r.err
			continue
		}
		merged = append(merged, r.slots...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date < merged[j].Date
		}
		if merged[i].Time != merged[j].Time {
			return merged[i].Time < merged[j].Time
		}
		return merged[i].StaffName < merged[j].StaffName
	})
	if len(merged) > nextAvailLimit {
		merged = merged[:nextAvailLimit]
	}

	if len(merged) == 0 {
		if searchErr != nil {
			metrics.IncCalendarError()
			s.deps.Logger.Warn().Err(searchErr).Msg("next-available search failed, synthesizing fallback slots")
			fallback := s.fallbackSlots(staffNames, svc)
			if len(fallback) == 0 {
				return failure(ErrCodeCalendarUnavailable, "Could not reach the calendar, please try again")
			}
			return Response{
				Success: true,
				Message: "The calendar is slow to respond; these provisional slots still need confirmation",
				Data:    &ResponseData{SuggestedSlot: &fallback[0], SuggestedSlots: fallback},
			}
		}
		return failure(ErrCodeNoAvailability, "No available slots found in the next 2 weeks")
	}

	return Response{
		Success: true,
		Message: fmt.Sprintf("Next available slot found with %s", merged[0].StaffName),
		Data:    &ResponseData{SuggestedSlot: &merged[0], SuggestedSlots: merged},
	}
}

func (s *Service) handleHumanRequest(ctx context.Context, req Request) Response {
	if req.CustomerName == "" || req.CustomerPhone == "" {
		return failure(ErrCodeMissingCustomerInfo, "Customer name and phone are required")
	}

	phone := req.CustomerPhone
	if normalized, ok := NormalizePhone(phone); ok {
		phone = FormatPhone(normalized)
	}

	message := fmt.Sprintf(
		"Nová žiadosť o kontakt\nMeno: %s\nTelefón: %s\nSlužba: %s\nTermín: %s",
		req.CustomerName, phone, orDash(req.ServiceName), orDash(req.PreferredDate))
	s.deps.Notifier.Notify(ctx, notify.KindHumanRequest, message)

	return Response{
		Success:       true,
		Message:       "Our staff will assist you shortly. Please hold on.",
		RequiresHuman: true,
	}
}

// Verify confirms or cancels a pending session. Confirmation re-checks
// availability and creates the calendar event before the session becomes
// confirmed.
func (s *Service) Verify(ctx context.Context, sessionID, action string) Response {
	session, ok := s.deps.Sessions.Get(sessionID)
	if !ok {
		return failure(ErrCodeInvalidSession, "Session expired or not found")
	}

	switch action {
	case "confirm":
		if session.Status != reservation.StatusPending {
			return failure(ErrCodeAlreadyProcessed, "Booking already processed")
		}

		svc, found := s.deps.Catalog.Find(session.Details.Service)
		if !found {
			return failure(ErrCodeServiceNotFound, "Service no longer offered")
		}

		available, err := s.deps.Generator.CheckAvailability(
			ctx, session.Details.Staff, session.Details.Date, session.Details.Time, svc.DurationMinutes)
		if err != nil {
			metrics.IncCalendarError()
			return failure(ErrCodeCalendarUnavailable, "Could not reach the calendar, please try again")
		}
		if !available {
			s.deps.Sessions.Cancel(sessionID)
			return failure(ErrCodeTimeNotAvailable, "The slot is no longer available")
		}

		ev, err := s.createEvent(ctx, session.Details, svc)
		if err != nil {
			s.deps.Sessions.Cancel(sessionID)
			metrics.IncCalendarError()
			s.journal(ctx, "verify", session.Details, ErrCodeBookingFailed)
			return failure(ErrCodeBookingFailed, "Failed to book the appointment. The slot may no longer be available.")
		}

		if !s.deps.Sessions.Confirm(sessionID) {
			s.deps.Logger.Warn().Str("session", sessionID).
				Msg("session expired before confirmation, read-back unavailable")
		}
		s.journal(ctx, "verify", session.Details, "success")
		return Response{
			Success: true,
			Message: "Booking confirmed successfully",
			Data:    &ResponseData{BookingID: ev.ID, SessionID: sessionID},
		}

	case "cancel":
		s.deps.Sessions.Cancel(sessionID)
		return Response{
			Success: true,
			Message: "Booking cancelled",
			Data:    &ResponseData{SessionID: sessionID},
		}
	}

	return failure(ErrCodeInvalidAction, "Invalid action")
}

// Session returns a session for the read-back webhook.
func (s *Service) Session(sessionID string) (reservation.Session, bool) {
	return s.deps.Sessions.Get(sessionID)
}

// CheckSlot answers the real-time slot check webhook.
func (s *Service) CheckSlot(ctx context.Context, staffName, date, clock string, durationMinutes int) (bool, error) {
	return s.deps.Generator.CheckAvailability(ctx, staffName, date, clock, durationMinutes)
}

// resolveStaff picks the staff member for a service: the preferred one if
// named (validated against roster and capability), otherwise the first
// capable roster entry.
func (s *Service) resolveStaff(preferred string, svc catalog.Service) (string, *Response) {
	if preferred != "" {
		staff, ok := s.deps.Roster.Find(preferred)
		if !ok {
			r := failure(ErrCodeStaffNotFound, fmt.Sprintf("Staff member %q not found", preferred))
			return "", &r
		}
		if staff.Capability != svc.Capability {
			r := failure(ErrCodeStaffServiceMismatch, fmt.Sprintf("%s cannot perform this service", preferred))
			return "", &r
		}
		return staff.Name, nil
	}

	capable := s.deps.Roster.ByCapability(svc.Capability)
	if len(capable) == 0 {
		r := failure(ErrCodeNoStaffAvailable, "No staff available for this service")
		return "", &r
	}
	return capable[0].Name, nil
}

// findExistingBooking scans the lookahead window for an event already
// carrying the customer's phone number. Best effort: a calendar failure
// here does not block the booking.
func (s *Service) findExistingBooking(ctx context.Context, phone string) *calendar.Event {
	now := s.now().In(s.loc)
	events, err := s.deps.Calendar.ListEvents(ctx, now, now.AddDate(0, 0, s.lookaheadDays), nil)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Msg("existing booking scan failed")
		return nil
	}
	for i := range events {
		if events[i].MentionsPhone(phone) {
			return &events[i]
		}
	}
	return nil
}

func (s *Service) createEvent(ctx context.Context, d reservation.BookingDetails, svc catalog.Service) (calendar.Event, error) {
	subID, ok := s.deps.Subcalendars[d.Staff]
	if !ok {
		return calendar.Event{}, fmt.Errorf("%w: %s", schedule.ErrStaffNotFound, d.Staff)
	}

	day, err := time.ParseInLocation(dateLayout, d.Date, s.loc)
	if err != nil {
		return calendar.Event{}, err
	}
	start, err := schedule.ParseClock(day, d.Time)
	if err != nil {
		return calendar.Event{}, err
	}
	end := start.Add(svc.Duration())

	ev := calendar.Event{
		SubcalendarID: subID,
		StartDT:       start,
		EndDT:         end,
		Title:         fmt.Sprintf("%s - %s", d.CustomerName, d.Service),
		Who:           d.CustomerName,
		Notes: fmt.Sprintf("Telefón: %s\nSlužba: %s\nTrvanie: %d min",
			d.CustomerPhone, d.Service, svc.DurationMinutes),
		Custom: &calendar.EventCustom{
			Kontakt:       d.CustomerPhone,
			CustomerPhone: d.CustomerPhone,
			Service:       d.Service,
			Confirmed:     false,
		},
	}
	return s.deps.Calendar.CreateEvent(ctx, ev)
}

// fallbackSlots synthesizes provisional next-business-day slots at each
// staff member's shift start. They carry Provisional so the voice agent
// flags them, and they still pass normal validation if later booked.
func (s *Service) fallbackSlots(staffNames []string, svc catalog.Service) []slots.Slot {
	var out []slots.Slot
	day := s.now().In(s.loc)
	for offset := 1; offset <= availabilityDays && len(out) == 0; offset++ {
		candidate := day.AddDate(0, 0, offset)
		for _, name := range staffNames {
			hours, working, err := s.deps.Roster.WorkingHours(name, candidate.Weekday())
			if err != nil || !working {
				continue
			}
			start, end, err := hours.OnDate(candidate)
			if err != nil || start.Add(svc.Duration()).After(end) {
				continue
			}
			out = append(out, slots.Slot{
				Date:        candidate.Format(dateLayout),
				Time:        start.Format("15:04"),
				EndTime:     start.Add(svc.Duration()).Format("15:04"),
				StaffName:   name,
				Available:   true,
				Provisional: true,
			})
			if len(out) == alternativeCount {
				break
			}
		}
	}
	return out
}

// notifyAsync fires a best-effort notification without blocking the
// booking response.
func (s *Service) notifyAsync(kind notify.Kind, message string) {
	if s.deps.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.deps.Notifier.Notify(ctx, kind, message)
	}()
}

func (s *Service) journal(ctx context.Context, action string, d reservation.BookingDetails, outcome string) {
	if s.deps.Journal == nil {
		return
	}
	err := s.deps.Journal.Record(ctx, audit.Entry{
		Action:        action,
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		Service:       d.Service,
		Staff:         d.Staff,
		Date:          d.Date,
		StartTime:     d.Time,
		EndTime:       d.EndTime,
		Outcome:       outcome,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.deps.Logger.Warn().Err(err).Msg("journal write failed")
	}
}

// clockAdd adds minutes to a "HH:MM" wall-clock string.
func clockAdd(clock string, minutes int) string {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return clock
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	total := h*60 + m + minutes
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
