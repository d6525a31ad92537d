package calendar

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleClient implements Client on top of Google Calendar. Each staff
// subcalendar ID maps to one Google calendar ID.
type GoogleClient struct {
	svc       *gcal.Service
	calendars map[int64]string // subcalendar ID -> Google calendar ID
}

// NewGoogleClient builds a client from a service-account credentials file.
func NewGoogleClient(ctx context.Context, credentialsFile string, calendars map[int64]string) (*GoogleClient, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &GoogleClient{svc: svc, calendars: calendars}, nil
}

// ListEvents fetches events across the mapped calendars, or only the
// requested subcalendars when a filter is given.
func (c *GoogleClient) ListEvents(ctx context.Context, start, end time.Time, subcalendarIDs []int64) ([]Event, error) {
	ids := subcalendarIDs
	if len(ids) == 0 {
		for id := range c.calendars {
			ids = append(ids, id)
		}
	}

	var out []Event
	for _, id := range ids {
		calID, ok := c.calendars[id]
		if !ok {
			return nil, fmt.Errorf("unknown subcalendar %d", id)
		}
		call := c.svc.Events.List(calID).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list events for %s: %w", calID, err)
		}
		for _, item := range res.Items {
			ev, err := fromGoogleEvent(item, id)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
	}
	return out, nil
}

// CreateEvent inserts an event into the mapped calendar.
func (c *GoogleClient) CreateEvent(ctx context.Context, ev Event) (Event, error) {
	calID, ok := c.calendars[ev.SubcalendarID]
	if !ok {
		return Event{}, fmt.Errorf("unknown subcalendar %d", ev.SubcalendarID)
	}
	created, err := c.svc.Events.Insert(calID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	out, err := fromGoogleEvent(created, ev.SubcalendarID)
	if err != nil {
		return Event{}, err
	}
	return out, nil
}

// UpdateEvent replaces an event in the mapped calendar.
func (c *GoogleClient) UpdateEvent(ctx context.Context, id string, ev Event) (Event, error) {
	calID, ok := c.calendars[ev.SubcalendarID]
	if !ok {
		return Event{}, fmt.Errorf("unknown subcalendar %d", ev.SubcalendarID)
	}
	updated, err := c.svc.Events.Update(calID, id, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("update event: %w", err)
	}
	out, err := fromGoogleEvent(updated, ev.SubcalendarID)
	if err != nil {
		return Event{}, err
	}
	return out, nil
}

// DeleteEvent removes an event. Google event IDs do not carry their
// calendar, so deletion is attempted on each mapped calendar until one
// succeeds.
func (c *GoogleClient) DeleteEvent(ctx context.Context, id string) error {
	var lastErr error
	for _, calID := range c.calendars {
		if err := c.svc.Events.Delete(calID, id).Context(ctx).Do(); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("delete event %s: %w", id, lastErr)
	}
	return fmt.Errorf("delete event %s: no calendars configured", id)
}

func toGoogleEvent(ev Event) *gcal.Event {
	return &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Notes,
		Start:       &gcal.EventDateTime{DateTime: ev.StartDT.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.EndDT.Format(time.RFC3339)},
	}
}

func fromGoogleEvent(item *gcal.Event, subcalendarID int64) (Event, error) {
	start, err := parseGoogleTime(item.Start)
	if err != nil {
		return Event{}, fmt.Errorf("event %s start: %w", item.Id, err)
	}
	end, err := parseGoogleTime(item.End)
	if err != nil {
		return Event{}, fmt.Errorf("event %s end: %w", item.Id, err)
	}
	return Event{
		ID:            item.Id,
		SubcalendarID: subcalendarID,
		StartDT:       start,
		EndDT:         end,
		Title:         item.Summary,
		Notes:         item.Description,
	}, nil
}

func parseGoogleTime(dt *gcal.EventDateTime) (time.Time, error) {
	if dt == nil {
		return time.Time{}, fmt.Errorf("missing time")
	}
	if dt.DateTime != "" {
		return time.Parse(time.RFC3339, dt.DateTime)
	}
	// All-day events carry a date only.
	return time.Parse("2006-01-02", dt.Date)
}
