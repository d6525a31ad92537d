package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TeamupClient is an HTTP client for the Teamup calendar API.
type TeamupClient struct {
	baseURL     string
	calendarKey string
	apiKey      string
	httpClient  *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewTeamupClient constructs a client for one shared calendar.
func NewTeamupClient(baseURL, calendarKey, apiKey string) *TeamupClient {
	if baseURL == "" {
		baseURL = "https://api.teamup.com"
	}
	return &TeamupClient{
		baseURL:     baseURL,
		calendarKey: calendarKey,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// UseRedisCache configures optional Redis caching for event reads.
// Cached windows go stale within ttl, so keep it short; writes are never
// cached.
func (c *TeamupClient) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

type eventsEnvelope struct {
	Events []Event `json:"events"`
}

type eventEnvelope struct {
	Event Event `json:"event"`
}

// ListEvents fetches events between start and end, optionally filtered to
// the given subcalendars.
func (c *TeamupClient) ListEvents(ctx context.Context, start, end time.Time, subcalendarIDs []int64) ([]Event, error) {
	q := url.Values{}
	q.Set("startDate", start.Format("2006-01-02"))
	q.Set("endDate", end.Format("2006-01-02"))
	for _, id := range subcalendarIDs {
		q.Add("subcalendarId[]", strconv.FormatInt(id, 10))
	}
	endpoint := fmt.Sprintf("%s/%s/events?%s", c.baseURL, c.calendarKey, q.Encode())

	cacheKey := "teamup:events:" + q.Encode()
	var wrap eventsEnvelope
	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.Events, nil
	}

	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return wrap.Events, nil
}

// CreateEvent persists a new event. The provider rejects the write when
// the underlying slot was taken by another actor in the meantime; callers
// treat that as a booking failure, not a fatal error.
func (c *TeamupClient) CreateEvent(ctx context.Context, ev Event) (Event, error) {
	endpoint := fmt.Sprintf("%s/%s/events", c.baseURL, c.calendarKey)
	var wrap eventEnvelope
	if err := c.doSend(ctx, http.MethodPost, endpoint, ev, &wrap); err != nil {
		return Event{}, err
	}
	c.invalidateCache(ctx)
	return wrap.Event, nil
}

// UpdateEvent modifies an existing event.
func (c *TeamupClient) UpdateEvent(ctx context.Context, id string, ev Event) (Event, error) {
	endpoint := fmt.Sprintf("%s/%s/events/%s", c.baseURL, c.calendarKey, url.PathEscape(id))
	var wrap eventEnvelope
	if err := c.doSend(ctx, http.MethodPut, endpoint, ev, &wrap); err != nil {
		return Event{}, err
	}
	c.invalidateCache(ctx)
	return wrap.Event, nil
}

// DeleteEvent removes an event.
func (c *TeamupClient) DeleteEvent(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s/events/%s", c.baseURL, c.calendarKey, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	if err := c.do(req, nil); err != nil {
		return err
	}
	c.invalidateCache(ctx)
	return nil
}

func (c *TeamupClient) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *TeamupClient) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *TeamupClient) invalidateCache(ctx context.Context) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	iter := c.redis.Scan(ctx, 0, "teamup:events:*", 100).Iterator()
	for iter.Next(ctx) {
		_ = c.redis.Del(ctx, iter.Val()).Err()
	}
}

func (c *TeamupClient) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *TeamupClient) doSend(ctx context.Context, method, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *TeamupClient) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Teamup-Token", c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

func (c *TeamupClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("calendar API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode calendar response: %w", err)
	}
	return nil
}
