// Package catalog provides fuzzy lookup over the fixed service list.
package catalog

import (
	"errors"
	"strings"
	"time"

	"glamora/internal/config"
)

// ErrServiceNotFound is returned when no catalog entry matches a query.
var ErrServiceNotFound = errors.New("service not found")

// Service is one bookable service with a fixed duration.
type Service struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration"`
	Category        string `json:"category"`
	Capability      string `json:"staffType"`
}

// Duration returns the service length. A booking's end is always
// start + Duration().
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Catalog is the immutable service list, built once at startup.
type Catalog struct {
	services []Service
}

// New builds a catalog from salon configuration, preserving declaration
// order.
func New(cfg *config.SalonConfig) *Catalog {
	services := make([]Service, 0, len(cfg.Services))
	for _, sc := range cfg.Services {
		services = append(services, Service{
			Name:            sc.Name,
			DurationMinutes: sc.DurationMinutes,
			Category:        sc.Category,
			Capability:      sc.Capability,
		})
	}
	return &Catalog{services: services}
}

// Find matches a free-text query against the catalog, case-insensitively
// and in both containment directions: the entry name may contain the query
// or the query may contain the entry name. Voice transcripts truncate
// service names from either end, so both directions are required.
// Ties break on declaration order.
func (c *Catalog) Find(query string) (Service, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Service{}, false
	}
	for _, s := range c.services {
		name := strings.ToLower(s.Name)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return s, true
		}
	}
	return Service{}, false
}

// ByCapability returns services requiring the given staff capability, in
// declaration order.
func (c *Catalog) ByCapability(tag string) []Service {
	var out []Service
	for _, s := range c.services {
		if s.Capability == tag {
			out = append(out, s)
		}
	}
	return out
}

// All returns every service in declaration order.
func (c *Catalog) All() []Service {
	return c.services
}
