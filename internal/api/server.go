// Package api exposes the voice agent's webhook surface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"glamora/internal/audit"
	"glamora/internal/booking"
	"glamora/internal/metrics"
	"glamora/internal/reservation"
)

// HTTPServer serves the booking API.
type HTTPServer struct {
	svc     *booking.Service
	journal *audit.Journal // optional, enables the export endpoint
	logger  zerolog.Logger
	server  *http.Server
}

// NewHTTPServer builds the server on the given port.
func NewHTTPServer(port int, svc *booking.Service, journal *audit.Journal, logger zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		svc:     svc,
		journal: journal,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/booking", s.handleBooking)
	mux.HandleFunc("POST /api/booking/verify", s.handleVerify)
	mux.HandleFunc("GET /api/webhook/booking/{sessionId}", s.handleSessionReadback)
	mux.HandleFunc("POST /api/webhook/check-slot", s.handleCheckSlot)
	mux.HandleFunc("GET /api/services", s.handleServices)
	mux.HandleFunc("GET /api/staff/{capability}", s.handleStaff)
	mux.HandleFunc("GET /api/admin/export", s.handleExport)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.withLogging(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the configured handler, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving HTTP until the server is shut down.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// handleBooking is the main voice-agent entry point.
// POST /api/booking
func (s *HTTPServer) handleBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking")

	var req booking.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp := s.svc.Handle(r.Context(), req)
	writeJSON(w, statusFor(resp), resp)
}

// VerifyRequest is the request body for POST /api/booking/verify.
type VerifyRequest struct {
	SessionID string `json:"sessionId"`
	Action    string `json:"action"` // "confirm" or "cancel"
}

// handleVerify confirms or cancels a pending verification session.
// POST /api/booking/verify
func (s *HTTPServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("verify")

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "sessionId and action are required")
		return
	}

	resp := s.svc.Verify(r.Context(), req.SessionID, req.Action)
	writeJSON(w, statusFor(resp), resp)
}

// SessionReadback is the response for GET /api/webhook/booking/{sessionId}.
type SessionReadback struct {
	Found   bool                        `json:"found"`
	Status  string                      `json:"status,omitempty"`
	Details *reservation.BookingDetails `json:"details,omitempty"`
}

// handleSessionReadback lets the voice agent read a session back to the
// caller before confirmation.
// GET /api/webhook/booking/{sessionId}
func (s *HTTPServer) handleSessionReadback(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("session_readback")

	session, ok := s.svc.Session(r.PathValue("sessionId"))
	if !ok {
		writeJSON(w, http.StatusNotFound, SessionReadback{Found: false})
		return
	}
	writeJSON(w, http.StatusOK, SessionReadback{
		Found:   true,
		Status:  string(session.Status),
		Details: &session.Details,
	})
}

// CheckSlotRequest is the request body for POST /api/webhook/check-slot.
type CheckSlotRequest struct {
	StaffName       string `json:"staffName"`
	Date            string `json:"date"` // "2026-09-01"
	Time            string `json:"time"` // "10:00"
	DurationMinutes int    `json:"durationMinutes"`
}

// handleCheckSlot answers a single real-time availability probe.
// POST /api/webhook/check-slot
func (s *HTTPServer) handleCheckSlot(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("check_slot")

	var req CheckSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.StaffName == "" || req.Date == "" || req.Time == "" || req.DurationMinutes <= 0 {
		writeError(w, http.StatusBadRequest, "staffName, date, time and durationMinutes are required")
		return
	}

	available, err := s.svc.CheckSlot(r.Context(), req.StaffName, req.Date, req.Time, req.DurationMinutes)
	if err != nil {
		s.logger.Error().Err(err).Msg("slot check failed")
		writeError(w, http.StatusBadGateway, "calendar unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": available})
}

// handleServices lists the service catalog.
// GET /api/services
func (s *HTTPServer) handleServices(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("services")
	writeJSON(w, http.StatusOK, map[string]any{"services": s.svc.Services()})
}

// StaffInfo is one roster entry in the listing response.
type StaffInfo struct {
	Name      string `json:"name"`
	StaffType string `json:"staffType"`
}

// handleStaff lists staff by capability tag; "all" lists everyone.
// GET /api/staff/{capability}
func (s *HTTPServer) handleStaff(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("staff")

	tag := strings.ToLower(r.PathValue("capability"))
	staff := s.svc.StaffByCapability(tag)
	out := make([]StaffInfo, 0, len(staff))
	for _, st := range staff {
		out = append(out, StaffInfo{Name: st.Name, StaffType: st.Capability})
	}
	writeJSON(w, http.StatusOK, map[string]any{"staff": out})
}

// handleExport streams the booking journal as a spreadsheet.
// GET /api/admin/export?from=2026-01-01&to=2026-12-31
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")

	if s.journal == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	from, to, err := exportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.journal.List(r.Context(), from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("journal query failed")
		writeError(w, http.StatusInternalServerError, "journal query failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if err := audit.ExportXLSX(w, entries); err != nil {
		s.logger.Error().Err(err).Msg("xlsx export failed")
	}
}

func exportRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(layout, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date; expected YYYY-MM-DD")
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(layout, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date; expected YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be before to")
	}
	return from, to, nil
}

// statusFor maps a booking response to an HTTP status. Business failures
// stay 200 so the voice agent reads the structured error; only transport
// problems surface as 5xx.
func statusFor(resp booking.Response) int {
	if resp.Error == booking.ErrCodeCalendarUnavailable {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
