package booking

import "glamora/internal/slots"

// Actions accepted by the booking endpoint.
const (
	ActionBook              = "book"
	ActionCheckAvailability = "check_availability"
	ActionFindNextAvailable = "find_next_available"
	ActionHumanRequest      = "human_request"
)

// Machine-readable error codes. The orchestrator is the only place that
// turns failures into these; no raw provider error reaches the caller.
const (
	ErrCodeMissingAction        = "MISSING_ACTION"
	ErrCodeInvalidAction        = "INVALID_ACTION"
	ErrCodeMissingFields        = "MISSING_FIELDS"
	ErrCodeMissingService       = "MISSING_SERVICE"
	ErrCodeMissingCustomerInfo  = "MISSING_CUSTOMER_INFO"
	ErrCodeInvalidPhone         = "INVALID_PHONE"
	ErrCodePastDate             = "PAST_DATE"
	ErrCodeServiceNotFound      = "SERVICE_NOT_FOUND"
	ErrCodeStaffNotFound        = "STAFF_NOT_FOUND"
	ErrCodeStaffServiceMismatch = "STAFF_SERVICE_MISMATCH"
	ErrCodeNoStaffAvailable     = "NO_STAFF_AVAILABLE"
	ErrCodeExistingBooking      = "EXISTING_BOOKING"
	ErrCodeSlotLocked           = "SLOT_LOCKED"
	ErrCodeTimeNotAvailable     = "TIME_NOT_AVAILABLE"
	ErrCodeNoAvailability       = "NO_AVAILABILITY"
	ErrCodeBookingFailed        = "BOOKING_FAILED"
	ErrCodeCalendarUnavailable  = "CALENDAR_UNAVAILABLE"
	ErrCodeInvalidSession       = "INVALID_SESSION"
	ErrCodeAlreadyProcessed     = "ALREADY_PROCESSED"
)

// Request is the voice agent's booking intent.
type Request struct {
	Action         string               `json:"action"`
	CustomerName   string               `json:"customerName,omitempty"`
	CustomerPhone  string               `json:"customerPhone,omitempty"`
	ServiceName    string               `json:"serviceName,omitempty"`
	PreferredStaff string               `json:"preferredStaff,omitempty"`
	PreferredDate  string               `json:"preferredDate,omitempty"` // "2026-09-01"
	PreferredTime  string               `json:"preferredTime,omitempty"` // "10:00"
	ExcludeSlots   []slots.ExcludedSlot `json:"excludeSlots,omitempty"`
}

// BookedSlot echoes a confirmed booking back to the caller.
type BookedSlot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	EndTime   string `json:"endTime"`
	StaffName string `json:"staffName"`
	Service   string `json:"service"`
}

// ResponseData carries per-intent payloads.
type ResponseData struct {
	BookingID            string       `json:"bookingId,omitempty"`
	SessionID            string       `json:"sessionId,omitempty"`
	AvailableSlots       []slots.Slot `json:"availableSlots,omitempty"`
	SuggestedSlot        *slots.Slot  `json:"suggestedSlot,omitempty"`
	SuggestedSlots       []slots.Slot `json:"suggestedSlots,omitempty"`
	BookedSlot           *BookedSlot  `json:"bookedSlot,omitempty"`
	ConfirmationRequired bool         `json:"confirmationRequired,omitempty"`
}

// Response is the structured reply for every intent.
type Response struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	Data          *ResponseData `json:"data,omitempty"`
	Error         string        `json:"error,omitempty"`
	RequiresHuman bool          `json:"requiresHuman,omitempty"`
}

func failure(code, message string) Response {
	return Response{Success: false, Message: message, Error: code}
}
