package models

import "time"

// SheetState is the state of an OTP completion sheet.
type SheetState string

const (
	SheetIdle       SheetState = "idle"
	SheetSubmitting SheetState = "submitting"
	SheetSuccess    SheetState = "success"
	SheetError      SheetState = "error"
)

// OTPSheet is the data behind one open OTP entry sheet.
type OTPSheet struct {
	ID        string     `json:"id"`
	BookingID string     `json:"bookingId"`
	Mode      Tab        `json:"mode"`              // Tab the detail sheet renders for
	State     SheetState `json:"state"`
	OTP       string     `json:"otp"`               // Current input
	Message   string     `json:"message,omitempty"` // Last user-facing result
	OpenedAt  time.Time  `json:"openedAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Busy reports whether input and submit are disabled.
func (s OTPSheet) Busy() bool {
	return s.State == SheetSubmitting
}
