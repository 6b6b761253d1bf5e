package models

import "encoding/json"

// ListEnvelope is the body of the three list endpoints. Items stay raw so the
// client can drop malformed bookings one by one.
type ListEnvelope struct {
	Data []json.RawMessage `json:"data"`
}

// AcceptResult is the body returned by acceptJob.
type AcceptResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// VerifyRequest is the body sent to verifyJobComplete.
type VerifyRequest struct {
	ID  string `json:"_id"`
	OTP string `json:"otp"`
}

// VerifyResult is the body returned by verifyJobComplete.
type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// APIErrorBody is the error body the server sends on non-2xx responses.
type APIErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
