package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BookingStatus is the lifecycle state of a booking as reported by the server.
type BookingStatus string

const (
	StatusAvailable  BookingStatus = "Available"
	StatusAccepted   BookingStatus = "Accepted"
	StatusEnRoute    BookingStatus = "En Route"
	StatusInProgress BookingStatus = "In Progress"
	StatusCompleted  BookingStatus = "Completed"
	StatusCancelled  BookingStatus = "Cancelled"
)

var statusAliases = map[string]BookingStatus{
	"":           StatusAvailable,
	"available":  StatusAvailable,
	"open":       StatusAvailable,
	"pending":    StatusAccepted,
	"accepted":   StatusAccepted,
	"enroute":    StatusEnRoute,
	"inprogress": StatusInProgress,
	"started":    StatusInProgress,
	"completed":  StatusCompleted,
	"complete":   StatusCompleted,
	"done":       StatusCompleted,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
}

// ParseBookingStatus normalizes server spellings ("in_progress", "En Route",
// "CANCELED") onto the closed status set. "pending" is the server's word for
// an accepted job that has not been started.
func ParseBookingStatus(s string) (BookingStatus, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
	if st, ok := statusAliases[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

func (s *BookingStatus) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid booking status %s", data)
	}
	if raw == nil {
		*s = StatusAvailable
		return nil
	}
	st, err := ParseBookingStatus(*raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
