package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Booking is a unit of customer-requested work ("job") as served by the job API.
type Booking struct {
	ID             string        `json:"_id"`                      // Opaque id assigned by the server
	CustomerName   string        `json:"customerName"`             // Display only
	ServiceName    string        `json:"serviceName"`              // e.g. "AC Repair"
	Category       string        `json:"category,omitempty"`       // Used by the category filter
	Address        string        `json:"address"`                  // Display only
	Payment        Amount        `json:"payment"`                  // Minor units
	Status         BookingStatus `json:"status"`                   // Closed lifecycle set
	JobPostedTime  JobTime       `json:"jobPostedTime"`            // Absolute or relative text
	CreatedAt      JobTime       `json:"createdAt"`                // Absolute or relative text
	CustomerRating Score         `json:"customerRating,omitempty"` // 0 when unrated
	Urgency        string        `json:"urgency,omitempty"`        // e.g. "High"
	Distance       string        `json:"distance,omitempty"`       // e.g. "2.5 km"
	EstimatedTime  string        `json:"estimatedTime,omitempty"`  // e.g. "45 mins"
	Description    string        `json:"description,omitempty"`

	// Raw is the element exactly as the server sent it. acceptJob posts it
	// back unchanged.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON applies the boundary rules: an absent status means the job is
// still available.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	*b = Booking(p)
	return nil
}

// DistanceKm parses the leading number of Distance ("2.5 km", "800m" is read
// as 0.8). ok is false when no number is present.
func (b Booking) DistanceKm() (km float64, ok bool) {
	s := strings.TrimSpace(strings.ToLower(b.Distance))
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	unit := strings.TrimSpace(s[end:])
	if unit == "m" || strings.HasPrefix(unit, "meter") || strings.HasPrefix(unit, "metre") {
		v /= 1000
	}
	return v, true
}

// Score is a rating that the server sends either as a number or a string.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*s = 0
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid rating %q", raw)
		}
		*s = Score(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid rating %s", data)
	}
	*s = Score(v)
	return nil
}
