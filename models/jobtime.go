package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// JobTime is a server timestamp that may be absolute ("2024-05-01T10:00:00Z")
// or relative display text ("5 mins ago"). Raw is kept verbatim so that
// re-encoding is lossless.
type JobTime struct {
	Raw   string
	at    time.Time
	epoch bool
}

// NewJobTime builds a JobTime from an absolute time.
func NewJobTime(t time.Time) JobTime {
	return JobTime{Raw: t.UTC().Format(time.RFC3339), at: t.UTC()}
}

// ParseJobTime interprets raw; relative strings keep a zero Time.
func ParseJobTime(raw string) JobTime {
	jt := JobTime{Raw: raw}
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			jt.at = t
			break
		}
	}
	return jt
}

// Time returns the absolute time and whether one is known.
func (t JobTime) Time() (time.Time, bool) {
	return t.at, !t.at.IsZero()
}

func (t JobTime) IsZero() bool {
	return t.Raw == ""
}

func (t *JobTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = JobTime{}
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		// Epoch milliseconds.
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return err
		}
		*t = JobTime{Raw: string(data), at: time.UnixMilli(ms).UTC(), epoch: true}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ParseJobTime(raw)
	return nil
}

func (t JobTime) MarshalJSON() ([]byte, error) {
	if t.Raw == "" {
		return []byte("null"), nil
	}
	if t.epoch {
		return []byte(t.Raw), nil
	}
	return json.Marshal(t.Raw)
}
