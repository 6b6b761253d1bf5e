// File: models/activity.go
package models

import "time"

// ActivityAction names what the task master tried to do with a job.
type ActivityAction string

const (
	ActionAccept   ActivityAction = "accept"
	ActionComplete ActivityAction = "complete"
)

// JobActivity is one journal entry of an accept or OTP completion attempt.
type JobActivity struct {
	ID        string         `bson:"id" json:"id"`
	BookingID string         `bson:"bookingId" json:"bookingId"`
	Action    ActivityAction `bson:"action" json:"action"`
	Outcome   string         `bson:"outcome" json:"outcome"` // "success" or "failure"
	Message   string         `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt time.Time      `bson:"createdAt" json:"createdAt"`
}

// Earnings summarises completed jobs.
type Earnings struct {
	CompletedJobs int    `json:"completedJobs"`
	Total         Amount `json:"total"`
	Display       string `json:"display"`
}
