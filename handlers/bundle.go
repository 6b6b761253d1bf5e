// File: handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Job list endpoints
	GetJobs      gin.HandlerFunc
	SetActiveTab gin.HandlerFunc
	RefreshJobs  gin.HandlerFunc
	AcceptJob    gin.HandlerFunc
	EnterOTP     gin.HandlerFunc
	GetActivity  gin.HandlerFunc
	GetBookings  gin.HandlerFunc
	GetEarnings  gin.HandlerFunc

	// OTP sheet endpoints
	GetSheet    gin.HandlerFunc
	UpdateSheet gin.HandlerFunc
	SubmitSheet gin.HandlerFunc
	CloseSheet  gin.HandlerFunc

	// Operational endpoints
	Health  gin.HandlerFunc
	Metrics gin.HandlerFunc
}

// NewHandlerBundle assembles the bundle from the job and OTP handlers.
func NewHandlerBundle(jobs *JobsHandler, sheets *OTPHandler, metrics gin.HandlerFunc) *HandlerBundle {
	return &HandlerBundle{
		GetJobs:      jobs.GetJobs,
		SetActiveTab: jobs.SetActiveTab,
		RefreshJobs:  jobs.RefreshJobs,
		AcceptJob:    jobs.AcceptJob,
		EnterOTP:     jobs.EnterOTP,
		GetActivity:  jobs.GetActivity,
		GetBookings:  jobs.GetBookings,
		GetEarnings:  jobs.GetEarnings,

		GetSheet:    sheets.GetSheet,
		UpdateSheet: sheets.UpdateSheet,
		SubmitSheet: sheets.SubmitSheet,
		CloseSheet:  sheets.CloseSheet,

		Health:  Health,
		Metrics: metrics,
	}
}
