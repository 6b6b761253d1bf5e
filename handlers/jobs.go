package handlers

import (
	"context"
	"errors"
	"net/http"

	activityRepo "taskmaster/database/repository/activity"
	"taskmaster/models"
	"taskmaster/services/jobapi"
	"taskmaster/services/joblist"
	"taskmaster/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobListService is the job list controller as used over HTTP.
type JobListService interface {
	Visible(q joblist.Query) joblist.View
	ActiveTab() models.Tab
	SetActiveTab(tab models.Tab)
	Refresh(ctx context.Context) error
	AcceptJob(ctx context.Context, id string) (*models.AcceptResult, error)
	EnterOTP(ctx context.Context, id string) (*models.OTPSheet, error)
	Earnings() models.Earnings
}

// BookingLister exposes the Booking Store lists.
type BookingLister interface {
	List(kind models.ListKind) []models.Booking
	Loading() bool
	Refreshing() bool
}

// JobsHandler serves the job list screen.
type JobsHandler struct {
	Jobs     JobListService
	Store    BookingLister
	Activity activityRepo.ActivityRepository
	Logger   *zap.Logger
}

func NewJobsHandler(jobs JobListService, store BookingLister, activity activityRepo.ActivityRepository, logger *zap.Logger) *JobsHandler {
	if activity == nil {
		activity = activityRepo.NewNoopActivityRepo()
	}
	return &JobsHandler{Jobs: jobs, Store: store, Activity: activity, Logger: logger}
}

// GetJobs handles GET /api/jobs?tab=&search=&filter=&sort=.
func (h *JobsHandler) GetJobs(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Jobs.Visible(q))
}

func (h *JobsHandler) bindQuery(c *gin.Context) (joblist.Query, bool) {
	var q joblist.Query
	if raw := c.Query("tab"); raw != "" {
		tab, err := models.ParseTab(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid tab", err.Error())
			return q, false
		}
		q.Tab = tab
	}
	sortKey, err := models.ParseSortKey(c.Query("sort"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid sort key", err.Error())
		return q, false
	}
	q.Sort = sortKey
	q.Search = c.Query("search")
	q.Filter = c.DefaultQuery("filter", models.FilterAll)
	return q, true
}

// SetActiveTab handles PUT /api/jobs/tab.
func (h *JobsHandler) SetActiveTab(c *gin.Context) {
	var body struct {
		Tab string `json:"tab" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	tab, err := models.ParseTab(body.Tab)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid tab", err.Error())
		return
	}
	h.Jobs.SetActiveTab(tab)
	c.JSON(http.StatusOK, gin.H{"activeTab": tab})
}

// RefreshJobs handles POST /api/jobs/refresh (pull-to-refresh).
func (h *JobsHandler) RefreshJobs(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	if err := h.Jobs.Refresh(c.Request.Context()); err != nil {
		getLogger(c, h.Logger).Warn("RefreshJobs: refresh did not complete", zap.Error(err))
	}
	c.JSON(http.StatusOK, h.Jobs.Visible(q))
}

// AcceptJob handles POST /api/jobs/:id/accept. The UI asks for confirmation
// before calling it.
func (h *JobsHandler) AcceptJob(c *gin.Context) {
	id := c.Param("id")
	res, err := h.Jobs.AcceptJob(c.Request.Context(), id)
	if err != nil {
		message := err.Error()
		var aerr *joblist.ActionError
		if errors.As(err, &aerr) {
			message = aerr.Message
		}
		getLogger(c, h.Logger).Info("AcceptJob: accept failed", zap.String("bookingId", id), zap.Error(err))
		c.JSON(actionStatus(err), gin.H{"error": "failed to accept job", "message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   res.Success,
		"message":   res.Message,
		"activeTab": h.Jobs.ActiveTab(),
	})
}

// EnterOTP handles POST /api/jobs/:id/otp and opens an OTP sheet.
func (h *JobsHandler) EnterOTP(c *gin.Context) {
	id := c.Param("id")
	sheet, err := h.Jobs.EnterOTP(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, joblist.ErrJobNotFound):
			status = http.StatusNotFound
		case errors.Is(err, joblist.ErrAlreadyCompleted):
			status = http.StatusConflict
		default:
			getLogger(c, h.Logger).Error("EnterOTP: failed to open sheet", zap.String("bookingId", id), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": "failed to open OTP sheet", "message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sheet": sheet, "activeTab": h.Jobs.ActiveTab()})
}

// GetActivity handles GET /api/jobs/:id/activity.
func (h *JobsHandler) GetActivity(c *gin.Context) {
	entries, err := h.Activity.ListByBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		getLogger(c, h.Logger).Error("GetActivity: failed to list activity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list activity", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetBookings handles GET /api/bookings/:kind.
func (h *JobsHandler) GetBookings(c *gin.Context) {
	kind, err := models.ParseListKind(c.Param("kind"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid booking list", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bookings":   h.Store.List(kind),
		"loading":    h.Store.Loading(),
		"refreshing": h.Store.Refreshing(),
	})
}

// GetEarnings handles GET /api/earnings.
func (h *JobsHandler) GetEarnings(c *gin.Context) {
	c.JSON(http.StatusOK, h.Jobs.Earnings())
}

func actionStatus(err error) int {
	switch {
	case errors.Is(err, joblist.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, jobapi.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, jobapi.ErrTransport):
		return http.StatusBadGateway
	}
	return http.StatusConflict
}
