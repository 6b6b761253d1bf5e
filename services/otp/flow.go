package otp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskmaster/metrics"
	"taskmaster/models"
	"taskmaster/services/jobapi"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyOTP   = errors.New("please enter the OTP")
	ErrSubmitting = errors.New("otp verification already in progress")
)

// User-facing results of a submission.
const (
	MsgCompleted    = "Job completed successfully!"
	MsgInvalidOTP   = "Invalid OTP. Please check the code and try again."
	MsgNotFound     = "Booking not found. It may have been cancelled."
	MsgServerError  = "Server error. Please try again later."
	MsgNetworkError = "Network error. Please check your connection and try again."
	MsgSession      = "Your session has expired. Please sign in again."
	MsgVerifyFailed = "Failed to verify OTP. Please try again."
)

// Verifier posts an OTP for a booking.
type Verifier interface {
	VerifyJobComplete(ctx context.Context, id, otp string) (*models.VerifyResult, error)
}

// Recorder journals completion attempts.
type Recorder interface {
	Record(ctx context.Context, activity models.JobActivity) error
}

// Flow runs the OTP completion handshake for open sheets:
//
//	idle --submit--> submitting --ok--> success (sheet closed)
//	                            --err-> error --edit/submit--> idle/submitting
type Flow struct {
	verifier   Verifier
	sheets     SheetStore
	onComplete func(ctx context.Context, bookingID string)
	recorder   Recorder
	logger     *zap.Logger
	now        func() time.Time

	// mu serializes state transitions; it is not held during verification.
	mu sync.Mutex
}

type Option func(*Flow)

// WithOnComplete sets the callback invoked once per successful verification,
// typically a Booking Store refresh.
func WithOnComplete(fn func(ctx context.Context, bookingID string)) Option {
	return func(f *Flow) { f.onComplete = fn }
}

func WithRecorder(r Recorder) Option {
	return func(f *Flow) { f.recorder = r }
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

func NewFlow(verifier Verifier, sheets SheetStore, opts ...Option) *Flow {
	f := &Flow{
		verifier: verifier,
		sheets:   sheets,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open starts a fresh sheet for bookingID. Nothing carries over from a
// previously closed sheet.
func (f *Flow) Open(ctx context.Context, bookingID string, mode models.Tab) (*models.OTPSheet, error) {
	now := f.now()
	sheet := models.OTPSheet{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		Mode:      mode,
		State:     models.SheetIdle,
		OpenedAt:  now,
		UpdatedAt: now,
	}
	if err := f.sheets.Save(ctx, sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (f *Flow) Get(ctx context.Context, id string) (*models.OTPSheet, error) {
	return f.sheets.Get(ctx, id)
}

// SetOTP replaces the input. Editing after an error returns the sheet to idle.
func (f *Flow) SetOTP(ctx context.Context, id, otp string) (*models.OTPSheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sheet, err := f.sheets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sheet.Busy() {
		return nil, ErrSubmitting
	}
	sheet.OTP = otp
	if sheet.State == models.SheetError {
		sheet.State = models.SheetIdle
		sheet.Message = ""
	}
	sheet.UpdatedAt = f.now()
	if err := f.sheets.Save(ctx, *sheet); err != nil {
		return nil, err
	}
	return sheet, nil
}

// Close discards the sheet and its input.
func (f *Flow) Close(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sheets.Delete(ctx, id)
}

// Submit verifies the current input. Guard failures (empty input, submission
// already running) return an error and leave the sheet unchanged. A rejected
// OTP is not an error: the returned sheet is in the error state with the OTP
// kept for resubmission. On success the OTP is cleared, the completion
// callback runs once and the sheet is closed.
func (f *Flow) Submit(ctx context.Context, id string) (*models.OTPSheet, error) {
	f.mu.Lock()
	sheet, err := f.sheets.Get(ctx, id)
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if sheet.Busy() {
		f.mu.Unlock()
		return nil, ErrSubmitting
	}
	otp := strings.TrimSpace(sheet.OTP)
	if otp == "" {
		f.mu.Unlock()
		return nil, ErrEmptyOTP
	}
	sheet.State = models.SheetSubmitting
	sheet.Message = ""
	sheet.UpdatedAt = f.now()
	if err := f.sheets.Save(ctx, *sheet); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	res, verr := f.verifier.VerifyJobComplete(ctx, sheet.BookingID, otp)
	if verr == nil && !res.Success {
		verr = &jobapi.APIError{Endpoint: jobapi.EndpointVerifyJobComplete, Status: http.StatusOK, Message: res.Message}
	}

	// The outcome must be written even if the caller went away, or the sheet
	// would stay submitting.
	ctx = context.WithoutCancel(ctx)
	if verr != nil {
		return f.fail(ctx, sheet, verr)
	}
	return f.succeed(ctx, sheet)
}

func (f *Flow) succeed(ctx context.Context, sheet *models.OTPSheet) (*models.OTPSheet, error) {
	metrics.IncOTPVerify("success")
	f.record(ctx, sheet.BookingID, "success", MsgCompleted)

	f.mu.Lock()
	sheet.OTP = ""
	sheet.State = models.SheetSuccess
	sheet.Message = MsgCompleted
	sheet.UpdatedAt = f.now()
	if err := f.sheets.Delete(ctx, sheet.ID); err != nil {
		f.logger.Warn("failed to close otp sheet", zap.String("sheetId", sheet.ID), zap.Error(err))
	}
	f.mu.Unlock()

	if f.onComplete != nil {
		f.onComplete(ctx, sheet.BookingID)
	}
	return sheet, nil
}

func (f *Flow) fail(ctx context.Context, sheet *models.OTPSheet, verr error) (*models.OTPSheet, error) {
	msg := FailureMessage(verr)
	metrics.IncOTPVerify("failure")
	f.record(ctx, sheet.BookingID, "failure", msg)
	f.logger.Info("otp verification failed",
		zap.String("bookingId", sheet.BookingID),
		zap.Int("status", jobapi.StatusCode(verr)),
		zap.Error(verr),
	)

	f.mu.Lock()
	defer f.mu.Unlock()

	// The sheet may have been dismissed while the request was in flight.
	current, err := f.sheets.Get(ctx, sheet.ID)
	if errors.Is(err, ErrSheetNotFound) {
		sheet.State = models.SheetError
		sheet.Message = msg
		return sheet, nil
	}
	if err != nil {
		return nil, err
	}
	current.State = models.SheetError
	current.Message = msg
	current.UpdatedAt = f.now()
	if err := f.sheets.Save(ctx, *current); err != nil {
		return nil, err
	}
	return current, nil
}

// FailureMessage maps a verification error to the message the user sees.
func FailureMessage(err error) string {
	var apiErr *jobapi.APIError
	switch {
	case errors.Is(err, jobapi.ErrSessionExpired):
		return MsgSession
	case errors.Is(err, jobapi.ErrTransport),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return MsgNetworkError
	case errors.As(err, &apiErr):
		switch apiErr.Status {
		case http.StatusBadRequest:
			return MsgInvalidOTP
		case http.StatusNotFound:
			return MsgNotFound
		case http.StatusInternalServerError:
			return MsgServerError
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return MsgVerifyFailed
}

func (f *Flow) record(ctx context.Context, bookingID, outcome, msg string) {
	if f.recorder == nil {
		return
	}
	err := f.recorder.Record(ctx, models.JobActivity{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		Action:    models.ActionComplete,
		Outcome:   outcome,
		Message:   msg,
		CreatedAt: f.now(),
	})
	if err != nil {
		f.logger.Warn("failed to journal otp attempt", zap.String("bookingId", bookingID), zap.Error(err))
	}
}
