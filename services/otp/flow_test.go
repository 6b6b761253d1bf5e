package otp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"taskmaster/models"
	"taskmaster/services/jobapi"
)

type verifierFunc func(ctx context.Context, id, otp string) (*models.VerifyResult, error)

func (f verifierFunc) VerifyJobComplete(ctx context.Context, id, otp string) (*models.VerifyResult, error) {
	return f(ctx, id, otp)
}

func statusErr(status int) error {
	return &jobapi.APIError{Endpoint: jobapi.EndpointVerifyJobComplete, Status: status}
}

func openWithOTP(t *testing.T, f *Flow, otp string) *models.OTPSheet {
	t.Helper()
	ctx := context.Background()
	sheet, err := f.Open(ctx, "a1", models.TabPending)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sheet.State != models.SheetIdle {
		t.Fatalf("new sheet state = %s", sheet.State)
	}
	if _, err := f.SetOTP(ctx, sheet.ID, otp); err != nil {
		t.Fatalf("SetOTP: %v", err)
	}
	return sheet
}

func TestSubmitInvalidOTPKeepsInput(t *testing.T) {
	var completed int32
	f := NewFlow(verifierFunc(func(context.Context, string, string) (*models.VerifyResult, error) {
		return nil, statusErr(http.StatusBadRequest)
	}), NewMemorySheetStore(), WithOnComplete(func(context.Context, string) { atomic.AddInt32(&completed, 1) }))

	sheet := openWithOTP(t, f, "1234")
	got, err := f.Submit(context.Background(), sheet.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.State != models.SheetError {
		t.Fatalf("state = %s, want error", got.State)
	}
	if got.OTP != "1234" {
		t.Fatalf("OTP input cleared on failure: %q", got.OTP)
	}
	if !strings.Contains(got.Message, "Invalid OTP") {
		t.Fatalf("unexpected message %q", got.Message)
	}
	if atomic.LoadInt32(&completed) != 0 {
		t.Fatal("completion callback ran on failure")
	}

	stored, err := f.Get(context.Background(), sheet.ID)
	if err != nil {
		t.Fatalf("sheet should stay open after failure: %v", err)
	}
	if stored.OTP != "1234" || stored.State != models.SheetError {
		t.Fatalf("stored sheet %+v", stored)
	}
}

func TestSubmitSuccessClearsInputAndCompletesOnce(t *testing.T) {
	var completed int32
	var gotID, gotOTP string
	f := NewFlow(verifierFunc(func(_ context.Context, id, otp string) (*models.VerifyResult, error) {
		gotID, gotOTP = id, otp
		return &models.VerifyResult{Success: true}, nil
	}), NewMemorySheetStore(), WithOnComplete(func(_ context.Context, bookingID string) {
		if bookingID != "a1" {
			t.Errorf("callback booking = %s", bookingID)
		}
		atomic.AddInt32(&completed, 1)
	}))

	sheet := openWithOTP(t, f, "4321")
	got, err := f.Submit(context.Background(), sheet.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotID != "a1" || gotOTP != "4321" {
		t.Fatalf("verifier got (%s, %s)", gotID, gotOTP)
	}
	if got.State != models.SheetSuccess || got.OTP != "" || got.Message != MsgCompleted {
		t.Fatalf("unexpected sheet %+v", got)
	}
	if n := atomic.LoadInt32(&completed); n != 1 {
		t.Fatalf("completion callback ran %d times", n)
	}
	if _, err := f.Get(context.Background(), sheet.ID); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("sheet should be closed after success, got %v", err)
	}
}

func TestSubmitEmptyOTPDoesNotCallServer(t *testing.T) {
	f := NewFlow(verifierFunc(func(context.Context, string, string) (*models.VerifyResult, error) {
		t.Fatal("verifier called with empty OTP")
		return nil, nil
	}), NewMemorySheetStore())

	sheet := openWithOTP(t, f, "   ")
	if _, err := f.Submit(context.Background(), sheet.ID); !errors.Is(err, ErrEmptyOTP) {
		t.Fatalf("expected ErrEmptyOTP, got %v", err)
	}
	stored, _ := f.Get(context.Background(), sheet.ID)
	if stored.State != models.SheetIdle {
		t.Fatalf("guard changed state to %s", stored.State)
	}
}

func TestInputDisabledWhileSubmitting(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := NewFlow(verifierFunc(func(context.Context, string, string) (*models.VerifyResult, error) {
		close(entered)
		<-release
		return &models.VerifyResult{Success: true}, nil
	}), NewMemorySheetStore())

	sheet := openWithOTP(t, f, "1111")
	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), sheet.ID)
		done <- err
	}()
	<-entered

	if _, err := f.SetOTP(context.Background(), sheet.ID, "2222"); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("SetOTP during submit: %v", err)
	}
	if _, err := f.Submit(context.Background(), sheet.ID); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("second Submit during submit: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestErrorReturnsToIdleOnEdit(t *testing.T) {
	calls := 0
	f := NewFlow(verifierFunc(func(context.Context, string, string) (*models.VerifyResult, error) {
		calls++
		if calls == 1 {
			return nil, statusErr(http.StatusBadRequest)
		}
		return &models.VerifyResult{Success: true}, nil
	}), NewMemorySheetStore())

	sheet := openWithOTP(t, f, "0000")
	if _, err := f.Submit(context.Background(), sheet.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	edited, err := f.SetOTP(context.Background(), sheet.ID, "1234")
	if err != nil {
		t.Fatalf("SetOTP: %v", err)
	}
	if edited.State != models.SheetIdle || edited.Message != "" {
		t.Fatalf("edit after error should reset to idle, got %+v", edited)
	}
	got, err := f.Submit(context.Background(), sheet.ID)
	if err != nil || got.State != models.SheetSuccess {
		t.Fatalf("resubmit: %+v, %v", got, err)
	}
}

func TestFailureMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{statusErr(http.StatusBadRequest), MsgInvalidOTP},
		{statusErr(http.StatusNotFound), MsgNotFound},
		{statusErr(http.StatusInternalServerError), MsgServerError},
		{fmt.Errorf("%w: dial tcp: refused", jobapi.ErrTransport), MsgNetworkError},
		{context.Canceled, MsgNetworkError},
		{context.DeadlineExceeded, MsgNetworkError},
		{jobapi.ErrSessionExpired, MsgSession},
		{&jobapi.APIError{Status: http.StatusConflict, Message: "Job already closed"}, "Job already closed"},
		{errors.New("weird"), MsgVerifyFailed},
	}
	for _, tc := range cases {
		if got := FailureMessage(tc.err); got != tc.want {
			t.Errorf("FailureMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCloseDiscardsSheet(t *testing.T) {
	f := NewFlow(verifierFunc(func(context.Context, string, string) (*models.VerifyResult, error) {
		return &models.VerifyResult{Success: true}, nil
	}), NewMemorySheetStore())

	sheet := openWithOTP(t, f, "1234")
	if err := f.Close(context.Background(), sheet.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := f.Submit(context.Background(), sheet.ID); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("submit on closed sheet: %v", err)
	}

	reopened, err := f.Open(context.Background(), "a1", models.TabPending)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.ID == sheet.ID || reopened.OTP != "" {
		t.Fatalf("reopened sheet carried state: %+v", reopened)
	}
}

func TestUnsuccessfulTwoHundredIsFailure(t *testing.T) {
	f := NewFlow(verifierFunc(func(context.Context, string, string) (*models.VerifyResult, error) {
		return &models.VerifyResult{Success: false, Message: "OTP expired"}, nil
	}), NewMemorySheetStore())

	sheet := openWithOTP(t, f, "1234")
	got, err := f.Submit(context.Background(), sheet.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.State != models.SheetError || got.Message != "OTP expired" {
		t.Fatalf("unexpected sheet %+v", got)
	}
}

// ctxSheetStore fails once the context is done, like a network-backed store.
type ctxSheetStore struct {
	*MemorySheetStore
}

func (s ctxSheetStore) Save(ctx context.Context, sheet models.OTPSheet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemorySheetStore.Save(ctx, sheet)
}

func (s ctxSheetStore) Get(ctx context.Context, id string) (*models.OTPSheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.MemorySheetStore.Get(ctx, id)
}

func (s ctxSheetStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemorySheetStore.Delete(ctx, id)
}

func TestCancelledSubmitReturnsToError(t *testing.T) {
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	f := NewFlow(verifierFunc(func(context.Context, string, string) (*models.VerifyResult, error) {
		calls++
		if calls == 1 {
			cancel()
			return nil, ctx.Err()
		}
		return &models.VerifyResult{Success: true}, nil
	}), ctxSheetStore{NewMemorySheetStore()})

	sheet := openWithOTP(t, f, "1234")
	got, err := f.Submit(ctx, sheet.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.State != models.SheetError || got.Message != MsgNetworkError || got.OTP != "1234" {
		t.Fatalf("unexpected sheet after cancelled submit %+v", got)
	}

	stored, err := f.Get(context.Background(), sheet.ID)
	if err != nil || stored.State != models.SheetError {
		t.Fatalf("stored sheet %+v, %v", stored, err)
	}
	if _, err := f.SetOTP(context.Background(), sheet.ID, "4321"); err != nil {
		t.Fatalf("edit after cancelled submit: %v", err)
	}
	if got, err := f.Submit(context.Background(), sheet.ID); err != nil || got.State != models.SheetSuccess {
		t.Fatalf("resubmit: %+v, %v", got, err)
	}
}

func TestCancelledSubmitStillCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var callbackErr error
	f := NewFlow(verifierFunc(func(context.Context, string, string) (*models.VerifyResult, error) {
		cancel()
		return &models.VerifyResult{Success: true}, nil
	}), ctxSheetStore{NewMemorySheetStore()}, WithOnComplete(func(ctx context.Context, _ string) {
		callbackErr = ctx.Err()
	}))

	sheet := openWithOTP(t, f, "1234")
	got, err := f.Submit(ctx, sheet.ID)
	if err != nil || got.State != models.SheetSuccess {
		t.Fatalf("Submit: %+v, %v", got, err)
	}
	if callbackErr != nil {
		t.Fatalf("completion callback got a cancelled context: %v", callbackErr)
	}
	if _, err := f.Get(context.Background(), sheet.ID); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("sheet should be closed after success, got %v", err)
	}
}
