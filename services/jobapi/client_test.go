package jobapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"taskmaster/models"

	"github.com/golang-jwt/jwt"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func TestGetJobsUnwrapsEnvelopeAndDropsMalformed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/"+EndpointJobsInProgress {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"data":[
			{"_id":"a1","customerName":"Asha","payment":"₹1,200","status":"In Progress"},
			{"_id":"bad","payment":"call me"},
			{"_id":"a2","payment":450,"status":"en_route","createdAt":"5 mins ago"}
		]}`)
	})

	got, err := c.GetJobsInProgress(context.Background())
	if err != nil {
		t.Fatalf("GetJobsInProgress: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(got))
	}
	if got[0].ID != "a1" || got[0].Payment != 120000 || got[0].Status != models.StatusInProgress {
		t.Fatalf("unexpected first booking: %+v", got[0])
	}
	if got[1].Status != models.StatusEnRoute || got[1].CreatedAt.Raw != "5 mins ago" {
		t.Fatalf("unexpected second booking: %+v", got[1])
	}
}

func TestGetJobsEmptyData(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	got, err := c.GetJobsAvailable(context.Background())
	if err != nil {
		t.Fatalf("GetJobsAvailable: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestAcceptJobSendsBookingAndHeaders(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+EndpointAcceptJob {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer opaque-token" {
			t.Errorf("unexpected authorization %q", got)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Errorf("missing request id")
		}
		var b models.Booking
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if b.ID != "a1" || b.Payment != 50000 {
			t.Errorf("unexpected booking body: %+v", b)
		}
		_, _ = io.WriteString(w, `{"success":true,"message":"Job accepted"}`)
	}, WithToken("opaque-token"))

	res, err := c.AcceptJob(context.Background(), models.Booking{ID: "a1", Payment: 50000, Status: models.StatusAvailable})
	if err != nil {
		t.Fatalf("AcceptJob: %v", err)
	}
	if !res.Success || res.Message != "Job accepted" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestVerifyJobCompleteStatusErrors(t *testing.T) {
	cases := []struct {
		status int
		body   string
		msg    string
	}{
		{http.StatusBadRequest, `{"message":"Invalid OTP"}`, "Invalid OTP"},
		{http.StatusNotFound, `{"error":"booking not found"}`, "booking not found"},
		{http.StatusInternalServerError, `oops`, "oops"},
	}
	for _, tc := range cases {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var req models.VerifyRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.ID != "a1" || req.OTP != "1234" {
				t.Errorf("unexpected verify body: %+v", req)
			}
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, tc.body)
		})

		_, err := c.VerifyJobComplete(context.Background(), "a1", "1234")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected *APIError, got %v", tc.status, err)
		}
		if apiErr.Status != tc.status || apiErr.Message != tc.msg {
			t.Fatalf("status %d: unexpected error %+v", tc.status, apiErr)
		}
		if StatusCode(err) != tc.status {
			t.Fatalf("StatusCode = %d, want %d", StatusCode(err), tc.status)
		}
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.GetJobsCompleted(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestExpiredSessionTokenFailsBeforeRequest(t *testing.T) {
	var hits int32
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   "tm-1",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}, WithToken(expired))

	_, err = c.GetJobsAvailable(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no request, got %d", hits)
	}
}

func TestNewClientRejectsRelativeBase(t *testing.T) {
	if _, err := NewClient("api.example.com"); err == nil {
		t.Fatal("expected error for base url without scheme")
	}
}

func TestAcceptJobPostsBookingAsReceived(t *testing.T) {
	const element = `{"_id":"a1","customerName":"Asha","payment":"₹1,200","status":"pending","customerId":"u9","location":{"lat":12.9,"lng":77.6}}`
	var accepted map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + EndpointJobsAvailable:
			_, _ = io.WriteString(w, `{"data":[`+element+`]}`)
		case "/" + EndpointAcceptJob:
			if err := json.NewDecoder(r.Body).Decode(&accepted); err != nil {
				t.Errorf("decode body: %v", err)
			}
			_, _ = io.WriteString(w, `{"success":true}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	jobs, err := c.GetJobsAvailable(context.Background())
	if err != nil || len(jobs) != 1 {
		t.Fatalf("GetJobsAvailable: %v, %v", jobs, err)
	}
	if jobs[0].Status != models.StatusAccepted {
		t.Fatalf("status pending decoded as %q", jobs[0].Status)
	}
	if _, err := c.AcceptJob(context.Background(), jobs[0]); err != nil {
		t.Fatalf("AcceptJob: %v", err)
	}

	var want map[string]any
	if err := json.Unmarshal([]byte(element), &want); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if accepted["customerId"] != "u9" || accepted["payment"] != "₹1,200" || accepted["status"] != "pending" {
		t.Fatalf("server fields not preserved: %v", accepted)
	}
	if _, ok := accepted["location"].(map[string]any); !ok {
		t.Fatalf("nested field dropped: %v", accepted)
	}
	if _, ok := accepted["jobPostedTime"]; ok {
		t.Fatalf("absent field added to body: %v", accepted)
	}
	if len(accepted) != len(want) {
		t.Fatalf("body has %d fields, want %d: %v", len(accepted), len(want), accepted)
	}
}

func TestWithTimeoutLeavesSharedClientUntouched(t *testing.T) {
	shared := &http.Client{}
	c, err := NewClient("http://localhost:3000", WithHTTPClient(shared), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if shared.Timeout != 0 {
		t.Fatalf("shared client timeout changed to %v", shared.Timeout)
	}
	if c.http == shared || c.http.Timeout != 5*time.Second {
		t.Fatalf("client timeout = %v", c.http.Timeout)
	}

	// Option order does not matter.
	c, _ = NewClient("http://localhost:3000", WithTimeout(2*time.Second), WithHTTPClient(shared))
	if shared.Timeout != 0 || c.http.Timeout != 2*time.Second {
		t.Fatalf("timeout before WithHTTPClient: shared %v, client %v", shared.Timeout, c.http.Timeout)
	}
}
