package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskmaster/models"
	"taskmaster/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Fixed endpoints, relative to the configured base URL.
const (
	EndpointJobsAvailable     = "api/v1/getJobsAvailable"
	EndpointJobsInProgress    = "api/v1/getJobsInProgress"
	EndpointJobsCompleted     = "api/v1/getJobsCompleted"
	EndpointAcceptJob         = "api/v1/acceptJob"
	EndpointVerifyJobComplete = "api/v1/verifyJobComplete"
)

const (
	RequestIDHeader = "X-Request-Id"
	maxBodyBytes    = 4 << 20
)

// Client issues the fixed-shape POST requests of the job API. It never
// retries, queues or backs off; callers decide what a failure means.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   func() string
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default otelhttp-instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets an explicit per-request timeout. It applies to a copy of
// the HTTP client, so a client passed to WithHTTPClient is never modified.
// Zero keeps the client's default behaviour.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken attaches a static bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = func() string { return token } }
}

// WithTokenSource reads the bearer token before every request.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// WithRateLimit caps outbound requests. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		token:   func() string { return "" },
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// GetJobsAvailable returns the jobs open for acceptance.
func (c *Client) GetJobsAvailable(ctx context.Context) ([]models.Booking, error) {
	return c.fetchList(ctx, EndpointJobsAvailable)
}

// GetJobsInProgress returns the jobs accepted and not yet completed.
func (c *Client) GetJobsInProgress(ctx context.Context) ([]models.Booking, error) {
	return c.fetchList(ctx, EndpointJobsInProgress)
}

// GetJobsCompleted returns the jobs completed by this task master.
func (c *Client) GetJobsCompleted(ctx context.Context) ([]models.Booking, error) {
	return c.fetchList(ctx, EndpointJobsCompleted)
}

// AcceptJob posts the full booking to acceptJob, as the server sent it when
// the booking came from a list fetch. A 2xx response with success=false is
// returned as a result, not an error.
func (c *Client) AcceptJob(ctx context.Context, booking models.Booking) (*models.AcceptResult, error) {
	var body any = booking
	if len(booking.Raw) > 0 {
		body = booking.Raw
	}
	var out models.AcceptResult
	if err := c.post(ctx, EndpointAcceptJob, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyJobComplete posts the entered OTP. Non-2xx responses (400 invalid
// OTP, 404 unknown booking, 500 server error) come back as *APIError.
func (c *Client) VerifyJobComplete(ctx context.Context, id, otp string) (*models.VerifyResult, error) {
	var out models.VerifyResult
	if err := c.post(ctx, EndpointVerifyJobComplete, models.VerifyRequest{ID: id, OTP: otp}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) fetchList(ctx context.Context, endpoint string) ([]models.Booking, error) {
	var env models.ListEnvelope
	if err := c.post(ctx, endpoint, nil, &env); err != nil {
		return nil, err
	}

	out := make([]models.Booking, 0, len(env.Data))
	for i, raw := range env.Data {
		var b models.Booking
		if err := json.Unmarshal(raw, &b); err != nil {
			c.logger.Warn("dropping malformed booking",
				zap.String("endpoint", endpoint),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		b.Raw = append(json.RawMessage(nil), raw...)
		out = append(out, b)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	token := c.token()
	if err := utils.CheckTokenFresh(token, c.now()); err != nil {
		return ErrSessionExpired
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL.ResolveReference(&url.URL{Path: endpoint})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.New().String()
	req.Header.Set(RequestIDHeader, requestID)

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", ErrTransport, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %s: reading response: %v", ErrTransport, endpoint, err)
	}

	c.logger.Debug("job api call",
		zap.String("endpoint", endpoint),
		zap.String("requestId", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", c.now().Sub(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Endpoint: endpoint, Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var body models.APIErrorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if strings.HasPrefix(msg, "{") {
		return ""
	}
	return msg
}
