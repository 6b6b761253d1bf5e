package joblist

import (
	"context"
	"errors"
	"sync"
	"time"

	"taskmaster/metrics"
	"taskmaster/models"
	"taskmaster/services/jobapi"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JobAPI is the part of the job API the controller talks to directly.
type JobAPI interface {
	GetJobsAvailable(ctx context.Context) ([]models.Booking, error)
	GetJobsInProgress(ctx context.Context) ([]models.Booking, error)
	GetJobsCompleted(ctx context.Context) ([]models.Booking, error)
	AcceptJob(ctx context.Context, booking models.Booking) (*models.AcceptResult, error)
}

// BookingRefresher is the Booking Store as seen by the controller.
type BookingRefresher interface {
	RefreshAll(ctx context.Context) error
	Refreshing() bool
	OnRefreshed(fn func())
}

// SheetOpener opens OTP completion sheets.
type SheetOpener interface {
	Open(ctx context.Context, bookingID string, mode models.Tab) (*models.OTPSheet, error)
}

// Recorder journals user actions. A nil Recorder disables journaling.
type Recorder interface {
	Record(ctx context.Context, activity models.JobActivity) error
}

// Query selects and orders the visible jobs.
type Query struct {
	Tab    models.Tab // empty means the active tab
	Search string
	Filter string
	Sort   models.SortKey
}

// View is what the job list screen renders.
type View struct {
	ActiveTab  models.Tab         `json:"activeTab"`
	Tab        models.Tab         `json:"tab"`
	Jobs       []models.Booking   `json:"jobs"`
	Counts     map[models.Tab]int `json:"counts"`
	Loading    bool               `json:"loading"`
	Refreshing bool               `json:"refreshing"`
}

// Controller drives the Available / Pending / Completed job list. Lists are
// replaced wholesale by fetches; the controller never moves a booking between
// lists itself.
type Controller struct {
	api      JobAPI
	store    BookingRefresher
	sheets   SheetOpener
	recorder Recorder
	logger   *zap.Logger
	currency string

	mu        sync.Mutex
	lists     map[models.Tab][]models.Booking
	applied   map[models.Tab]uint64
	seq       uint64
	inFlight  int
	loaded    bool
	activeTab models.Tab
	viewCtx   context.Context
	cancel    context.CancelFunc
}

type Option func(*Controller)

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithCurrencySymbol sets the symbol used in earnings display strings.
func WithCurrencySymbol(symbol string) Option {
	return func(c *Controller) { c.currency = symbol }
}

// NewController wires the controller to the store so that every applied store
// refresh reloads the three lists while the controller is open.
func NewController(api JobAPI, store BookingRefresher, sheets SheetOpener, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		store:     store,
		sheets:    sheets,
		logger:    zap.NewNop(),
		currency:  "₹",
		lists:     make(map[models.Tab][]models.Booking, len(models.Tabs)),
		applied:   make(map[models.Tab]uint64, len(models.Tabs)),
		activeTab: models.TabAvailable,
	}
	for _, t := range models.Tabs {
		c.lists[t] = []models.Booking{}
	}
	for _, opt := range opts {
		opt(c)
	}
	store.OnRefreshed(c.onStoreRefreshed)
	return c
}

// Open binds the controller to a view lifetime and performs the initial load.
// Fetches still in flight when the view closes are discarded.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.viewCtx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Unlock()
	return c.Load(ctx)
}

// Close ends the view lifetime.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Controller) onStoreRefreshed() {
	if err := c.Load(context.Background()); err != nil && !errors.Is(err, ErrClosed) {
		c.logger.Debug("reload after store refresh failed", zap.Error(err))
	}
}

// Load fetches the three lists in parallel. A failed fetch is logged and
// leaves that tab's list as it was; the other tabs still update. A result is
// applied only if no later load has already updated the same tab.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	viewCtx := c.viewCtx
	if viewCtx == nil || viewCtx.Err() != nil {
		c.mu.Unlock()
		return ErrClosed
	}
	c.seq++
	seq := c.seq
	c.inFlight++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(viewCtx, cancel)
	defer stop()

	fetchers := map[models.Tab]func(context.Context) ([]models.Booking, error){
		models.TabAvailable: c.api.GetJobsAvailable,
		models.TabPending:   c.api.GetJobsInProgress,
		models.TabCompleted: c.api.GetJobsCompleted,
	}

	var g errgroup.Group
	for tab, fetch := range fetchers {
		g.Go(func() error {
			list, err := fetch(ctx)
			if err != nil {
				metrics.IncListFetch(string(tab), "failure")
				c.logger.Warn("failed to fetch jobs", zap.String("tab", string(tab)), zap.Error(err))
				return nil
			}
			metrics.IncListFetch(string(tab), "success")
			c.apply(viewCtx, tab, seq, list)
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()
	return nil
}

func (c *Controller) apply(viewCtx context.Context, tab models.Tab, seq uint64, list []models.Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if viewCtx.Err() != nil {
		return
	}
	if seq <= c.applied[tab] {
		c.logger.Debug("discarding stale job list", zap.String("tab", string(tab)), zap.Uint64("seq", seq))
		return
	}
	if list == nil {
		list = []models.Booking{}
	}
	c.applied[tab] = seq
	c.lists[tab] = list
}

// Refresh is pull-to-refresh: it refreshes the Booking Store, whose listener
// reloads the lists.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.store.RefreshAll(ctx)
}

func (c *Controller) ActiveTab() models.Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeTab
}

func (c *Controller) SetActiveTab(tab models.Tab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeTab = tab
}

// Jobs returns a copy of the unfiltered list of tab.
func (c *Controller) Jobs(tab models.Tab) []models.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Booking{}, c.lists[tab]...)
}

// Visible applies the filter pipeline to the selected tab. Counts hold the
// filtered size of every tab under the same search and filter.
func (c *Controller) Visible(q Query) View {
	c.mu.Lock()
	active := c.activeTab
	lists := make(map[models.Tab][]models.Booking, len(c.lists))
	for t, l := range c.lists {
		lists[t] = l
	}
	loading := !c.loaded
	refreshing := c.inFlight > 0
	c.mu.Unlock()

	tab := q.Tab
	if tab == "" {
		tab = active
	}
	view := View{
		ActiveTab:  active,
		Tab:        tab,
		Counts:     make(map[models.Tab]int, len(models.Tabs)),
		Loading:    loading,
		Refreshing: refreshing || c.store.Refreshing(),
	}
	for _, t := range models.Tabs {
		filtered := FilterJobs(lists[t], q.Filter, q.Search, q.Sort)
		view.Counts[t] = len(filtered)
		if t == tab {
			view.Jobs = filtered
		}
	}
	if view.Jobs == nil {
		view.Jobs = []models.Booking{}
	}
	return view
}

func (c *Controller) find(id string) (models.Booking, models.Tab, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range models.Tabs {
		for _, b := range c.lists[t] {
			if b.ID == id {
				return b, t, true
			}
		}
	}
	return models.Booking{}, "", false
}

// AcceptJob accepts an Available job. On success it refreshes the Booking
// Store and switches to the Pending tab. There is no retry.
func (c *Controller) AcceptJob(ctx context.Context, id string) (*models.AcceptResult, error) {
	booking, tab, ok := c.find(id)
	if !ok || tab != models.TabAvailable {
		return nil, &ActionError{Message: "This job is no longer available.", Err: ErrJobNotFound}
	}

	res, err := c.api.AcceptJob(ctx, booking)
	if err == nil && !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Failed to accept job. Please try again."
		}
		err = &ActionError{Message: msg}
	}
	if err != nil {
		metrics.IncJobAccept("failure")
		aerr := toActionError(err, "Failed to accept job. Please try again.")
		c.record(ctx, id, models.ActionAccept, "failure", aerr.Message)
		return nil, aerr
	}

	metrics.IncJobAccept("success")
	c.record(ctx, id, models.ActionAccept, "success", res.Message)

	if err := c.store.RefreshAll(ctx); err != nil {
		c.logger.Warn("refresh after accept failed", zap.String("bookingId", id), zap.Error(err))
	}
	c.SetActiveTab(models.TabPending)
	return res, nil
}

// EnterOTP opens the OTP sheet for a job. Entering an OTP from the Available
// tab switches the view to Pending without touching any list; membership only
// changes on the next fetch.
func (c *Controller) EnterOTP(ctx context.Context, id string) (*models.OTPSheet, error) {
	_, tab, ok := c.find(id)
	if !ok {
		return nil, ErrJobNotFound
	}
	if tab == models.TabCompleted {
		return nil, ErrAlreadyCompleted
	}
	if tab == models.TabAvailable {
		c.SetActiveTab(models.TabPending)
	}
	return c.sheets.Open(ctx, id, models.TabPending)
}

// Earnings summarises the Completed tab.
func (c *Controller) Earnings() models.Earnings {
	completed := c.Jobs(models.TabCompleted)
	var total models.Amount
	for _, b := range completed {
		total += b.Payment
	}
	return models.Earnings{
		CompletedJobs: len(completed),
		Total:         total,
		Display:       c.currency + total.String(),
	}
}

func (c *Controller) record(ctx context.Context, id string, action models.ActivityAction, outcome, msg string) {
	if c.recorder == nil {
		return
	}
	err := c.recorder.Record(ctx, models.JobActivity{
		ID:        uuid.New().String(),
		BookingID: id,
		Action:    action,
		Outcome:   outcome,
		Message:   msg,
		CreatedAt: time.Now(),
	})
	if err != nil {
		c.logger.Warn("failed to journal job activity", zap.String("bookingId", id), zap.Error(err))
	}
}

func toActionError(err error, fallback string) *ActionError {
	var aerr *ActionError
	if errors.As(err, &aerr) {
		return aerr
	}
	var apiErr *jobapi.APIError
	switch {
	case errors.Is(err, jobapi.ErrSessionExpired):
		return &ActionError{Message: "Your session has expired. Please sign in again.", Err: err}
	case errors.Is(err, jobapi.ErrTransport):
		return &ActionError{Message: "Network error. Please check your connection and try again.", Err: err}
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return &ActionError{Message: apiErr.Message, Err: err}
	}
	return &ActionError{Message: fallback, Err: err}
}
