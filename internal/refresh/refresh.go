package refresh

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"rltracker/internal/acquire"
	"rltracker/internal/cache"
	"rltracker/internal/events"
	"rltracker/internal/metrics"
	"rltracker/internal/snapshot"
)

// ErrRefreshInFlight is returned when a refresh is requested while a
// previous one is still running. The new request is dropped, never queued.
var ErrRefreshInFlight = errors.New("refresh already in flight")

// Extractor turns raw page markup into a snapshot.
type Extractor func(markup string, now time.Time) (*snapshot.ProfileSnapshot, error)

// History is the optional snapshot archive. Nil disables archiving.
type History interface {
	StoreSnapshot(snap *snapshot.ProfileSnapshot) (string, error)
}

// Status describes the controller's last known state for the UI.
type Status struct {
	InFlight    bool       `json:"in_flight"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Controller runs the acquire-extract-cache cycle, both on a timer and on
// demand. At most one cycle runs at a time.
type Controller struct {
	acquirer acquire.Acquirer
	extract  Extractor
	store    *cache.Store
	history  History
	bus      *events.Bus

	platform string
	username string
	interval time.Duration
	timeout  time.Duration

	inFlight atomic.Bool

	mu          sync.Mutex
	lastSuccess *time.Time
	lastErr     error
}

// NewController builds a controller. timeout bounds one whole cycle so a
// browser tab that never settles cannot hold the in-flight guard forever.
func NewController(acquirer acquire.Acquirer, extract Extractor, store *cache.Store, history History, bus *events.Bus, platform, username string, interval, timeout time.Duration) *Controller {
	return &Controller{
		acquirer: acquirer,
		extract:  extract,
		store:    store,
		history:  history,
		bus:      bus,
		platform: platform,
		username: username,
		interval: interval,
		timeout:  timeout,
	}
}

// Run refreshes once immediately, then on every interval tick until the
// context is cancelled. Ticks that land while a refresh is still running
// are dropped.
func (c *Controller) Run(ctx context.Context) {
	log.Printf("[Refresh] Scheduler started, interval %s\n", c.interval)

	if err := c.TryRefresh(ctx); err != nil {
		log.Printf("[Refresh] Initial refresh: %v\n", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Refresh] Scheduler stopped")
			return
		case <-ticker.C:
			if err := c.TryRefresh(ctx); err != nil {
				if errors.Is(err, ErrRefreshInFlight) {
					log.Println("[Refresh] Tick dropped, refresh still running")
					metrics.RefreshTotal.WithLabelValues("dropped").Inc()
					continue
				}
				log.Printf("[Refresh] Cycle failed: %v\n", err)
			}
		}
	}
}

// TryRefresh runs one full cycle, or returns ErrRefreshInFlight if one is
// already running. A failed cycle leaves the cached snapshot untouched.
func (c *Controller) TryRefresh(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer c.inFlight.Store(false)

	err := c.refresh(ctx)
	c.mu.Lock()
	c.lastErr = err
	if err == nil {
		now := time.Now()
		c.lastSuccess = &now
	}
	c.mu.Unlock()
	return err
}

func (c *Controller) refresh(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.bus.Publish(events.RefreshEvent{Stage: events.StageStarted})

	acquireStart := time.Now()
	markup, err := c.acquirer.Fetch(ctx, c.platform, c.username)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("acquire_error").Inc()
		c.bus.Publish(events.RefreshEvent{Stage: events.StageFailed, Message: err.Error()})
		return err
	}
	metrics.AcquireDuration.Observe(time.Since(acquireStart).Seconds())

	extractStart := time.Now()
	snap, err := c.extract(markup, time.Now())
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("extract_error").Inc()
		c.bus.Publish(events.RefreshEvent{Stage: events.StageFailed, Message: err.Error()})
		return err
	}
	metrics.ExtractDuration.Observe(time.Since(extractStart).Seconds())

	if err := c.store.Save(snap); err != nil {
		metrics.RefreshTotal.WithLabelValues("cache_error").Inc()
		c.bus.Publish(events.RefreshEvent{Stage: events.StageFailed, Message: err.Error()})
		return err
	}

	if c.history != nil {
		if _, err := c.history.StoreSnapshot(snap); err != nil {
			// History is best effort; the cache already holds the snapshot.
			log.Printf("[Refresh] Archiving snapshot: %v\n", err)
		}
	}

	metrics.RefreshTotal.WithLabelValues("ok").Inc()
	metrics.LastSuccessTimestamp.SetToCurrentTime()
	c.bus.Publish(events.RefreshEvent{Stage: events.StageCompleted})
	log.Printf("[Refresh] Snapshot updated: %d playlists, %d sessions\n", len(snap.Playlists), len(snap.Sessions))
	return nil
}

// Status reports whether a refresh is running and how the last one ended.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		InFlight:    c.inFlight.Load(),
		LastSuccess: c.lastSuccess,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}
