// Package conversion builds ad-platform conversion events from leads and
// delivers them. Delivery is best effort: results are reported and logged,
// never returned as errors to the lead pipeline.
package conversion

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 15 * time.Second

// Platform is one ad-tracking destination. A platform without credentials
// reports Configured() == false and is run in test mode.
type Platform interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, events []Event) error
}

type Options struct {
	Currency      string
	SiteURL       string
	DefaultRegion string
	Timeout       time.Duration
}

type PlatformResult struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	TestMode bool   `json:"testMode,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Result struct {
	EventID   string           `json:"eventId"`
	EventName string           `json:"eventName"`
	Platforms []PlatformResult `json:"platforms"`
}

// Failed reports whether any platform rejected the event. Test-mode
// platforms are never called and count as successes.
func (r Result) Failed() bool {
	for _, p := range r.Platforms {
		if !p.Success {
			return true
		}
	}
	return false
}

type Dispatcher struct {
	platforms []Platform
	opts      Options
	logger    *zap.Logger

	// OnResult is called once per platform attempt; used for metrics.
	OnResult func(PlatformResult)
}

func NewDispatcher(logger *zap.Logger, opts Options, platforms ...Platform) *Dispatcher {
	if logger == nil {
		logger = zap.L()
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Dispatcher{
		platforms: platforms,
		opts:      opts,
		logger:    logger.Named("conversion"),
	}
}

// Dispatch sends the job's event to every platform concurrently. A failing
// platform does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) Result {
	ev := BuildEvent(job, d.opts)
	res := Result{
		EventID:   ev.EventID,
		EventName: ev.EventName,
		Platforms: make([]PlatformResult, len(d.platforms)),
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	var g errgroup.Group
	for i, p := range d.platforms {
		g.Go(func() error {
			res.Platforms[i] = d.send(ctx, p, ev, job.Lead.ID)
			return nil
		})
	}
	_ = g.Wait()

	if d.OnResult != nil {
		for _, pr := range res.Platforms {
			d.OnResult(pr)
		}
	}
	return res
}

func (d *Dispatcher) send(ctx context.Context, p Platform, ev Event, leadID string) (pr PlatformResult) {
	pr.Platform = p.Name()
	log := d.logger.With(
		zap.String("platform", pr.Platform),
		zap.String("event", ev.EventName),
		zap.String("event_id", ev.EventID),
		zap.String("lead_id", leadID),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("conversion send panicked", zap.Any("panic", r))
			pr.Success = false
			pr.Error = "panic"
		}
	}()

	if !p.Configured() {
		log.Info("platform not configured, conversion recorded in test mode")
		pr.Success = true
		pr.TestMode = true
		return pr
	}

	if err := p.Send(ctx, []Event{ev}); err != nil {
		log.Warn("conversion send failed", zap.Error(err))
		pr.Error = err.Error()
		return pr
	}

	log.Info("conversion sent")
	pr.Success = true
	return pr
}
