// Package controller owns the dashboard's filter state and turns input events
// into published snapshots.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/nicktill/insights/pkg/export"
	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/storage"
	"github.com/nicktill/insights/pkg/telemetry"
	"github.com/nicktill/insights/pkg/views"
)

// ErrUnknownEvent is returned for an Event the controller does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// Snapshot is one atomically published dashboard state. Every field is
// derived from the same filtered view.
type Snapshot struct {
	Sequence    uint64            `json:"sequence"`
	Range       records.DateRange `json:"range"`
	Views       views.Dashboard   `json:"views"`
	Fingerprint string            `json:"fingerprint"`
	PublishedAt time.Time         `json:"published_at"`
}

// Outcome is what handling one event produced.
type Outcome struct {
	// Snapshot is the state on display after the event.
	Snapshot Snapshot

	// Export is set only for ExportRequested.
	Export *export.Payload
}

// Publisher receives every new snapshot. Publish is called with the
// controller's lock held and must not block or call back into the controller.
type Publisher interface {
	Publish(Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Snapshot)

// Publish calls f(s).
func (f PublisherFunc) Publish(s Snapshot) { f(s) }

// Config holds controller dependencies.
type Config struct {
	Source    storage.Source
	Builder   *views.Builder
	Publisher Publisher
	Logger    zerolog.Logger

	// Now defaults to time.Now
	Now func() time.Time
}

// Controller handles one event at a time; concurrent callers are serialized.
type Controller struct {
	source    storage.Source
	builder   *views.Builder
	publisher Publisher
	log       zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	current records.DateRange
	last    Snapshot
}

// New creates a controller. Nothing is published until Load or the first
// RangeChanged.
func New(cfg Config) *Controller {
	c := &Controller{
		source:    cfg.Source,
		builder:   cfg.Builder,
		publisher: cfg.Publisher,
		log:       cfg.Logger,
		now:       cfg.Now,
	}
	if c.builder == nil {
		c.builder = views.NewBuilder(views.DefaultFormat())
	}
	if c.publisher == nil {
		c.publisher = PublisherFunc(func(Snapshot) {})
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Load performs the initial publish over the full dataset range.
// The bounds come from the same read that is filtered, so the range always
// spans the dataset that was published.
func (c *Controller) Load(ctx context.Context) (Snapshot, error) {
	out, err := c.Handle(ctx, fullRange{})
	return out.Snapshot, err
}

// Handle runs the pipeline for one event to completion.
//
// On a data source failure the current range and the displayed snapshot are
// left as they were.
func (c *Controller) Handle(ctx context.Context, ev Event) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	kind := string(ev.Kind())

	var out Outcome
	var n int
	var err error
	switch e := ev.(type) {
	case RangeChanged:
		n, err = c.republish(ctx, func([]records.Record) records.DateRange { return e.Range })
		out.Snapshot = c.last
	case fullRange:
		n, err = c.republish(ctx, func(dataset []records.Record) records.DateRange {
			full, _ := records.Bounds(dataset)
			return full
		})
		out.Snapshot = c.last
	case PeriodicTick:
		current := c.current
		n, err = c.republish(ctx, func([]records.Record) records.DateRange { return current })
		out.Snapshot = c.last
	case ExportRequested:
		var payload export.Payload
		payload, err = c.export(ctx)
		n = len(payload.Records)
		out = Outcome{Snapshot: c.last, Export: &payload}
	default:
		return Outcome{}, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}

	if err != nil {
		telemetry.RecordFailure(kind)
		c.log.Warn().Err(err).Str("event", kind).Msg("dashboard recompute failed")
		return Outcome{Snapshot: c.last}, err
	}

	telemetry.RecordRecompute(kind, n, time.Since(start))
	c.log.Debug().
		Str("event", kind).
		Str("range", c.current.String()).
		Int("records", n).
		Dur("took", time.Since(start)).
		Msg("dashboard event handled")
	return out, nil
}

// republish reads the dataset once, filters it with the range rangeOf picks
// for it, publishes the result and makes that range current.
func (c *Controller) republish(ctx context.Context, rangeOf func([]records.Record) records.DateRange) (int, error) {
	dataset, err := c.source.Records(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset: %w", err)
	}
	r := rangeOf(dataset)
	view := records.Filter(dataset, r)

	dashboard := c.builder.Build(view)
	fingerprint, err := fingerprintOf(dashboard)
	if err != nil {
		return 0, err
	}

	c.current = r
	c.last = Snapshot{
		Sequence:    c.last.Sequence + 1,
		Range:       r,
		Views:       dashboard,
		Fingerprint: fingerprint,
		PublishedAt: c.now(),
	}
	c.publisher.Publish(c.last)
	return len(view), nil
}

func (c *Controller) export(ctx context.Context) (export.Payload, error) {
	view, err := c.filtered(ctx, c.current)
	if err != nil {
		return export.Payload{}, err
	}
	csv, err := export.ToCSV(view)
	if err != nil {
		return export.Payload{}, err
	}
	telemetry.RecordExport(len(view))
	return export.Payload{
		Range:      c.current,
		Records:    view,
		CSV:        csv,
		ExportedAt: c.now(),
	}, nil
}

func (c *Controller) filtered(ctx context.Context, r records.DateRange) ([]records.Record, error) {
	dataset, err := c.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return records.Filter(dataset, r), nil
}

// fingerprintOf hashes the views so equal dashboards share a fingerprint.
func fingerprintOf(d views.Dashboard) (string, error) {
	encoded, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode views: %w", err)
	}
	return strconv.FormatUint(xxhash.Sum64(encoded), 16), nil
}

// Current returns the last published snapshot.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Range returns the current date range.
func (c *Controller) Range() records.DateRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetRange handles a RangeChanged event.
func (c *Controller) SetRange(ctx context.Context, r records.DateRange) (Snapshot, error) {
	out, err := c.Handle(ctx, RangeChanged{Range: r})
	return out.Snapshot, err
}

// Refresh handles a PeriodicTick event.
func (c *Controller) Refresh(ctx context.Context) error {
	_, err := c.Handle(ctx, PeriodicTick{})
	return err
}

// Export handles an ExportRequested event.
func (c *Controller) Export(ctx context.Context) (export.Payload, error) {
	out, err := c.Handle(ctx, ExportRequested{})
	if err != nil {
		return export.Payload{}, err
	}
	return *out.Export, nil
}
