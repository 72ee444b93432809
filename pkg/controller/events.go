package controller

import "github.com/nicktill/insights/pkg/records"

// Kind names an event type in logs and metrics.
type Kind string

const (
	KindRangeChanged    Kind = "range_changed"
	KindPeriodicTick    Kind = "periodic_tick"
	KindExportRequested Kind = "export_requested"
)

// Event is one input to the controller: RangeChanged, PeriodicTick or
// ExportRequested. The set is closed.
type Event interface {
	Kind() Kind
	event()
}

// RangeChanged replaces the current date range and republishes.
type RangeChanged struct {
	Range records.DateRange
}

// PeriodicTick republishes with the current range, picking up new data.
type PeriodicTick struct{}

// ExportRequested exports the current view without republishing.
type ExportRequested struct{}

func (RangeChanged) Kind() Kind    { return KindRangeChanged }
func (PeriodicTick) Kind() Kind    { return KindPeriodicTick }
func (ExportRequested) Kind() Kind { return KindExportRequested }

// fullRange is the initial load: a RangeChanged to the dataset's own bounds,
// computed inside the pipeline.
type fullRange struct{}

func (fullRange) Kind() Kind { return KindRangeChanged }

func (RangeChanged) event()    {}
func (fullRange) event()       {}
func (PeriodicTick) event()    {}
func (ExportRequested) event() {}
