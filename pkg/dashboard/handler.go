// Package dashboard exposes the controller over HTTP: reading the published
// snapshot and driving range changes from the date picker.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/nicktill/insights/pkg/config"
	"github.com/nicktill/insights/pkg/controller"
	"github.com/nicktill/insights/pkg/httpx"
	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/storage"
)

// Controller is the subset of the dashboard controller the handlers drive.
type Controller interface {
	Current() controller.Snapshot
	SetRange(ctx context.Context, r records.DateRange) (controller.Snapshot, error)
}

// StatsProvider reports data source statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (*storage.Stats, error)
}

// RangeRequest is the body of POST /v1/dashboard/range.
type RangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BoundsResponse tells the date picker which dates are selectable.
type BoundsResponse struct {
	MinDate string `json:"min_date,omitempty"`
	MaxDate string `json:"max_date,omitempty"`
	Empty   bool   `json:"empty"`
}

// Handler serves the dashboard endpoints.
type Handler struct {
	ctrl   Controller
	source storage.Source
	stats  StatsProvider
	log    zerolog.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(ctrl Controller, source storage.Source, stats StatsProvider, logger zerolog.Logger) *Handler {
	return &Handler{ctrl: ctrl, source: source, stats: stats, log: logger}
}

// etagOf identifies what a client renders: the views and the range they were
// computed for. Two ranges selecting the same records get different tags.
func etagOf(snap controller.Snapshot) string {
	return `"` + snap.Fingerprint +
		"-" + strconv.FormatInt(snap.Range.Start.UnixNano(), 36) +
		"-" + strconv.FormatInt(snap.Range.End.UnixNano(), 36) + `"`
}

// HandleCurrent handles GET /v1/dashboard.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	snap := h.ctrl.Current()
	if snap.Sequence == 0 {
		httpx.RespondErrorString(w, http.StatusServiceUnavailable, "dashboard not loaded yet")
		return
	}

	etag := etagOf(snap)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, snap)
}

// HandleSetRange handles POST /v1/dashboard/range (JSON body) and
// GET /v1/dashboard/range?start=&end=. Malformed dates are rejected with 400;
// a start after end is accepted and yields an empty dashboard.
func (h *Handler) HandleSetRange(w http.ResponseWriter, r *http.Request) {
	var req RangeRequest
	if r.Method == http.MethodPost {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
			return
		}
	} else {
		req.Start = r.URL.Query().Get("start")
		req.End = r.URL.Query().Get("end")
	}

	rng, err := records.ParseRange(req.Start, req.End)
	if err != nil {
		h.log.Debug().Err(err).Msg("rejected date range")
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.RequestTimeout)
	defer cancel()

	snap, err := h.ctrl.SetRange(ctx, rng)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		httpx.RespondError(w, status, fmt.Errorf("range change failed: %w", err))
		return
	}

	h.log.Info().Str("range", rng.String()).Uint64("sequence", snap.Sequence).Msg("date range changed")
	w.Header().Set("ETag", etagOf(snap))
	httpx.RespondJSON(w, http.StatusOK, snap)
}

// HandleBounds handles GET /v1/dashboard/bounds.
func (h *Handler) HandleBounds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.RequestTimeout)
	defer cancel()

	dataset, err := h.source.Records(ctx)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to read dataset: %w", err))
		return
	}

	bounds, ok := records.Bounds(dataset)
	if !ok {
		httpx.RespondJSON(w, http.StatusOK, BoundsResponse{Empty: true})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, BoundsResponse{
		MinDate: bounds.Start.Format(records.DateLayout),
		MaxDate: bounds.End.Format(records.DateLayout),
	})
}

// HandleStats handles GET /v1/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.RequestTimeout)
	defer cancel()

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("stats failed: %w", err))
		return
	}
	httpx.RespondJSON(w, http.StatusOK, stats)
}
