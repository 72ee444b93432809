package export

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nicktill/insights/pkg/httpx"
	"github.com/nicktill/insights/pkg/storage"
)

// MaxImportBytes caps the size of an uploaded CSV document.
const MaxImportBytes = 1 << 20

// Exporter produces an export of the current filter state.
type Exporter interface {
	Export(ctx context.Context) (Payload, error)
}

// Refresher recomputes the dashboard after the dataset changed.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Handler handles export/import HTTP endpoints
type Handler struct {
	exporter  Exporter
	importer  *Importer
	refresher Refresher
	log       zerolog.Logger
}

// NewHandler creates a new export/import handler
func NewHandler(exporter Exporter, store storage.Writer, refresher Refresher, logger zerolog.Logger) *Handler {
	return &Handler{
		exporter:  exporter,
		importer:  NewImporter(store),
		refresher: refresher,
		log:       logger,
	}
}

// HandleExport handles GET /v1/export
// Query params:
//   - format: "csv" or "json" (default: csv)
//
// The rows are always those of the dashboard's current date range.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "json" && format != "csv" {
		httpx.RespondErrorString(w, http.StatusBadRequest, "invalid format, must be 'csv' or 'json'")
		return
	}

	payload, err := h.exporter.Export(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("export failed")
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("export failed: %w", err))
		return
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", Filename))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(payload.CSV); err != nil {
			h.log.Warn().Err(err).Msg("failed to write CSV export")
			return
		}
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=dashboard_export.json")
		w.WriteHeader(http.StatusOK)
		if err := WriteJSON(w, payload); err != nil {
			h.log.Warn().Err(err).Msg("failed to write JSON export")
			return
		}
	}

	h.log.Info().
		Int("records", len(payload.Records)).
		Str("format", format).
		Str("range", payload.Range.String()).
		Msg("export served")
}

// HandleImport handles POST /v1/import
// Accepts a CSV document in the export layout and loads its rows into the
// data source, then refreshes the dashboard.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/csv" {
		httpx.RespondErrorString(w, http.StatusUnsupportedMediaType, "Content-Type must be text/csv")
		return
	}

	body := http.MaxBytesReader(w, r.Body, MaxImportBytes)
	result, err := h.importer.ImportCSV(r.Context(), body)
	if err != nil {
		h.log.Warn().Err(err).Msg("import rejected")
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("import failed: %w", err))
		return
	}

	if len(result.Errors) > 0 {
		h.log.Warn().Int("errors", len(result.Errors)).Strs("first", head(result.Errors, 10)).Msg("import completed with validation errors")
	}

	if result.RecordsImported > 0 {
		if err := h.refresher.Refresh(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("refresh after import failed")
			httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("refresh failed: %w", err))
			return
		}
	}

	h.log.Info().
		Int("records", result.RecordsImported).
		Int("batches", result.BatchesWritten).
		Str("range", result.TimeRange).
		Msg("import completed")
	httpx.RespondJSON(w, http.StatusOK, result)
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
