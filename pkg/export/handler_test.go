package export

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/storage/memory"
)

type fakeExporter struct {
	payload Payload
	err     error
}

func (f *fakeExporter) Export(context.Context) (Payload, error) {
	return f.payload, f.err
}

type countingRefresher struct {
	calls int
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls++
	return nil
}

func newFakeExporter(t *testing.T) *fakeExporter {
	t.Helper()
	recs := sample()[:2]
	csv, err := ToCSV(recs)
	require.NoError(t, err)
	return &fakeExporter{payload: Payload{
		Range:   records.DateRange{Start: records.Month(2025, time.January), End: records.Month(2025, time.February)},
		Records: recs,
		CSV:     csv,
	}}
}

func TestHandleExport_CSV(t *testing.T) {
	h := NewHandler(newFakeExporter(t), memory.New(), &countingRefresher{}, zerolog.Nop())

	rr := httptest.NewRecorder()
	h.HandleExport(rr, httptest.NewRequest(http.MethodGet, "/v1/export", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "attachment; filename=dashboard_export.csv", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Date,Revenue,Users,Conversions\n2025-01-01,1000,200,20\n"))
}

func TestHandleExport_JSON(t *testing.T) {
	h := NewHandler(newFakeExporter(t), memory.New(), &countingRefresher{}, zerolog.Nop())

	rr := httptest.NewRecorder()
	h.HandleExport(rr, httptest.NewRequest(http.MethodGet, "/v1/export?format=json", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"record_count": 2`)
}

func TestHandleExport_Errors(t *testing.T) {
	h := NewHandler(newFakeExporter(t), memory.New(), &countingRefresher{}, zerolog.Nop())
	rr := httptest.NewRecorder()
	h.HandleExport(rr, httptest.NewRequest(http.MethodGet, "/v1/export?format=xml", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	failing := NewHandler(&fakeExporter{err: errors.New("source down")}, memory.New(), &countingRefresher{}, zerolog.Nop())
	rr = httptest.NewRecorder()
	failing.HandleExport(rr, httptest.NewRequest(http.MethodGet, "/v1/export", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandleImport(t *testing.T) {
	store := memory.New()
	refresher := &countingRefresher{}
	h := NewHandler(newFakeExporter(t), store, refresher, zerolog.Nop())

	body := "Date,Revenue,Users,Conversions\n2025-09-01,1100,210,22\n"
	req := httptest.NewRequest(http.MethodPost, "/v1/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv; charset=utf-8")
	rr := httptest.NewRecorder()

	h.HandleImport(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, refresher.calls)
	recs, err := store.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestHandleImport_RequiresCSV(t *testing.T) {
	h := NewHandler(newFakeExporter(t), memory.New(), &countingRefresher{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/v1/import", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.HandleImport(rr, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}
