package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/storage"
)

// MaxImportBatchSize is the maximum number of records to write at once
const MaxImportBatchSize = 500

// ErrBadHeader is returned when a CSV document does not start with Header.
var ErrBadHeader = errors.New("unexpected CSV header")

// ParseCSV reads a document produced by WriteCSV back into records. Any
// malformed row fails the whole parse.
func ParseCSV(r io.Reader) ([]records.Record, error) {
	reader := newReader(r)
	if err := readHeader(reader); err != nil {
		return nil, err
	}

	recs := []records.Record{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
}

// Importer loads CSV documents into a storage backend.
type Importer struct {
	store storage.Writer
}

// NewImporter creates a new importer
func NewImporter(store storage.Writer) *Importer {
	return &Importer{store: store}
}

// ImportResult contains stats about the import operation
type ImportResult struct {
	RecordsImported int       `json:"records_imported"`
	BatchesWritten  int       `json:"batches_written"`
	TimeRange       string    `json:"time_range"`
	ImportedAt      time.Time `json:"imported_at"`
	Errors          []string  `json:"errors,omitempty"`
}

// ImportCSV imports every valid row of a CSV document. Invalid rows are
// skipped and reported in ImportResult.Errors; a bad header or unreadable
// document fails the import.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := newReader(r)
	if err := readHeader(reader); err != nil {
		return nil, err
	}

	var valid []records.Record
	var validationErrors []string
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				validationErrors = append(validationErrors, fmt.Sprintf("line %d: %v", line, err))
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rec, err := parseRow(row)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		valid = append(valid, rec)
	}

	result := &ImportResult{
		TimeRange:  "empty",
		ImportedAt: time.Now(),
		Errors:     validationErrors,
	}
	if len(valid) == 0 {
		return result, nil
	}

	// Write records in batches to avoid one oversized transaction
	for i := 0; i < len(valid); i += MaxImportBatchSize {
		end := min(i+MaxImportBatchSize, len(valid))
		if err := im.store.Write(ctx, valid[i:end]); err != nil {
			return nil, fmt.Errorf("failed to write batch %d: %w", result.BatchesWritten, err)
		}
		result.BatchesWritten++
	}

	bounds, _ := records.Bounds(valid)
	result.RecordsImported = len(valid)
	result.TimeRange = bounds.String()
	return result, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)
	reader.TrimLeadingSpace = true
	return reader
}

func readHeader(reader *csv.Reader) error {
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: empty document", ErrBadHeader)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	for i, col := range Header {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i+1, header[i], col)
		}
	}
	return nil
}

func parseRow(row []string) (records.Record, error) {
	date, err := records.ParseDate(row[0])
	if err != nil {
		return records.Record{}, err
	}

	var values [3]int64
	for i, field := range row[1:] {
		v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return records.Record{}, fmt.Errorf("%s: %q is not an integer", Header[i+1], field)
		}
		if v < 0 {
			return records.Record{}, fmt.Errorf("%s: negative value %d", Header[i+1], v)
		}
		values[i] = v
	}

	return records.Record{
		Date:        date,
		Revenue:     values[0],
		Users:       values[1],
		Conversions: values[2],
	}, nil
}
