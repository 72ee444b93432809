package records

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2025-01-01", want: Month(2025, time.January)},
		{in: "2025-02", want: Month(2025, time.February)},
		{in: "2025-03-01T00:00:00", want: Month(2025, time.March)},
		{in: "2025-04-01T00:00:00Z", want: Month(2025, time.April)},
		{in: " 2025-05-01 ", want: Month(2025, time.May)},
		{in: "", wantErr: true},
		{in: "01/02/2025", wantErr: true},
		{in: "2025-13-01", wantErr: true},
		{in: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedDate) {
				t.Errorf("ParseDate(%q) error = %v, want ErrMalformedDate", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRange_InvertedIsNotAnError(t *testing.T) {
	r, err := ParseRange("2025-03-01", "2025-01-01")
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	if r.Valid() {
		t.Error("inverted range should not be valid")
	}
}

func TestParseRange_MalformedEnd(t *testing.T) {
	_, err := ParseRange("2025-01-01", "not-a-date")
	if !errors.Is(err, ErrMalformedDate) {
		t.Fatalf("expected ErrMalformedDate, got %v", err)
	}
}
