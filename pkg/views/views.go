// Package views turns a filtered record set into the chart payloads and
// summary cards the dashboard renders.
package views

import (
	"github.com/nicktill/insights/pkg/records"
)

// Chart titles shown above each panel.
const (
	AppTitle       = "ADmyBRAND Insights"
	LineChartTitle = "Revenue Over Time"
	BarChartTitle  = "Users Over Time"
	PieChartTitle  = "Conversion Share"
	pieLabelLayout = "Jan-2006"
	chartTypeLine  = "line"
	chartTypeBar   = "bar"
	chartTypePie   = "pie"
)

// Point is one (date, value) pair of a time-series chart.
type Point struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// Series is a time-series chart payload.
type Series struct {
	ChartType string  `json:"chart_type"`
	Title     string  `json:"title"`
	Points    []Point `json:"points"`
}

// Slice is one segment of the pie chart.
type Slice struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// Pie is the proportional share chart payload.
type Pie struct {
	ChartType string  `json:"chart_type"`
	Title     string  `json:"title"`
	Slices    []Slice `json:"slices"`
	Total     int64   `json:"total"`
}

// Cards are the formatted summary values.
type Cards struct {
	Revenue     string `json:"revenue"`
	Users       string `json:"users"`
	Conversions string `json:"conversions"`
	Growth      string `json:"growth"`
}

// Dashboard is everything derived from one filtered view.
type Dashboard struct {
	Title   string          `json:"title"`
	Line    Series          `json:"line"`
	Bar     Series          `json:"bar"`
	Pie     Pie             `json:"pie"`
	Cards   Cards           `json:"cards"`
	Summary records.Summary `json:"summary"`
}

// Builder assembles dashboards using a fixed Format.
type Builder struct {
	f formatter
}

// NewBuilder creates a builder for the given format.
func NewBuilder(f Format) *Builder {
	return &Builder{f: newFormatter(f)}
}

// Build derives all chart payloads and cards from recs. It holds no state
// between calls.
func (b *Builder) Build(recs []records.Record) Dashboard {
	line := Series{ChartType: chartTypeLine, Title: LineChartTitle, Points: make([]Point, 0, len(recs))}
	bar := Series{ChartType: chartTypeBar, Title: BarChartTitle, Points: make([]Point, 0, len(recs))}
	pie := Pie{ChartType: chartTypePie, Title: PieChartTitle, Slices: make([]Slice, 0, len(recs))}

	for _, rec := range recs {
		date := rec.Date.Format(records.DateLayout)
		line.Points = append(line.Points, Point{Date: date, Value: rec.Revenue})
		bar.Points = append(bar.Points, Point{Date: date, Value: rec.Users})
		// Records sharing a month label each keep their own slice.
		pie.Slices = append(pie.Slices, Slice{Label: rec.Date.Format(pieLabelLayout), Value: rec.Conversions})
		pie.Total += rec.Conversions
	}

	summary := records.Summarize(recs)
	return Dashboard{
		Title:   AppTitle,
		Line:    line,
		Bar:     bar,
		Pie:     pie,
		Summary: summary,
		Cards: Cards{
			Revenue:     b.f.Currency(summary.Revenue),
			Users:       b.f.Integer(summary.Users),
			Conversions: b.f.Integer(summary.Conversions),
			Growth:      b.f.Percent(summary.Growth),
		},
	}
}
