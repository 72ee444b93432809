package records

// Summary holds the scalar totals of a filtered view.
//
// Totals are plain int64 sums. Monthly marketing figures stay many orders of
// magnitude below the int64 limit, so no overflow detection is done.
type Summary struct {
	Revenue     int64   `json:"revenue"`
	Users       int64   `json:"users"`
	Conversions int64   `json:"conversions"`
	Growth      float64 `json:"growth"`
}

// Summarize totals each metric independently. An empty slice yields a zero
// Summary.
func Summarize(recs []Record) Summary {
	var s Summary
	for _, rec := range recs {
		s.Revenue += rec.Revenue
		s.Users += rec.Users
		s.Conversions += rec.Conversions
	}
	s.Growth = revenueGrowth(recs)
	return s
}

// revenueGrowth is the percent change in revenue from the first record to the
// last one. It is 0 with fewer than two records or a zero baseline.
func revenueGrowth(recs []Record) float64 {
	if len(recs) < 2 {
		return 0
	}
	first := recs[0].Revenue
	if first == 0 {
		return 0
	}
	last := recs[len(recs)-1].Revenue
	return float64(last-first) / float64(first) * 100
}
