package records

// Filter returns the records whose Date falls inside r, in dataset order.
// The result never shares a backing array with dataset.
func Filter(dataset []Record, r DateRange) []Record {
	if !r.Valid() {
		return []Record{}
	}

	filtered := make([]Record, 0, len(dataset))
	for _, rec := range dataset {
		if r.Contains(rec.Date) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// Bounds returns the earliest and latest dates in dataset. ok is false for an
// empty dataset.
func Bounds(dataset []Record) (r DateRange, ok bool) {
	if len(dataset) == 0 {
		return DateRange{}, false
	}

	r = DateRange{Start: dataset[0].Date, End: dataset[0].Date}
	for _, rec := range dataset[1:] {
		if rec.Date.Before(r.Start) {
			r.Start = rec.Date
		}
		if rec.Date.After(r.End) {
			r.End = rec.Date
		}
	}
	return r, true
}
