// Package band implements the lineup collection: the query composer that
// turns loose filter/sort/page parameters into a bounded database query,
// and the repository executing it.
package band

import (
	"strings"
	"time"
)

const (
	minPageSize = 1
	maxPageSize = 100

	// scheduleFormat keeps stored timestamps lexicographically ordered.
	scheduleFormat = "2006-01-02T15:04:05"
)

// scheduleInputFormats are the accepted shapes for scheduled times and date
// bounds. Values carrying a zone are converted to UTC; naive values are
// taken as UTC already.
var scheduleInputFormats = []string{
	time.RFC3339,
	scheduleFormat,
	"2006-01-02",
}

// SortKey selects the column a listing is ordered by.
type SortKey int

const (
	SortByID SortKey = iota
	SortByName
	SortByDate
)

// ListParams are the raw, untrusted listing inputs as they arrive from the
// query string.
type ListParams struct {
	Genre    string
	Stage    string
	DateFrom string
	DateTo   string
	SortBy   string
	Page     int
	PageSize int
}

// FilterSpec is a normalized ListParams: clamped paging, trimmed filters,
// parsed date bounds and a resolved sort. Empty strings mean "no filter".
type FilterSpec struct {
	Genre    string
	Stage    string
	DateFrom string
	DateTo   string
	Sort     SortKey
	Desc     bool
	Page     int
	PageSize int
}

// Normalize applies the parameter policy: page < 1 becomes 1, pageSize is
// clamped into [1, 100], whitespace-only filters are dropped, unparsable
// date bounds are ignored rather than rejected, and a leading "-" on sortBy
// reverses the direction. Unrecognized sort keys fall back to id ascending
// and ignore the reversal flag.
func Normalize(p ListParams) FilterSpec {
	spec := FilterSpec{
		Genre:    strings.TrimSpace(p.Genre),
		Stage:    strings.TrimSpace(p.Stage),
		Page:     p.Page,
		PageSize: p.PageSize,
	}

	if spec.Page < 1 {
		spec.Page = 1
	}
	if spec.PageSize < minPageSize {
		spec.PageSize = minPageSize
	}
	if spec.PageSize > maxPageSize {
		spec.PageSize = maxPageSize
	}

	if from, ok := ParseSchedule(p.DateFrom); ok {
		spec.DateFrom = from
	}
	if to, ok := ParseSchedule(p.DateTo); ok {
		spec.DateTo = to
	}

	key := strings.TrimSpace(p.SortBy)
	desc := false
	if strings.HasPrefix(key, "-") {
		desc = true
		key = key[1:]
	}
	switch strings.ToLower(key) {
	case "name":
		spec.Sort, spec.Desc = SortByName, desc
	case "date":
		spec.Sort, spec.Desc = SortByDate, desc
	default:
		spec.Sort, spec.Desc = SortByID, false
	}

	return spec
}

// ParseSchedule parses an ISO-like date/time string and renders it in the
// normalized stored format. The second return is false for blank or
// unparsable input.
func ParseSchedule(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, format := range scheduleInputFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC().Format(scheduleFormat), true
		}
	}
	return "", false
}
