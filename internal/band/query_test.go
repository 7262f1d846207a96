package band

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_PagingClamps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
	}{
		{"zero and negative", 0, -5, 1, 1},
		{"negative page", -3, 20, 1, 20},
		{"oversized pageSize", 2, 1000, 2, 100},
		{"in range", 3, 100, 3, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Normalize(ListParams{Page: tt.page, PageSize: tt.size})
			require.Equal(t, tt.wantPage, spec.Page)
			require.Equal(t, tt.wantPageSize, spec.PageSize)
		})
	}
}

func TestNormalize_FilterWhitespace(t *testing.T) {
	t.Parallel()

	spec := Normalize(ListParams{Genre: "  rock  ", Stage: "   ", Page: 1, PageSize: 10})
	require.Equal(t, "rock", spec.Genre)
	require.Empty(t, spec.Stage)
}

func TestNormalize_DateBounds(t *testing.T) {
	t.Parallel()

	spec := Normalize(ListParams{
		DateFrom: "2026-07-05",
		DateTo:   "2026-07-07T15:00:00",
		Page:     1,
		PageSize: 10,
	})
	require.Equal(t, "2026-07-05T00:00:00", spec.DateFrom)
	require.Equal(t, "2026-07-07T15:00:00", spec.DateTo)
}

func TestNormalize_UnparsableDatesIgnored(t *testing.T) {
	t.Parallel()

	spec := Normalize(ListParams{DateFrom: "next tuesday", DateTo: "07/07/2026", Page: 1, PageSize: 10})
	require.Empty(t, spec.DateFrom)
	require.Empty(t, spec.DateTo)
}

func TestNormalize_Sort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sortBy   string
		wantKey  SortKey
		wantDesc bool
	}{
		{"date", SortByDate, false},
		{"-date", SortByDate, true},
		{"name", SortByName, false},
		{"-name", SortByName, true},
		{"NAME", SortByName, false},
		{"-DATE", SortByDate, true},
		// Unrecognized keys fall back to id ascending and the reversal
		// flag is ignored.
		{"rating", SortByID, false},
		{"-rating", SortByID, false},
		{"", SortByID, false},
		{"-", SortByID, false},
	}
	for _, tt := range tests {
		t.Run("sortBy="+tt.sortBy, func(t *testing.T) {
			spec := Normalize(ListParams{SortBy: tt.sortBy, Page: 1, PageSize: 10})
			require.Equal(t, tt.wantKey, spec.Sort)
			require.Equal(t, tt.wantDesc, spec.Desc)
		})
	}
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2026-07-07T15:00:00", "2026-07-07T15:00:00", true},
		{"2026-07-07", "2026-07-07T00:00:00", true},
		{"2026-07-07T15:00:00Z", "2026-07-07T15:00:00", true},
		{"2026-07-07T15:00:00+02:00", "2026-07-07T13:00:00", true},
		{"  2026-07-07  ", "2026-07-07T00:00:00", true},
		{"", "", false},
		{"   ", "", false},
		{"soon", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSchedule(tt.in)
		require.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		require.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
