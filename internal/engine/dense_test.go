package engine

import (
	"testing"
	"time"

	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMapCity(t *testing.T) {
	tests := []struct {
		name     string
		dept     string
		customer string
		want     string
	}{
		{"dept A cash sale routes to ITC", "A", "A - CASH", "Surabaya"},
		{"dept A marketplace routes to ITC", "a", "tokopedia", "Surabaya"},
		{"dept A regular customer routes to retail", "A", "PT Maju Jaya", "Surabaya"},
		{"dept B is Jakarta", "B", "anyone", "Jakarta"},
		{"dept D is Semarang", " d ", "", "Semarang"},
		{"dept H is Bali", "H", "", "Bali"},
		{"unknown dept is unsupported", "Z", "", UnsupportedCity},
		{"empty dept is unsupported", "", "", UnsupportedCity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapCity(tt.dept, tt.customer))
		})
	}
}

func TestBuildDenseSeriesGridShape(t *testing.T) {
	window := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 10)}
	txns := []domain.Transaction{
		{InvoiceDate: day(2024, 1, 3), Dept: "B", ItemID: "SKU-1", Quantity: 2},
		{InvoiceDate: day(2024, 1, 3), Dept: "B", ItemID: "SKU-1", Quantity: 3},
		{InvoiceDate: day(2024, 1, 5), Dept: "C", ItemID: "SKU-2", Quantity: 1},
	}

	ds := buildDenseSeries(txns, window)

	// every observed pair spans every day of the window exactly once
	require.Len(t, ds.keys, 2)
	for _, k := range ds.keys {
		assert.Len(t, ds.units[k], 10)
	}

	// same-day transactions are summed before anything else
	jakarta := ds.units[domain.SeriesKey{City: "Jakarta", ItemID: "SKU-1"}]
	require.NotNil(t, jakarta)
	assert.Equal(t, 5.0, jakarta[2])

	// missing combinations are zero-filled
	var total float64
	for _, v := range jakarta {
		total += v
	}
	assert.Equal(t, 5.0, total)
}

func TestBuildDenseSeriesDropsUnsupportedRegions(t *testing.T) {
	window := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 5)}
	txns := []domain.Transaction{
		{InvoiceDate: day(2024, 1, 2), Dept: "Z", ItemID: "SKU-1", Quantity: 9},
		{InvoiceDate: day(2024, 1, 2), Dept: "", ItemID: "SKU-2", Quantity: 4},
	}

	ds := buildDenseSeries(txns, window)

	assert.Empty(t, ds.keys, "unsupported regions never appear in any output")
}

func TestBuildDenseSeriesEmptyInput(t *testing.T) {
	window := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 5)}

	ds := buildDenseSeries(nil, window)

	assert.Empty(t, ds.keys)
	assert.Equal(t, 5, ds.days)
}

func TestBuildDenseSeriesKeysAreSorted(t *testing.T) {
	window := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 5)}
	txns := []domain.Transaction{
		{InvoiceDate: day(2024, 1, 1), Dept: "C", ItemID: "B-2", Quantity: 1},
		{InvoiceDate: day(2024, 1, 1), Dept: "B", ItemID: "Z-9", Quantity: 1},
		{InvoiceDate: day(2024, 1, 1), Dept: "C", ItemID: "A-1", Quantity: 1},
	}

	ds := buildDenseSeries(txns, window)

	require.Len(t, ds.keys, 3)
	assert.Equal(t, domain.SeriesKey{City: "Jakarta", ItemID: "Z-9"}, ds.keys[0])
	assert.Equal(t, domain.SeriesKey{City: "Surabaya", ItemID: "A-1"}, ds.keys[1])
	assert.Equal(t, domain.SeriesKey{City: "Surabaya", ItemID: "B-2"}, ds.keys[2])
}

func TestBuildDenseSeriesDataEnd(t *testing.T) {
	window := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	txns := []domain.Transaction{
		{InvoiceDate: day(2024, 1, 5), Dept: "B", ItemID: "SKU-1", Quantity: 1},
		{InvoiceDate: day(2024, 1, 20), Dept: "B", ItemID: "SKU-1", Quantity: 1},
	}

	ds := buildDenseSeries(txns, window)

	assert.Equal(t, day(2024, 1, 20), ds.dataEnd)
	idx, ok := ds.index(day(2024, 1, 20))
	require.True(t, ok)
	assert.Equal(t, idx, ds.lastTrustedIndex())
}

func TestBuildDenseSeriesTrimsItemCodes(t *testing.T) {
	window := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 5)}
	txns := []domain.Transaction{
		{InvoiceDate: day(2024, 1, 1), Dept: "B", ItemID: " SKU-1 ", Quantity: 2},
		{InvoiceDate: day(2024, 1, 1), Dept: "B", ItemID: "SKU-1", Quantity: 3},
	}

	ds := buildDenseSeries(txns, window)

	require.Len(t, ds.keys, 1)
	assert.Equal(t, 5.0, ds.units[domain.SeriesKey{City: "Jakarta", ItemID: "SKU-1"}][0])
}
