// internal/engine/dense.go
package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/rop-analytics/internal/domain"
)

// denseSeries is the zero-filled daily grid over the cross product of every
// observed (city, item) pair and every calendar day of the working window.
// Exactly one value exists per (key, day); the rolling computations rely on
// the series having no gaps.
type denseSeries struct {
	window domain.DateRange
	days   int
	keys   []domain.SeriesKey
	units  map[domain.SeriesKey][]float64

	// dataEnd is the latest invoice date observed in the surviving
	// transactions. Forward-looking demand is only trusted up to it.
	dataEnd time.Time
}

// buildDenseSeries aggregates transactions by (city, item, day) and expands
// them onto the dense grid. Transactions routed to an unsupported city and
// rows with zero-value invoice dates are dropped. An empty input yields an
// empty (but usable) grid.
func buildDenseSeries(txns []domain.Transaction, window domain.DateRange) *denseSeries {
	ds := &denseSeries{
		window: window,
		days:   window.Days(),
		units:  make(map[domain.SeriesKey][]float64),
	}

	for _, t := range txns {
		if t.InvoiceDate.IsZero() {
			continue
		}
		city := MapCity(t.Dept, t.Customer)
		if city == UnsupportedCity {
			continue
		}
		itemID := strings.TrimSpace(t.ItemID)
		if itemID == "" {
			continue
		}

		key := domain.SeriesKey{City: city, ItemID: itemID}
		series, ok := ds.units[key]
		if !ok {
			series = make([]float64, ds.days)
			ds.units[key] = series
			ds.keys = append(ds.keys, key)
		}

		day := dayOf(t.InvoiceDate)
		if day.After(ds.dataEnd) {
			ds.dataEnd = day
		}

		// Every observed pair spans the whole grid; only days inside the
		// working window contribute units.
		if idx, ok := ds.index(day); ok {
			series[idx] += t.Quantity
		}
	}

	sort.Slice(ds.keys, func(i, j int) bool {
		if ds.keys[i].City != ds.keys[j].City {
			return ds.keys[i].City < ds.keys[j].City
		}
		return ds.keys[i].ItemID < ds.keys[j].ItemID
	})

	return ds
}

// index returns the grid offset of the given day, and whether it falls
// inside the working window.
func (ds *denseSeries) index(day time.Time) (int, bool) {
	idx := int(day.Sub(ds.window.Start).Hours() / 24)
	if idx < 0 || idx >= ds.days {
		return 0, false
	}
	return idx, true
}

// date returns the calendar day at the given grid offset.
func (ds *denseSeries) date(idx int) time.Time {
	return ds.window.Start.AddDate(0, 0, idx)
}

// lastTrustedIndex is the last grid offset covered by actual data: the
// smaller of the window end and the latest observed invoice date.
func (ds *denseSeries) lastTrustedIndex() int {
	if ds.dataEnd.IsZero() || ds.dataEnd.After(ds.window.End) {
		return ds.days - 1
	}
	idx, _ := ds.index(ds.dataEnd)
	return idx
}

// dayOf truncates a timestamp to midnight UTC.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
