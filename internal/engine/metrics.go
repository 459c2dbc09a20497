// internal/engine/metrics.go
package engine

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/andresuchdata/rop-analytics/pkg/formulas"
)

// WMA blend weights over the 30/60/90-day trailing sums.
const (
	wmaWeightRecent = 0.5 // days 1-30
	wmaWeightMid    = 0.3 // days 31-60
	wmaWeightOld    = 0.2 // days 61-90
)

// BaseMetrics computes the per-day metrics table shared by all ROP methods:
// the dense daily series, the rolling demand statistics, the forward-looking
// realized demand, the per-city ABC classification and the product
// reference join. The result is filtered down to the requested range and
// ordered by (city, item, date). An input with no usable transactions
// yields an empty slice, never an error.
func (e *Engine) BaseMetrics(txns []domain.Transaction, products []domain.Product, period domain.DateRange) ([]domain.MetricsRow, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("base metrics: %w", err)
	}

	window := e.workingWindow(period)
	dense := buildDenseSeries(txns, window)
	if len(dense.keys) == 0 {
		return []domain.MetricsRow{}, nil
	}

	productIndex := indexProducts(products)
	lastTrusted := dense.lastTrustedIndex()

	startIdx, _ := dense.index(period.Start)
	endIdx, _ := dense.index(period.End)

	// classification basis: mean WMA per series over the full working window
	avgDemand := make(map[domain.SeriesKey]float64, len(dense.keys))
	type seriesMetrics struct {
		sum30, sum60, sum90 []float64
		wma                 []float64
		stdDev              []float64
		realized            []float64
		realizedOK          []bool
	}
	perSeries := make(map[domain.SeriesKey]seriesMetrics, len(dense.keys))

	for _, key := range dense.keys {
		units := dense.units[key]

		sum30 := RollingSum(units, 30)
		sum60 := RollingSum(units, 60)
		sum90 := RollingSum(units, e.windowDays)

		wma := make([]float64, len(units))
		for i := range units {
			wma[i] = wmaWeightRecent*sum30[i] +
				wmaWeightMid*(sum60[i]-sum30[i]) +
				wmaWeightOld*(sum90[i]-sum60[i])
		}

		stdDev := RollingStdDev(units, e.windowDays)
		realized, realizedOK := ForwardSum(units, e.leadTimeDays, lastTrusted)

		perSeries[key] = seriesMetrics{
			sum30: sum30, sum60: sum60, sum90: sum90,
			wma: wma, stdDev: stdDev,
			realized: realized, realizedOK: realizedOK,
		}
		avgDemand[key] = formulas.Mean(wma)
	}

	categories := classifyABC(avgDemand)

	rows := make([]domain.MetricsRow, 0, len(dense.keys)*period.Days())
	for _, key := range dense.keys {
		m := perSeries[key]
		units := dense.units[key]
		product := productIndex[key.ItemID]

		for i := startIdx; i <= endIdx; i++ {
			row := domain.MetricsRow{
				Date:      dense.date(i),
				City:      key.City,
				ItemID:    key.ItemID,
				UnitsSold: int(units[i]),
				Sum30:     m.sum30[i],
				Sum60:     m.sum60[i],
				Sum90:     m.sum90[i],
				WMA:       m.wma[i],
				StdDev90:  m.stdDev[i],
				ABC:       categories[key],
			}
			if m.realizedOK[i] {
				v := m.realized[i]
				row.Realized = &v
			}
			if product != nil {
				row.Brand = product.Brand
				row.ProductCategory = product.Category
				row.ProductName = product.Name
			}
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// indexProducts builds an item-code lookup over the reference table. Item
// codes are trimmed so the join matches the normalized transaction codes.
func indexProducts(products []domain.Product) map[string]*domain.Product {
	index := make(map[string]*domain.Product, len(products))
	for i := range products {
		id := strings.TrimSpace(products[i].ItemID)
		if id == "" {
			continue
		}
		if _, exists := index[id]; exists {
			continue
		}
		index[id] = &products[i]
	}
	return index
}
