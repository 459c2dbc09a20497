// internal/domain/models.go
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Transaction represents a single raw sales transaction row.
type Transaction struct {
	InvoiceDate time.Time `json:"invoice_date"`
	Dept        string    `json:"dept"`
	Customer    string    `json:"customer"`
	ItemID      string    `json:"item_id"`
	Quantity    float64   `json:"quantity"`
}

// Product represents one row of the product reference table.
type Product struct {
	ItemID   string `json:"item_id"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	Name     string `json:"name"`
}

// ABCCategory is the demand-share classification of an item within a city.
// D is reserved for items with zero total demand and is never produced by
// the cumulative-share cut itself.
type ABCCategory string

const (
	CategoryA ABCCategory = "A"
	CategoryB ABCCategory = "B"
	CategoryC ABCCategory = "C"
	CategoryD ABCCategory = "D"
)

// Method selects the safety-stock policy used by the ROP calculation.
type Method string

const (
	MethodTieredABC    Method = "tiered-ABC"
	MethodUniform      Method = "uniform"
	MethodMinStockOnly Method = "min-stock-only"
)

// Methods lists every supported ROP method, in comparison order.
var Methods = []Method{MethodTieredABC, MethodUniform, MethodMinStockOnly}

var ErrUnknownMethod = errors.New("unknown ROP method")

// ParseMethod resolves a user-supplied method name, case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tiered-abc", "tiered_abc", "abc":
		return MethodTieredABC, nil
	case "uniform":
		return MethodUniform, nil
	case "min-stock-only", "min_stock_only", "min-stock":
		return MethodMinStockOnly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

var ErrInvalidDateRange = errors.New("start date must not be after end date")

// DateRange is an inclusive calendar-day range. Both bounds are expected to
// be midnight UTC.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects ranges where start is after end before any computation.
func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

// Days returns the number of calendar days covered by the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Extend widens the range backwards and forwards by the given day counts.
func (r DateRange) Extend(before, after int) DateRange {
	return DateRange{
		Start: r.Start.AddDate(0, 0, -before),
		End:   r.End.AddDate(0, 0, after),
	}
}

// SeriesKey identifies one daily demand series.
type SeriesKey struct {
	City   string `json:"city"`
	ItemID string `json:"item_id"`
}

// MetricsRow is one day of one (city, item) series with its rolling
// aggregates. Realized is nil when the forward window extends past the
// available data.
type MetricsRow struct {
	Date      time.Time   `json:"date"`
	City      string      `json:"city"`
	ItemID    string      `json:"item_id"`
	UnitsSold int         `json:"units_sold"`
	Sum30     float64     `json:"sum_30d"`
	Sum60     float64     `json:"sum_60d"`
	Sum90     float64     `json:"sum_90d"`
	WMA       float64     `json:"wma"`
	StdDev90  float64     `json:"std_dev_90d"`
	Realized  *float64    `json:"realized_21d_demand"`
	ABC       ABCCategory `json:"abc_category"`

	// Product reference attributes, empty when the item is not in the
	// reference table (left-join semantics, rows are never dropped).
	Brand           string `json:"brand,omitempty"`
	ProductCategory string `json:"product_category,omitempty"`
	ProductName     string `json:"product_name,omitempty"`
}

// Key returns the series key of the row.
func (m MetricsRow) Key() SeriesKey {
	return SeriesKey{City: m.City, ItemID: m.ItemID}
}

// ROPRow is the per-day output of one ROP method applied to a metrics row.
type ROPRow struct {
	Date            time.Time   `json:"date"`
	City            string      `json:"city"`
	ItemID          string      `json:"item_id"`
	ProductCategory string      `json:"product_category,omitempty"`
	Brand           string      `json:"brand,omitempty"`
	ProductName     string      `json:"product_name,omitempty"`
	ABC             ABCCategory `json:"abc_category"`
	SafetyStock     float64     `json:"safety_stock"`
	ReorderPoint    int         `json:"reorder_point"`
	UnitsSold       int         `json:"units_sold"`
	Realized        *float64    `json:"realized_21d_demand"`
}

// ComparisonRow holds the three methods' reorder points side by side for a
// single (date, city, item) row, with signed errors against the realized
// forward demand. Rows without realized demand are excluded upstream.
type ComparisonRow struct {
	Date            time.Time   `json:"date"`
	City            string      `json:"city"`
	ItemID          string      `json:"item_id"`
	ProductCategory string      `json:"product_category,omitempty"`
	Brand           string      `json:"brand,omitempty"`
	ProductName     string      `json:"product_name,omitempty"`
	ABC             ABCCategory `json:"abc_category"`
	UnitsSold       int         `json:"units_sold"`
	Realized        float64     `json:"realized_21d_demand"`

	ReorderPoints map[Method]int     `json:"reorder_points"`
	Errors        map[Method]float64 `json:"errors"`
}

// ErrorSummary aggregates the error metrics of one method over one scope.
// City is empty for the global aggregate.
type ErrorSummary struct {
	Method    Method  `json:"method"`
	City      string  `json:"city,omitempty"`
	Rows      int     `json:"rows"`
	MAE       float64 `json:"mae"`
	Bias      float64 `json:"bias"`
	Stockouts int     `json:"stockouts"`
}

// AnalysisParams identifies one analysis run.
type AnalysisParams struct {
	Range  DateRange `json:"range"`
	Method Method    `json:"method"`
}
