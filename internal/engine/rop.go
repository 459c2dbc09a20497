// internal/engine/rop.go
package engine

import (
	"fmt"
	"math"

	"github.com/andresuchdata/rop-analytics/internal/domain"
)

// zScores maps each method to its per-category service-level factor.
var zScores = map[domain.Method]map[domain.ABCCategory]float64{
	domain.MethodTieredABC: {
		domain.CategoryA: 1.65,
		domain.CategoryB: 1.0,
		domain.CategoryC: 0.0,
		domain.CategoryD: 0.0,
	},
	domain.MethodUniform: {
		domain.CategoryA: 1.0,
		domain.CategoryB: 1.0,
		domain.CategoryC: 1.0,
		domain.CategoryD: 1.0,
	},
	domain.MethodMinStockOnly: {
		domain.CategoryA: 0.0,
		domain.CategoryB: 0.0,
		domain.CategoryC: 0.0,
		domain.CategoryD: 0.0,
	},
}

// ApplyROP computes the reorder point for every metrics row under the given
// safety-stock policy:
//
//	minimum stock = WMA x (lead time / 30 days)
//	safety stock  = z x sigma_90 x sqrt(lead time / 30 days)
//	reorder point = round(minimum stock + safety stock), floored at zero
//
// Units sold and realized forward demand pass through unchanged so the
// three methods stay comparable row by row.
func (e *Engine) ApplyROP(rows []domain.MetricsRow, method domain.Method) ([]domain.ROPRow, error) {
	scores, ok := zScores[method]
	if !ok {
		return nil, fmt.Errorf("apply ROP: %w: %q", domain.ErrUnknownMethod, method)
	}

	ratio := e.leadTimeRatio()
	factor := e.safetyStockFactor()

	out := make([]domain.ROPRow, 0, len(rows))
	for _, row := range rows {
		category := row.ABC
		if category == "" {
			// unclassified items carry no safety stock
			category = domain.CategoryD
		}

		safetyStock := scores[category] * row.StdDev90 * factor
		minStock := row.WMA * ratio
		rop := int(math.Round(minStock + safetyStock))
		if rop < 0 {
			rop = 0
		}

		out = append(out, domain.ROPRow{
			Date:            row.Date,
			City:            row.City,
			ItemID:          row.ItemID,
			ProductCategory: row.ProductCategory,
			Brand:           row.Brand,
			ProductName:     row.ProductName,
			ABC:             category,
			SafetyStock:     safetyStock,
			ReorderPoint:    rop,
			UnitsSold:       row.UnitsSold,
			Realized:        row.Realized,
		})
	}

	return out, nil
}
