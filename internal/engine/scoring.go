// internal/engine/scoring.go
package engine

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/andresuchdata/rop-analytics/pkg/formulas"
)

// CompareMethods runs every ROP method against one shared metrics table and
// joins the results side by side. Rows without realized forward demand
// cannot be scored and are excluded from the comparison entirely.
func (e *Engine) CompareMethods(rows []domain.MetricsRow) ([]domain.ComparisonRow, error) {
	perMethod := make(map[domain.Method][]domain.ROPRow, len(domain.Methods))
	for _, method := range domain.Methods {
		result, err := e.ApplyROP(rows, method)
		if err != nil {
			return nil, fmt.Errorf("compare methods: %w", err)
		}
		perMethod[method] = result
	}

	out := make([]domain.ComparisonRow, 0, len(rows))
	for i, row := range rows {
		if row.Realized == nil {
			continue
		}
		realized := *row.Realized

		cmp := domain.ComparisonRow{
			Date:            row.Date,
			City:            row.City,
			ItemID:          row.ItemID,
			ProductCategory: row.ProductCategory,
			Brand:           row.Brand,
			ProductName:     row.ProductName,
			ABC:             row.ABC,
			UnitsSold:       row.UnitsSold,
			Realized:        realized,
			ReorderPoints:   make(map[domain.Method]int, len(domain.Methods)),
			Errors:          make(map[domain.Method]float64, len(domain.Methods)),
		}
		for _, method := range domain.Methods {
			rop := perMethod[method][i].ReorderPoint
			cmp.ReorderPoints[method] = rop
			// signed error: positive means the method over-covers demand
			cmp.Errors[method] = float64(rop) - realized
		}
		out = append(out, cmp)
	}

	return out, nil
}

// ScoreErrors aggregates the comparison rows into per-method error
// summaries, globally and per city: mean absolute error, mean signed error
// (bias) and the count of rows where the reorder point fell short of the
// realized demand (stockout events). Summaries are ordered by method, with
// the global aggregate first and cities alphabetical after it.
func ScoreErrors(rows []domain.ComparisonRow) []domain.ErrorSummary {
	cities := make([]string, 0)
	seen := make(map[string]bool)
	for _, row := range rows {
		if !seen[row.City] {
			seen[row.City] = true
			cities = append(cities, row.City)
		}
	}
	sort.Strings(cities)

	summaries := make([]domain.ErrorSummary, 0, len(domain.Methods)*(len(cities)+1))
	for _, method := range domain.Methods {
		summaries = append(summaries, summarize(rows, method, ""))
		for _, city := range cities {
			summaries = append(summaries, summarize(rows, method, city))
		}
	}
	return summaries
}

func summarize(rows []domain.ComparisonRow, method domain.Method, city string) domain.ErrorSummary {
	errs := make([]float64, 0, len(rows))
	stockouts := 0
	for _, row := range rows {
		if city != "" && row.City != city {
			continue
		}
		err := row.Errors[method]
		errs = append(errs, err)
		if float64(row.ReorderPoints[method]) < row.Realized {
			stockouts++
		}
	}

	return domain.ErrorSummary{
		Method:    method,
		City:      city,
		Rows:      len(errs),
		MAE:       formulas.MeanAbs(errs),
		Bias:      formulas.Mean(errs),
		Stockouts: stockouts,
	}
}
