// internal/export/csv.go
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/andresuchdata/rop-analytics/internal/domain"
)

// WriteROPCSV writes the flat analysis table, one row per (date, city,
// item). The realized column is left blank when the forward window extends
// past the available data.
func WriteROPCSV(w io.Writer, rows []domain.ROPRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"date", "city", "item_code", "category", "brand", "name",
		"abc_category", "reorder_point", "units_sold", "realized_21d_demand",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		realized := ""
		if r.Realized != nil {
			realized = strconv.FormatFloat(*r.Realized, 'f', -1, 64)
		}
		record := []string{
			r.Date.Format("2006-01-02"),
			r.City,
			r.ItemID,
			r.ProductCategory,
			r.Brand,
			r.ProductName,
			string(r.ABC),
			strconv.Itoa(r.ReorderPoint),
			strconv.Itoa(r.UnitsSold),
			realized,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePivotCSV writes one city cross-tab with paired date columns.
func WritePivotCSV(w io.Writer, table PivotTable) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := append([]string{"item_code", "name", "brand", "category"}, table.DateColumns()...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range table.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.ItemID, row.Name, row.Brand, row.Category)
		for _, cell := range row.Cells {
			record = append(record, strconv.Itoa(cell.ReorderPoint), strconv.Itoa(cell.UnitsSold))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes the per-method error scores.
func WriteSummaryCSV(w io.Writer, summaries []domain.ErrorSummary) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"method", "city", "rows", "mae", "bias", "stockouts"}); err != nil {
		return err
	}

	for _, s := range summaries {
		city := s.City
		if city == "" {
			city = "ALL"
		}
		record := []string{
			string(s.Method),
			city,
			strconv.Itoa(s.Rows),
			strconv.FormatFloat(s.MAE, 'f', 2, 64),
			strconv.FormatFloat(s.Bias, 'f', 2, 64),
			strconv.Itoa(s.Stockouts),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
