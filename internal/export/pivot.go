// internal/export/pivot.go
package export

import (
	"sort"

	"github.com/andresuchdata/rop-analytics/internal/domain"
)

// PivotCell pairs the reorder point and units sold of one item on one day.
type PivotCell struct {
	ReorderPoint int `json:"rop"`
	UnitsSold    int `json:"so"`
}

// PivotRow is one item of a city cross-tab; Cells aligns with the parent
// table's Dates.
type PivotRow struct {
	ItemID   string      `json:"item_id"`
	Name     string      `json:"name,omitempty"`
	Brand    string      `json:"brand,omitempty"`
	Category string      `json:"category,omitempty"`
	Cells    []PivotCell `json:"cells"`
}

// PivotTable is the per-city cross-tab: rows are item identities, columns
// are date x {reorder point, units sold} pairs.
type PivotTable struct {
	City  string     `json:"city"`
	Dates []string   `json:"dates"`
	Rows  []PivotRow `json:"rows"`
}

// BuildPivot pivots flat ROP rows into one cross-tab per city. Cities,
// dates and items are sorted so the output is stable across runs. Missing
// (item, date) combinations cannot occur upstream; cells default to zero
// regardless, mirroring the flat table's zero-fill.
func BuildPivot(rows []domain.ROPRow) []PivotTable {
	type itemIdentity struct {
		name, brand, category string
	}

	byCity := make(map[string]map[string]map[string]PivotCell) // city -> item -> date -> cell
	identities := make(map[domain.SeriesKey]itemIdentity)
	dateSet := make(map[string]struct{})

	for _, row := range rows {
		date := row.Date.Format("2006-01-02")
		dateSet[date] = struct{}{}

		items, ok := byCity[row.City]
		if !ok {
			items = make(map[string]map[string]PivotCell)
			byCity[row.City] = items
		}
		cells, ok := items[row.ItemID]
		if !ok {
			cells = make(map[string]PivotCell)
			items[row.ItemID] = cells
		}
		cells[date] = PivotCell{ReorderPoint: row.ReorderPoint, UnitsSold: row.UnitsSold}

		identities[domain.SeriesKey{City: row.City, ItemID: row.ItemID}] = itemIdentity{
			name:     row.ProductName,
			brand:    row.Brand,
			category: row.ProductCategory,
		}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	cities := make([]string, 0, len(byCity))
	for c := range byCity {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	tables := make([]PivotTable, 0, len(cities))
	for _, city := range cities {
		items := byCity[city]
		itemIDs := make([]string, 0, len(items))
		for id := range items {
			itemIDs = append(itemIDs, id)
		}
		sort.Strings(itemIDs)

		table := PivotTable{City: city, Dates: dates, Rows: make([]PivotRow, 0, len(itemIDs))}
		for _, id := range itemIDs {
			identity := identities[domain.SeriesKey{City: city, ItemID: id}]
			row := PivotRow{
				ItemID:   id,
				Name:     identity.name,
				Brand:    identity.brand,
				Category: identity.category,
				Cells:    make([]PivotCell, len(dates)),
			}
			for i, d := range dates {
				row.Cells[i] = items[id][d]
			}
			table.Rows = append(table.Rows, row)
		}
		tables = append(tables, table)
	}

	return tables
}

// DateColumns formats the paired column labels of a pivot table, date-major
// like the exported sheet layout.
func (t PivotTable) DateColumns() []string {
	cols := make([]string, 0, len(t.Dates)*2)
	for _, d := range t.Dates {
		cols = append(cols, d+"_ROP", d+"_SO")
	}
	return cols
}
