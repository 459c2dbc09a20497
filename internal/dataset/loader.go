// internal/dataset/loader.go
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrMissingColumn is returned when a required column cannot be resolved
// through any of its declared aliases.
var ErrMissingColumn = errors.New("missing required column")

// Column aliases for the sales transaction files. Each required column is
// declared once with every accepted header spelling; resolution happens a
// single time per file before any row is parsed.
var (
	dateAliases     = []string{"tgl faktur", "invoice date", "tanggal faktur"}
	deptAliases     = []string{"dept.", "dept", "department"}
	customerAliases = []string{"nama pelanggan", "customer", "customer name"}
	itemAliases     = []string{"no. barang", "item code", "kode barang", "sku"}
	qtyAliases      = []string{"kuantitas", "qty", "quantity"}

	brandAliases    = []string{"brand barang", "brand"}
	categoryAliases = []string{"kategori barang", "kategori", "category"}
	nameAliases     = []string{"nama barang", "nama", "product name", "name"}
)

// invoice date layouts tried in order
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006 15:04",
	"02-Jan-2006",
}

// CSVSource loads the engine's tabular inputs from local CSV files: a
// directory of sales transaction exports and a single product reference
// file.
type CSVSource struct {
	salesDir    string
	productPath string
}

// NewCSVSource creates a source over the given sales directory and product
// reference file path.
func NewCSVSource(salesDir, productPath string) *CSVSource {
	return &CSVSource{salesDir: salesDir, productPath: productPath}
}

// Transactions reads every *.csv file in the sales directory concurrently
// and concatenates the rows in filename order, so repeated loads produce an
// identical slice.
func (s *CSVSource) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	files, err := filepath.Glob(filepath.Join(s.salesDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list sales files: %w", err)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return []domain.Transaction{}, nil
	}

	perFile := make([][]domain.Transaction, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := readTransactionsFile(path)
			if err != nil {
				return fmt.Errorf("read sales file %s: %w", path, err)
			}
			perFile[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Transaction
	for _, rows := range perFile {
		out = append(out, rows...)
	}
	return out, nil
}

// Products reads the product reference file. A missing path yields an
// empty reference table rather than an error.
func (s *CSVSource) Products(ctx context.Context) ([]domain.Product, error) {
	if s.productPath == "" {
		return []domain.Product{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.productPath)
	if err != nil {
		return nil, fmt.Errorf("open product file: %w", err)
	}
	defer f.Close()

	return ReadProducts(f)
}

// ReadTransactions parses sales transaction rows from CSV. The quantity
// column must resolve through one of its aliases or the whole read fails;
// rows with unparseable invoice dates are dropped and counted, never fatal.
func ReadTransactions(r io.Reader) ([]domain.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []domain.Transaction{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idxDate := colIndex(header, dateAliases...)
	idxDept := colIndex(header, deptAliases...)
	idxCustomer := colIndex(header, customerAliases...)
	idxItem := colIndex(header, itemAliases...)
	idxQty := colIndex(header, qtyAliases...)

	if idxQty == -1 {
		return nil, fmt.Errorf("%w: quantity (%s)", ErrMissingColumn, strings.Join(qtyAliases, ", "))
	}
	if idxDate == -1 {
		return nil, fmt.Errorf("%w: invoice date (%s)", ErrMissingColumn, strings.Join(dateAliases, ", "))
	}
	if idxItem == -1 {
		return nil, fmt.Errorf("%w: item code (%s)", ErrMissingColumn, strings.Join(itemAliases, ", "))
	}

	rows := make([]domain.Transaction, 0)
	dropped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		date, ok := parseDate(field(record, idxDate))
		if !ok {
			dropped++
			continue
		}

		rows = append(rows, domain.Transaction{
			InvoiceDate: date,
			Dept:        field(record, idxDept),
			Customer:    field(record, idxCustomer),
			ItemID:      field(record, idxItem),
			Quantity:    parseFloat(field(record, idxQty)),
		})
	}

	if dropped > 0 {
		log.Warn().Int("rows", dropped).Msg("dropped sales rows with unparseable invoice dates")
	}

	return rows, nil
}

// ReadProducts parses the product reference table from CSV. Item codes are
// trimmed so they join exactly against normalized transaction codes.
func ReadProducts(r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []domain.Product{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idxItem := colIndex(header, itemAliases...)
	if idxItem == -1 {
		return nil, fmt.Errorf("%w: item code (%s)", ErrMissingColumn, strings.Join(itemAliases, ", "))
	}
	idxBrand := colIndex(header, brandAliases...)
	idxCategory := colIndex(header, categoryAliases...)
	idxName := colIndex(header, nameAliases...)

	rows := make([]domain.Product, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		itemID := field(record, idxItem)
		if itemID == "" {
			continue
		}
		rows = append(rows, domain.Product{
			ItemID:   itemID,
			Brand:    field(record, idxBrand),
			Category: field(record, idxCategory),
			Name:     field(record, idxName),
		})
	}

	return rows, nil
}

func readTransactionsFile(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTransactions(f)
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// colIndex resolves the first header matching any of the given aliases.
func colIndex(header []string, names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloat(v string) float64 {
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func parseDate(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
