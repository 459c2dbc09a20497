package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/rop-analytics/internal/cache"
	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/andresuchdata/rop-analytics/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	txns     []domain.Transaction
	products []domain.Product
	err      error
	loads    int
}

func (s *stubSource) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	s.loads++
	return s.txns, s.err
}

func (s *stubSource) Products(ctx context.Context) ([]domain.Product, error) {
	return s.products, nil
}

type recordingCache struct {
	cache.AnalysisCache
	analyses    map[string][]domain.ROPRow
	comparisons map[string]*cache.ComparisonEntry
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		AnalysisCache: cache.NewNoopAnalysisCache(),
		analyses:      make(map[string][]domain.ROPRow),
		comparisons:   make(map[string]*cache.ComparisonEntry),
	}
}

func (c *recordingCache) GetAnalysis(ctx context.Context, key string) ([]domain.ROPRow, bool, error) {
	rows, ok := c.analyses[key]
	return rows, ok, nil
}

func (c *recordingCache) SetAnalysis(ctx context.Context, key string, rows []domain.ROPRow) error {
	c.analyses[key] = rows
	return nil
}

func (c *recordingCache) GetComparison(ctx context.Context, key string) (*cache.ComparisonEntry, bool, error) {
	entry, ok := c.comparisons[key]
	return entry, ok, nil
}

func (c *recordingCache) SetComparison(ctx context.Context, key string, entry *cache.ComparisonEntry) error {
	c.comparisons[key] = entry
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testService(source DataSource, c cache.AnalysisCache) *AnalysisService {
	return NewAnalysisService(source, engine.New(engine.Config{}), c)
}

func TestRunAnalysis(t *testing.T) {
	source := &stubSource{
		txns: []domain.Transaction{
			{InvoiceDate: day(2024, 1, 1), Dept: "B", ItemID: "SKU-1", Quantity: 10},
		},
		products: []domain.Product{{ItemID: "SKU-1", Name: "Hammer"}},
	}
	svc := testService(source, nil)

	rows, err := svc.RunAnalysis(context.Background(), domain.AnalysisParams{
		Range:  domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 1)},
		Method: domain.MethodTieredABC,
	})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SKU-1", rows[0].ItemID)
	assert.Equal(t, "Jakarta", rows[0].City)
	assert.Equal(t, "Hammer", rows[0].ProductName)
	assert.Equal(t, domain.CategoryA, rows[0].ABC)
}

func TestRunAnalysisInvalidRange(t *testing.T) {
	svc := testService(&stubSource{}, nil)

	_, err := svc.RunAnalysis(context.Background(), domain.AnalysisParams{
		Range:  domain.DateRange{Start: day(2024, 2, 1), End: day(2024, 1, 1)},
		Method: domain.MethodUniform,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestRunAnalysisUnknownMethod(t *testing.T) {
	svc := testService(&stubSource{}, nil)

	_, err := svc.RunAnalysis(context.Background(), domain.AnalysisParams{
		Range:  domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 2)},
		Method: "percentile",
	})

	assert.ErrorIs(t, err, domain.ErrUnknownMethod)
}

func TestRunAnalysisSourceError(t *testing.T) {
	wantErr := errors.New("disk gone")
	svc := testService(&stubSource{err: wantErr}, nil)

	_, err := svc.RunAnalysis(context.Background(), domain.AnalysisParams{
		Range:  domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 2)},
		Method: domain.MethodUniform,
	})

	assert.ErrorIs(t, err, wantErr)
}

func TestRunAnalysisMemoizes(t *testing.T) {
	source := &stubSource{
		txns: []domain.Transaction{
			{InvoiceDate: day(2024, 1, 1), Dept: "B", ItemID: "SKU-1", Quantity: 10},
		},
	}
	c := newRecordingCache()
	svc := testService(source, c)
	params := domain.AnalysisParams{
		Range:  domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 1)},
		Method: domain.MethodTieredABC,
	}

	first, err := svc.RunAnalysis(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, c.analyses, 1)

	second, err := svc.RunAnalysis(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, c.analyses, 1, "the second run hits the cached entry")

	// a different method misses and stores its own entry
	params.Method = domain.MethodUniform
	_, err = svc.RunAnalysis(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, c.analyses, 2)
}

func TestCompareMethods(t *testing.T) {
	source := &stubSource{
		txns: []domain.Transaction{
			{InvoiceDate: day(2024, 1, 1), Dept: "B", ItemID: "SKU-1", Quantity: 5},
			{InvoiceDate: day(2024, 3, 1), Dept: "B", ItemID: "SKU-1", Quantity: 7},
		},
	}
	svc := testService(source, nil)

	rows, summaries, err := svc.CompareMethods(context.Background(), domain.DateRange{
		Start: day(2024, 2, 1), End: day(2024, 2, 9),
	})

	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		assert.Len(t, row.ReorderPoints, len(domain.Methods))
		assert.Len(t, row.Errors, len(domain.Methods))
	}
	// global plus one city per method
	assert.Len(t, summaries, len(domain.Methods)*2)
}

func TestCompareMethodsMemoizes(t *testing.T) {
	source := &stubSource{
		txns: []domain.Transaction{
			{InvoiceDate: day(2024, 1, 1), Dept: "B", ItemID: "SKU-1", Quantity: 5},
			{InvoiceDate: day(2024, 3, 1), Dept: "B", ItemID: "SKU-1", Quantity: 7},
		},
	}
	c := newRecordingCache()
	svc := testService(source, c)
	rng := domain.DateRange{Start: day(2024, 2, 1), End: day(2024, 2, 9)}

	rows1, sums1, err := svc.CompareMethods(context.Background(), rng)
	require.NoError(t, err)
	require.Len(t, c.comparisons, 1)

	rows2, sums2, err := svc.CompareMethods(context.Background(), rng)
	require.NoError(t, err)
	assert.Equal(t, rows1, rows2)
	assert.Equal(t, sums1, sums2)
	assert.Len(t, c.comparisons, 1)
}
