package cache

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(method domain.Method) domain.AnalysisParams {
	return domain.AnalysisParams{
		Range: domain.DateRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		Method: method,
	}
}

func TestBuildKeyIsDeterministic(t *testing.T) {
	params := testParams(domain.MethodTieredABC)

	first := BuildKey(params, "txn-hash", "product-hash")
	second := BuildKey(params, "txn-hash", "product-hash")

	assert.Equal(t, first, second)
	assert.Len(t, first, 40, "sha1 hex digest")
}

func TestBuildKeyVariesWithInputs(t *testing.T) {
	params := testParams(domain.MethodTieredABC)
	base := BuildKey(params, "txn-hash", "product-hash")

	assert.NotEqual(t, base, BuildKey(testParams(domain.MethodUniform), "txn-hash", "product-hash"))
	assert.NotEqual(t, base, BuildKey(params, "other-txns", "product-hash"))
	assert.NotEqual(t, base, BuildKey(params, "txn-hash", "other-products"))

	shifted := params
	shifted.Range.End = shifted.Range.End.AddDate(0, 0, 1)
	assert.NotEqual(t, base, BuildKey(shifted, "txn-hash", "product-hash"))
}

func TestFingerprintTransactions(t *testing.T) {
	txns := []domain.Transaction{
		{InvoiceDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Dept: "B", Customer: "X", ItemID: "SKU-1", Quantity: 3},
		{InvoiceDate: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), Dept: "C", Customer: "Y", ItemID: "SKU-2", Quantity: 1},
	}

	base := FingerprintTransactions(txns)
	assert.Equal(t, base, FingerprintTransactions(txns), "same values hash identically")

	changed := make([]domain.Transaction, len(txns))
	copy(changed, txns)
	changed[1].Quantity = 2
	assert.NotEqual(t, base, FingerprintTransactions(changed))

	// field boundaries are delimited: moving a character across fields
	// must change the digest
	a := FingerprintTransactions([]domain.Transaction{{Dept: "AB", Customer: "C"}})
	b := FingerprintTransactions([]domain.Transaction{{Dept: "A", Customer: "BC"}})
	assert.NotEqual(t, a, b)
}

func TestFingerprintProducts(t *testing.T) {
	products := []domain.Product{{ItemID: "SKU-1", Brand: "ACME", Category: "Tools", Name: "Hammer"}}

	base := FingerprintProducts(products)
	assert.Equal(t, base, FingerprintProducts(products))

	changed := []domain.Product{{ItemID: "SKU-1", Brand: "ACME", Category: "Tools", Name: "Mallet"}}
	assert.NotEqual(t, base, FingerprintProducts(changed))

	assert.NotEqual(t, FingerprintProducts(nil), base)
	assert.Equal(t, FingerprintProducts(nil), FingerprintProducts([]domain.Product{}))
}

func TestNoopAnalysisCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	c := NewNoopAnalysisCache()

	require.NoError(t, c.SetAnalysis(ctx, "k", []domain.ROPRow{{ItemID: "SKU-1"}}))
	rows, hit, err := c.GetAnalysis(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, rows)

	require.NoError(t, c.SetComparison(ctx, "k", &ComparisonEntry{}))
	entry, hit, err := c.GetComparison(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, entry)

	assert.NoError(t, c.InvalidateAll(ctx))
}
