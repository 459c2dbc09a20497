package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"strconv"
	"time"

	"github.com/andresuchdata/rop-analytics/internal/config"
	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	analysisKeyPrefix     = "rop:analysis"
	comparisonKeyPrefix   = "rop:comparison"
	analysisScanBatchSize = 100
)

// AnalysisCache memoizes analysis results so repeated requests with
// identical inputs and parameters skip the whole computation. Keys are
// derived from value fingerprints, never from object identity, so distinct
// callers holding the same data share entries. Entries expire after the
// configured TTL.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, key string) ([]domain.ROPRow, bool, error)
	SetAnalysis(ctx context.Context, key string, rows []domain.ROPRow) error
	GetComparison(ctx context.Context, key string) (*ComparisonEntry, bool, error)
	SetComparison(ctx context.Context, key string, entry *ComparisonEntry) error
	InvalidateAll(ctx context.Context) error
}

// ComparisonEntry is the cached payload of one method-comparison run.
type ComparisonEntry struct {
	Rows      []domain.ComparisonRow `json:"rows"`
	Summaries []domain.ErrorSummary  `json:"summaries"`
}

type redisAnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAnalysisCache struct{}

// NewAnalysisCache returns a redis-backed cache when enabled, a noop cache
// otherwise.
func NewAnalysisCache(cfg config.CacheConfig) (AnalysisCache, error) {
	if !cfg.Enabled {
		return &noopAnalysisCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisAnalysisCache{client: client, ttl: ttl}, nil
}

// NewNoopAnalysisCache returns a cache that never hits.
func NewNoopAnalysisCache() AnalysisCache {
	return &noopAnalysisCache{}
}

func (c *redisAnalysisCache) GetAnalysis(ctx context.Context, key string) ([]domain.ROPRow, bool, error) {
	payload, err := c.client.Get(ctx, analysisKeyPrefix+":"+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rows []domain.ROPRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("decode analysis cache: %w", err)
	}
	return rows, true, nil
}

func (c *redisAnalysisCache) SetAnalysis(ctx context.Context, key string, rows []domain.ROPRow) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}
	if err := c.client.Set(ctx, analysisKeyPrefix+":"+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAnalysisCache) GetComparison(ctx context.Context, key string) (*ComparisonEntry, bool, error) {
	payload, err := c.client.Get(ctx, comparisonKeyPrefix+":"+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entry ComparisonEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, false, fmt.Errorf("decode comparison cache: %w", err)
	}
	return &entry, true, nil
}

func (c *redisAnalysisCache) SetComparison(ctx context.Context, key string, entry *ComparisonEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode comparison cache: %w", err)
	}
	if err := c.client.Set(ctx, comparisonKeyPrefix+":"+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAnalysisCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, analysisKeyPrefix, analysisScanBatchSize); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, comparisonKeyPrefix, analysisScanBatchSize)
}

func (n *noopAnalysisCache) GetAnalysis(ctx context.Context, key string) ([]domain.ROPRow, bool, error) {
	return nil, false, nil
}

func (n *noopAnalysisCache) SetAnalysis(ctx context.Context, key string, rows []domain.ROPRow) error {
	return nil
}

func (n *noopAnalysisCache) GetComparison(ctx context.Context, key string) (*ComparisonEntry, bool, error) {
	return nil, false, nil
}

func (n *noopAnalysisCache) SetComparison(ctx context.Context, key string, entry *ComparisonEntry) error {
	return nil
}

func (n *noopAnalysisCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// BuildKey derives a cache key from the analysis parameters and the value
// fingerprints of both input tables.
func BuildKey(params domain.AnalysisParams, txnHash, productHash string) string {
	sum := sha1.Sum([]byte(fmt.Sprintf(
		"start=%s|end=%s|method=%s|txns=%s|products=%s",
		params.Range.Start.Format("2006-01-02"),
		params.Range.End.Format("2006-01-02"),
		params.Method,
		txnHash,
		productHash,
	)))
	return hex.EncodeToString(sum[:])
}

// FingerprintTransactions hashes a transaction slice by value.
func FingerprintTransactions(txns []domain.Transaction) string {
	h := sha1.New()
	for _, t := range txns {
		writeHashField(h, t.InvoiceDate.Format("2006-01-02"))
		writeHashField(h, t.Dept)
		writeHashField(h, t.Customer)
		writeHashField(h, t.ItemID)
		writeHashField(h, strconv.FormatFloat(t.Quantity, 'g', -1, 64))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FingerprintProducts hashes a product reference slice by value.
func FingerprintProducts(products []domain.Product) string {
	h := sha1.New()
	for _, p := range products {
		writeHashField(h, p.ItemID)
		writeHashField(h, p.Brand)
		writeHashField(h, p.Category)
		writeHashField(h, p.Name)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeHashField(h hash.Hash, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0})
}
