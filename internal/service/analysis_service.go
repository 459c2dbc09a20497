// internal/service/analysis_service.go
package service

import (
	"context"
	"fmt"

	"github.com/andresuchdata/rop-analytics/internal/cache"
	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/andresuchdata/rop-analytics/internal/engine"
	"github.com/rs/zerolog/log"
)

// DataSource supplies the two tabular inputs of an analysis run. Loading
// and refreshing the underlying files is the collaborator's concern; the
// service only consumes immutable snapshots.
type DataSource interface {
	Transactions(ctx context.Context) ([]domain.Transaction, error)
	Products(ctx context.Context) ([]domain.Product, error)
}

// AnalysisService orchestrates one analysis run: load inputs, consult the
// memoization cache, run the engine, store the result.
type AnalysisService struct {
	source DataSource
	engine *engine.Engine
	cache  cache.AnalysisCache
}

func NewAnalysisService(source DataSource, eng *engine.Engine, cacheImpl cache.AnalysisCache) *AnalysisService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalysisCache()
	}
	return &AnalysisService{source: source, engine: eng, cache: cacheImpl}
}

// RunAnalysis computes the ROP table for one method over the given range.
func (s *AnalysisService) RunAnalysis(ctx context.Context, params domain.AnalysisParams) ([]domain.ROPRow, error) {
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}

	txns, products, key, err := s.loadInputs(ctx, params)
	if err != nil {
		return nil, err
	}

	if rows, ok, err := s.cache.GetAnalysis(ctx, key); err == nil && ok {
		return rows, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analysis: cache get failed")
	}

	metrics, err := s.engine.BaseMetrics(txns, products, params.Range)
	if err != nil {
		return nil, fmt.Errorf("compute base metrics: %w", err)
	}
	rows, err := s.engine.ApplyROP(metrics, params.Method)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetAnalysis(ctx, key, rows); err != nil {
		log.Warn().Err(err).Msg("analysis: cache set failed")
	}

	return rows, nil
}

// CompareMethods computes all three methods on one shared metrics table and
// scores their errors against realized forward demand.
func (s *AnalysisService) CompareMethods(ctx context.Context, rng domain.DateRange) ([]domain.ComparisonRow, []domain.ErrorSummary, error) {
	if err := rng.Validate(); err != nil {
		return nil, nil, err
	}

	params := domain.AnalysisParams{Range: rng, Method: "compare"}
	txns, products, key, err := s.loadInputs(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	if entry, ok, err := s.cache.GetComparison(ctx, key); err == nil && ok {
		return entry.Rows, entry.Summaries, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("comparison: cache get failed")
	}

	metrics, err := s.engine.BaseMetrics(txns, products, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("compute base metrics: %w", err)
	}
	rows, err := s.engine.CompareMethods(metrics)
	if err != nil {
		return nil, nil, err
	}
	summaries := engine.ScoreErrors(rows)

	if err := s.cache.SetComparison(ctx, key, &cache.ComparisonEntry{Rows: rows, Summaries: summaries}); err != nil {
		log.Warn().Err(err).Msg("comparison: cache set failed")
	}

	return rows, summaries, nil
}

// loadInputs fetches both tables and derives the value-based cache key.
func (s *AnalysisService) loadInputs(ctx context.Context, params domain.AnalysisParams) ([]domain.Transaction, []domain.Product, string, error) {
	txns, err := s.source.Transactions(ctx)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load transactions: %w", err)
	}
	products, err := s.source.Products(ctx)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load products: %w", err)
	}

	key := cache.BuildKey(params, cache.FingerprintTransactions(txns), cache.FingerprintProducts(products))
	return txns, products, key, nil
}
