// internal/engine/engine.go
package engine

import (
	"math"

	"github.com/andresuchdata/rop-analytics/internal/domain"
)

// Config holds the engine constants. Zero values fall back to the defaults
// used by the original analysis: a 21-day replenishment lead time and a
// 90-day statistics window.
type Config struct {
	LeadTimeDays int
	WindowDays   int
}

const (
	defaultLeadTimeDays = 21
	defaultWindowDays   = 90

	// wmaBaseDays is the period the weighted moving average represents.
	// The WMA blends 30/60/90-day sums into a per-30-day demand figure,
	// so lead-time scaling is expressed relative to 30 days.
	wmaBaseDays = 30
)

// Engine computes reorder-point metrics from raw sales transactions. It is
// a pure batch calculator: no state is mutated between runs and identical
// inputs always produce identical outputs.
type Engine struct {
	leadTimeDays int
	windowDays   int
}

// New creates an engine, applying defaults for unset config fields.
func New(cfg Config) *Engine {
	if cfg.LeadTimeDays <= 0 {
		cfg.LeadTimeDays = defaultLeadTimeDays
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = defaultWindowDays
	}
	return &Engine{
		leadTimeDays: cfg.LeadTimeDays,
		windowDays:   cfg.WindowDays,
	}
}

// LeadTimeDays returns the replenishment lead time the engine assumes.
func (e *Engine) LeadTimeDays() int {
	return e.leadTimeDays
}

// leadTimeRatio converts a per-30-day demand figure into a per-lead-time one.
func (e *Engine) leadTimeRatio() float64 {
	return float64(e.leadTimeDays) / float64(wmaBaseDays)
}

// safetyStockFactor scales the window-based standard deviation to the lead
// time, assuming independent daily demand.
func (e *Engine) safetyStockFactor() float64 {
	return math.Sqrt(e.leadTimeRatio())
}

// workingWindow derives the internal computation window: the requested
// range padded with WindowDays of history to seed the rolling statistics
// and LeadTimeDays of future to compute realized forward demand.
func (e *Engine) workingWindow(r domain.DateRange) domain.DateRange {
	return r.Extend(e.windowDays, e.leadTimeDays)
}
