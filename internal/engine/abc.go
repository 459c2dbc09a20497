// internal/engine/abc.go
package engine

import (
	"sort"

	"github.com/andresuchdata/rop-analytics/internal/domain"
)

// abc cumulative-share cut points, in percent.
const (
	abcCutA = 70.0
	abcCutB = 90.0
)

// classifyABC assigns an ABC category to every series key from its average
// demand, ranked within each city by descending average and cut at the
// 70%/90% cumulative-share thresholds. The cut uses the share accumulated
// by the strictly higher-ranked items, so the top item of a city is always
// A even when it alone carries the whole demand. Items with no positive
// demand get category D explicitly; the percentage cut can never reach them
// because a zero-demand item accumulates no share. The result is total:
// every key in avgDemand receives exactly one category.
func classifyABC(avgDemand map[domain.SeriesKey]float64) map[domain.SeriesKey]domain.ABCCategory {
	byCity := make(map[string][]domain.SeriesKey)
	for key := range avgDemand {
		byCity[key.City] = append(byCity[key.City], key)
	}

	out := make(map[domain.SeriesKey]domain.ABCCategory, len(avgDemand))
	for _, keys := range byCity {
		// rank by descending average demand, item id as tie-breaker so the
		// classification is deterministic
		sort.Slice(keys, func(i, j int) bool {
			di, dj := avgDemand[keys[i]], avgDemand[keys[j]]
			if di != dj {
				return di > dj
			}
			return keys[i].ItemID < keys[j].ItemID
		})

		var total float64
		for _, key := range keys {
			if d := avgDemand[key]; d > 0 {
				total += d
			}
		}

		var cumulative float64
		for _, key := range keys {
			demand := avgDemand[key]
			if demand <= 0 || total <= 0 {
				out[key] = domain.CategoryD
				continue
			}
			switch pct := 100 * cumulative / total; {
			case pct < abcCutA:
				out[key] = domain.CategoryA
			case pct < abcCutB:
				out[key] = domain.CategoryB
			default:
				out[key] = domain.CategoryC
			}
			cumulative += demand
		}
	}

	return out
}
