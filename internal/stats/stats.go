// Package stats summarizes latency across a batch of transformed records.
package stats

import (
	"math"
	"sort"

	"nodectl/internal/model"
)

// Summary is a latency snapshot over one batch.
type Summary struct {
	Count        int
	Active       int
	WithLatency  int
	AvgLatencyMs float64
	MinLatencyMs float64
	MaxLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
}

// Summarize computes latency statistics over records. Records without a
// parsed latency count toward Count and Active but not the aggregates.
func Summarize(records []model.Record) Summary {
	s := Summary{Count: len(records)}
	values := make([]float64, 0, len(records))
	var sum float64
	for _, r := range records {
		if r.Active {
			s.Active++
		}
		if r.LatencyMs == nil {
			continue
		}
		values = append(values, *r.LatencyMs)
		sum += *r.LatencyMs
	}
	s.WithLatency = len(values)
	if len(values) == 0 {
		return s
	}

	sort.Float64s(values)
	s.AvgLatencyMs = sum / float64(len(values))
	s.MinLatencyMs = values[0]
	s.MaxLatencyMs = values[len(values)-1]
	s.P50LatencyMs = percentile(values, 0.50)
	s.P95LatencyMs = percentile(values, 0.95)
	return s
}

// percentile uses nearest-rank on a sorted slice.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return values[0]
	}
	if p >= 1 {
		return values[len(values)-1]
	}
	idx := int(math.Ceil(p*float64(len(values)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}
