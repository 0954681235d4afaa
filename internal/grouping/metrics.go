package grouping

import (
	"math"

	"ideagen/pkg/models"
)

// round2 rounds to two decimals, half away from zero. Tests and callers
// rely on this exact mode; do not switch to banker's rounding.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AggregateMetrics computes the arithmetic mean of each metric across the
// given summaries, rounded to two decimals. Empty input yields all zeros.
func AggregateMetrics(members []models.SummarizedIssue) models.Metrics {
	if len(members) == 0 {
		return models.Metrics{}
	}

	var sum models.Metrics
	for _, m := range members {
		sum.Novelty += m.Novelty
		sum.Feasibility += m.Feasibility
		sum.Desirability += m.Desirability
		sum.Attention += m.Attention
	}

	n := float64(len(members))
	return models.Metrics{
		Novelty:      round2(sum.Novelty / n),
		Feasibility:  round2(sum.Feasibility / n),
		Desirability: round2(sum.Desirability / n),
		Attention:    round2(sum.Attention / n),
	}
}
