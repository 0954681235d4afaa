// Package ranking orders idea clusters for reporting using a weighted
// composite score with a fully deterministic tie-break chain.
package ranking

import (
	"sort"

	"ideagen/pkg/models"
)

// Weights are the caller-supplied composite score weights. They are not
// renormalized: weights that do not sum to 1.0 simply produce an
// unbounded score, which only affects display, never correctness.
type Weights struct {
	Novelty      float64
	Feasibility  float64
	Desirability float64
	Attention    float64
}

// CompositeScore is the weighted sum of a cluster's four metrics.
func CompositeScore(cluster *models.IdeaCluster, w Weights) float64 {
	return cluster.Novelty*w.Novelty +
		cluster.Feasibility*w.Feasibility +
		cluster.Desirability*w.Desirability +
		cluster.Attention*w.Attention
}

// Rank returns the clusters sorted by, in order: composite score
// descending, desirability descending, feasibility descending, and
// representative title ascending (case-sensitive). Titles are unique in
// practice, so the chain yields a total order; the sort is stable, making
// repeated ranking idempotent. The input slice is not modified.
func Rank(clusters []models.IdeaCluster, w Weights) []models.IdeaCluster {
	if len(clusters) == 0 {
		return nil
	}

	ranked := make([]models.IdeaCluster, len(clusters))
	copy(ranked, clusters)

	scores := make(map[string]float64, len(ranked))
	for i := range ranked {
		scores[ranked[i].ClusterID] = CompositeScore(&ranked[i], w)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]
		if sa, sb := scores[a.ClusterID], scores[b.ClusterID]; sa != sb {
			return sa > sb
		}
		if a.Desirability != b.Desirability {
			return a.Desirability > b.Desirability
		}
		if a.Feasibility != b.Feasibility {
			return a.Feasibility > b.Feasibility
		}
		return a.RepresentativeTitle < b.RepresentativeTitle
	})

	return ranked
}
