package grouping

import (
	"sort"

	"github.com/rs/zerolog/log"

	"ideagen/pkg/models"
)

// ResolveConflicts assigns every issue id claimed by two or more
// clusters to exactly one of them. Clusters are ordered by cluster id
// ascending and the first claimant in that order keeps the id; later
// claimants lose it. Clusters are rebuilt rather than mutated, clusters
// left with no members are dropped, and any cluster whose membership
// shrank gets its metrics recomputed from the retained members.
//
// Cross-batch overlap is expected, so this is informational, never an
// error.
func ResolveConflicts(clusters []models.IdeaCluster, summariesByID map[int64]models.SummarizedIssue) []models.IdeaCluster {
	ordered := make([]models.IdeaCluster, len(clusters))
	copy(ordered, clusters)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ClusterID < ordered[j].ClusterID
	})

	assignments := make(map[int64]string)
	conflicts := 0
	for _, cluster := range ordered {
		for _, id := range cluster.MemberIssueIDs {
			if _, taken := assignments[id]; taken {
				conflicts++
				continue
			}
			assignments[id] = cluster.ClusterID
		}
	}

	if conflicts == 0 {
		return clusters
	}
	log.Warn().Int("conflicts", conflicts).Msg("Resolving overlapping issue assignments")

	resolved := make([]models.IdeaCluster, 0, len(ordered))
	for _, cluster := range ordered {
		var retained []int64
		for _, id := range cluster.MemberIssueIDs {
			if assignments[id] == cluster.ClusterID {
				retained = append(retained, id)
			}
		}

		if len(retained) == 0 {
			log.Warn().Str("clusterId", cluster.ClusterID).Msg("Cluster has no members after resolution, dropping")
			continue
		}

		if len(retained) != len(cluster.MemberIssueIDs) {
			members := make([]models.SummarizedIssue, 0, len(retained))
			for _, id := range retained {
				if summary, ok := summariesByID[id]; ok {
					members = append(members, summary)
				}
			}
			cluster = cluster.WithMembers(retained, AggregateMetrics(members))
		}

		resolved = append(resolved, cluster)
	}

	return resolved
}
