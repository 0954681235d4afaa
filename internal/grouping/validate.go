package grouping

import (
	"fmt"
	"sort"
	"strings"

	"ideagen/pkg/models"
)

// ValidatePartition checks that the clusters form an exact partition of
// the id universe: no unknown members, no id claimed twice, no id left
// uncovered. All three checks run to completion so one bad response
// reports every violation at once. A nil return means the partition is
// valid.
func ValidatePartition(clusters []models.IdeaCluster, universe []int64) *ValidationError {
	valid := make(map[int64]bool, len(universe))
	for _, id := range universe {
		valid[id] = true
	}

	var problems []string
	claimedBy := make(map[int64]string, len(universe))

	for _, cluster := range clusters {
		var unknown []int64
		for _, id := range cluster.MemberIssueIDs {
			if !valid[id] {
				unknown = append(unknown, id)
			}
		}
		if len(unknown) > 0 {
			problems = append(problems, fmt.Sprintf(
				"cluster %q references unknown issue ids: %s", cluster.ClusterID, formatIDs(unknown)))
		}

		for _, id := range cluster.MemberIssueIDs {
			if first, dup := claimedBy[id]; dup {
				problems = append(problems, fmt.Sprintf(
					"issue %d assigned to multiple clusters: %q and %q", id, first, cluster.ClusterID))
				continue
			}
			claimedBy[id] = cluster.ClusterID
		}
	}

	var uncovered []int64
	for _, id := range universe {
		if _, ok := claimedBy[id]; !ok {
			uncovered = append(uncovered, id)
		}
	}
	if len(uncovered) > 0 {
		sort.Slice(uncovered, func(i, j int) bool { return uncovered[i] < uncovered[j] })
		problems = append(problems, fmt.Sprintf(
			"issues not assigned to any cluster: %s", formatIDs(uncovered)))
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
