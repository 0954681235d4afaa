package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideagen/pkg/models"
)

func summariesByIDMap(summaries ...models.SummarizedIssue) map[int64]models.SummarizedIssue {
	m := make(map[int64]models.SummarizedIssue, len(summaries))
	for _, s := range summaries {
		m[s.IssueID] = s
	}
	return m
}

func TestResolveConflicts_NoConflicts(t *testing.T) {
	clusters := []models.IdeaCluster{
		clusterWith("b-001", 3),
		clusterWith("a-001", 1, 2),
	}

	resolved := ResolveConflicts(clusters, nil)

	// Conflict-free input is returned as-is, original order included.
	assert.Equal(t, clusters, resolved)
}

func TestResolveConflicts_FirstClaimantWins(t *testing.T) {
	byID := summariesByIDMap(
		metricSummary(1, 0.2, 0.2, 0.2, 0.2),
		metricSummary(2, 0.4, 0.4, 0.4, 0.4),
		metricSummary(3, 0.8, 0.8, 0.8, 0.8),
	)
	clusters := []models.IdeaCluster{
		clusterWith("b-001", 2, 3),
		clusterWith("a-001", 1, 2),
	}

	resolved := ResolveConflicts(clusters, byID)

	require.Len(t, resolved, 2)
	// Cluster id ascending: a-001 claims 2 first, b-001 keeps only 3.
	assert.Equal(t, "a-001", resolved[0].ClusterID)
	assert.Equal(t, []int64{1, 2}, resolved[0].MemberIssueIDs)
	assert.Equal(t, "b-001", resolved[1].ClusterID)
	assert.Equal(t, []int64{3}, resolved[1].MemberIssueIDs)
}

func TestResolveConflicts_MetricsRecomputedAfterShrink(t *testing.T) {
	byID := summariesByIDMap(
		metricSummary(1, 0.2, 0.2, 0.2, 0.2),
		metricSummary(2, 0.4, 0.4, 0.4, 0.4),
		metricSummary(3, 0.8, 0.8, 0.8, 0.8),
	)
	clusters := []models.IdeaCluster{
		clusterWith("a-001", 1, 2),
		clusterWith("b-001", 2, 3),
	}

	resolved := ResolveConflicts(clusters, byID)

	require.Len(t, resolved, 2)
	// a-001 keeps both members, so its metrics are untouched.
	assert.Equal(t, 0.5, resolved[0].Novelty)
	// b-001 shrank to {3}: metrics become the mean of the survivors.
	assert.Equal(t, []int64{3}, resolved[1].MemberIssueIDs)
	assert.Equal(t, 0.8, resolved[1].Novelty)
	assert.Equal(t, 0.8, resolved[1].Attention)
}

func TestResolveConflicts_EmptiedClusterDropped(t *testing.T) {
	byID := summariesByIDMap(
		metricSummary(1, 0.2, 0.2, 0.2, 0.2),
		metricSummary(2, 0.4, 0.4, 0.4, 0.4),
	)
	clusters := []models.IdeaCluster{
		clusterWith("a-001", 1, 2),
		clusterWith("b-001", 1, 2),
	}

	resolved := ResolveConflicts(clusters, byID)

	require.Len(t, resolved, 1)
	assert.Equal(t, "a-001", resolved[0].ClusterID)
	assert.Equal(t, []int64{1, 2}, resolved[0].MemberIssueIDs)
}

func TestResolveConflicts_InputNotMutated(t *testing.T) {
	byID := summariesByIDMap(
		metricSummary(1, 0.2, 0.2, 0.2, 0.2),
		metricSummary(2, 0.4, 0.4, 0.4, 0.4),
	)
	clusters := []models.IdeaCluster{
		clusterWith("a-001", 1),
		clusterWith("b-001", 1, 2),
	}

	_ = ResolveConflicts(clusters, byID)

	assert.Equal(t, []int64{1}, clusters[0].MemberIssueIDs)
	assert.Equal(t, []int64{1, 2}, clusters[1].MemberIssueIDs)
	assert.Equal(t, 0.5, clusters[1].Novelty)
}
