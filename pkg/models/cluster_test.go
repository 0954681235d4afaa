package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdeaCluster_WithID(t *testing.T) {
	original := IdeaCluster{
		ClusterID:      "api-001",
		TopicArea:      "API",
		MemberIssueIDs: []int64{1, 2},
	}

	renamed := original.WithID("api-002")

	assert.Equal(t, "api-002", renamed.ClusterID)
	assert.Equal(t, "api-001", original.ClusterID, "receiver must not change")
	assert.Equal(t, original.MemberIssueIDs, renamed.MemberIssueIDs)
}

func TestIdeaCluster_WithMembers(t *testing.T) {
	original := IdeaCluster{
		ClusterID:      "perf-001",
		MemberIssueIDs: []int64{1, 2, 3},
		Novelty:        0.5,
		Desirability:   0.5,
	}

	ids := []int64{1, 3}
	rebuilt := original.WithMembers(ids, Metrics{
		Novelty:      0.7,
		Feasibility:  0.6,
		Desirability: 0.8,
		Attention:    0.4,
	})

	assert.Equal(t, []int64{1, 3}, rebuilt.MemberIssueIDs)
	assert.Equal(t, 0.7, rebuilt.Novelty)
	assert.Equal(t, 0.8, rebuilt.Desirability)
	assert.Equal(t, []int64{1, 2, 3}, original.MemberIssueIDs, "receiver must not change")

	// The rebuilt cluster owns its slice.
	ids[0] = 99
	assert.Equal(t, []int64{1, 3}, rebuilt.MemberIssueIDs)
}

func TestIdeaCluster_Metrics(t *testing.T) {
	c := IdeaCluster{Novelty: 0.1, Feasibility: 0.2, Desirability: 0.3, Attention: 0.4}
	assert.Equal(t, Metrics{Novelty: 0.1, Feasibility: 0.2, Desirability: 0.3, Attention: 0.4}, c.Metrics())
}
