package grouping

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, payload string) rawCluster {
	t.Helper()
	var raw rawCluster
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return raw
}

const completeCluster = `{
	"cluster_id": "api-001",
	"representative_title": "Improve API ergonomics",
	"summary": "Several issues ask for a friendlier API.",
	"topic_area": "API",
	"member_issue_ids": [1, 2],
	"novelty": 0.5,
	"feasibility": 0.6,
	"desirability": 0.7,
	"attention": 0.4
}`

func TestRawCluster_Promote(t *testing.T) {
	raw := decodeRaw(t, completeCluster)

	cluster, err := raw.promote(0)
	require.NoError(t, err)

	assert.Equal(t, "api-001", cluster.ClusterID)
	assert.Equal(t, []int64{1, 2}, cluster.MemberIssueIDs)
	assert.Equal(t, 0.7, cluster.Desirability)
}

func TestRawCluster_PromoteMissingStringField(t *testing.T) {
	raw := decodeRaw(t, completeCluster)
	raw.Summary = nil

	_, err := raw.promote(0)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Detail, "summary")
}

func TestRawCluster_PromoteNoMembers(t *testing.T) {
	raw := decodeRaw(t, completeCluster)
	raw.MemberIssueIDs = nil

	_, err := raw.promote(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "member_issue_ids")
}

func TestRawCluster_PromoteMissingMetric(t *testing.T) {
	raw := decodeRaw(t, completeCluster)
	raw.Attention = nil

	_, err := raw.promote(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attention")
}

func TestRawCluster_PromoteMetricOutOfRange(t *testing.T) {
	raw := decodeRaw(t, completeCluster)
	bad := 1.5
	raw.Novelty = &bad

	_, err := raw.promote(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestRawCluster_PromoteZeroMetricIsValid(t *testing.T) {
	raw := decodeRaw(t, completeCluster)
	zero := 0.0
	raw.Novelty = &zero

	cluster, err := raw.promote(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cluster.Novelty)
}

func TestRawCluster_PromoteNamesAnonymousClusterByIndex(t *testing.T) {
	raw := decodeRaw(t, completeCluster)
	raw.ClusterID = nil

	_, err := raw.promote(3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster[3]")
}
