package report

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideagen/internal/ranking"
	"ideagen/pkg/models"
)

var testWeights = ranking.Weights{
	Novelty:      0.25,
	Feasibility:  0.25,
	Desirability: 0.30,
	Attention:    0.20,
}

func testIssues() []models.NormalizedIssue {
	return []models.NormalizedIssue{
		{ID: 1, Number: 11, Title: "First issue", URL: "https://github.com/acme/widgets/issues/11"},
		{ID: 2, Number: 12, Title: "Second issue", URL: "https://github.com/acme/widgets/issues/12", IsNoise: true},
		{ID: 3, Number: 13, Title: "Third issue", URL: "https://github.com/acme/widgets/issues/13"},
	}
}

func testClusters() []models.IdeaCluster {
	return []models.IdeaCluster{
		{
			ClusterID:           "export-001",
			RepresentativeTitle: "Better export options",
			Summary:             "Users want richer export formats.",
			TopicArea:           "Export",
			MemberIssueIDs:      []int64{1, 2},
			Novelty:             0.6,
			Feasibility:         0.8,
			Desirability:        0.9,
			Attention:           0.7,
		},
		{
			ClusterID:           "perf-001",
			RepresentativeTitle: "Faster startup",
			Summary:             "Startup time is too slow.",
			TopicArea:           "Performance",
			MemberIssueIDs:      []int64{3},
			Novelty:             0.2,
			Feasibility:         0.4,
			Desirability:        0.3,
			Attention:           0.2,
		},
	}
}

func TestBuildScoredClusters(t *testing.T) {
	scored := BuildScoredClusters(testClusters(), testIssues(), testWeights)

	require.Len(t, scored, 2)

	first := scored[0]
	assert.Equal(t, "export-001", first.ClusterID)
	assert.InDelta(t, 0.6*0.25+0.8*0.25+0.9*0.30+0.7*0.20, first.CompositeScore, 1e-9)
	assert.True(t, first.HasNoiseMembers, "issue 2 is noise-flagged")
	assert.Equal(t, []string{
		"https://github.com/acme/widgets/issues/11",
		"https://github.com/acme/widgets/issues/12",
	}, first.SourceIssueURLs)

	second := scored[1]
	assert.False(t, second.HasNoiseMembers)
	assert.Equal(t, []string{"https://github.com/acme/widgets/issues/13"}, second.SourceIssueURLs)
}

func TestBuildScoredClusters_UnknownMemberSkipped(t *testing.T) {
	clusters := []models.IdeaCluster{{
		ClusterID:      "x-001",
		MemberIssueIDs: []int64{1, 999},
	}}

	scored := BuildScoredClusters(clusters, testIssues(), testWeights)

	require.Len(t, scored, 1)
	assert.Equal(t, []string{"https://github.com/acme/widgets/issues/11"}, scored[0].SourceIssueURLs)
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "ideas.json")

	require.NoError(t, WriteJSONReport(testClusters(), testIssues(), path, testWeights))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []ScoredCluster
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "export-001", decoded[0].ClusterID)
	assert.NotZero(t, decoded[0].CompositeScore)
}

func TestWriteEmptyJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideas.json")

	require.NoError(t, WriteEmptyJSONReport(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestWriteMarkdownReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top-ideas.md")

	require.NoError(t, WriteMarkdownReport(testClusters(), testIssues(), path, 10, testWeights))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "# Top Ideas Report")
	assert.Contains(t, content, "## 1. Better export options")
	assert.Contains(t, content, "## 2. Faster startup")
	assert.Contains(t, content, "**Topic Area**: Export")
	assert.Contains(t, content, "[#11](https://github.com/acme/widgets/issues/11) - First issue")
	assert.Contains(t, content, "**Novelty Weight**: 0.25")
}

func TestWriteMarkdownReport_TopNLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top-ideas.md")

	require.NoError(t, WriteMarkdownReport(testClusters(), testIssues(), path, 1, testWeights))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "## 1. Better export options")
	assert.NotContains(t, content, "Faster startup")
	// The header still reports the full cluster count.
	assert.Contains(t, content, "grouped into 2 clusters")
}

func TestWriteEmptyMarkdownReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top-ideas.md")

	require.NoError(t, WriteEmptyMarkdownReport(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No open issues found")
}

func TestPriorityTag(t *testing.T) {
	tests := []struct {
		name      string
		composite float64
		cluster   models.IdeaCluster
		want      string
	}{
		{"critical by score", 0.8, models.IdeaCluster{}, priorityCritical},
		{"critical by desirability fast path", 0.5, models.IdeaCluster{Desirability: 0.95, Feasibility: 0.8}, priorityCritical},
		{"high", 0.65, models.IdeaCluster{}, priorityHigh},
		{"medium", 0.5, models.IdeaCluster{}, priorityMedium},
		{"low", 0.3, models.IdeaCluster{}, priorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, priorityTag(tt.composite, &tt.cluster))
		})
	}
}
