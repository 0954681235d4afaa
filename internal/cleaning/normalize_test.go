package cleaning

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideagen/internal/github"
)

func TestNormalizeIssue(t *testing.T) {
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	issue := github.Issue{
		ID:        501,
		Number:    42,
		Title:     "Support custom export formats",
		Body:      "## Request\nWe need **CSV** export, see [docs](https://example.com).",
		State:     "open",
		HTMLURL:   "https://github.com/acme/widgets/issues/42",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
		User:      &github.User{Login: "octocat"},
		Labels:    []github.Label{{Name: "enhancement"}, {Name: "export"}},
		Reactions: github.Reactions{PlusOne: 5, Heart: 2},
	}
	comments := []github.Comment{
		{ID: 2, Body: "Agreed, `xlsx` too please", User: &github.User{Login: "alice"}, CreatedAt: created.Add(2 * time.Hour)},
		{ID: 1, Body: "*Same* request here", User: &github.User{Login: "bob"}, CreatedAt: created.Add(time.Hour)},
		{ID: 3, Body: "same request here", User: &github.User{Login: "carol"}, CreatedAt: created.Add(3 * time.Hour)},
	}

	got, err := NormalizeIssue(issue, comments, NormalizeOptions{
		MaxTextLength:      20000,
		NoiseFilterEnabled: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(501), got.ID)
	assert.Equal(t, 42, got.Number)
	assert.Equal(t, "Request\nWe need CSV export, see docs.", got.Body)
	assert.Equal(t, []string{"enhancement", "export"}, got.Labels)
	assert.Equal(t, map[string]int{"+1": 5, "heart": 2}, got.Reactions)
	assert.Equal(t, "https://github.com/acme/widgets/issues/42", got.URL)
	assert.False(t, got.IsNoise)
	assert.False(t, got.Truncated)

	// Duplicate comment dropped, remainder sorted oldest first.
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "bob", got.Comments[0].Author)
	assert.Equal(t, "Same request here", got.Comments[0].Body)
	assert.Equal(t, "alice", got.Comments[1].Author)
	assert.Equal(t, "Agreed, xlsx too please", got.Comments[1].Body)
}

func TestNormalizeIssue_NoiseClassification(t *testing.T) {
	issue := github.Issue{
		ID:     502,
		Number: 43,
		Title:  "spam",
		Body:   "x",
		User:   &github.User{Login: "octocat"},
	}

	flagged, err := NormalizeIssue(issue, nil, NormalizeOptions{
		MaxTextLength:      20000,
		NoiseFilterEnabled: true,
	})
	require.NoError(t, err)
	assert.True(t, flagged.IsNoise)
	assert.NotEmpty(t, flagged.NoiseReason)

	unflagged, err := NormalizeIssue(issue, nil, NormalizeOptions{
		MaxTextLength:      20000,
		NoiseFilterEnabled: false,
	})
	require.NoError(t, err)
	assert.False(t, unflagged.IsNoise)
	assert.Empty(t, unflagged.NoiseReason)
}

func TestNormalizeIssue_TruncationRecorded(t *testing.T) {
	issue := github.Issue{
		ID:     503,
		Number: 44,
		Title:  "Very long issue report",
		Body:   strings.Repeat("a", 6000),
		User:   &github.User{Login: "octocat"},
	}

	got, err := NormalizeIssue(issue, nil, NormalizeOptions{MaxTextLength: 1000})
	require.NoError(t, err)
	assert.True(t, got.Truncated)
	assert.Equal(t, 6000, got.OriginalLength)
	assert.LessOrEqual(t, len(got.Body), 1000)
}
