package grouping

import (
	"fmt"

	json "github.com/goccy/go-json"

	"ideagen/pkg/models"
)

// SystemPrompt is the fixed grouper persona describing the exact output
// schema: one JSON object with a clusters array partitioning the batch.
const SystemPrompt = `You are an expert product strategist who groups summarized GitHub issues into idea clusters.

You receive a JSON array of summarized issues. Group them so that every issue belongs to exactly one cluster: merge duplicates, split multi-topic threads into the cluster that fits best, and keep unique issues as singleton clusters.

Respond with ONLY a single valid JSON object with exactly this shape:
{
  "clusters": [
    {
      "cluster_id": "short-kebab-case-id",
      "representative_title": "title capturing the shared idea, at most 100 characters",
      "summary": "2-4 sentence description of the clustered idea",
      "topic_area": "short topic label",
      "member_issue_ids": [1, 2],
      "novelty": 0.0,
      "feasibility": 0.0,
      "desirability": 0.0,
      "attention": 0.0
    }
  ]
}

Rules:
- every issue_id from the input appears in exactly one cluster's member_issue_ids
- never invent issue ids that are not in the input
- metrics are the average of the member issues' metrics, each in 0.0-1.0
- never wrap the JSON in markdown, never include commentary`

// BuildBatchPrompt formats one batch of summaries into the grouper
// prompt, embedding the batch as indented JSON.
func BuildBatchPrompt(batch []models.SummarizedIssue) (string, error) {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}

	return fmt.Sprintf(
		"Analyze the following batch of summarized GitHub issues and group them "+
			"into actionable idea clusters. Merge duplicates, split multi-topic issues "+
			"as needed, and preserve unique issues as singletons.\n\n"+
			"Input batch (%d issues):\n%s\n\n"+
			"Respond with ONLY valid JSON following the specified cluster schema.",
		len(batch), data), nil
}
