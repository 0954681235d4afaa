package summarize

import (
	"fmt"
	"strings"

	"ideagen/pkg/models"
)

// SystemPrompt is the fixed summarizer persona. The model must emit one
// JSON object matching the SummarizedIssue schema.
const SystemPrompt = `You are an expert product analyst who distills GitHub issue threads into concise, actionable idea synopses.

For every issue you receive, respond with ONLY a single valid JSON object with exactly these fields:
{
  "title": "representative title, at most 100 characters",
  "summary": "2-4 sentence synopsis of the underlying idea or problem",
  "topic_area": "short topic label such as 'API', 'Performance', 'Developer Experience'",
  "novelty": 0.0,
  "feasibility": 0.0,
  "desirability": 0.0,
  "attention": 0.0,
  "noise_flag": false
}

Scoring rules:
- novelty: how new or unusual the idea is relative to common feature requests (0.0-1.0)
- feasibility: how practical it is to implement (0.0-1.0)
- desirability: how much value it would deliver to users (0.0-1.0)
- attention: how much community engagement the thread shows - reactions, comment depth (0.0-1.0)
- noise_flag: true only when the issue carries no usable idea (spam, empty, bot traffic)

Never add fields, never wrap the JSON in markdown, never include commentary.`

// Character budgeting for the per-issue prompt: roughly 4 characters per
// token, with a fixed reserve for structure and metadata. The body gets
// 40% of the remainder and comments 60%.
const (
	charsPerToken     = 4
	promptReserve     = 500
	bodyBudgetShare   = 0.4
	commentsShare     = 0.6
	truncationEllipse = "..."
)

// truncateAtWord cuts text to at most maxChars, stepping back to the last
// word boundary, and reports whether anything was cut.
func truncateAtWord(text string, maxChars int) (string, bool) {
	if len(text) <= maxChars {
		return text, false
	}
	cut := text[:maxChars]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + truncationEllipse, true
}

// BuildIssuePrompt formats one normalized issue into the summarizer
// prompt, truncating body and comments to the token-derived budget.
func BuildIssuePrompt(issue *models.NormalizedIssue, maxTokens int) string {
	availableChars := maxTokens*charsPerToken - promptReserve
	bodyBudget := int(float64(availableChars) * bodyBudgetShare)
	commentsBudget := int(float64(availableChars) * commentsShare)

	bodyText, bodyTruncated := truncateAtWord(issue.Body, bodyBudget)

	var commentLines []string
	commentsTruncated := false
	remaining := commentsBudget
	for _, comment := range issue.Comments {
		author := comment.Author
		if author == "" {
			author = "deleted-user"
		}
		line := fmt.Sprintf("- [%s]: %s", author, comment.Body)
		if len(line) > remaining {
			commentsTruncated = true
			break
		}
		commentLines = append(commentLines, line)
		remaining -= len(line) + 1
	}

	parts := []string{
		"Title: " + issue.Title,
		"Body: " + bodyText,
	}
	if bodyTruncated {
		parts = append(parts, "(Body truncated due to length)")
	}
	if len(commentLines) > 0 {
		parts = append(parts, "Comments:\n"+strings.Join(commentLines, "\n"))
		if commentsTruncated {
			parts = append(parts, "(Additional comments truncated)")
		}
	}
	parts = append(parts, fmt.Sprintf("Reactions: %d reactions", issue.TotalReactions()))
	if len(issue.Labels) > 0 {
		parts = append(parts, "Labels: "+strings.Join(issue.Labels, ", "))
	}
	parts = append(parts, "\nAnalyze this issue and respond with ONLY valid JSON following the specified schema.")

	return strings.Join(parts, "\n\n")
}
