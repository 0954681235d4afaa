package cleaning

import (
	"ideagen/internal/github"
	"ideagen/pkg/models"
)

// NormalizeOptions controls issue normalization.
type NormalizeOptions struct {
	MaxTextLength      int
	NoiseFilterEnabled bool
}

// NormalizeIssue converts a raw GitHub issue and its comments into a
// cleaned, deduplicated, and truncated NormalizedIssue ready for
// summarization.
func NormalizeIssue(issue github.Issue, comments []github.Comment, opts NormalizeOptions) (models.NormalizedIssue, error) {
	cleanedBody := CleanMarkdown(issue.Body)

	normalized := make([]models.NormalizedComment, 0, len(comments))
	for _, comment := range comments {
		author := ""
		if comment.User != nil {
			author = comment.User.Login
		}
		normalized = append(normalized, models.NormalizedComment{
			ID:        comment.ID,
			Author:    author,
			Body:      CleanMarkdown(comment.Body),
			CreatedAt: comment.CreatedAt,
			Reactions: comment.Reactions.Counts(),
		})
	}

	normalized = DeduplicateComments(normalized)
	SortCommentsByTime(normalized)

	truncatedBody, truncatedComments, originalLength, err := TruncateIssueText(cleanedBody, normalized, opts.MaxTextLength)
	if err != nil {
		return models.NormalizedIssue{}, err
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.Name)
	}

	isNoise := false
	noiseReason := ""
	if opts.NoiseFilterEnabled {
		author := ""
		if issue.User != nil {
			author = issue.User.Login
		}
		isNoise, noiseReason = ClassifyNoise(issue.Title, cleanedBody, labels, author)
	}

	return models.NormalizedIssue{
		ID:             issue.ID,
		Number:         issue.Number,
		Title:          issue.Title,
		Body:           truncatedBody,
		Labels:         labels,
		State:          issue.State,
		Reactions:      issue.Reactions.Counts(),
		Comments:       truncatedComments,
		URL:            issue.HTMLURL,
		CreatedAt:      issue.CreatedAt,
		UpdatedAt:      issue.UpdatedAt,
		IsNoise:        isNoise,
		NoiseReason:    noiseReason,
		Truncated:      originalLength > opts.MaxTextLength,
		OriginalLength: originalLength,
	}, nil
}
