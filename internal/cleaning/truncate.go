package cleaning

import (
	"fmt"
	"sort"
	"strings"

	"ideagen/pkg/models"
)

// TruncationMarker is appended wherever combined text is cut.
const TruncationMarker = "... [truncated]"

// minCommentSpace is the smallest remaining budget worth filling with a
// partially truncated comment.
const minCommentSpace = 100

// DeduplicateComments drops comments whose normalized body already
// appeared earlier in the list. Order is preserved.
func DeduplicateComments(comments []models.NormalizedComment) []models.NormalizedComment {
	if len(comments) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(comments))
	unique := make([]models.NormalizedComment, 0, len(comments))
	for _, comment := range comments {
		normalized := strings.ToLower(strings.TrimSpace(comment.Body))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		unique = append(unique, comment)
	}
	return unique
}

// TruncateIssueText cuts the combined issue body plus comments down to
// maxLength characters. The issue body is guaranteed at least half the
// budget; comments fill what remains, oldest first. Returns the original
// combined length so callers can record how much was dropped.
func TruncateIssueText(body string, comments []models.NormalizedComment, maxLength int) (string, []models.NormalizedComment, int, error) {
	minRequired := len(TruncationMarker)*2 + 10
	if maxLength < minRequired {
		return "", nil, 0, fmt.Errorf("max length %d too small, need at least %d", maxLength, minRequired)
	}

	originalLength := len(body)
	for _, c := range comments {
		originalLength += len(c.Body)
	}
	if originalLength <= maxLength {
		return body, comments, originalLength, nil
	}

	bodyTarget := min(len(body), maxLength/2)
	truncatedBody := body
	if len(body) > bodyTarget {
		cutAt := max(0, bodyTarget-len(TruncationMarker))
		truncatedBody = body[:cutAt] + TruncationMarker
	}

	commentsSpace := maxLength - len(truncatedBody)
	var kept []models.NormalizedComment
	used := 0
	for _, comment := range comments {
		if used+len(comment.Body) <= commentsSpace {
			kept = append(kept, comment)
			used += len(comment.Body)
			continue
		}
		if remaining := commentsSpace - used; remaining > minCommentSpace {
			cutAt := max(0, remaining-len(TruncationMarker))
			partial := comment
			partial.Body = comment.Body[:cutAt] + TruncationMarker
			kept = append(kept, partial)
		}
		break
	}

	return truncatedBody, kept, originalLength, nil
}

// SortCommentsByTime orders comments by creation time ascending, keeping
// downstream prompts deterministic.
func SortCommentsByTime(comments []models.NormalizedComment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}
