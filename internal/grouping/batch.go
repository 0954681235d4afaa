package grouping

import (
	json "github.com/goccy/go-json"

	"ideagen/pkg/models"
)

// CreateBatches splits summaries into batches of at most maxCount items
// and at most maxChars serialized characters, preserving input order.
// A single summary larger than maxChars still gets its own batch; it is
// never split or dropped.
func CreateBatches(summaries []models.SummarizedIssue, maxCount, maxChars int) [][]models.SummarizedIssue {
	if len(summaries) == 0 {
		return nil
	}

	var batches [][]models.SummarizedIssue
	var current []models.SummarizedIssue
	currentChars := 0

	for _, summary := range summaries {
		cost := serializedLen(summary)

		exceedsCount := len(current) >= maxCount
		exceedsChars := currentChars+cost > maxChars

		if len(current) > 0 && (exceedsCount || exceedsChars) {
			batches = append(batches, current)
			current = []models.SummarizedIssue{summary}
			currentChars = cost
			continue
		}
		current = append(current, summary)
		currentChars += cost
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// serializedLen is the canonical character cost of one summary: the
// length of its JSON form, the same shape embedded in batch prompts.
func serializedLen(summary models.SummarizedIssue) int {
	data, err := json.Marshal(summary)
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the planner total.
		return 0
	}
	return len(data)
}
