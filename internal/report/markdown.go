package report

import (
	"fmt"
	"strings"

	"ideagen/internal/ranking"
	"ideagen/pkg/models"
)

// Priority tags assigned by composite score band.
const (
	priorityCritical = "🔥 Critical"
	priorityHigh     = "⭐ High Priority"
	priorityMedium   = "✅ Medium Priority"
	priorityLow      = "💡 Low Priority"
)

// WriteMarkdownReport writes a human-readable report of the top-N ranked
// clusters to path.
func WriteMarkdownReport(clusters []models.IdeaCluster, issues []models.NormalizedIssue, path string, topN int, w ranking.Weights) error {
	issuesByID := make(map[int64]*models.NormalizedIssue, len(issues))
	for i := range issues {
		issuesByID[issues[i].ID] = &issues[i]
	}

	top := clusters
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}

	var b strings.Builder
	b.WriteString("# Top Ideas Report\n\n")
	b.WriteString("This report summarizes the highest-priority ideas derived from GitHub issues.\n")
	fmt.Fprintf(&b, "Generated from %d issues, grouped into %d clusters.\n\n", len(issues), len(clusters))
	b.WriteString("## Scoring Configuration\n\n")
	fmt.Fprintf(&b, "- **Novelty Weight**: %.2f\n", w.Novelty)
	fmt.Fprintf(&b, "- **Feasibility Weight**: %.2f\n", w.Feasibility)
	fmt.Fprintf(&b, "- **Desirability Weight**: %.2f\n", w.Desirability)
	fmt.Fprintf(&b, "- **Attention Weight**: %.2f\n\n", w.Attention)
	b.WriteString("---\n\n")

	for rank := range top {
		cluster := &top[rank]
		composite := ranking.CompositeScore(cluster, w)

		fmt.Fprintf(&b, "## %d. %s\n\n", rank+1, cluster.RepresentativeTitle)
		fmt.Fprintf(&b, "**Priority**: %s\n\n", priorityTag(composite, cluster))
		fmt.Fprintf(&b, "**Topic Area**: %s\n\n", cluster.TopicArea)
		b.WriteString("### Summary\n\n")
		b.WriteString(cluster.Summary)
		b.WriteString("\n\n### Metrics\n\n")
		fmt.Fprintf(&b, "- **Composite Score**: %.2f / 1.00\n", composite)
		fmt.Fprintf(&b, "- **Novelty**: %.2f / 1.00\n", cluster.Novelty)
		fmt.Fprintf(&b, "- **Feasibility**: %.2f / 1.00\n", cluster.Feasibility)
		fmt.Fprintf(&b, "- **Desirability**: %.2f / 1.00\n", cluster.Desirability)
		fmt.Fprintf(&b, "- **Attention**: %.2f / 1.00\n\n", cluster.Attention)
		b.WriteString("### Source Issues\n\n")
		for _, id := range cluster.MemberIssueIDs {
			if issue, ok := issuesByID[id]; ok {
				fmt.Fprintf(&b, "- [#%d](%s) - %s\n", issue.Number, issue.URL, issue.Title)
			}
		}
		b.WriteString("\n---\n\n")
	}

	return writeReportFile(path, []byte(b.String()))
}

// WriteEmptyMarkdownReport writes a placeholder report when no issues
// were found.
func WriteEmptyMarkdownReport(path string) error {
	content := "# Top Ideas Report\n\nNo open issues found in the repository.\n"
	return writeReportFile(path, []byte(content))
}

// priorityTag maps a composite score (plus a desirability/feasibility
// fast path) to a display priority band.
func priorityTag(composite float64, cluster *models.IdeaCluster) string {
	switch {
	case composite > 0.75 || (cluster.Desirability > 0.9 && cluster.Feasibility > 0.7):
		return priorityCritical
	case composite > 0.6:
		return priorityHigh
	case composite > 0.45:
		return priorityMedium
	default:
		return priorityLow
	}
}
