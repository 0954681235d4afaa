// Package report renders ranked idea clusters into the JSON and Markdown
// report files consumed downstream.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"ideagen/internal/ranking"
	"ideagen/pkg/models"
)

// ScoredCluster is the JSON report shape: one cluster enriched with its
// composite score, noise provenance, and member issue links.
type ScoredCluster struct {
	models.IdeaCluster
	CompositeScore  float64  `json:"composite_score"`
	HasNoiseMembers bool     `json:"has_noise_members"`
	SourceIssueURLs []string `json:"source_issue_urls"`
}

// BuildScoredClusters enriches ranked clusters for serialization.
func BuildScoredClusters(clusters []models.IdeaCluster, issues []models.NormalizedIssue, w ranking.Weights) []ScoredCluster {
	issuesByID := make(map[int64]*models.NormalizedIssue, len(issues))
	for i := range issues {
		issuesByID[issues[i].ID] = &issues[i]
	}

	scored := make([]ScoredCluster, 0, len(clusters))
	for i := range clusters {
		cluster := clusters[i]

		hasNoise := false
		urls := make([]string, 0, len(cluster.MemberIssueIDs))
		for _, id := range cluster.MemberIssueIDs {
			issue, ok := issuesByID[id]
			if !ok {
				continue
			}
			if issue.IsNoise {
				hasNoise = true
			}
			urls = append(urls, issue.URL)
		}

		scored = append(scored, ScoredCluster{
			IdeaCluster:     cluster,
			CompositeScore:  ranking.CompositeScore(&cluster, w),
			HasNoiseMembers: hasNoise,
			SourceIssueURLs: urls,
		})
	}
	return scored
}

// WriteJSONReport writes the full scored cluster array to path.
func WriteJSONReport(clusters []models.IdeaCluster, issues []models.NormalizedIssue, path string, w ranking.Weights) error {
	scored := BuildScoredClusters(clusters, issues, w)

	data, err := json.MarshalIndent(scored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	return writeReportFile(path, data)
}

// WriteEmptyJSONReport writes an empty cluster array, used when a stage
// produced no data.
func WriteEmptyJSONReport(path string) error {
	return writeReportFile(path, []byte("[]\n"))
}

func writeReportFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
