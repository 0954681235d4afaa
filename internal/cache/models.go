package cache

import (
	"time"

	"ideagen/pkg/models"
)

// cachedSummary is the database row for one cached summary.
type cachedSummary struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	IssueID      int64   `gorm:"uniqueIndex;not null"`
	SourceNumber int     `gorm:"not null"`
	Title        string  `gorm:"not null"`
	Summary      string  `gorm:"not null"`
	TopicArea    string  `gorm:"not null"`
	Novelty      float64 `gorm:"not null"`
	Feasibility  float64 `gorm:"not null"`
	Desirability float64 `gorm:"not null"`
	Attention    float64 `gorm:"not null"`
	NoiseFlag    bool    `gorm:"not null"`
	RawIssueURL  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName pins the table name independent of GORM pluralization rules.
func (cachedSummary) TableName() string { return "cached_summaries" }

func newCachedSummary(s *models.SummarizedIssue) cachedSummary {
	return cachedSummary{
		IssueID:      s.IssueID,
		SourceNumber: s.SourceNumber,
		Title:        s.Title,
		Summary:      s.Summary,
		TopicArea:    s.TopicArea,
		Novelty:      s.Novelty,
		Feasibility:  s.Feasibility,
		Desirability: s.Desirability,
		Attention:    s.Attention,
		NoiseFlag:    s.NoiseFlag,
		RawIssueURL:  s.RawIssueURL,
	}
}

func (r *cachedSummary) toModel() models.SummarizedIssue {
	return models.SummarizedIssue{
		IssueID:      r.IssueID,
		SourceNumber: r.SourceNumber,
		Title:        r.Title,
		Summary:      r.Summary,
		TopicArea:    r.TopicArea,
		Novelty:      r.Novelty,
		Feasibility:  r.Feasibility,
		Desirability: r.Desirability,
		Attention:    r.Attention,
		NoiseFlag:    r.NoiseFlag,
		RawIssueURL:  r.RawIssueURL,
	}
}
