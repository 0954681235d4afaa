package models

import (
	"errors"
	"fmt"
)

// MaxSummaryTitleLen is the longest representative title the summarizer
// persona is allowed to produce.
const MaxSummaryTitleLen = 100

// SummarizedIssue is the summarizer persona's synopsis of one issue.
// It is immutable once produced; grouping only reads it.
type SummarizedIssue struct {
	IssueID      int64   `json:"issue_id"`
	SourceNumber int     `json:"source_number"`
	Title        string  `json:"title"`
	Summary      string  `json:"summary"`
	TopicArea    string  `json:"topic_area"`
	Novelty      float64 `json:"novelty"`
	Feasibility  float64 `json:"feasibility"`
	Desirability float64 `json:"desirability"`
	Attention    float64 `json:"attention"`
	NoiseFlag    bool    `json:"noise_flag"`
	RawIssueURL  string  `json:"raw_issue_url"`
}

// Validate checks the field constraints the summarizer must honor.
// Every violation is reported; none are silently defaulted.
func (s *SummarizedIssue) Validate() error {
	var errs []error

	if s.Title == "" {
		errs = append(errs, errors.New("title is empty"))
	}
	if len(s.Title) > MaxSummaryTitleLen {
		errs = append(errs, fmt.Errorf("title exceeds %d characters", MaxSummaryTitleLen))
	}
	if s.Summary == "" {
		errs = append(errs, errors.New("summary is empty"))
	}
	if s.TopicArea == "" {
		errs = append(errs, errors.New("topic_area is empty"))
	}
	errs = append(errs, validateMetricRange("novelty", s.Novelty))
	errs = append(errs, validateMetricRange("feasibility", s.Feasibility))
	errs = append(errs, validateMetricRange("desirability", s.Desirability))
	errs = append(errs, validateMetricRange("attention", s.Attention))

	return errors.Join(errs...)
}

func validateMetricRange(name string, v float64) error {
	if v < 0.0 || v > 1.0 {
		return fmt.Errorf("%s %.4f out of range [0,1]", name, v)
	}
	return nil
}

// Metrics bundles the four quality metrics shared by summaries and clusters.
type Metrics struct {
	Novelty      float64 `json:"novelty"`
	Feasibility  float64 `json:"feasibility"`
	Desirability float64 `json:"desirability"`
	Attention    float64 `json:"attention"`
}

// Metrics returns the summary's metric values as a bundle.
func (s *SummarizedIssue) Metrics() Metrics {
	return Metrics{
		Novelty:      s.Novelty,
		Feasibility:  s.Feasibility,
		Desirability: s.Desirability,
		Attention:    s.Attention,
	}
}
