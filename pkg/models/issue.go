package models

import "time"

// NormalizedIssue is a GitHub issue after cleaning: markdown stripped,
// comments deduplicated and ordered, combined text truncated to the
// configured budget, and noise heuristics applied.
type NormalizedIssue struct {
	ID             int64               `json:"id"`
	Number         int                 `json:"number"`
	Title          string              `json:"title"`
	Body           string              `json:"body"`
	Labels         []string            `json:"labels"`
	State          string              `json:"state"`
	Reactions      map[string]int      `json:"reactions,omitempty"`
	Comments       []NormalizedComment `json:"comments"`
	URL            string              `json:"url"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	IsNoise        bool                `json:"is_noise"`
	NoiseReason    string              `json:"noise_reason,omitempty"`
	Truncated      bool                `json:"truncated"`
	OriginalLength int                 `json:"original_length"`
}

// NormalizedComment is one cleaned issue comment.
type NormalizedComment struct {
	ID        int64          `json:"id"`
	Author    string         `json:"author"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	Reactions map[string]int `json:"reactions,omitempty"`
}

// TotalReactions sums reactions across the issue and all its comments.
func (i *NormalizedIssue) TotalReactions() int {
	total := 0
	for _, n := range i.Reactions {
		total += n
	}
	for _, c := range i.Comments {
		for _, n := range c.Reactions {
			total += n
		}
	}
	return total
}
