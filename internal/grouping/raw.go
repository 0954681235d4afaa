package grouping

import (
	"fmt"

	"ideagen/pkg/models"
)

// rawCluster is the strictly checked intermediate between the model's
// loosely typed JSON and the core IdeaCluster. Pointer fields
// distinguish absent from zero; absence and out-of-range values are
// schema errors, never silent defaults.
type rawCluster struct {
	ClusterID           *string  `json:"cluster_id"`
	RepresentativeTitle *string  `json:"representative_title"`
	Summary             *string  `json:"summary"`
	TopicArea           *string  `json:"topic_area"`
	MemberIssueIDs      []int64  `json:"member_issue_ids"`
	Novelty             *float64 `json:"novelty"`
	Feasibility         *float64 `json:"feasibility"`
	Desirability        *float64 `json:"desirability"`
	Attention           *float64 `json:"attention"`
}

// promote validates the raw cluster and converts it to an IdeaCluster.
// index identifies the cluster in error messages when its id is missing.
func (r *rawCluster) promote(index int) (models.IdeaCluster, error) {
	name := fmt.Sprintf("cluster[%d]", index)
	if r.ClusterID != nil && *r.ClusterID != "" {
		name = fmt.Sprintf("cluster %q", *r.ClusterID)
	}

	requiredStrings := map[string]*string{
		"cluster_id":           r.ClusterID,
		"representative_title": r.RepresentativeTitle,
		"summary":              r.Summary,
		"topic_area":           r.TopicArea,
	}
	for field, v := range requiredStrings {
		if v == nil || *v == "" {
			return models.IdeaCluster{}, &SchemaError{Detail: fmt.Sprintf("%s missing field %s", name, field)}
		}
	}

	if len(r.MemberIssueIDs) == 0 {
		return models.IdeaCluster{}, &SchemaError{Detail: fmt.Sprintf("%s has no member_issue_ids", name)}
	}

	requiredMetrics := map[string]*float64{
		"novelty":      r.Novelty,
		"feasibility":  r.Feasibility,
		"desirability": r.Desirability,
		"attention":    r.Attention,
	}
	for field, v := range requiredMetrics {
		if v == nil {
			return models.IdeaCluster{}, &SchemaError{Detail: fmt.Sprintf("%s missing metric %s", name, field)}
		}
		if *v < 0.0 || *v > 1.0 {
			return models.IdeaCluster{}, &SchemaError{Detail: fmt.Sprintf("%s metric %s %.4f out of range [0,1]", name, field, *v)}
		}
	}

	members := make([]int64, len(r.MemberIssueIDs))
	copy(members, r.MemberIssueIDs)

	return models.IdeaCluster{
		ClusterID:           *r.ClusterID,
		RepresentativeTitle: *r.RepresentativeTitle,
		Summary:             *r.Summary,
		TopicArea:           *r.TopicArea,
		MemberIssueIDs:      members,
		Novelty:             *r.Novelty,
		Feasibility:         *r.Feasibility,
		Desirability:        *r.Desirability,
		Attention:           *r.Attention,
	}, nil
}
