package models

// IdeaCluster is a named group of summarized issues believed to represent
// one idea. Metrics are the deterministic mean of member metrics, rounded
// to two decimals.
//
// Within one grouping run's output, every processed issue id appears in
// exactly one cluster. Values are rebuilt rather than mutated whenever
// membership or the cluster id changes, so earlier snapshots stay valid.
type IdeaCluster struct {
	ClusterID           string  `json:"cluster_id"`
	RepresentativeTitle string  `json:"representative_title"`
	Summary             string  `json:"summary"`
	TopicArea           string  `json:"topic_area"`
	MemberIssueIDs      []int64 `json:"member_issue_ids"`
	Novelty             float64 `json:"novelty"`
	Feasibility         float64 `json:"feasibility"`
	Desirability        float64 `json:"desirability"`
	Attention           float64 `json:"attention"`
}

// WithID returns a copy of the cluster carrying a new cluster id.
func (c IdeaCluster) WithID(id string) IdeaCluster {
	c.ClusterID = id
	return c
}

// WithMembers returns a copy of the cluster with new membership and
// freshly computed metrics. It never modifies the receiver's slice.
func (c IdeaCluster) WithMembers(ids []int64, metrics Metrics) IdeaCluster {
	members := make([]int64, len(ids))
	copy(members, ids)
	c.MemberIssueIDs = members
	c.Novelty = metrics.Novelty
	c.Feasibility = metrics.Feasibility
	c.Desirability = metrics.Desirability
	c.Attention = metrics.Attention
	return c
}

// Metrics returns the cluster's metric values as a bundle.
func (c *IdeaCluster) Metrics() Metrics {
	return Metrics{
		Novelty:      c.Novelty,
		Feasibility:  c.Feasibility,
		Desirability: c.Desirability,
		Attention:    c.Attention,
	}
}
