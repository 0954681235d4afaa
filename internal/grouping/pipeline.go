// Package grouping runs the grouper persona over summarized issues: it
// batches the workload to bound model context, validates that each model
// response partitions its batch, repairs partition violations
// deterministically, and guarantees globally unique cluster ids across
// batches.
package grouping

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"ideagen/internal/llm"
	"ideagen/pkg/models"
)

// sampling temperature for consistent clustering
const temperature = 0.3

// maxAttempts is the per-batch call budget: the first call plus exactly
// one retry on schema or partition-validation failures.
const maxAttempts = 2

// Generator is the completion capability consumed by the pipeline.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error)
}

// Pipeline groups summarized issues into idea clusters.
type Pipeline struct {
	generator     Generator
	model         string
	maxBatchSize  int
	maxBatchChars int
}

// NewPipeline creates a grouping pipeline bounded by batch size and
// serialized character budget.
func NewPipeline(generator Generator, model string, maxBatchSize, maxBatchChars int) *Pipeline {
	return &Pipeline{
		generator:     generator,
		model:         model,
		maxBatchSize:  maxBatchSize,
		maxBatchChars: maxBatchChars,
	}
}

// GroupSummaries groups summaries into clusters covering exactly the
// processed subset. Batches that still fail after their retry are
// dropped: their issues are excluded from the output, which stays
// internally consistent. Batches run strictly in order because global
// cluster-id uniqueness depends on knowing every previously accepted
// cluster.
func (p *Pipeline) GroupSummaries(ctx context.Context, summaries []models.SummarizedIssue, skipNoise bool) ([]models.IdeaCluster, error) {
	if len(summaries) == 0 {
		log.Info().Msg("No summaries to group")
		return nil, nil
	}

	process := summaries
	if skipNoise {
		process = make([]models.SummarizedIssue, 0, len(summaries))
		for _, s := range summaries {
			if !s.NoiseFlag {
				process = append(process, s)
			}
		}
		if skipped := len(summaries) - len(process); skipped > 0 {
			log.Info().Int("skipped", skipped).Msg("Skipped noise-flagged summaries")
		}
	}
	if len(process) == 0 {
		log.Info().Msg("No non-noise summaries to group")
		return nil, nil
	}

	summariesByID := make(map[int64]models.SummarizedIssue, len(process))
	for _, s := range process {
		summariesByID[s.IssueID] = s
	}

	batches := CreateBatches(process, p.maxBatchSize, p.maxBatchChars)
	log.Info().Int("batches", len(batches)).Int("summaries", len(process)).
		Int("maxBatchSize", p.maxBatchSize).Int("maxBatchChars", p.maxBatchChars).
		Msg("Created grouping batches")

	var accepted []models.IdeaCluster
	acceptedIDs := make(map[string]bool)
	sequence := make(map[string]int)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info().Int("batch", i+1).Int("total", len(batches)).Int("size", len(batch)).Msg("Processing batch")

		clusters, err := p.GroupBatch(ctx, batch, summariesByID)
		if err != nil {
			// Accepted failure: the batch's issues are excluded.
			log.Error().Err(err).Int("batch", i+1).Msg("Failed to process batch, dropping")
			continue
		}

		for _, cluster := range clusters {
			renamed := p.ensureUniqueID(cluster, acceptedIDs, sequence)
			acceptedIDs[renamed.ClusterID] = true
			accepted = append(accepted, renamed)
		}
		log.Info().Int("batch", i+1).Int("clusters", len(clusters)).Msg("Batch grouped")
	}

	resolved := ResolveConflicts(accepted, summariesByID)
	log.Info().Int("clusters", len(resolved)).Int("summaries", len(process)).Msg("Grouping complete")
	return resolved, nil
}

// GroupBatch groups one batch. Schema and partition-validation failures
// get exactly one retry; transport errors end the batch immediately.
func (p *Pipeline) GroupBatch(ctx context.Context, batch []models.SummarizedIssue, summariesByID map[int64]models.SummarizedIssue) ([]models.IdeaCluster, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	prompt, err := BuildBatchPrompt(batch)
	if err != nil {
		return nil, err
	}

	universe := make([]int64, len(batch))
	for i, s := range batch {
		universe[i] = s.IssueID
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		log.Info().Int("size", len(batch)).Int("attempt", attempt).Int("maxAttempts", maxAttempts).Msg("Grouping batch")

		resp, err := p.generator.Generate(ctx, llm.GenerateRequest{
			Model:       p.model,
			Prompt:      prompt,
			System:      SystemPrompt,
			Temperature: temperature,
			Format:      "json",
		})
		if err != nil {
			return nil, fmt.Errorf("grouping request failed: %w", err)
		}

		clusters, err := p.parseResponse(resp, universe, summariesByID)
		if err == nil {
			return clusters, nil
		}

		lastErr = err
		if !retryable(err) || attempt == maxAttempts {
			return nil, err
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Invalid grouping response, retrying batch")
	}

	return nil, lastErr
}

// parseResponse decodes the model output into validated IdeaClusters for
// this batch's universe.
func (p *Pipeline) parseResponse(resp *llm.GenerateResponse, universe []int64, summariesByID map[int64]models.SummarizedIssue) ([]models.IdeaCluster, error) {
	parsed, err := llm.ParseJSONResponse(resp)
	if err != nil {
		return nil, &SchemaError{Detail: err.Error()}
	}

	rawClusters, ok := parsed["clusters"]
	if !ok {
		return nil, &SchemaError{Detail: "response missing 'clusters' field"}
	}

	encoded, err := json.Marshal(rawClusters)
	if err != nil {
		return nil, &SchemaError{Detail: fmt.Sprintf("re-encode clusters: %v", err)}
	}

	var raws []rawCluster
	if err := json.Unmarshal(encoded, &raws); err != nil {
		return nil, &SchemaError{Detail: fmt.Sprintf("'clusters' field must be a list of cluster objects: %v", err)}
	}

	clusters := make([]models.IdeaCluster, 0, len(raws))
	for i, raw := range raws {
		cluster, err := raw.promote(i)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, cluster)
	}

	if verr := ValidatePartition(clusters, universe); verr != nil {
		return nil, verr
	}

	// Metrics are derived state: recompute the mean from members so the
	// output never depends on model arithmetic.
	for i := range clusters {
		members := make([]models.SummarizedIssue, 0, len(clusters[i].MemberIssueIDs))
		for _, id := range clusters[i].MemberIssueIDs {
			members = append(members, summariesByID[id])
		}
		clusters[i] = clusters[i].WithMembers(clusters[i].MemberIssueIDs, AggregateMetrics(members))
	}

	return clusters, nil
}

// ensureUniqueID canonicalizes a cluster id to {topic-slug}-{seq:03d},
// advancing the per-slug sequence until the id is unused. Batches never
// see prior batches' output, so collisions across batches are expected.
func (p *Pipeline) ensureUniqueID(cluster models.IdeaCluster, acceptedIDs map[string]bool, sequence map[string]int) models.IdeaCluster {
	slug := slugifyTopic(cluster.TopicArea)
	seq := sequence[slug]
	if seq == 0 {
		seq = 1
	}

	newID := fmt.Sprintf("%s-%03d", slug, seq)
	for acceptedIDs[newID] {
		seq++
		newID = fmt.Sprintf("%s-%03d", slug, seq)
	}
	sequence[slug] = seq + 1

	if cluster.ClusterID == newID {
		return cluster
	}
	return cluster.WithID(newID)
}

// slugifyTopic normalizes a topic area for use in cluster ids.
func slugifyTopic(topic string) string {
	slug := strings.ToLower(topic)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "/", "-")
	return slug
}
