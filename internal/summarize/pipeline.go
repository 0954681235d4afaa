// Package summarize runs the summarizer persona over normalized issues,
// one issue at a time to keep model context small. Successful summaries
// are cached by issue id; failures skip the issue without aborting the
// run.
package summarize

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"

	"ideagen/internal/llm"
	"ideagen/pkg/models"
)

// sampling temperature for consistent summarizer output
const temperature = 0.3

// Generator is the completion capability consumed by the pipeline.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error)
}

// Cache stores successful summaries between runs. A nil Cache disables
// caching.
type Cache interface {
	GetSummary(ctx context.Context, issueID int64) (*models.SummarizedIssue, error)
	PutSummary(ctx context.Context, summary *models.SummarizedIssue) error
}

// Pipeline summarizes normalized issues with the summarizer persona.
type Pipeline struct {
	generator Generator
	cache     Cache
	model     string
	maxTokens int
	codec     tokenizer.Codec
}

// NewPipeline creates a summarization pipeline. maxTokens bounds the
// per-issue prompt budget.
func NewPipeline(generator Generator, cache Cache, model string, maxTokens int) *Pipeline {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		// Budgeting falls back to the 4-chars-per-token estimate.
		log.Warn().Err(err).Msg("Tokenizer unavailable, using character estimate only")
		codec = nil
	}
	return &Pipeline{
		generator: generator,
		cache:     cache,
		model:     model,
		maxTokens: maxTokens,
		codec:     codec,
	}
}

// SummarizeIssue summarizes one issue. Cached results are returned
// without a model call unless skipCache is set.
func (p *Pipeline) SummarizeIssue(ctx context.Context, issue *models.NormalizedIssue, skipCache bool) (*models.SummarizedIssue, error) {
	if !skipCache && p.cache != nil {
		cached, err := p.cache.GetSummary(ctx, issue.ID)
		if err != nil {
			log.Warn().Err(err).Int64("issueId", issue.ID).Msg("Failed to read summary cache")
		} else if cached != nil {
			log.Info().Int("number", issue.Number).Msg("Using cached summary")
			return cached, nil
		}
	}

	prompt := BuildIssuePrompt(issue, p.maxTokens)
	p.checkPromptBudget(issue.Number, prompt)

	log.Info().Int("number", issue.Number).Int64("issueId", issue.ID).Msg("Summarizing issue")
	resp, err := p.generator.Generate(ctx, llm.GenerateRequest{
		Model:       p.model,
		Prompt:      prompt,
		System:      SystemPrompt,
		Temperature: temperature,
		Format:      "json",
	})
	if err != nil {
		return nil, fmt.Errorf("summarize issue #%d: %w", issue.Number, err)
	}

	summary, err := p.parseResponse(issue, resp)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.PutSummary(ctx, summary); err != nil {
			log.Warn().Err(err).Int64("issueId", issue.ID).Msg("Failed to write summary cache")
		}
	}

	log.Info().Int("number", issue.Number).
		Float64("novelty", summary.Novelty).
		Float64("feasibility", summary.Feasibility).
		Msg("Summarized issue")
	return summary, nil
}

// SummarizeIssues summarizes issues sequentially. Failed issues are
// logged and skipped; the returned slice may be shorter than the input.
func (p *Pipeline) SummarizeIssues(ctx context.Context, issues []models.NormalizedIssue, skipCache, skipNoise bool) ([]models.SummarizedIssue, error) {
	summaries := make([]models.SummarizedIssue, 0, len(issues))
	failed := 0

	for i := range issues {
		issue := &issues[i]
		if skipNoise && issue.IsNoise {
			log.Info().Int("number", issue.Number).Str("reason", issue.NoiseReason).Msg("Skipping noise issue")
			continue
		}
		if err := ctx.Err(); err != nil {
			return summaries, err
		}

		summary, err := p.SummarizeIssue(ctx, issue, skipCache)
		if err != nil {
			log.Error().Err(err).Int("number", issue.Number).Msg("Failed to summarize issue")
			failed++
			continue
		}
		summaries = append(summaries, *summary)
	}

	log.Info().Int("succeeded", len(summaries)).Int("failed", failed).Msg("Summarization complete")
	return summaries, nil
}

// requiredFields are the summarizer response keys that must be present.
var requiredFields = []string{
	"title", "summary", "topic_area",
	"novelty", "feasibility", "desirability", "attention", "noise_flag",
}

// parseResponse decodes and validates the model output into a
// SummarizedIssue, merging in the issue's identity fields.
func (p *Pipeline) parseResponse(issue *models.NormalizedIssue, resp *llm.GenerateResponse) (*models.SummarizedIssue, error) {
	parsed, err := llm.ParseJSONResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("issue #%d: %w", issue.Number, err)
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("issue #%d: response missing required fields: %v", issue.Number, missing)
	}

	summary := &models.SummarizedIssue{
		IssueID:      issue.ID,
		SourceNumber: issue.Number,
		RawIssueURL:  issue.URL,
		Title:        stringField(parsed, "title"),
		Summary:      stringField(parsed, "summary"),
		TopicArea:    stringField(parsed, "topic_area"),
		Novelty:      floatField(parsed, "novelty"),
		Feasibility:  floatField(parsed, "feasibility"),
		Desirability: floatField(parsed, "desirability"),
		Attention:    floatField(parsed, "attention"),
		NoiseFlag:    boolField(parsed, "noise_flag"),
	}

	if err := summary.Validate(); err != nil {
		return nil, fmt.Errorf("issue #%d: invalid summary data: %w", issue.Number, err)
	}
	return summary, nil
}

// checkPromptBudget counts prompt tokens and warns when the prompt
// exceeds the configured budget despite character truncation.
func (p *Pipeline) checkPromptBudget(number int, prompt string) {
	count := len(prompt) / charsPerToken
	if p.codec != nil {
		ids, _, err := p.codec.Encode(prompt)
		if err == nil {
			count = len(ids)
		}
	}
	if count > p.maxTokens {
		log.Warn().Int("number", number).Int("tokens", count).
			Int("budget", p.maxTokens).Msg("Prompt exceeds token budget")
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return -1 // out of range, rejected by Validate
	}
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
