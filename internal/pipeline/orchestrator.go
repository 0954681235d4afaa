// Package pipeline chains the ideagen stages end to end:
// ingest → summarize → group → rank → report. Each stage's output is
// cached as a JSON array artifact so an interrupted run resumes without
// recomputation.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ideagen/internal/cache"
	"ideagen/internal/cleaning"
	"ideagen/internal/config"
	"ideagen/internal/github"
	"ideagen/internal/grouping"
	"ideagen/internal/llm"
	"ideagen/internal/ranking"
	"ideagen/internal/report"
	"ideagen/internal/summarize"
	"ideagen/pkg/models"
)

// commentFetchWorkers bounds concurrent comment fetches during ingest.
const commentFetchWorkers = 4

// IssueSource is the GitHub capability consumed by the orchestrator.
type IssueSource interface {
	CheckRepositoryAccess(ctx context.Context, owner, repo string) (bool, error)
	FetchIssues(ctx context.Context, owner, repo, state string, limit int) ([]github.Issue, error)
	FetchIssueComments(ctx context.Context, owner, repo string, issueNumber int) ([]github.Comment, error)
}

// ModelChecker probes the Ollama server before a model-backed stage runs.
type ModelChecker interface {
	CheckHealth(ctx context.Context) bool
	ModelExists(ctx context.Context, name string) bool
	ListModels(ctx context.Context) ([]string, error)
}

// Deps are the orchestrator's collaborators. Tests inject fakes;
// production wiring comes from BuildDeps.
type Deps struct {
	Source    IssueSource
	Generator grouping.Generator
	Checker   ModelChecker
	Cache     summarize.Cache
}

// Orchestrator runs the full idea generation pipeline.
type Orchestrator struct {
	cfg  *config.Config
	deps Deps
}

// New creates an orchestrator with the given collaborators.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	return &Orchestrator{cfg: cfg, deps: deps}
}

// BuildDeps constructs the production collaborators from config. The
// returned cleanup closes the summary cache.
func BuildDeps(cfg *config.Config) (Deps, func(), error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return Deps{}, nil, err
	}

	ghClient, err := github.NewClient(
		github.WithToken(cfg.GitHubToken),
		github.WithPerPage(cfg.GitHubPerPage),
		github.WithMaxRetries(cfg.GitHubMaxRetries),
		github.WithCacheDir(filepath.Join(cfg.DataDir, "cache")),
	)
	if err != nil {
		return Deps{}, nil, err
	}

	llmClient := llm.NewClient(cfg.OllamaBaseURL,
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithMaxRetries(cfg.LLMMaxRetries),
	)

	store, err := cache.NewStore(cache.Config{Path: cfg.CachePath()})
	if err != nil {
		return Deps{}, nil, err
	}

	deps := Deps{
		Source:    ghClient,
		Generator: llmClient,
		Checker:   llmClient,
		Cache:     store,
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close summary cache")
		}
	}
	return deps, cleanup, nil
}

// RunOptions controls one pipeline run.
type RunOptions struct {
	Force        bool // regenerate all artifacts even if cached
	SkipCache    bool // bypass the per-issue summary cache
	SkipJSON     bool
	SkipMarkdown bool
}

// Results summarizes one pipeline run.
type Results struct {
	RunID          string
	IssueCount     int
	SummaryCount   int
	ClusterCount   int
	JSONReport     string
	MarkdownReport string
}

// Run executes the complete pipeline end to end.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*Results, error) {
	results := &Results{RunID: uuid.NewString()}
	log.Info().Str("runId", results.RunID).Str("repo", o.cfg.GitHubRepo).Msg("Starting pipeline")

	owner, repo, err := o.cfg.SplitRepo()
	if err != nil {
		return nil, err
	}
	if err := o.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	// Stage 1: ingest.
	issues, err := o.loadOrIngestIssues(ctx, owner, repo, opts.Force)
	if err != nil {
		return nil, err
	}
	results.IssueCount = len(issues)
	if len(issues) == 0 {
		log.Warn().Msg("No issues found, generating empty reports")
		return results, o.writeEmptyReports(results, opts)
	}

	// Stage 2: summarize.
	summaries, err := o.loadOrSummarize(ctx, owner, repo, issues, opts)
	if err != nil {
		return nil, err
	}
	results.SummaryCount = len(summaries)
	if len(summaries) == 0 {
		log.Warn().Msg("No summaries generated, generating empty reports")
		return results, o.writeEmptyReports(results, opts)
	}

	// Stage 3: group.
	clusters, err := o.loadOrGroup(ctx, owner, repo, summaries, opts.Force)
	if err != nil {
		return nil, err
	}
	results.ClusterCount = len(clusters)
	if len(clusters) == 0 {
		log.Warn().Msg("No clusters generated, generating empty reports")
		return results, o.writeEmptyReports(results, opts)
	}

	// Stage 4: rank.
	weights := o.weights()
	ranked := ranking.Rank(clusters, weights)

	// Stage 5: report.
	if !opts.SkipJSON {
		path := filepath.Join(o.cfg.ReportsDir(), "ideas.json")
		if err := report.WriteJSONReport(ranked, issues, path, weights); err != nil {
			return nil, err
		}
		results.JSONReport = path
		log.Info().Str("path", path).Msg("Wrote JSON report")
	}
	if !opts.SkipMarkdown {
		path := filepath.Join(o.cfg.ReportsDir(), "top-ideas.md")
		if err := report.WriteMarkdownReport(ranked, issues, path, o.cfg.TopIdeasCount, weights); err != nil {
			return nil, err
		}
		results.MarkdownReport = path
		log.Info().Str("path", path).Msg("Wrote Markdown report")
	}

	log.Info().Str("runId", results.RunID).
		Int("issues", results.IssueCount).
		Int("summaries", results.SummaryCount).
		Int("clusters", results.ClusterCount).
		Msg("Pipeline completed")
	return results, nil
}

// loadOrIngestIssues returns the cached issues artifact or fetches and
// normalizes issues from GitHub.
func (o *Orchestrator) loadOrIngestIssues(ctx context.Context, owner, repo string, force bool) ([]models.NormalizedIssue, error) {
	path := filepath.Join(o.cfg.DataDir, fmt.Sprintf("%s_%s_issues.json", owner, repo))

	if !force {
		var cached []models.NormalizedIssue
		if ok, err := loadArtifact(path, &cached); err != nil {
			return nil, err
		} else if ok {
			log.Info().Str("path", path).Int("count", len(cached)).Msg("Using cached issues")
			return cached, nil
		}
	}

	log.Info().Str("repo", owner+"/"+repo).Msg("Ingesting issues from GitHub")
	accessible, err := o.deps.Source.CheckRepositoryAccess(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("check repository access: %w", err)
	}
	if !accessible {
		return nil, fmt.Errorf("repository %s/%s not accessible", owner, repo)
	}

	rawIssues, err := o.deps.Source.FetchIssues(ctx, owner, repo, "open", o.cfg.GitHubIssueLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch issues: %w", err)
	}
	if len(rawIssues) == 0 {
		return nil, nil
	}

	// Comment fetches are independent; fan out with bounded concurrency
	// while keeping issue order.
	comments := make([][]github.Comment, len(rawIssues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commentFetchWorkers)
	for i := range rawIssues {
		i := i
		g.Go(func() error {
			fetched, err := o.deps.Source.FetchIssueComments(gctx, owner, repo, rawIssues[i].Number)
			if err != nil {
				return fmt.Errorf("fetch comments for #%d: %w", rawIssues[i].Number, err)
			}
			comments[i] = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	normalizeOpts := cleaning.NormalizeOptions{
		MaxTextLength:      o.cfg.MaxTextLength,
		NoiseFilterEnabled: o.cfg.NoiseFilterEnabled,
	}
	normalized := make([]models.NormalizedIssue, 0, len(rawIssues))
	for i, raw := range rawIssues {
		issue, err := cleaning.NormalizeIssue(raw, comments[i], normalizeOpts)
		if err != nil {
			return nil, fmt.Errorf("normalize issue #%d: %w", raw.Number, err)
		}
		normalized = append(normalized, issue)
	}

	if err := saveArtifact(path, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// loadOrSummarize returns the cached summaries artifact or runs the
// summarizer persona over all issues.
func (o *Orchestrator) loadOrSummarize(ctx context.Context, owner, repo string, issues []models.NormalizedIssue, opts RunOptions) ([]models.SummarizedIssue, error) {
	path := filepath.Join(o.cfg.OutputDir, fmt.Sprintf("%s_%s_summaries.json", owner, repo))

	if !opts.Force {
		var cached []models.SummarizedIssue
		if ok, err := loadArtifact(path, &cached); err != nil {
			return nil, err
		} else if ok {
			log.Info().Str("path", path).Int("count", len(cached)).Msg("Using cached summaries")
			return cached, nil
		}
	}

	if err := o.checkModel(ctx, o.cfg.ModelSummarizer); err != nil {
		return nil, err
	}

	p := summarize.NewPipeline(o.deps.Generator, o.deps.Cache, o.cfg.ModelSummarizer, o.cfg.SummarizeMaxTokens)
	summaries, err := p.SummarizeIssues(ctx, issues, opts.SkipCache, false)
	if err != nil {
		return nil, err
	}

	if err := saveArtifact(path, summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// loadOrGroup returns the cached clusters artifact or runs the grouper
// persona over all summaries.
func (o *Orchestrator) loadOrGroup(ctx context.Context, owner, repo string, summaries []models.SummarizedIssue, force bool) ([]models.IdeaCluster, error) {
	path := filepath.Join(o.cfg.OutputDir, fmt.Sprintf("%s_%s_clusters.json", owner, repo))

	if !force {
		var cached []models.IdeaCluster
		if ok, err := loadArtifact(path, &cached); err != nil {
			return nil, err
		} else if ok {
			log.Info().Str("path", path).Int("count", len(cached)).Msg("Using cached clusters")
			return cached, nil
		}
	}

	if err := o.checkModel(ctx, o.cfg.ModelGrouper); err != nil {
		return nil, err
	}

	p := grouping.NewPipeline(o.deps.Generator, o.cfg.ModelGrouper, o.cfg.MaxBatchSize, o.cfg.MaxBatchChars)
	clusters, err := p.GroupSummaries(ctx, summaries, o.cfg.NoiseFilterEnabled)
	if err != nil {
		return nil, err
	}

	if err := saveArtifact(path, clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}

// checkModel verifies the Ollama server is reachable and the model is
// installed before a model-backed stage runs.
func (o *Orchestrator) checkModel(ctx context.Context, model string) error {
	if o.deps.Checker == nil {
		return nil
	}
	if !o.deps.Checker.CheckHealth(ctx) {
		return fmt.Errorf("ollama server not reachable at %s", o.cfg.OllamaBaseURL)
	}
	if !o.deps.Checker.ModelExists(ctx, model) {
		available, _ := o.deps.Checker.ListModels(ctx)
		return fmt.Errorf("model %q not found on ollama server (available: %v)", model, available)
	}
	return nil
}

func (o *Orchestrator) weights() ranking.Weights {
	return ranking.Weights{
		Novelty:      o.cfg.WeightNovelty,
		Feasibility:  o.cfg.WeightFeasibility,
		Desirability: o.cfg.WeightDesirability,
		Attention:    o.cfg.WeightAttention,
	}
}

// writeEmptyReports writes placeholder reports when a stage produced no
// data.
func (o *Orchestrator) writeEmptyReports(results *Results, opts RunOptions) error {
	if !opts.SkipJSON {
		path := filepath.Join(o.cfg.ReportsDir(), "ideas.json")
		if err := report.WriteEmptyJSONReport(path); err != nil {
			return err
		}
		results.JSONReport = path
	}
	if !opts.SkipMarkdown {
		path := filepath.Join(o.cfg.ReportsDir(), "top-ideas.md")
		if err := report.WriteEmptyMarkdownReport(path); err != nil {
			return err
		}
		results.MarkdownReport = path
	}
	return nil
}

// loadArtifact reads a cached stage artifact. Returns false when the
// file does not exist.
func loadArtifact(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return true, nil
}

// saveArtifact writes a stage artifact as an indented JSON array.
func saveArtifact(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}
