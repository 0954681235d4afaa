// Package main provides the ideagen command line entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ideagen/internal/config"
	"ideagen/internal/pipeline"
	"ideagen/internal/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

const usage = `ideagen - generate ranked product ideas from GitHub issues

Usage:
  ideagen run   [flags]   Run the full pipeline and write reports
  ideagen serve [flags]   Serve generated reports over HTTP
  ideagen check [flags]   Check GitHub and Ollama connectivity
  ideagen version         Print the version

Run 'ideagen <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "run":
		err = runCmd(args)
	case "serve":
		err = serveCmd(args)
	case "check":
		err = checkCmd(args)
	case "version":
		fmt.Println(Version)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Command failed")
	}
}

// setupLogging configures the global zerolog logger. Reports go to
// stdout in some commands, so logs always go to stderr.
func setupLogging(debug bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()
	return ctx, cancel
}

// loadConfig loads settings and applies the flags shared by all commands.
func loadConfig(settingsPath, repo string) (*config.Config, error) {
	cfg, err := config.Load(settingsPath)
	if err != nil {
		return nil, err
	}
	if repo != "" {
		cfg.GitHubRepo = repo
	}
	return cfg, nil
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	settingsPath := fs.String("settings", "settings.yaml", "Settings file path")
	repo := fs.String("repo", "", "GitHub repository (owner/repo)")
	force := fs.Bool("force", false, "Regenerate all stage artifacts")
	skipCache := fs.Bool("skip-cache", false, "Bypass the per-issue summary cache")
	skipJSON := fs.Bool("skip-json", false, "Skip the JSON report")
	skipMarkdown := fs.Bool("skip-markdown", false, "Skip the Markdown report")
	debug := fs.Bool("debug", false, "Enable debug logging")
	_ = fs.Parse(args)

	setupLogging(*debug)

	cfg, err := loadConfig(*settingsPath, *repo)
	if err != nil {
		return err
	}
	if cfg.GitHubRepo == "" {
		return fmt.Errorf("no repository configured: set --repo, IDEA_GEN_GITHUB_REPO, or github_repo in %s", *settingsPath)
	}

	deps, cleanup, err := pipeline.BuildDeps(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := pipeline.New(cfg, deps).Run(ctx, pipeline.RunOptions{
		Force:        *force,
		SkipCache:    *skipCache,
		SkipJSON:     *skipJSON,
		SkipMarkdown: *skipMarkdown,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d issues into %d summaries and %d clusters\n",
		results.IssueCount, results.SummaryCount, results.ClusterCount)
	if results.JSONReport != "" {
		fmt.Printf("JSON report:     %s\n", results.JSONReport)
	}
	if results.MarkdownReport != "" {
		fmt.Printf("Markdown report: %s\n", results.MarkdownReport)
	}
	return nil
}

func serveCmd(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	settingsPath := fs.String("settings", "settings.yaml", "Settings file path")
	addr := fs.String("addr", ":8080", "Listen address")
	debug := fs.Bool("debug", false, "Enable debug logging")
	_ = fs.Parse(args)

	setupLogging(*debug)

	cfg, err := loadConfig(*settingsPath, "")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	reportPath := filepath.Join(cfg.ReportsDir(), "ideas.json")
	return server.New(*addr, reportPath).Start(ctx)
}

func checkCmd(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	settingsPath := fs.String("settings", "settings.yaml", "Settings file path")
	repo := fs.String("repo", "", "GitHub repository (owner/repo)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	_ = fs.Parse(args)

	setupLogging(*debug)

	cfg, err := loadConfig(*settingsPath, *repo)
	if err != nil {
		return err
	}

	deps, cleanup, err := pipeline.BuildDeps(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	failed := false

	if cfg.GitHubRepo != "" {
		owner, name, err := cfg.SplitRepo()
		if err != nil {
			return err
		}
		accessible, err := deps.Source.CheckRepositoryAccess(ctx, owner, name)
		switch {
		case err != nil:
			fmt.Printf("GitHub:  FAIL (%v)\n", err)
			failed = true
		case !accessible:
			fmt.Printf("GitHub:  FAIL (repository %s not accessible)\n", cfg.GitHubRepo)
			failed = true
		default:
			fmt.Printf("GitHub:  OK (%s)\n", cfg.GitHubRepo)
		}
	} else {
		fmt.Println("GitHub:  SKIP (no repository configured)")
	}

	if !deps.Checker.CheckHealth(ctx) {
		fmt.Printf("Ollama:  FAIL (server not reachable at %s)\n", cfg.OllamaBaseURL)
		return fmt.Errorf("connectivity check failed")
	}
	fmt.Printf("Ollama:  OK (%s)\n", cfg.OllamaBaseURL)

	for _, model := range []string{cfg.ModelSummarizer, cfg.ModelGrouper} {
		if deps.Checker.ModelExists(ctx, model) {
			fmt.Printf("Model:   OK (%s)\n", model)
		} else {
			fmt.Printf("Model:   FAIL (%s not installed)\n", model)
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("connectivity check failed")
	}
	return nil
}
