// Command prdoc analyzes a pull request's diff with an LLM and merges the
// classification into the repository's documentation. It is designed to run
// inside a CI job on PR events, with the repository checked out locally.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/fwojciec/prdoc"
	"github.com/fwojciec/prdoc/document"
	"github.com/fwojciec/prdoc/fs"
	"github.com/fwojciec/prdoc/gemini"
	"github.com/fwojciec/prdoc/git"
	"github.com/fwojciec/prdoc/github"
)

// Status styles for the run summary line.
var (
	updatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", ".prdoc.yml", "path to optional YAML config")
		repoFlag   = flag.String("repo", "", "repository as owner/name (default: $REPO_NAME)")
		prFlag     = flag.Int("pr", 0, "pull request number (default: $PR_NUMBER)")
		checkout   = flag.String("checkout", ".", "path to the local checkout used for commits")
		cacheDir   = flag.String("cache-dir", "", "cache oracle responses in this directory")
		logFormat  = flag.String("log-format", "text", "log output: text or json")
	)
	flag.Parse()

	// Best-effort: CI environments inject real env vars instead.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(*logFormat)

	cfg, err := prdoc.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	ref, err := resolveRef(*repoFlag, *prFlag)
	if err != nil {
		return err
	}

	githubToken := os.Getenv("GITHUB_TOKEN")
	if githubToken == "" {
		return errors.New("GITHUB_TOKEN not set")
	}
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		return errors.New("GEMINI_API_KEY not set")
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = gemini.DefaultModel
	}

	client, err := gemini.NewClient(ctx, geminiKey)
	if err != nil {
		return fmt.Errorf("creating gemini client: %w", err)
	}
	var oracle prdoc.Oracle = gemini.NewOracle(client, model,
		gemini.WithMaxAttempts(cfg.MaxOracleAttempts),
		gemini.WithInputBudget(cfg.InputBudget),
	)
	if *cacheDir != "" {
		oracle = fs.NewOracle(oracle, *cacheDir)
	}

	hub := github.NewClient(githubToken)
	patcher := document.NewPatcher(cfg.FeatureSections, cfg.ConfigSections, cfg.ChangelogSections)
	analyzer := prdoc.NewAnalyzer(hub, oracle, hub, git.NewCommitter(*checkout), patcher, cfg,
		prdoc.WithLogger(logger),
	)

	result := analyzer.Run(ctx, ref)
	printSummary(ref, result)

	if result.Status == prdoc.RunFailed {
		return fmt.Errorf("run failed: %s", result.Reason)
	}
	return nil
}

func newLogger(format string) zerolog.Logger {
	if format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// resolveRef builds the PR reference from flags, falling back to the env
// vars the GitHub Actions workflow exports.
func resolveRef(repo string, pr int) (prdoc.PRRef, error) {
	if repo == "" {
		repo = os.Getenv("REPO_NAME")
	}
	if pr == 0 {
		if v := os.Getenv("PR_NUMBER"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return prdoc.PRRef{}, fmt.Errorf("invalid PR_NUMBER %q", v)
			}
			pr = n
		}
	}
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return prdoc.PRRef{}, errors.New("repository must be given as owner/name (-repo or $REPO_NAME)")
	}
	if pr <= 0 {
		return prdoc.PRRef{}, errors.New("pull request number must be given (-pr or $PR_NUMBER)")
	}
	return prdoc.PRRef{Owner: owner, Repo: name, Number: pr}, nil
}

func printSummary(ref prdoc.PRRef, result *prdoc.RunResult) {
	var status string
	switch result.Status {
	case prdoc.RunUpdated:
		status = updatedStyle.Render("updated")
	case prdoc.RunFailed:
		status = failedStyle.Render("failed")
	default:
		status = skippedStyle.Render("skipped")
	}
	fmt.Printf("%s %s (%s)\n", ref, status, result.Reason)
	for _, note := range result.Notes {
		fmt.Println(noteStyle.Render("  note: " + note))
	}
	if result.CommitErr != nil {
		fmt.Println(failedStyle.Render("  commit: " + result.CommitErr.Error()))
	}
	if result.CommentErr != nil {
		fmt.Println(failedStyle.Render("  comment: " + result.CommentErr.Error()))
	}
}
