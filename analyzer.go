package prdoc

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fwojciec/prdoc/difflib"
)

// DocumentPatcher merges a classification into a document's current text.
// Implementations must be idempotent: patching already-patched text with the
// same classification reports changed=false.
type DocumentPatcher interface {
	// Patch applies feature and configuration operations to the document.
	Patch(current string, c *Classification) (updated string, changed bool, notes []string)
	// PatchChangelog merges a dated changelog entry into the document.
	PatchChangelog(current string, c *Classification, now time.Time) (updated string, changed bool)
}

// Machine-readable run reasons surfaced in RunResult.
const (
	ReasonSourceUnavailable = "source-unavailable"
	ReasonOracleUnavailable = "oracle-unavailable"
	ReasonOracleMalformed   = "oracle-malformed"
	ReasonBelowThreshold    = "below-threshold"
	ReasonNoOp              = "no-op"
	ReasonPatchUnsafe       = "patch-unsafe"
	ReasonSinkUnavailable   = "sink-unavailable"
	ReasonUpdated           = "updated"
)

// Analyzer sequences one analysis run: fetch, filter, classify, decide,
// patch, commit, comment. It owns no retry policy of its own; every
// component's final outcome is terminal.
type Analyzer struct {
	source   DiffSource
	oracle   Oracle
	comments CommentSink
	commits  CommitSink
	patcher  DocumentPatcher
	filter   *ChangeFilter
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the structured logger for run progress.
func WithLogger(logger zerolog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithClock overrides the time source; used by changelog tests.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates an analyzer wired to its collaborators. The config is
// captured by value: nothing mutates it after construction.
func NewAnalyzer(source DiffSource, oracle Oracle, comments CommentSink, commits CommitSink, patcher DocumentPatcher, cfg Config, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		source:   source,
		oracle:   oracle,
		comments: comments,
		commits:  commits,
		patcher:  patcher,
		filter:   NewChangeFilter(cfg.SkipTokens(), cfg.ManagedPaths()),
		cfg:      cfg,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes one analysis run for a pull request. Every non-proceed
// outcome carries a machine-readable reason; nothing is swallowed silently.
func (a *Analyzer) Run(ctx context.Context, ref PRRef) *RunResult {
	log := a.logger.With().Str("pr", ref.String()).Logger()

	cs, err := a.source.ChangeSet(ctx, ref)
	if err != nil {
		log.Error().Err(err).Msg("fetching change set failed")
		return &RunResult{Status: RunFailed, Reason: ReasonSourceUnavailable, Notes: []string{err.Error()}}
	}
	log.Info().Int("files", len(cs.Files)).Str("title", cs.Title).Msg("change set fetched")

	verdict := a.filter.Filter(cs, cs.CommitMessages)
	if verdict.PR != VerdictProceed {
		log.Info().Str("verdict", verdict.PR.String()).Str("reason", verdict.Reason).Msg("skipping analysis")
		return &RunResult{Status: RunSkipped, Reason: verdict.PR.String(), Notes: []string{verdict.Reason}}
	}

	classification, err := a.oracle.Classify(ctx, cs, verdict)
	if err != nil {
		log.Error().Err(err).Msg("classification failed")
		reason := ReasonOracleUnavailable
		if errors.Is(err, ErrOracleMalformed) {
			reason = ReasonOracleMalformed
		}
		return &RunResult{Status: RunFailed, Reason: reason, Notes: []string{err.Error()}}
	}
	log.Info().
		Int("added", len(classification.AddedFeatures)).
		Int("removed", len(classification.RemovedFeatures)).
		Stringer("significance", classification.Significance).
		Msg("classification complete")

	if !ShouldUpdate(classification, a.cfg.SignificanceThreshold) {
		log.Info().Msg("below significance threshold")
		return &RunResult{Status: RunSkipped, Reason: ReasonBelowThreshold}
	}

	return a.patchAndPublish(ctx, log, ref, classification)
}

// documentUpdate is one pending write against the commit sink.
type documentUpdate struct {
	path    string
	content string
}

func (a *Analyzer) patchAndPublish(ctx context.Context, log zerolog.Logger, ref PRRef, c *Classification) *RunResult {
	current, err := a.commits.ReadFile(ctx, a.cfg.DocumentPath)
	if err != nil {
		// Report-only degradation: the analysis is still worth a comment
		// even when the document cannot be touched.
		log.Error().Err(err).Msg("reading document failed; degrading to report-only")
		commentErr := a.comments.PostComment(ctx, ref, BuildComment(c, "", nil))
		return &RunResult{
			Status:     RunFailed,
			Reason:     ReasonPatchUnsafe,
			Notes:      []string{err.Error()},
			CommitErr:  ErrPatchUnsafe,
			CommentErr: commentErr,
		}
	}

	updated, changed, notes := a.patcher.Patch(current, c)

	var updates []documentUpdate
	var preview string
	if changed {
		updates = append(updates, documentUpdate{a.cfg.DocumentPath, updated})
		preview = difflib.Unified(current, updated,
			a.cfg.DocumentPath+" (original)", a.cfg.DocumentPath+" (updated)")
	}

	if a.cfg.ChangelogPath != "" {
		chCurrent, err := a.commits.ReadFile(ctx, a.cfg.ChangelogPath)
		if err != nil {
			notes = append(notes, "changelog unreadable: "+err.Error())
		} else if chUpdated, chChanged := a.patcher.PatchChangelog(chCurrent, c, a.now()); chChanged {
			updates = append(updates, documentUpdate{a.cfg.ChangelogPath, chUpdated})
		}
	}

	if len(updates) == 0 {
		log.Info().Msg("documents already up to date")
		return &RunResult{Status: RunSkipped, Reason: ReasonNoOp, Notes: notes}
	}

	result := &RunResult{Status: RunUpdated, Reason: ReasonUpdated, Notes: notes}
	comment := BuildComment(c, preview, notes)

	// Commit and comment are independent side effects: one failing must not
	// cancel or roll back the other, so the group carries no context.
	var g errgroup.Group
	g.Go(func() error {
		for _, u := range updates {
			if err := a.commits.WriteFile(ctx, u.path, u.content, a.cfg.CommitMessage()); err != nil {
				result.CommitErr = err
				return nil
			}
			log.Info().Str("path", u.path).Msg("document committed")
		}
		return nil
	})
	g.Go(func() error {
		if err := a.comments.PostComment(ctx, ref, comment); err != nil {
			result.CommentErr = err
			return nil
		}
		log.Info().Msg("comment posted")
		return nil
	})
	_ = g.Wait()

	if result.CommitErr != nil {
		result.Status = RunFailed
		result.Reason = ReasonSinkUnavailable
	}
	return result
}
