package prdoc

import (
	"regexp"
	"strings"
)

// FileVerdict classifies a single changed file for analysis purposes.
type FileVerdict int

// File verdicts. The first matching pattern family wins; unmatched files are
// analyzable.
const (
	FileAnalyzable FileVerdict = iota
	FileIgnoredTest
	FileIgnoredConfig
	FileIgnoredDoc
	FileIgnoredLock
)

// String returns the verdict name.
func (v FileVerdict) String() string {
	switch v {
	case FileIgnoredTest:
		return "ignored-test"
	case FileIgnoredConfig:
		return "ignored-config"
	case FileIgnoredDoc:
		return "ignored-doc"
	case FileIgnoredLock:
		return "ignored-lock"
	default:
		return "analyzable"
	}
}

// PRVerdict is the pull-request-level decision on whether to analyze at all.
type PRVerdict int

// PR verdicts. Any skip verdict short-circuits before the oracle is invoked.
const (
	VerdictProceed PRVerdict = iota
	VerdictSkipDocOnly
	VerdictSkipMarker
	VerdictSkipSelfCommit
)

// String returns the verdict name.
func (v PRVerdict) String() string {
	switch v {
	case VerdictSkipDocOnly:
		return "skip-doc-only"
	case VerdictSkipMarker:
		return "skip-marker"
	case VerdictSkipSelfCommit:
		return "skip-self-commit"
	default:
		return "proceed"
	}
}

// FilterVerdict is the complete filtering decision for one change set.
// Files is parallel to the change set's file slice.
type FilterVerdict struct {
	Files  []FileVerdict
	PR     PRVerdict
	Reason string
}

// Analyzable returns the files tagged analyzable, in change set order.
func (v *FilterVerdict) Analyzable(cs *ChangeSet) []FileChange {
	var out []FileChange
	for i, fv := range v.Files {
		if fv == FileAnalyzable && i < len(cs.Files) {
			out = append(out, cs.Files[i])
		}
	}
	return out
}

// Pattern families, checked in order. Sources: conventional test layouts
// across Go/Python/JS, dependency manifests, documentation files, and
// generated lockfiles.
var (
	testPathRe = regexp.MustCompile(`(?i)(` +
		`(^|/)tests?/|` +
		`(^|/)__tests__/|` +
		`_test\.go$|` +
		`(^|/)test_[^/]*\.py$|` +
		`[_.]test\.py$|` +
		`\.(test|spec)\.(js|jsx|ts|tsx)$` +
		`)`)

	configPathRe = regexp.MustCompile(`(?i)(` +
		`(^|/)go\.mod$|` +
		`(^|/)package\.json$|` +
		`(^|/)requirements[^/]*\.txt$|` +
		`(^|/)setup\.(py|cfg)$|` +
		`(^|/)pyproject\.toml$|` +
		`(^|/)dockerfile[^/]*$|` +
		`(^|/)makefile$|` +
		`^\.github/|` +
		`\.(ya?ml|toml|ini|cfg)$|` +
		`(^|/)\.env(\.[^/]+)?$` +
		`)`)

	docPathRe = regexp.MustCompile(`(?i)(` +
		`(^|/)readme(\.(md|txt|rst))?$|` +
		`\.(md|rst|adoc)$|` +
		`\.readme$|` +
		`(^|/)docs?/|` +
		`(^|/)license(\.(md|txt|rst))?$|` +
		`(^|/)changelog(\.(md|txt|rst))?$` +
		`)`)

	lockPathRe = regexp.MustCompile(`(?i)(` +
		`(^|/)go\.sum$|` +
		`(^|/)package-lock\.json$|` +
		`(^|/)yarn\.lock$|` +
		`(^|/)pnpm-lock\.yaml$|` +
		`(^|/)poetry\.lock$|` +
		`(^|/)cargo\.lock$|` +
		`(^|/)gemfile\.lock$|` +
		`\.lock$` +
		`)`)
)

// ChangeFilter decides which changes are eligible for analysis and whether a
// pull request should be analyzed at all. Pure: no network, no mutation.
type ChangeFilter struct {
	skipTokens   []string
	managedPaths map[string]struct{}
}

// NewChangeFilter creates a filter that recognizes the given skip tokens in
// commit messages and treats managedPaths as the tool's own output files.
func NewChangeFilter(skipTokens []string, managedPaths []string) *ChangeFilter {
	managed := make(map[string]struct{}, len(managedPaths))
	for _, p := range managedPaths {
		if p != "" {
			managed[strings.ToLower(p)] = struct{}{}
		}
	}
	return &ChangeFilter{skipTokens: skipTokens, managedPaths: managed}
}

// ClassifyPath tags a single path with its file verdict.
func (f *ChangeFilter) ClassifyPath(path string) FileVerdict {
	switch {
	case testPathRe.MatchString(path):
		return FileIgnoredTest
	case configPathRe.MatchString(path):
		return FileIgnoredConfig
	case docPathRe.MatchString(path):
		return FileIgnoredDoc
	case lockPathRe.MatchString(path):
		return FileIgnoredLock
	default:
		return FileAnalyzable
	}
}

// Filter computes the complete verdict for a change set. recentMessages is
// the observed commit message range; the pull request title participates in
// skip detection because squash merges often carry the marker there.
func (f *ChangeFilter) Filter(cs *ChangeSet, recentMessages []string) *FilterVerdict {
	v := &FilterVerdict{Files: make([]FileVerdict, len(cs.Files))}

	for i, fc := range cs.Files {
		v.Files[i] = f.ClassifyPath(fc.Path)
	}

	if msg, ok := f.findSkipToken(cs.Title, recentMessages); ok {
		v.PR = VerdictSkipMarker
		v.Reason = "skip marker found: " + msg
		return v
	}

	// An empty change set is not an error; there is simply nothing to do.
	if len(cs.Files) == 0 {
		v.PR = VerdictSkipDocOnly
		v.Reason = "change set is empty"
		return v
	}

	if f.isSelfCommit(cs) {
		v.PR = VerdictSkipSelfCommit
		v.Reason = "all changed files are managed documentation outputs"
		return v
	}

	analyzable := 0
	for _, fv := range v.Files {
		if fv == FileAnalyzable {
			analyzable++
		}
	}
	if analyzable == 0 {
		v.PR = VerdictSkipDocOnly
		v.Reason = "no analyzable files after filtering"
		return v
	}

	v.PR = VerdictProceed
	return v
}

func (f *ChangeFilter) findSkipToken(title string, messages []string) (string, bool) {
	for _, token := range f.skipTokens {
		if token == "" {
			continue
		}
		if strings.Contains(title, token) {
			return token, true
		}
		for _, msg := range messages {
			if strings.Contains(msg, token) {
				return token, true
			}
		}
	}
	return "", false
}

// isSelfCommit reports whether the entire change set consists of the tool's
// own managed output files. This is the second line of loop prevention, for
// when the skip token was stripped from the commit message.
func (f *ChangeFilter) isSelfCommit(cs *ChangeSet) bool {
	if len(f.managedPaths) == 0 {
		return false
	}
	for _, fc := range cs.Files {
		if _, ok := f.managedPaths[strings.ToLower(fc.Path)]; !ok {
			return false
		}
	}
	return true
}
