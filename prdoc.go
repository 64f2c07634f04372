// Package prdoc provides domain types for pull request analysis and
// documentation updates.
package prdoc

import (
	"context"
	"strconv"
)

// PRRef identifies a pull request on the hosting service.
type PRRef struct {
	Owner  string
	Repo   string
	Number int
}

// String returns the canonical owner/repo#number form.
func (r PRRef) String() string {
	return r.Owner + "/" + r.Repo + "#" + strconv.Itoa(r.Number)
}

// FileChange describes a single changed file in a pull request.
// Constructed once per diff fetch and never mutated.
type FileChange struct {
	Path      string
	Status    FileStatus
	Patch     string // unified diff hunks; empty for binary or oversized files
	Additions int
	Deletions int
}

// FileStatus represents the type of operation performed on a file.
type FileStatus int

// File statuses.
const (
	StatusModified FileStatus = iota
	StatusAdded
	StatusRemoved
	StatusRenamed
)

// String returns the status name as reported by diff sources.
func (s FileStatus) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusRemoved:
		return "removed"
	case StatusRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// ChangeSet is one pull request's worth of changes plus the metadata that
// carries author intent not visible in the diff itself.
type ChangeSet struct {
	Title          string
	Description    string
	BaseBranch     string
	HeadBranch     string
	CommitMessages []string
	Files          []FileChange
}

// DiffSource retrieves pull request changes from the hosting service.
type DiffSource interface {
	// ChangeSet returns the full change set for a pull request, including
	// commit messages for the observed range.
	ChangeSet(ctx context.Context, ref PRRef) (*ChangeSet, error)
	// CommitMessages returns just the commit messages for a pull request.
	CommitMessages(ctx context.Context, ref PRRef) ([]string, error)
}

// Oracle classifies the functional impact of a change set. Implementations
// own prompt construction, response parsing and their retry policy; callers
// must not assume idempotent output across calls.
type Oracle interface {
	Classify(ctx context.Context, cs *ChangeSet, verdict *FilterVerdict) (*Classification, error)
}

// CommentSink posts analysis results back to the pull request conversation.
type CommentSink interface {
	PostComment(ctx context.Context, ref PRRef, body string) error
}

// CommitSink reads and writes managed documentation files. WriteFile commits
// with the given message; the message must embed the configured skip token so
// the next triggered run recognizes and ignores the commit.
type CommitSink interface {
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content, commitMessage string) error
}

// RunStatus is the terminal state of one analysis run.
type RunStatus int

// Run statuses.
const (
	RunSkipped RunStatus = iota
	RunUpdated
	RunFailed
)

// String returns the status name.
func (s RunStatus) String() string {
	switch s {
	case RunUpdated:
		return "updated"
	case RunFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// RunResult reports the outcome of one analysis run. Commit and comment side
// effects are independent: each failure is reported in its own field and does
// not roll back the other.
type RunResult struct {
	Status     RunStatus
	Reason     string   // machine-readable reason for non-proceed outcomes
	Notes      []string // non-fatal notes, e.g. a removal target not found
	CommitErr  error
	CommentErr error
}
