// Package mock provides function-field mocks for the prdoc interfaces.
package mock

import (
	"context"
	"time"

	"github.com/fwojciec/prdoc"
)

// Compile-time interface verification.
var (
	_ prdoc.DiffSource      = (*DiffSource)(nil)
	_ prdoc.Oracle          = (*Oracle)(nil)
	_ prdoc.CommentSink     = (*CommentSink)(nil)
	_ prdoc.CommitSink      = (*CommitSink)(nil)
	_ prdoc.DocumentPatcher = (*DocumentPatcher)(nil)
)

// DiffSource is a mock implementation of prdoc.DiffSource.
type DiffSource struct {
	ChangeSetFn      func(ctx context.Context, ref prdoc.PRRef) (*prdoc.ChangeSet, error)
	CommitMessagesFn func(ctx context.Context, ref prdoc.PRRef) ([]string, error)
}

func (s *DiffSource) ChangeSet(ctx context.Context, ref prdoc.PRRef) (*prdoc.ChangeSet, error) {
	return s.ChangeSetFn(ctx, ref)
}

func (s *DiffSource) CommitMessages(ctx context.Context, ref prdoc.PRRef) ([]string, error) {
	return s.CommitMessagesFn(ctx, ref)
}

// Oracle is a mock implementation of prdoc.Oracle. ClassifyCount tracks
// invocations so tests can assert the filter short-circuited.
type Oracle struct {
	ClassifyFn    func(ctx context.Context, cs *prdoc.ChangeSet, verdict *prdoc.FilterVerdict) (*prdoc.Classification, error)
	ClassifyCount int
}

func (o *Oracle) Classify(ctx context.Context, cs *prdoc.ChangeSet, verdict *prdoc.FilterVerdict) (*prdoc.Classification, error) {
	o.ClassifyCount++
	return o.ClassifyFn(ctx, cs, verdict)
}

// CommentSink is a mock implementation of prdoc.CommentSink.
type CommentSink struct {
	PostCommentFn func(ctx context.Context, ref prdoc.PRRef, body string) error
	Comments      []string
}

func (s *CommentSink) PostComment(ctx context.Context, ref prdoc.PRRef, body string) error {
	s.Comments = append(s.Comments, body)
	return s.PostCommentFn(ctx, ref, body)
}

// CommitSink is a mock implementation of prdoc.CommitSink backed by an
// in-memory file map.
type CommitSink struct {
	Files       map[string]string
	ReadFileFn  func(ctx context.Context, path string) (string, error)
	WriteFileFn func(ctx context.Context, path, content, commitMessage string) error
	Messages    []string
}

func (s *CommitSink) ReadFile(ctx context.Context, path string) (string, error) {
	if s.ReadFileFn != nil {
		return s.ReadFileFn(ctx, path)
	}
	return s.Files[path], nil
}

func (s *CommitSink) WriteFile(ctx context.Context, path, content, commitMessage string) error {
	if s.WriteFileFn != nil {
		if err := s.WriteFileFn(ctx, path, content, commitMessage); err != nil {
			return err
		}
	}
	if s.Files == nil {
		s.Files = make(map[string]string)
	}
	s.Files[path] = content
	s.Messages = append(s.Messages, commitMessage)
	return nil
}

// DocumentPatcher is a mock implementation of prdoc.DocumentPatcher.
type DocumentPatcher struct {
	PatchFn          func(current string, c *prdoc.Classification) (string, bool, []string)
	PatchChangelogFn func(current string, c *prdoc.Classification, now time.Time) (string, bool)
}

func (p *DocumentPatcher) Patch(current string, c *prdoc.Classification) (string, bool, []string) {
	return p.PatchFn(current, c)
}

func (p *DocumentPatcher) PatchChangelog(current string, c *prdoc.Classification, now time.Time) (string, bool) {
	if p.PatchChangelogFn != nil {
		return p.PatchChangelogFn(current, c, now)
	}
	return current, false
}
