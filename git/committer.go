// Package git implements the commit sink against a local checkout via shell
// commands, matching how CI jobs commit documentation updates back to the
// pull request branch.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fwojciec/prdoc"
)

// Compile-time interface verification.
var _ prdoc.CommitSink = (*Committer)(nil)

// Committer reads and writes files in a git working tree, committing each
// write with the caller's message.
type Committer struct {
	repoPath string
}

// NewCommitter creates a committer rooted at repoPath.
func NewCommitter(repoPath string) *Committer {
	return &Committer{repoPath: repoPath}
}

// ReadFile returns the current content of a file in the working tree. A
// missing file yields empty content, not an error: the patcher creates
// documents that do not exist yet.
func (c *Committer) ReadFile(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.repoPath, path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: reading %s: %v", prdoc.ErrSinkUnavailable, path, err)
	}
	return string(data), nil
}

// WriteFile writes content and commits it with the given message. The
// message is expected to carry the skip token; embedding it is the caller's
// contract, not enforced here.
func (c *Committer) WriteFile(ctx context.Context, path, content, commitMessage string) error {
	full := filepath.Join(c.repoPath, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("%w: preparing %s: %v", prdoc.ErrSinkUnavailable, path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", prdoc.ErrSinkUnavailable, path, err)
	}

	if err := c.run(ctx, "add", "--", path); err != nil {
		return err
	}
	return c.run(ctx, "commit", "-m", commitMessage, "--", path)
}

func (c *Committer) run(ctx context.Context, args ...string) error {
	full := append([]string{"-C", c.repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: git %s failed: %s", prdoc.ErrSinkUnavailable,
			args[0], strings.TrimSpace(string(output)))
	}
	return nil
}
