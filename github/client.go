// Package github implements the diff source and comment sink against the
// GitHub REST API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/prdoc"
)

// Compile-time interface verification.
var (
	_ prdoc.DiffSource  = (*Client)(nil)
	_ prdoc.CommentSink = (*Client)(nil)
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// perPage is the page size for list endpoints.
const perPage = 100

// Client talks to the GitHub REST API. It implements prdoc.DiffSource and
// prdoc.CommentSink.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API endpoint, e.g. a test
// server or GitHub Enterprise.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Client authenticating with the given token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire representations of the endpoints the client consumes.
type prResponse struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Base  struct {
		Ref string `json:"ref"`
	} `json:"base"`
	Head struct {
		Ref string `json:"ref"`
	} `json:"head"`
}

type fileResponse struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type commitResponse struct {
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
}

// ChangeSet fetches a pull request's metadata, changed files and commit
// messages.
func (c *Client) ChangeSet(ctx context.Context, ref prdoc.PRRef) (*prdoc.ChangeSet, error) {
	var pr prResponse
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/pulls/%d", ref.Owner, ref.Repo, ref.Number), &pr); err != nil {
		return nil, fmt.Errorf("%w: fetching pull request %s: %v", prdoc.ErrSourceUnavailable, ref, err)
	}

	files, err := c.files(ctx, ref)
	if err != nil {
		return nil, err
	}

	messages, err := c.CommitMessages(ctx, ref)
	if err != nil {
		return nil, err
	}

	return &prdoc.ChangeSet{
		Title:          pr.Title,
		Description:    pr.Body,
		BaseBranch:     pr.Base.Ref,
		HeadBranch:     pr.Head.Ref,
		CommitMessages: messages,
		Files:          files,
	}, nil
}

// CommitMessages fetches just the commit messages of a pull request.
func (c *Client) CommitMessages(ctx context.Context, ref prdoc.PRRef) ([]string, error) {
	var messages []string
	for page := 1; ; page++ {
		var commits []commitResponse
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/commits?per_page=%d&page=%d",
			ref.Owner, ref.Repo, ref.Number, perPage, page)
		if err := c.get(ctx, path, &commits); err != nil {
			return nil, fmt.Errorf("%w: fetching commits for %s: %v", prdoc.ErrSourceUnavailable, ref, err)
		}
		for _, commit := range commits {
			messages = append(messages, commit.Commit.Message)
		}
		if len(commits) < perPage {
			return messages, nil
		}
	}
}

func (c *Client) files(ctx context.Context, ref prdoc.PRRef) ([]prdoc.FileChange, error) {
	var files []prdoc.FileChange
	for page := 1; ; page++ {
		var resp []fileResponse
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			ref.Owner, ref.Repo, ref.Number, perPage, page)
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("%w: fetching files for %s: %v", prdoc.ErrSourceUnavailable, ref, err)
		}
		for _, f := range resp {
			files = append(files, prdoc.FileChange{
				Path:      f.Filename,
				Status:    parseStatus(f.Status),
				Patch:     f.Patch,
				Additions: f.Additions,
				Deletions: f.Deletions,
			})
		}
		if len(resp) < perPage {
			return files, nil
		}
	}
}

// PostComment posts a comment on the pull request conversation.
func (c *Client) PostComment(ctx context.Context, ref prdoc.PRRef, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("%w: encoding comment: %v", prdoc.ErrSinkUnavailable, err)
	}
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", ref.Owner, ref.Repo, ref.Number)
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("%w: posting comment on %s: %v", prdoc.ErrSinkUnavailable, ref, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseStatus(s string) prdoc.FileStatus {
	switch s {
	case "added":
		return prdoc.StatusAdded
	case "removed":
		return prdoc.StatusRemoved
	case "renamed":
		return prdoc.StatusRenamed
	default:
		return prdoc.StatusModified
	}
}
