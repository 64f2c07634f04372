package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/prdoc"
	"github.com/fwojciec/prdoc/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRef = prdoc.PRRef{Owner: "octo", Repo: "demo", Number: 42}

func TestClient_ChangeSet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		switch r.URL.Path {
		case "/repos/octo/demo/pulls/42":
			fmt.Fprint(w, `{
				"title": "Add email validation",
				"body": "Validates addresses.",
				"base": {"ref": "main"},
				"head": {"ref": "feature/email"}
			}`)
		case "/repos/octo/demo/pulls/42/files":
			fmt.Fprint(w, `[
				{"filename": "validator.go", "status": "added", "patch": "@@ -0,0 +1,1 @@\n+package mail", "additions": 1, "deletions": 0},
				{"filename": "old.go", "status": "removed", "additions": 0, "deletions": 30}
			]`)
		case "/repos/octo/demo/pulls/42/commits":
			fmt.Fprint(w, `[
				{"commit": {"message": "Add validator"}},
				{"commit": {"message": "Wire into handler"}}
			]`)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := github.NewClient("test-token", github.WithBaseURL(srv.URL))
	cs, err := client.ChangeSet(context.Background(), testRef)

	require.NoError(t, err)
	assert.Equal(t, "Add email validation", cs.Title)
	assert.Equal(t, "Validates addresses.", cs.Description)
	assert.Equal(t, "main", cs.BaseBranch)
	assert.Equal(t, "feature/email", cs.HeadBranch)
	assert.Equal(t, []string{"Add validator", "Wire into handler"}, cs.CommitMessages)
	require.Len(t, cs.Files, 2)
	assert.Equal(t, "validator.go", cs.Files[0].Path)
	assert.Equal(t, prdoc.StatusAdded, cs.Files[0].Status)
	assert.Equal(t, 1, cs.Files[0].Additions)
	assert.Equal(t, prdoc.StatusRemoved, cs.Files[1].Status)
	// Binary or huge files come back without a patch.
	assert.Empty(t, cs.Files[1].Patch)
}

func TestClient_ChangeSet_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := github.NewClient("test-token", github.WithBaseURL(srv.URL))
	_, err := client.ChangeSet(context.Background(), testRef)

	require.Error(t, err)
	assert.ErrorIs(t, err, prdoc.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "octo/demo#42")
}

func TestClient_CommitMessages_Paginates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		var commits []map[string]any
		n := 100
		if page == "2" {
			n = 3
		}
		for i := 0; i < n; i++ {
			commits = append(commits, map[string]any{
				"commit": map[string]string{"message": fmt.Sprintf("commit %s-%d", page, i)},
			})
		}
		require.NoError(t, json.NewEncoder(w).Encode(commits))
	}))
	defer srv.Close()

	client := github.NewClient("test-token", github.WithBaseURL(srv.URL))
	messages, err := client.CommitMessages(context.Background(), testRef)

	require.NoError(t, err)
	assert.Len(t, messages, 103)
	assert.Equal(t, "commit 1-0", messages[0])
	assert.Equal(t, "commit 2-2", messages[102])
}

func TestClient_PostComment(t *testing.T) {
	t.Parallel()

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octo/demo/issues/42/comments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := github.NewClient("test-token", github.WithBaseURL(srv.URL))
	err := client.PostComment(context.Background(), testRef, "## Documentation Update")

	require.NoError(t, err)
	assert.Equal(t, "## Documentation Update", got["body"])
}

func TestClient_PostComment_Forbidden(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Resource not accessible"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	client := github.NewClient("test-token", github.WithBaseURL(srv.URL))
	err := client.PostComment(context.Background(), testRef, "body")

	require.Error(t, err)
	assert.ErrorIs(t, err, prdoc.ErrSinkUnavailable)
	assert.Contains(t, err.Error(), "403")
}
