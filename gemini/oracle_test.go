package gemini_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/prdoc"
	"github.com/fwojciec/prdoc/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{
	"added_features": [{"name": "Email validation", "description": "RFC 5322 checks"}],
	"removed_features": [],
	"changed_behavior": ["Retries back off exponentially"],
	"configuration_changes": [{"key": "GROQ_API_KEY", "effect": "new required env var"}],
	"significance": "medium",
	"summary": "Adds validation."
}`

func testChangeSet() (*prdoc.ChangeSet, *prdoc.FilterVerdict) {
	cs := &prdoc.ChangeSet{
		Title: "Add email validation",
		Files: []prdoc.FileChange{
			{Path: "validator.go", Status: prdoc.StatusAdded, Patch: "@@ -0,0 +1,1 @@\n+package mail"},
		},
	}
	verdict := &prdoc.FilterVerdict{Files: []prdoc.FileVerdict{prdoc.FileAnalyzable}}
	return cs, verdict
}

func TestOracle_Classify(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			assert.Equal(t, "test-model", model)
			require.Len(t, contents, 1)
			assert.Contains(t, contents[0].Parts[0].Text, "Add email validation")
			assert.Equal(t, "application/json", config.ResponseMIMEType)
			require.NotNil(t, config.ResponseSchema)
			return &gemini.GenerateContentResponse{Text: validResponse}, nil
		},
	}
	oracle := gemini.NewOracle(client, "test-model")

	cs, verdict := testChangeSet()
	c, err := oracle.Classify(context.Background(), cs, verdict)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, prdoc.SignificanceMedium, c.Significance)
	require.Len(t, c.AddedFeatures, 1)
	assert.Equal(t, "Email validation", c.AddedFeatures[0].Name)
}

func TestOracle_Classify_RepromptAfterMalformed(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			if calls == 1 {
				return &gemini.GenerateContentResponse{Text: "I cannot classify this diff."}, nil
			}
			// The re-prompt carries the parse failure and a stricter instruction.
			assert.Contains(t, contents[0].Parts[0].Text, "could not be parsed")
			return &gemini.GenerateContentResponse{Text: validResponse}, nil
		},
	}
	oracle := gemini.NewOracle(client, "test-model")

	cs, verdict := testChangeSet()
	c, err := oracle.Classify(context.Background(), cs, verdict)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, prdoc.SignificanceMedium, c.Significance)
}

func TestOracle_Classify_MalformedAfterReprompt(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			return &gemini.GenerateContentResponse{Text: "still not json"}, nil
		},
	}
	oracle := gemini.NewOracle(client, "test-model")

	cs, verdict := testChangeSet()
	_, err := oracle.Classify(context.Background(), cs, verdict)

	require.Error(t, err)
	assert.ErrorIs(t, err, prdoc.ErrOracleMalformed)
	assert.Equal(t, 2, calls)
}

func TestOracle_Classify_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			if calls < 3 {
				return nil, gemini.NewAPIError(429, "rate limited")
			}
			return &gemini.GenerateContentResponse{Text: validResponse}, nil
		},
	}
	oracle := gemini.NewOracle(client, "test-model",
		gemini.WithMaxAttempts(3),
		gemini.WithBackoffUnit(time.Millisecond),
	)

	cs, verdict := testChangeSet()
	c, err := oracle.Classify(context.Background(), cs, verdict)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.NotNil(t, c)
}

func TestOracle_Classify_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			return nil, gemini.NewAPIError(503, "overloaded")
		},
	}
	oracle := gemini.NewOracle(client, "test-model",
		gemini.WithMaxAttempts(3),
		gemini.WithBackoffUnit(time.Millisecond),
	)

	cs, verdict := testChangeSet()
	_, err := oracle.Classify(context.Background(), cs, verdict)

	require.Error(t, err)
	assert.ErrorIs(t, err, prdoc.ErrOracleUnavailable)
	assert.Equal(t, 3, calls)
}

func TestOracle_Classify_AuthErrorNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			return nil, gemini.NewAPIError(401, "invalid api key")
		},
	}
	oracle := gemini.NewOracle(client, "test-model",
		gemini.WithMaxAttempts(3),
		gemini.WithBackoffUnit(time.Millisecond),
	)

	cs, verdict := testChangeSet()
	_, err := oracle.Classify(context.Background(), cs, verdict)

	require.Error(t, err)
	assert.ErrorIs(t, err, prdoc.ErrOracleUnavailable)
	assert.Equal(t, 1, calls)
}

func TestOracle_Classify_EmptyResponseReprompted(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			if calls == 1 {
				return &gemini.GenerateContentResponse{}, nil
			}
			return &gemini.GenerateContentResponse{Text: validResponse}, nil
		},
	}
	oracle := gemini.NewOracle(client, "test-model")

	cs, verdict := testChangeSet()
	c, err := oracle.Classify(context.Background(), cs, verdict)

	// An empty response counts as malformed output and gets the one stricter
	// re-prompt before anything surfaces as fatal.
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, prdoc.SignificanceMedium, c.Significance)
}

func TestOracle_Classify_EmptyResponseTwice(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			return &gemini.GenerateContentResponse{}, nil
		},
	}
	oracle := gemini.NewOracle(client, "test-model")

	cs, verdict := testChangeSet()
	_, err := oracle.Classify(context.Background(), cs, verdict)

	assert.ErrorIs(t, err, prdoc.ErrOracleMalformed)
	assert.Equal(t, 2, calls)
}

func TestOracle_Classify_RespectsInputBudget(t *testing.T) {
	t.Parallel()

	var prompt string
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			prompt = contents[0].Parts[0].Text
			return &gemini.GenerateContentResponse{Text: validResponse}, nil
		},
	}
	oracle := gemini.NewOracle(client, "test-model", gemini.WithInputBudget(64))

	cs := &prdoc.ChangeSet{
		Title: "Big refactor",
		Files: []prdoc.FileChange{
			{Path: "a.go", Status: prdoc.StatusModified, Patch: strings.Repeat("+x\n", 100)},
		},
	}
	verdict := &prdoc.FilterVerdict{Files: []prdoc.FileVerdict{prdoc.FileAnalyzable}}

	_, err := oracle.Classify(context.Background(), cs, verdict)

	require.NoError(t, err)
	assert.Less(t, strings.Count(prompt, "+x"), 100)
}

func TestBuildClassificationSchema(t *testing.T) {
	t.Parallel()

	schema := gemini.BuildClassificationSchema()

	assert.Equal(t, "object", schema.Type)
	require.Contains(t, schema.Properties, "significance")
	assert.Equal(t, []string{"low", "medium", "high"}, schema.Properties["significance"].Enum)
	assert.Contains(t, schema.Required, "added_features")
	assert.Contains(t, schema.Required, "configuration_changes")
}
