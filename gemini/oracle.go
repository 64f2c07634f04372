package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/prdoc"
)

// Compile-time interface verification.
var _ prdoc.Oracle = (*Oracle)(nil)

// DefaultClassifyTimeout is the default timeout for a single generate call.
// Short relative to a CI job's execution budget: a timed-out attempt counts
// against the retry budget rather than eating the whole run.
const DefaultClassifyTimeout = 60 * time.Second

// Oracle implements prdoc.Oracle using Google Gemini. It owns prompt
// construction, input truncation, response repair and a bounded retry
// policy; callers see only prdoc.ErrOracleUnavailable or
// prdoc.ErrOracleMalformed.
type Oracle struct {
	client      GenerativeClient
	model       string
	formatter   prdoc.PromptFormatter
	timeout     time.Duration
	maxAttempts int
	inputBudget int
	backoffUnit time.Duration
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithTimeout sets the per-attempt timeout for API calls.
func WithTimeout(d time.Duration) OracleOption {
	return func(o *Oracle) {
		o.timeout = d
	}
}

// WithMaxAttempts bounds retries of transient failures.
func WithMaxAttempts(n int) OracleOption {
	return func(o *Oracle) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithInputBudget bounds the total patch bytes included in the prompt.
func WithInputBudget(n int) OracleOption {
	return func(o *Oracle) {
		if n > 0 {
			o.inputBudget = n
		}
	}
}

// WithFormatter overrides the prompt formatter.
func WithFormatter(f prdoc.PromptFormatter) OracleOption {
	return func(o *Oracle) {
		o.formatter = f
	}
}

// WithBackoffUnit sets the base delay for exponential backoff between
// transient-failure retries.
func WithBackoffUnit(d time.Duration) OracleOption {
	return func(o *Oracle) {
		if d > 0 {
			o.backoffUnit = d
		}
	}
}

// NewOracle creates a new Oracle.
func NewOracle(client GenerativeClient, model string, opts ...OracleOption) *Oracle {
	o := &Oracle{
		client:      client,
		model:       model,
		formatter:   &prdoc.DefaultFormatter{},
		timeout:     DefaultClassifyTimeout,
		maxAttempts: prdoc.DefaultMaxOracleAttempts,
		inputBudget: prdoc.DefaultInputBudget,
		backoffUnit: time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Classify produces a classification for the analyzable subset of a change
// set. A malformed response is retried at most once with a stricter
// re-prompt before surfacing as fatal.
func (o *Oracle) Classify(ctx context.Context, cs *prdoc.ChangeSet, verdict *prdoc.FilterVerdict) (*prdoc.Classification, error) {
	files := TruncateFiles(verdict.Analyzable(cs), o.inputBudget)
	prompt := BuildClassificationPrompt(o.formatter.Format(cs, files))

	raw, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	c, parseErr := ParseClassification(raw)
	if parseErr == nil {
		return c, nil
	}

	raw, err = o.generate(ctx, BuildStrictReprompt(prompt, parseErr))
	if err != nil {
		return nil, err
	}
	c, parseErr = ParseClassification(raw)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %v", prdoc.ErrOracleMalformed, parseErr)
	}
	return c, nil
}

// generate issues one classification request, retrying transient failures
// with exponential backoff up to the attempt budget.
func (o *Oracle) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*Content{{
		Parts: []*Part{{Text: prompt}},
	}}
	config := BuildClassificationConfig()

	var lastErr error
	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * o.backoffUnit
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", prdoc.ErrOracleUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		resp, err := o.callOnce(ctx, contents, config)
		if err == nil {
			if resp == nil {
				// An empty response is malformed output, not transport
				// failure; it goes through the parse and re-prompt path.
				return "", nil
			}
			return resp.Text, nil
		}

		lastErr = err
		if !isTransient(err) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", prdoc.ErrOracleUnavailable, lastErr)
}

func (o *Oracle) callOnce(ctx context.Context, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.client.GenerateContent(ctx, o.model, contents, config)
}

// isTransient reports whether an error is worth another attempt. Rate limits
// and server errors are; auth and request errors are not.
func isTransient(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	// Network-level failures (timeouts, connection resets) arrive as plain
	// errors from the transport.
	return true
}

// BuildClassificationPrompt creates the user prompt for classification.
func BuildClassificationPrompt(formattedInput string) string {
	return fmt.Sprintf(`Analyze this pull request and classify its functional impact for documentation purposes.

%s

## Task

Identify what changed from a user's and operator's perspective.

STRICT SIGNAL-TO-NOISE RATIO:
- IGNORE formatting changes, whitespace, typo fixes in comments.
- FOCUS on logic changes, new features, behavior-affecting fixes, and configuration updates.

Report:
- **added_features**: new user-facing capabilities, each with a short name and one-line description
- **removed_features**: capabilities that no longer exist
- **changed_behavior**: behavior changes and bug fixes worth a changelog line
- **configuration_changes**: every change to dependencies, CI workflows, environment variables or config files, keyed by what changed
- **significance**: how documentation-worthy the change is overall

Respond with JSON matching this schema:
{
  "added_features": [{"name": "Feature name", "description": "What it does"}],
  "removed_features": [{"name": "Feature name", "description": ""}],
  "changed_behavior": ["Fixed X to handle Y"],
  "configuration_changes": [{"key": "GROQ_API_KEY", "effect": "new required env var"}],
  "significance": "low|medium|high",
  "summary": "One-sentence executive summary"
}

Rules:
- Every array must be present, empty if nothing applies
- significance must be exactly one of: low, medium, high`, formattedInput)
}

// BuildStrictReprompt wraps the original prompt after a malformed response.
func BuildStrictReprompt(prompt string, parseErr error) string {
	return fmt.Sprintf(`%s

Your previous response could not be parsed: %v

Respond again with ONLY the JSON object. No code fences, no commentary, and significance must be exactly "low", "medium" or "high".`, prompt, parseErr)
}

// BuildClassificationConfig returns config for classification calls.
func BuildClassificationConfig() *GenerateContentConfig {
	temp := float32(0.3) // Lower temperature for more consistent classification
	return &GenerateContentConfig{
		SystemInstruction: &Content{
			Parts: []*Part{{
				Text: `You are a senior software engineer auditing code changes for documentation impact.

Your role is to:
1. Separate functional changes from noise
2. Name user-facing features that were added or removed
3. Surface every configuration, dependency and CI change
4. Judge the overall documentation-worthiness of the change

Be precise and consistent. Never report trivialities like added newlines.`,
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   BuildClassificationSchema(),
	}
}

// BuildClassificationSchema returns the response schema for controlled JSON
// generation. The schema constrains shape, not honesty: responses are still
// validated after parsing.
func BuildClassificationSchema() *Schema {
	feature := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"name":        {Type: "string"},
			"description": {Type: "string"},
		},
		Required: []string{"name"},
	}
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"added_features":   {Type: "array", Items: feature},
			"removed_features": {Type: "array", Items: feature},
			"changed_behavior": {Type: "array", Items: &Schema{Type: "string"}},
			"configuration_changes": {Type: "array", Items: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"key":    {Type: "string"},
					"effect": {Type: "string"},
				},
				Required: []string{"key"},
			}},
			"significance": {Type: "string", Enum: []string{"low", "medium", "high"}},
			"summary":      {Type: "string"},
		},
		Required: []string{"added_features", "removed_features", "changed_behavior", "configuration_changes", "significance"},
	}
}
