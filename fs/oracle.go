// Package fs provides a file-based cache around a classification oracle, so
// repeated runs on an unchanged pull request do not re-bill the API.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/prdoc"
)

// Compile-time interface verification.
var _ prdoc.Oracle = (*Oracle)(nil)

// Oracle wraps a prdoc.Oracle with file-based caching keyed by the change
// set content. The oracle is not deterministic across calls; caching also
// keeps re-runs of the same PR event consistent.
type Oracle struct {
	inner    prdoc.Oracle
	cacheDir string
}

// NewOracle creates a new caching oracle.
func NewOracle(inner prdoc.Oracle, cacheDir string) *Oracle {
	return &Oracle{
		inner:    inner,
		cacheDir: cacheDir,
	}
}

// Classify returns a cached classification or delegates to the inner oracle.
func (o *Oracle) Classify(ctx context.Context, cs *prdoc.ChangeSet, verdict *prdoc.FilterVerdict) (*prdoc.Classification, error) {
	hash := o.hashInput(cs, verdict)

	if cached, err := o.loadFromCache(hash); err == nil {
		return cached, nil
	}

	result, err := o.inner.Classify(ctx, cs, verdict)
	if err != nil {
		return nil, err
	}

	// Store in cache (best-effort)
	_ = o.saveToCache(hash, result)

	return result, nil
}

func (o *Oracle) hashInput(cs *prdoc.ChangeSet, verdict *prdoc.FilterVerdict) string {
	data, _ := json.Marshal(struct {
		Title string
		Files []prdoc.FileChange
	}{cs.Title, verdict.Analyzable(cs)})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (o *Oracle) cachePath(hash string) string {
	return filepath.Join(o.cacheDir, hash+".json")
}

// cacheEntry carries significance as text because Classification does not
// marshal its enum.
type cacheEntry struct {
	Classification prdoc.Classification `json:"classification"`
	Significance   string               `json:"significance"`
}

func (o *Oracle) loadFromCache(hash string) (*prdoc.Classification, error) {
	data, err := os.ReadFile(o.cachePath(hash))
	if err != nil {
		return nil, err
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	significance, err := prdoc.ParseSignificance(entry.Significance)
	if err != nil {
		return nil, err
	}
	c := entry.Classification
	c.Significance = significance
	c.Normalize()
	return &c, nil
}

func (o *Oracle) saveToCache(hash string, c *prdoc.Classification) error {
	if err := os.MkdirAll(o.cacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(cacheEntry{
		Classification: *c,
		Significance:   c.Significance.String(),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(o.cachePath(hash), data, 0o644)
}
