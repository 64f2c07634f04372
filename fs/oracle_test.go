package fs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/prdoc"
	"github.com/fwojciec/prdoc/fs"
	"github.com/fwojciec/prdoc/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedChangeSet() (*prdoc.ChangeSet, *prdoc.FilterVerdict) {
	cs := &prdoc.ChangeSet{
		Title: "Add email validation",
		Files: []prdoc.FileChange{
			{Path: "validator.go", Status: prdoc.StatusAdded, Patch: "+package mail"},
		},
	}
	verdict := &prdoc.FilterVerdict{Files: []prdoc.FileVerdict{prdoc.FileAnalyzable}}
	return cs, verdict
}

func TestOracle_CachesClassification(t *testing.T) {
	t.Parallel()

	inner := &mock.Oracle{
		ClassifyFn: func(ctx context.Context, cs *prdoc.ChangeSet, verdict *prdoc.FilterVerdict) (*prdoc.Classification, error) {
			return &prdoc.Classification{
				AddedFeatures: []prdoc.Feature{{Name: "Email validation"}},
				Significance:  prdoc.SignificanceHigh,
				Summary:       "Adds validation.",
			}, nil
		},
	}
	oracle := fs.NewOracle(inner, t.TempDir())
	cs, verdict := cachedChangeSet()

	first, err := oracle.Classify(context.Background(), cs, verdict)
	require.NoError(t, err)

	second, err := oracle.Classify(context.Background(), cs, verdict)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.ClassifyCount)
	assert.Equal(t, first, second)
	assert.Equal(t, prdoc.SignificanceHigh, second.Significance)
	require.Len(t, second.AddedFeatures, 1)
	assert.Equal(t, "Email validation", second.AddedFeatures[0].Name)
}

func TestOracle_DifferentInputMissesCache(t *testing.T) {
	t.Parallel()

	inner := &mock.Oracle{
		ClassifyFn: func(ctx context.Context, cs *prdoc.ChangeSet, verdict *prdoc.FilterVerdict) (*prdoc.Classification, error) {
			return &prdoc.Classification{Significance: prdoc.SignificanceLow}, nil
		},
	}
	oracle := fs.NewOracle(inner, t.TempDir())

	cs, verdict := cachedChangeSet()
	_, err := oracle.Classify(context.Background(), cs, verdict)
	require.NoError(t, err)

	cs.Files[0].Patch = "+package mail\n+func Valid() {}"
	_, err = oracle.Classify(context.Background(), cs, verdict)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.ClassifyCount)
}

func TestOracle_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	fail := errors.New("transient")
	inner := &mock.Oracle{
		ClassifyFn: func(ctx context.Context, cs *prdoc.ChangeSet, verdict *prdoc.FilterVerdict) (*prdoc.Classification, error) {
			return nil, fail
		},
	}
	oracle := fs.NewOracle(inner, t.TempDir())
	cs, verdict := cachedChangeSet()

	_, err := oracle.Classify(context.Background(), cs, verdict)
	assert.ErrorIs(t, err, fail)

	_, err = oracle.Classify(context.Background(), cs, verdict)
	assert.ErrorIs(t, err, fail)

	assert.Equal(t, 2, inner.ClassifyCount)
}
