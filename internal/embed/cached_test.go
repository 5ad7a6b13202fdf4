package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder records provider calls so cache hits are observable.
type countingEmbedder struct {
	embedCalls int
	batchCalls int
	batchTexts [][]string
}

var _ Embedder = (*countingEmbedder)(nil)

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedCalls++
	return []float32{float32(len(text)), 0, 0}, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls++
	c.batchTexts = append(c.batchTexts, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 0, 0}
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int    { return 3 }
func (c *countingEmbedder) ModelName() string  { return "test-model" }
func (c *countingEmbedder) Close() error       { return nil }

func TestCachedEmbedder_EmbedCachesResult(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 10)

	first, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)

	second, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.embedCalls)
}

func TestCachedEmbedder_BatchOnlyEmbedsMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 10)

	_, err := cached.Embed(context.Background(), "alpha")
	require.NoError(t, err)

	got, err := cached.EmbedBatch(context.Background(), []string{"alpha", "bravo", "charlie"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Only the two uncached texts hit the provider.
	require.Equal(t, 1, inner.batchCalls)
	assert.Equal(t, []string{"bravo", "charlie"}, inner.batchTexts[0])

	// Results land at their original positions.
	assert.Equal(t, float32(5), got[0][0])
	assert.Equal(t, float32(5), got[1][0])
	assert.Equal(t, float32(7), got[2][0])
}

func TestCachedEmbedder_BatchFullyCached(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 10)

	texts := []string{"a", "b"}
	_, err := cached.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	_, err = cached.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.batchCalls)
}

func TestCachedEmbedder_EmptyBatch(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 10)

	got, err := cached.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, inner.batchCalls)
}

func TestCachedEmbedder_Passthroughs(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 0)

	assert.Equal(t, 3, cached.Dimensions())
	assert.Equal(t, "test-model", cached.ModelName())
	assert.NoError(t, cached.Close())
}
