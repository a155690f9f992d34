package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// defaultEmbedder skips the test when the model cannot be prepared
func defaultEmbedder(t *testing.T) EmbedFunc {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
	}

	embedder, err := DefaultEmbedder()
	if err != nil {
		t.Skipf("Skipping DefaultEmbedder test, model unavailable: %v", err)
	}
	return embedder
}

func TestDefaultEmbedder(t *testing.T) {
	t.Run("Generate embedding for a phrase", func(t *testing.T) {
		embedder := defaultEmbedder(t)

		embedding, err := embedder("a black cat sitting on a wooden table")

		require.NoError(t, err)
		assert.Equal(t, DefaultEmbeddingDimension, len(embedding), "all-MiniLM-L6-v2 produces 384-dimensional embeddings")
	})

	t.Run("Same phrase produces same embedding", func(t *testing.T) {
		embedder := defaultEmbedder(t)

		embedding1, err := embedder("man wearing hat")
		require.NoError(t, err)
		embedding2, err := embedder("man wearing hat")
		require.NoError(t, err)

		for i := range embedding1 {
			assert.InDelta(t, embedding1[i], embedding2[i], 0.0001, "Same phrase should produce same embedding")
		}
	})

	t.Run("Similar phrases have similar embeddings", func(t *testing.T) {
		embedder := defaultEmbedder(t)

		embedding1, err := embedder("dog on grass")
		require.NoError(t, err)
		embedding2, err := embedder("puppy on the lawn")
		require.NoError(t, err)
		embedding3, err := embedder("traffic light above street")
		require.NoError(t, err)

		assert.Greater(t, cosineSimilarity(embedding1, embedding2), cosineSimilarity(embedding1, embedding3),
			"Semantically similar phrases should have higher similarity")
	})

	t.Run("Embed relationship regions", func(t *testing.T) {
		embedder := defaultEmbedder(t)
		pipeline := NewPipeline(embedder)

		regions, err := pipeline.ProcessGraph(testGraph())
		require.NoError(t, err)

		require.Len(t, regions, 1)
		assert.Len(t, regions[0].Embedding, DefaultEmbeddingDimension)
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 0.0001)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.0001)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
