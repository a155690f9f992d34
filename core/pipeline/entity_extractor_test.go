package pipeline

import (
	"errors"
	"testing"

	"github.com/siherrmann/visualgenome/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularySpanExtractor(t *testing.T) {
	cat := &model.Synset{Name: "cat.n.01"}
	extractor := VocabularySpanExtractor([]string{"cat", "table", "coffee table", " "}, map[string]*model.Synset{"cat": cat})

	t.Run("Find mentions", func(t *testing.T) {
		spans, err := extractor("Where is the Cat sitting?")
		require.NoError(t, err, "Expected extractor to not return an error")

		require.Len(t, spans, 1)
		assert.Equal(t, 13, spans[0].StartIdx)
		assert.Equal(t, 16, spans[0].EndIdx)
		assert.Equal(t, "cat", spans[0].Name)
		assert.Same(t, cat, spans[0].Synset)
	})

	t.Run("Longer names win", func(t *testing.T) {
		spans, err := extractor("The cat is on the coffee table.")
		require.NoError(t, err)

		require.Len(t, spans, 2)
		assert.Equal(t, "cat", spans[0].Name)
		assert.Equal(t, "coffee table", spans[1].Name)
		assert.Nil(t, spans[1].Synset)
	})

	t.Run("Whole words only", func(t *testing.T) {
		spans, err := extractor("A category of tables.")
		require.NoError(t, err)

		assert.Empty(t, spans)
	})
}

func TestAnnotateQA(t *testing.T) {
	t.Run("Fill empty spans", func(t *testing.T) {
		pipeline := NewPipeline(mockEmbedFunc)
		pipeline.SetSpanExtractor(VocabularySpanExtractor([]string{"cat", "mat"}, nil))
		existing := []*model.QAObject{{Name: "kept"}}
		qas := []*model.QA{
			{ID: 1, Question: "What is on the mat?", Answer: "A cat."},
			{ID: 2, Question: "Is the cat black?", Answer: "Yes.", QuestionObjects: existing},
		}

		err := pipeline.AnnotateQA(qas)
		require.NoError(t, err, "Expected AnnotateQA to not return an error")

		require.Len(t, qas[0].QuestionObjects, 1)
		assert.Equal(t, "mat", qas[0].QuestionObjects[0].Name)
		require.Len(t, qas[0].AnswerObjects, 1)
		assert.Equal(t, 2, qas[0].AnswerObjects[0].StartIdx)
		assert.Equal(t, existing, qas[1].QuestionObjects)
		assert.Empty(t, qas[1].AnswerObjects)
	})

	t.Run("Without extractor", func(t *testing.T) {
		err := NewPipeline(mockEmbedFunc).AnnotateQA([]*model.QA{{ID: 1}})
		assert.Error(t, err)
	})

	t.Run("Extractor error", func(t *testing.T) {
		pipeline := NewPipeline(mockEmbedFunc)
		pipeline.SetSpanExtractor(func(text string) ([]*model.QAObject, error) {
			return nil, errors.New("ner failed")
		})

		err := pipeline.AnnotateQA([]*model.QA{{ID: 4, Question: "Why?"}})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "question of qa 4")
	})
}

func TestDefaultSpanExtractor(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping DefaultSpanExtractor test in short mode (requires model download)")
	}

	extractor, err := DefaultSpanExtractor()
	if err != nil {
		t.Skipf("Skipping DefaultSpanExtractor test, model unavailable: %v", err)
	}

	text := "Is this photo taken in Berlin?"
	spans, err := extractor(text)
	require.NoError(t, err)

	for _, span := range spans {
		assert.GreaterOrEqual(t, span.StartIdx, 0)
		assert.LessOrEqual(t, span.EndIdx, len(text))
		t.Logf("  - %s [%d:%d]", span.Name, span.StartIdx, span.EndIdx)
	}
}
