package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/visualgenome/helper"
)

// DefaultEmbedderModel is the sentence transformer used for region phrases.
const DefaultEmbedderModel = "sentence-transformers/all-MiniLM-L6-v2"

// DefaultEmbeddingDimension is the output size of DefaultEmbedderModel.
const DefaultEmbeddingDimension = 384

// DefaultEmbedder creates a single phrase embedder on DefaultEmbedderModel.
func DefaultEmbedder() (EmbedFunc, error) {
	batch, err := DefaultBatchEmbedder()
	if err != nil {
		return nil, err
	}
	return SingleEmbedder(batch), nil
}

// DefaultBatchEmbedder creates an embedder running DefaultEmbedderModel
// over many phrases per call. The model is downloaded on first use.
func DefaultBatchEmbedder() (BatchEmbedFunc, error) {
	modelPath, err := helper.PrepareModel(DefaultEmbedderModel, "onnx/model.onnx")
	if err != nil {
		return nil, helper.NewError("prepare embedder model", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, helper.NewError("create hugot session", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "region-embedder",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, helper.NewError("create sentence pipeline", err)
	}

	return func(texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return nil, nil
		}

		result, err := sentencePipeline.RunPipeline(texts)
		if err != nil {
			return nil, helper.NewError("generate embeddings", err)
		}
		if len(result.Embeddings) != len(texts) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
		}

		return result.Embeddings, nil
	}, nil
}

// SingleEmbedder adapts a batch embedder to one phrase per call.
func SingleEmbedder(batch BatchEmbedFunc) EmbedFunc {
	return func(text string) ([]float32, error) {
		embeddings, err := batch([]string{text})
		if err != nil {
			return nil, err
		}
		if len(embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}
		return embeddings[0], nil
	}
}
