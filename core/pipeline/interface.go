package pipeline

import (
	"fmt"

	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// BatchEmbedFunc generates embeddings for many texts in one call, in input order
type BatchEmbedFunc func(texts []string) ([][]float32, error)

// DescribeFunc turns a scene graph into described regions, e.g. one phrase per relationship
type DescribeFunc func(graph *model.Graph) []*model.Region

// SpanExtractFunc finds the entity spans mentioned in a question or answer
type SpanExtractFunc func(text string) ([]*model.QAObject, error)

// Pipeline embeds region phrases and annotates question answer pairs
type Pipeline struct {
	Embedder      EmbedFunc
	BatchEmbedder BatchEmbedFunc  // Optional - preferred by EmbedRegions when set
	Describer     DescribeFunc    // Optional - defaults to RelationshipRegions
	SpanExtractor SpanExtractFunc // Optional
}

// NewPipeline creates a new embedding pipeline
func NewPipeline(embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Embedder: embedder,
	}
}

// SetBatchEmbedder sets the embedder used for whole region lists
func (p *Pipeline) SetBatchEmbedder(embedder BatchEmbedFunc) {
	p.BatchEmbedder = embedder
}

// SetDescriber sets the function describing scene graphs as regions
func (p *Pipeline) SetDescriber(describer DescribeFunc) {
	p.Describer = describer
}

// SetSpanExtractor sets the function finding entity spans in QA texts
func (p *Pipeline) SetSpanExtractor(extractor SpanExtractFunc) {
	p.SpanExtractor = extractor
}

// EmbedRegions fills the embedding of every region from its phrase.
// Regions with an embedding already are kept as they are.
func (p *Pipeline) EmbedRegions(regions []*model.Region) error {
	if p.Embedder == nil && p.BatchEmbedder == nil {
		return helper.NewError("embed regions", fmt.Errorf("no embedder configured"))
	}

	missing := make([]*model.Region, 0, len(regions))
	for _, r := range regions {
		if len(r.Embedding) == 0 {
			missing = append(missing, r)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if p.BatchEmbedder != nil {
		phrases := make([]string, len(missing))
		for i, r := range missing {
			phrases[i] = r.Phrase
		}
		embeddings, err := p.BatchEmbedder(phrases)
		if err != nil {
			return helper.NewError("embed region batch", err)
		}
		if len(embeddings) != len(missing) {
			return helper.NewError("embed region batch", fmt.Errorf("expected %d embeddings, got %d", len(missing), len(embeddings)))
		}
		for i, r := range missing {
			r.Embedding = embeddings[i]
		}
		return nil
	}

	for _, r := range missing {
		embedding, err := p.Embedder(r.Phrase)
		if err != nil {
			return helper.NewError(fmt.Sprintf("embed region %d", r.ID), err)
		}
		r.Embedding = embedding
	}
	return nil
}

// ProcessGraph describes the graph as regions and embeds them
func (p *Pipeline) ProcessGraph(graph *model.Graph) ([]*model.Region, error) {
	describe := p.Describer
	if describe == nil {
		describe = RelationshipRegions
	}

	regions := describe(graph)
	err := p.EmbedRegions(regions)
	if err != nil {
		return nil, err
	}
	return regions, nil
}

// AnnotateQA fills the question and answer objects of pairs that carry none.
func (p *Pipeline) AnnotateQA(qas []*model.QA) error {
	if p.SpanExtractor == nil {
		return helper.NewError("annotate qa", fmt.Errorf("no span extractor configured"))
	}

	for _, qa := range qas {
		if len(qa.QuestionObjects) == 0 {
			spans, err := p.SpanExtractor(qa.Question)
			if err != nil {
				return helper.NewError(fmt.Sprintf("question of qa %d", qa.ID), err)
			}
			qa.QuestionObjects = spans
		}
		if len(qa.AnswerObjects) == 0 {
			spans, err := p.SpanExtractor(qa.Answer)
			if err != nil {
				return helper.NewError(fmt.Sprintf("answer of qa %d", qa.ID), err)
			}
			qa.AnswerObjects = spans
		}
	}
	return nil
}
