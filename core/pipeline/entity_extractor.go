package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
)

// DefaultSpanExtractor creates a span extractor using a NER model
// Uses distilbert-NER for named entity recognition
// Detects: PERSON, ORGANIZATION, LOCATION, MISC entities
func DefaultSpanExtractor() (SpanExtractFunc, error) {
	// Prepare model (download if needed)
	modelName := "KnightsAnalytics/distilbert-NER"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "qa-span-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}), // Ignore non-entity tokens
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return func(text string) ([]*model.QAObject, error) {
		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		if len(result.Entities) == 0 {
			return nil, nil
		}

		var spans []*model.QAObject
		for _, entity := range result.Entities[0] {
			spans = append(spans, &model.QAObject{
				StartIdx: int(entity.Start),
				EndIdx:   int(entity.End),
				Name:     strings.TrimSpace(entity.Word),
			})
		}

		return spans, nil
	}, nil
}

// VocabularySpanExtractor finds whole word, case insensitive mentions of
// the given names, e.g. the object names of an image's scene graph. Longer
// names win over names they contain and each span carries the synset of
// its name when one is given.
func VocabularySpanExtractor(names []string, synsets map[string]*model.Synset) SpanExtractFunc {
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			sorted = append(sorted, n)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	patterns := make([]*regexp.Regexp, len(sorted))
	for i, n := range sorted {
		patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(n) + `\b`)
	}

	return func(text string) ([]*model.QAObject, error) {
		taken := make([]bool, len(text))
		var spans []*model.QAObject

		for i, pattern := range patterns {
			for _, loc := range pattern.FindAllStringIndex(text, -1) {
				if overlaps(taken, loc[0], loc[1]) {
					continue
				}
				for k := loc[0]; k < loc[1]; k++ {
					taken[k] = true
				}
				spans = append(spans, &model.QAObject{
					StartIdx: loc[0],
					EndIdx:   loc[1],
					Name:     sorted[i],
					Synset:   synsets[sorted[i]],
				})
			}
		}

		sort.Slice(spans, func(i, j int) bool { return spans[i].StartIdx < spans[j].StartIdx })
		return spans, nil
	}
}

func overlaps(taken []bool, start int, end int) bool {
	for k := start; k < end; k++ {
		if taken[k] {
			return true
		}
	}
	return false
}
