package source

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/siherrmann/visualgenome/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

// graphFile builds a per image file with n chained relationships.
func graphFile(imageID int, n int) string {
	rels := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			rels += ","
		}
		rels += `{"relationship_id": ` + strconv.Itoa(imageID*100+i) + `, "predicate": "near",
			"subject": {"object_id": ` + strconv.Itoa(i) + `, "x": 0, "y": 0, "w": 1, "h": 1, "names": ["o"], "synsets": ["thing.n.01"]},
			"object": {"object_id": ` + strconv.Itoa(i+1) + `, "x": 0, "y": 0, "w": 1, "h": 1, "names": ["o"], "synsets": ["thing.n.01"]},
			"synsets": []}`
	}
	return `{"image_id": ` + strconv.Itoa(imageID) + `, "relationships": [` + rels + `]}`
}

// newCorpus writes a small corpus and returns a config pointing at it.
func newCorpus(t *testing.T) model.Config {
	t.Helper()
	dir := t.TempDir()
	config := model.DefaultConfig()
	config.DataDir = dir
	config.ImageDataDir = filepath.Join(dir, "by-id")
	config.SynsetFile = filepath.Join(dir, SynsetsFile)

	writeFile(t, filepath.Join(dir, ImageDataFile), `[
		{"image_id": 1, "url": "https://example.com/1.jpg", "width": 800, "height": 600, "coco_id": 5, "flickr_id": null},
		{"image_id": 2, "url": "https://example.com/2.jpg", "width": 640, "height": 480, "coco_id": null, "flickr_id": null}
	]`)
	writeFile(t, filepath.Join(dir, RegionDescriptionsFile), `[
		{"id": 1, "regions": [{"region_id": 10, "image_id": 1, "phrase": "a cat", "x": 1, "y": 1, "width": 5, "height": 5}]},
		{"id": 2, "regions": [{"region_id": 20, "image_id": 2, "phrase": "a dog", "x": 0, "y": 0, "width": 9, "height": 9},
		                      {"region_id": 21, "image_id": 2, "phrase": "grass", "x": 0, "y": 9, "width": 9, "height": 1}]}
	]`)
	writeFile(t, filepath.Join(dir, QuestionAnswersFile), `[
		{"id": 1, "qas": [{"qa_id": 100, "image_id": 1, "question": "What animal?", "answer": "Cat.",
			"q_objects": [], "a_objects": [{"entity_idx_start": 0, "entity_idx_end": 3, "entity_name": "cat", "synset_name": "cat.n.01", "synset_definition": "feline"}]}]},
		{"id": 2, "qas": []}
	]`)
	writeFile(t, config.SynsetFile, `[{"synset_name": "thing.n.01", "synset_definition": "an entity"}]`)

	writeFile(t, filepath.Join(config.ImageDataDir, "1.json"), graphFile(1, 1))
	writeFile(t, filepath.Join(config.ImageDataDir, "2.json"), graphFile(2, 3))
	writeFile(t, filepath.Join(config.ImageDataDir, "10.json"), graphFile(10, 0))
	writeFile(t, filepath.Join(config.ImageDataDir, "notes.txt"), "ignored")

	return config
}

func TestLocalRecords(t *testing.T) {
	config := newCorpus(t)
	src := NewLocalSource(config, nil)

	t.Run("Image data", func(t *testing.T) {
		images, err := src.GetAllImageData()
		require.NoError(t, err, "Expected GetAllImageData to not return an error")
		require.Len(t, images, 2)

		assert.Equal(t, 1, images[0].ID)
		require.NotNil(t, images[0].CocoID)
		assert.Equal(t, 5, *images[0].CocoID)
		assert.Nil(t, images[1].CocoID)
	})

	t.Run("Region descriptions", func(t *testing.T) {
		regions, err := src.GetAllRegionDescriptions()
		require.NoError(t, err, "Expected GetAllRegionDescriptions to not return an error")
		require.Len(t, regions, 2)

		require.Len(t, regions[1], 2)
		assert.Equal(t, 21, regions[1][1].ID)
		assert.Equal(t, "grass", regions[1][1].Phrase)
		assert.Same(t, regions[1][0].Image, regions[1][1].Image, "Expected regions to share the image record")
	})

	t.Run("Question answers", func(t *testing.T) {
		qas, err := src.GetAllQAs()
		require.NoError(t, err, "Expected GetAllQAs to not return an error")
		require.Len(t, qas, 2)

		require.Len(t, qas[0], 1)
		qa := qas[0][0]
		assert.Equal(t, 100, qa.ID)
		assert.Equal(t, "https://example.com/1.jpg", qa.Image.URL)
		assert.Empty(t, qa.QuestionObjects)
		require.Len(t, qa.AnswerObjects, 1)
		assert.Equal(t, "feline", qa.AnswerObjects[0].Synset.Definition)
		assert.Empty(t, qas[1])
	})

	t.Run("Missing file", func(t *testing.T) {
		config := model.DefaultConfig()
		config.DataDir = t.TempDir()

		_, err := NewLocalSource(config, nil).GetAllImageData()

		assert.Error(t, err)
	})
}

func TestLocalSceneGraphs(t *testing.T) {
	t.Run("Single scene graph with synsets", func(t *testing.T) {
		src := NewLocalSource(newCorpus(t), nil)

		graph, err := src.GetSceneGraph(2)
		require.NoError(t, err, "Expected GetSceneGraph to not return an error")

		assert.Equal(t, 2, graph.ImageID)
		assert.Len(t, graph.Relationships, 3)
		assert.Len(t, graph.Objects, 4)
		first, _ := graph.ObjectByID(0)
		second, _ := graph.ObjectByID(1)
		require.Len(t, first.Synsets, 1)
		assert.Same(t, first.Synsets[0], second.Synsets[0])
	})

	t.Run("Missing scene graph", func(t *testing.T) {
		src := NewLocalSource(newCorpus(t), nil)

		_, err := src.GetSceneGraph(99)

		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("Ids are listed in numeric order", func(t *testing.T) {
		src := NewLocalSource(newCorpus(t), nil)

		ids, err := src.SceneGraphIDs()
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 10}, ids)
	})

	t.Run("All scene graphs", func(t *testing.T) {
		src := NewLocalSource(newCorpus(t), nil)

		graphs, err := src.GetSceneGraphs()
		require.NoError(t, err, "Expected GetSceneGraphs to not return an error")

		require.Len(t, graphs, 3)
		assert.Equal(t, 10, graphs[2].ImageID)
	})

	t.Run("Relationship window", func(t *testing.T) {
		config := newCorpus(t)
		config.MinRelationships = 1
		config.MaxRelationships = 2

		graphs, err := NewLocalSource(config, nil).GetSceneGraphs()
		require.NoError(t, err)

		require.Len(t, graphs, 1)
		assert.Equal(t, 1, graphs[0].ImageID)
	})

	t.Run("Index window", func(t *testing.T) {
		config := newCorpus(t)
		config.StartIndex = 1
		config.EndIndex = 2

		graphs, err := NewLocalSource(config, nil).GetSceneGraphs()
		require.NoError(t, err)

		require.Len(t, graphs, 1)
		assert.Equal(t, 2, graphs[0].ImageID)
	})

	t.Run("Save and load again", func(t *testing.T) {
		config := newCorpus(t)
		src := NewLocalSource(config, nil)
		graph, err := src.GetSceneGraph(2)
		require.NoError(t, err)

		graph.ImageID = 3
		require.NoError(t, src.SaveSceneGraph(graph), "Expected SaveSceneGraph to not return an error")
		loaded, err := src.GetSceneGraph(3)
		require.NoError(t, err)

		assert.Equal(t, len(graph.Objects), len(loaded.Objects))
		assert.Equal(t, len(graph.Relationships), len(loaded.Relationships))
		assert.Equal(t, graph.Relationships[1].ID, loaded.Relationships[1].ID)
		assert.Equal(t, graph.Objects[0].Synsets[0].Name, loaded.Objects[0].Synsets[0].Name)
	})

	t.Run("VRD file", func(t *testing.T) {
		config := newCorpus(t)
		path := filepath.Join(config.DataDir, "vrd", "test.json")
		writeFile(t, path, `[{"photo_id": 5, "filename": "5.jpg", "width": 10, "height": 10,
			"objects": [{"bbox": {"x": 0, "y": 0, "w": 1, "h": 1}, "names": ["a"], "attributes": []},
			            {"bbox": {"x": 1, "y": 1, "w": 1, "h": 1}, "names": ["b"], "attributes": []}],
			"relationships": [{"objects": [1, 0], "relationship": "left of"}]}]`)

		graphs, err := NewLocalSource(config, nil).GetSceneGraphsVRD(path)
		require.NoError(t, err, "Expected GetSceneGraphsVRD to not return an error")

		require.Len(t, graphs, 1)
		assert.Equal(t, "b", graphs[0].Relationships[0].Subject.Names[0])
	})
}
