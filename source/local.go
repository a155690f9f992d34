package source

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/siherrmann/visualgenome/core/scenegraph"
	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
)

// Files of the local corpus layout
const (
	ImageDataFile          = "image_data.json"
	RegionDescriptionsFile = "region_descriptions.json"
	QuestionAnswersFile    = "question_answers.json"
	SynsetsFile            = "synsets.json"
	SceneGraphsFile        = "scene_graphs.json"
	AttributesFile         = "attributes.json"
)

// LocalSource loads records from a corpus directory. Every call re-reads
// its files, nothing is cached.
type LocalSource struct {
	config model.Config
	log    *slog.Logger
}

// NewLocalSource creates a source over config.DataDir and config.ImageDataDir.
func NewLocalSource(config model.Config, logger *slog.Logger) *LocalSource {
	if logger == nil {
		logger = helper.NewDiscardLogger()
	}
	return &LocalSource{
		config: config,
		log:    logger,
	}
}

func (l *LocalSource) dataFile(name string) string {
	return filepath.Join(l.config.DataDir, name)
}

// GetAllImageData loads the metadata of every image.
func (l *LocalSource) GetAllImageData() ([]*model.Image, error) {
	var raws []RawImage
	err := helper.ReadJSONFile(l.dataFile(ImageDataFile), &raws)
	if err != nil {
		return nil, helper.NewError("read image data", err)
	}

	images := make([]*model.Image, 0, len(raws))
	for _, raw := range raws {
		image, err := ParseImageData(raw)
		if err != nil {
			return nil, helper.NewError("parse image data", err)
		}
		images = append(images, image)
	}
	return images, nil
}

type regionsOfImage struct {
	ID      *int        `json:"id"`
	ImageID *int        `json:"image_id"`
	Regions []RawRegion `json:"regions"`
}

// GetAllRegionDescriptions loads the regions of every image, grouped per
// image in file order.
func (l *LocalSource) GetAllRegionDescriptions() ([][]*model.Region, error) {
	images, err := l.GetAllImageData()
	if err != nil {
		return nil, err
	}
	byID := imageMap(images)

	var entries []regionsOfImage
	err = helper.ReadJSONFile(l.dataFile(RegionDescriptionsFile), &entries)
	if err != nil {
		return nil, helper.NewError("read region descriptions", err)
	}

	output := make([][]*model.Region, 0, len(entries))
	for i, entry := range entries {
		imageID, ok := firstOf(entry.ID, entry.ImageID)
		if !ok {
			return nil, fmt.Errorf("%w: region entry %d without image id", model.ErrMalformedRecord, i)
		}
		image, ok := byID[imageID]
		if !ok {
			l.log.Warn("Regions of unknown image", slog.Int("image_id", imageID))
		}

		regions, err := ParseRegionDescriptions(entry.Regions, image)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("regions of image %d", imageID), err)
		}
		output = append(output, regions)
	}
	return output, nil
}

type qasOfImage struct {
	ID  *int    `json:"id"`
	QAs []RawQA `json:"qas"`
}

// GetAllQAs loads the question answer pairs of every image, grouped per
// image in file order.
func (l *LocalSource) GetAllQAs() ([][]*model.QA, error) {
	images, err := l.GetAllImageData()
	if err != nil {
		return nil, err
	}
	byID := imageMap(images)

	var entries []qasOfImage
	err = helper.ReadJSONFile(l.dataFile(QuestionAnswersFile), &entries)
	if err != nil {
		return nil, helper.NewError("read question answers", err)
	}

	output := make([][]*model.QA, 0, len(entries))
	for _, entry := range entries {
		qas, err := ParseQA(entry.QAs, byID)
		if err != nil {
			return nil, helper.NewError("parse question answers", err)
		}
		output = append(output, qas)
	}
	return output, nil
}

// GetSceneGraph loads the per image file written by corpus.SplitByImage
// and resolves its synsets against the configured dictionary.
func (l *LocalSource) GetSceneGraph(imageID int) (*model.Graph, error) {
	synsets, err := scenegraph.LoadSynsets(l.config.SynsetFile)
	if err != nil {
		return nil, err
	}
	return l.loadSceneGraph(imageID, synsets)
}

func (l *LocalSource) loadSceneGraph(imageID int, synsets model.SynsetMap) (*model.Graph, error) {
	path := filepath.Join(l.config.ImageDataDir, strconv.Itoa(imageID)+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: scene graph of image %d", model.ErrNotFound, imageID)
	} else if err != nil {
		return nil, helper.NewError("read scene graph", err)
	}

	graph, err := scenegraph.ParseJSON(data, imageID, l.config.MergePolicy)
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("parse scene graph %d", imageID), err)
	}

	err = scenegraph.ResolveSynsets(graph, synsets)
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("scene graph %d", imageID), err)
	}
	return graph, nil
}

// SceneGraphIDs lists the image ids of the per image files in ascending order.
func (l *LocalSource) SceneGraphIDs() ([]int, error) {
	entries, err := os.ReadDir(l.config.ImageDataDir)
	if err != nil {
		return nil, helper.NewError("list scene graphs", err)
	}

	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
		if err != nil {
			l.log.Debug("Skipping file", slog.String("name", name))
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// GetSceneGraphs loads the files from config.StartIndex up to
// config.EndIndex (all files when EndIndex < 1) and keeps the graphs whose
// relationship count is inside the configured window. The synset
// dictionary is read once.
func (l *LocalSource) GetSceneGraphs() ([]*model.Graph, error) {
	ids, err := l.SceneGraphIDs()
	if err != nil {
		return nil, err
	}

	start, end := l.config.StartIndex, l.config.EndIndex
	if end < 1 || end > len(ids) {
		end = len(ids)
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}

	synsets, err := scenegraph.LoadSynsets(l.config.SynsetFile)
	if err != nil {
		return nil, err
	}

	graphs := []*model.Graph{}
	for _, id := range ids[start:end] {
		graph, err := l.loadSceneGraph(id, synsets)
		if err != nil {
			return nil, err
		}
		if l.config.AcceptsRelationshipCount(len(graph.Relationships)) {
			graphs = append(graphs, graph)
		}
	}

	l.log.Debug("Loaded scene graphs", slog.Int("files", end-start), slog.Int("kept", len(graphs)))

	return graphs, nil
}

// GetSceneGraphsVRD loads every image of a VRD file.
func (l *LocalSource) GetSceneGraphsVRD(path string) ([]*model.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError("read vrd", err)
	}
	return scenegraph.ParseVRDJSON(data)
}

// SaveSceneGraph writes the graph to its per image file, the inverse of GetSceneGraph.
func (l *LocalSource) SaveSceneGraph(graph *model.Graph) error {
	err := os.MkdirAll(l.config.ImageDataDir, 0o755)
	if err != nil {
		return helper.NewError("create image data dir", err)
	}

	path := filepath.Join(l.config.ImageDataDir, strconv.Itoa(graph.ImageID)+".json")
	err = helper.WriteJSONFile(path, scenegraph.Serialize(graph))
	if err != nil {
		return helper.NewError(fmt.Sprintf("save scene graph %d", graph.ImageID), err)
	}
	return nil
}
