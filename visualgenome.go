package visualgenome

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/siherrmann/visualgenome/core/corpus"
	"github.com/siherrmann/visualgenome/core/pipeline"
	"github.com/siherrmann/visualgenome/core/scenegraph"
	"github.com/siherrmann/visualgenome/database"
	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
	"github.com/siherrmann/visualgenome/source"
	loadSql "github.com/siherrmann/visualgenome/sql"
)

// Genome provides a unified interface to the local corpus, the remote API
// and the optional Postgres store
type Genome struct {
	Config   model.Config
	Local    *source.LocalSource
	Remote   *source.RemoteSource
	Corpus   *corpus.Transformer
	Pipeline *pipeline.Pipeline // Optional embedding pipeline
	// Store, nil without database configuration
	DB          *helper.Database
	Images      *database.ImagesDBHandler
	Synsets     *database.SynsetsDBHandler
	SceneGraphs *database.SceneGraphsDBHandler
	Regions     *database.RegionsDBHandler
	// Logging
	log *slog.Logger
}

// NewGenome creates a new Genome. A nil cfg uses model.DefaultConfig.
// With a nil dbConfig the store handlers stay nil and only the file and
// API operations are available.
func NewGenome(cfg *model.Config, dbConfig *helper.DatabaseConfiguration, embeddingDim int) (*Genome, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	config := model.DefaultConfig()
	if cfg != nil {
		config = *cfg
	}
	err := config.MergePolicy.Validate()
	if err != nil {
		return nil, helper.NewError("config", err)
	}

	g := &Genome{
		Config: config,
		Local:  source.NewLocalSource(config, logger),
		Remote: source.NewRemoteSourceFromConfig(config, logger),
		Corpus: corpus.NewTransformer(logger),
		log:    logger,
	}

	if dbConfig == nil {
		return g, nil
	}

	// Initialize database
	db, err := helper.NewDatabase("visualgenome", dbConfig, logger)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}
	g.DB = db

	err = loadSql.Init(db.Instance)
	if err != nil {
		db.Close()
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	g.Images, err = database.NewImagesDBHandler(db, false)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create images handler", err)
	}

	g.Synsets, err = database.NewSynsetsDBHandler(db, false)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create synsets handler", err)
	}

	g.SceneGraphs, err = database.NewSceneGraphsDBHandler(db, false)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create scene graphs handler", err)
	}

	g.Regions, err = database.NewRegionsDBHandler(db, embeddingDim, false)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create regions handler", err)
	}

	return g, nil
}

// Close closes the database connection
func (g *Genome) Close() error {
	if g.DB != nil && g.DB.Instance != nil {
		return g.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the embedding pipeline used for region import and search
func (g *Genome) SetPipeline(pipeline *pipeline.Pipeline) {
	g.Pipeline = pipeline
}

// UseDefaultPipeline sets up the all-MiniLM-L6-v2 embedder (384 dimensions)
// with relationship phrases as regions. Graph regions are embedded in batches.
func (g *Genome) UseDefaultPipeline() error {
	batch, err := pipeline.DefaultBatchEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	g.Pipeline = pipeline.NewPipeline(pipeline.SingleEmbedder(batch))
	g.Pipeline.SetBatchEmbedder(batch)
	return nil
}

// LoadSceneGraph loads the scene graph of one image from the split corpus
func (g *Genome) LoadSceneGraph(imageID int) (*model.Graph, error) {
	return g.Local.GetSceneGraph(imageID)
}

// LoadSceneGraphs loads the configured window of the split corpus
func (g *Genome) LoadSceneGraphs() ([]*model.Graph, error) {
	return g.Local.GetSceneGraphs()
}

// PrepareCorpus merges attributes.json into scene_graphs.json and splits the
// result into one file per image under the image data dir. Attribute ids
// start at zero. Returns the number of per image files written.
func (g *Genome) PrepareCorpus(ctx context.Context) (int, error) {
	graphsFile := filepath.Join(g.Config.DataDir, source.SceneGraphsFile)
	attributesFile := filepath.Join(g.Config.DataDir, source.AttributesFile)

	next, err := g.Corpus.MergeAttributes(ctx, attributesFile, graphsFile, 0)
	if err != nil {
		return 0, helper.NewError("merge attributes", err)
	}

	g.log.Info("Merged attributes", slog.Int("attributes", next))

	count, err := g.Corpus.SplitByImage(ctx, graphsFile, g.Config.ImageDataDir)
	if err != nil {
		return 0, helper.NewError("split by image", err)
	}

	return count, nil
}

// ImportImages stores the metadata of image_data.json. Returns the number of images stored.
func (g *Genome) ImportImages(ctx context.Context) (int, error) {
	if err := g.requireStore("import images"); err != nil {
		return 0, err
	}

	images, err := g.Local.GetAllImageData()
	if err != nil {
		return 0, helper.NewError("load image data", err)
	}

	for i, image := range images {
		if err := ctx.Err(); err != nil {
			return i, helper.NewError("import images", err)
		}
		if err := g.Images.InsertImage(image); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert image %d", image.ID), err)
		}
	}

	g.log.Info("Imported images", slog.Int("count", len(images)))

	return len(images), nil
}

// ImportSynsets stores the synset dictionary of the configured synset file
func (g *Genome) ImportSynsets() (int, error) {
	if err := g.requireStore("import synsets"); err != nil {
		return 0, err
	}

	synsets, err := scenegraph.LoadSynsets(g.Config.SynsetFile)
	if err != nil {
		return 0, helper.NewError("load synsets", err)
	}

	err = g.Synsets.InsertSynsets(synsets)
	if err != nil {
		return 0, helper.NewError("insert synsets", err)
	}

	return len(synsets), nil
}

// ImportSceneGraph stores a graph. With a pipeline set its regions are
// described, embedded and stored as well.
func (g *Genome) ImportSceneGraph(graph *model.Graph) error {
	if err := g.requireStore("import scene graph"); err != nil {
		return err
	}

	err := g.SceneGraphs.InsertSceneGraph(graph)
	if err != nil {
		return helper.NewError("insert scene graph", err)
	}

	if g.Pipeline == nil {
		return nil
	}

	regions, err := g.Pipeline.ProcessGraph(graph)
	if err != nil {
		return helper.NewError("process graph", err)
	}

	_, err = g.ImportRegions(regions)
	if err != nil {
		return helper.NewError("import graph regions", err)
	}

	return nil
}

// ImportSceneGraphs stores the configured window of the split corpus.
// Returns the number of graphs stored.
func (g *Genome) ImportSceneGraphs(ctx context.Context) (int, error) {
	graphs, err := g.LoadSceneGraphs()
	if err != nil {
		return 0, helper.NewError("load scene graphs", err)
	}

	for i, graph := range graphs {
		if err := ctx.Err(); err != nil {
			return i, helper.NewError("import scene graphs", err)
		}
		if err := g.ImportSceneGraph(graph); err != nil {
			return i, helper.NewError(fmt.Sprintf("import scene graph %d", graph.ImageID), err)
		}
	}

	g.log.Info("Imported scene graphs", slog.Int("count", len(graphs)))

	return len(graphs), nil
}

// StoredSceneGraph loads a graph from the store with its synsets resolved
// against the stored dictionary
func (g *Genome) StoredSceneGraph(imageID int) (*model.Graph, error) {
	if err := g.requireStore("stored scene graph"); err != nil {
		return nil, err
	}

	synsets, err := g.Synsets.SelectAllSynsets()
	if err != nil {
		return nil, helper.NewError("select synsets", err)
	}

	return g.SceneGraphs.SelectSceneGraph(imageID, synsets)
}

// ImportRegions stores regions, embedding their phrases first when a pipeline is set.
// Returns the number of regions stored.
func (g *Genome) ImportRegions(regions []*model.Region) (int, error) {
	if err := g.requireStore("import regions"); err != nil {
		return 0, err
	}

	if g.Pipeline != nil {
		err := g.Pipeline.EmbedRegions(regions)
		if err != nil {
			return 0, helper.NewError("embed regions", err)
		}
	}

	for i, region := range regions {
		if err := g.Regions.InsertRegion(region); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert region %d", region.ID), err)
		}
	}

	g.log.Debug("Imported regions", slog.Int("count", len(regions)))

	return len(regions), nil
}

// SearchRegions embeds query and returns the most similar stored regions.
// imageIDs restricts the search, nil searches all images.
func (g *Genome) SearchRegions(query string, limit int, threshold float64, imageIDs []int) ([]*model.Region, error) {
	if err := g.requireStore("search regions"); err != nil {
		return nil, err
	}
	if g.Pipeline == nil || g.Pipeline.Embedder == nil {
		return nil, helper.NewError("search regions", fmt.Errorf("pipeline with embedder not set, use SetPipeline() first"))
	}

	embedding, err := g.Pipeline.Embedder(query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return g.Regions.SelectRegionsBySimilarity(embedding, limit, threshold, imageIDs)
}

// ChangeIndexType changes the region vector index between HNSW and IVFFlat
func (g *Genome) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	if err := g.requireStore("change index type"); err != nil {
		return err
	}
	return g.Regions.ChangeIndexType(ctx, indexType, params)
}

func (g *Genome) requireStore(operation string) error {
	if g.DB == nil {
		return helper.NewError(operation, fmt.Errorf("no database configured"))
	}
	return nil
}
