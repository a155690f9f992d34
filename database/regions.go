package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
	loadSql "github.com/siherrmann/visualgenome/sql"
)

// RegionsDBHandlerFunctions defines the interface for Regions database operations.
type RegionsDBHandlerFunctions interface {
	InsertRegion(region *model.Region) error
	SelectRegion(id int) (*model.Region, error)
	SelectRegionsByImage(imageID int) ([]*model.Region, error)
	SelectRegionsBySimilarity(embedding []float32, limit int, threshold float64, imageIDs []int) ([]*model.Region, error)
	UpdateRegionEmbedding(id int, embedding []float32) error
	DeleteRegion(id int) error
}

// RegionsDBHandler handles region descriptions and their phrase embeddings
type RegionsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewRegionsDBHandler creates a new regions database handler.
// embeddingDim fixes the vector size of the embedding column on table creation.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRegionsDBHandler(db *helper.Database, embeddingDim int, force bool) (*RegionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim < 1 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	regionsDbHandler := &RegionsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadRegionsSql(regionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load regions sql", err)
	}

	err = regionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RegionsDBHandler")

	return regionsDbHandler, nil
}

// CreateTable creates the 'regions' table with its image and vector indexes.
func (h *RegionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_regions($1);`, h.embeddingDim)
	if err != nil {
		return helper.NewError("init regions", err)
	}

	h.db.Logger.Info("Checked/created table regions")

	return nil
}

// InsertRegion inserts or updates a region. A region without embedding
// keeps the embedding already stored for its id.
func (h *RegionsDBHandler) InsertRegion(region *model.Region) error {
	embedding, err := h.vector(region.Embedding)
	if err != nil {
		return helper.NewError("embedding", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_region($1, $2, $3, $4, $5, $6, $7, $8)`,
		region.ID,
		region.ImageID,
		region.Phrase,
		region.X,
		region.Y,
		region.Width,
		region.Height,
		embedding,
	)

	err = scanRegion(row, region)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRegion retrieves a region by id
func (h *RegionsDBHandler) SelectRegion(id int) (*model.Region, error) {
	region := &model.Region{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_region($1)`,
		id,
	)

	err := scanRegion(row, region)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select region", fmt.Errorf("%w: region %d", model.ErrNotFound, id))
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return region, nil
}

// SelectRegionsByImage retrieves all regions of an image ordered by id
func (h *RegionsDBHandler) SelectRegionsByImage(imageID int) ([]*model.Region, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_regions_by_image($1)`,
		imageID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var regions []*model.Region
	for rows.Next() {
		region := &model.Region{}
		err := scanRegion(rows, region)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		regions = append(regions, region)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows iteration", err)
	}

	return regions, nil
}

// SelectRegionsBySimilarity returns the regions closest to embedding by cosine
// similarity, best first. Regions below threshold are left out. A nil imageIDs
// searches every image.
func (h *RegionsDBHandler) SelectRegionsBySimilarity(embedding []float32, limit int, threshold float64, imageIDs []int) ([]*model.Region, error) {
	if len(embedding) == 0 {
		return nil, helper.NewError("similarity search", fmt.Errorf("embedding is empty"))
	}
	query, err := h.vector(embedding)
	if err != nil {
		return nil, helper.NewError("embedding", err)
	}

	var ids pq.Int64Array
	if imageIDs != nil {
		ids = make(pq.Int64Array, 0, len(imageIDs))
		for _, id := range imageIDs {
			ids = append(ids, int64(id))
		}
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_regions_by_similarity($1, $2, $3, $4)`,
		query,
		limit,
		threshold,
		ids,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var regions []*model.Region
	for rows.Next() {
		region := &model.Region{}
		err := rows.Scan(
			&region.ID,
			&region.ImageID,
			&region.Phrase,
			&region.X,
			&region.Y,
			&region.Width,
			&region.Height,
			pq.Array(&region.Embedding),
			&region.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		regions = append(regions, region)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows iteration", err)
	}

	return regions, nil
}

// UpdateRegionEmbedding replaces the embedding of a stored region
func (h *RegionsDBHandler) UpdateRegionEmbedding(id int, embedding []float32) error {
	if len(embedding) == 0 {
		return helper.NewError("update embedding", fmt.Errorf("embedding is empty"))
	}
	vector, err := h.vector(embedding)
	if err != nil {
		return helper.NewError("embedding", err)
	}

	_, err = h.db.Instance.Exec(
		`SELECT update_region_embedding($1, $2)`,
		id,
		vector,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// DeleteRegion deletes a region by id
func (h *RegionsDBHandler) DeleteRegion(id int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_region($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// vector converts an embedding to its pgvector value, nil stays NULL.
func (h *RegionsDBHandler) vector(embedding []float32) (any, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if len(embedding) != h.embeddingDim {
		return nil, fmt.Errorf("expected embedding of dimension %d, got %d", h.embeddingDim, len(embedding))
	}
	return pgvector.NewVector(embedding), nil
}

func scanRegion(row scanner, region *model.Region) error {
	return row.Scan(
		&region.ID,
		&region.ImageID,
		&region.Phrase,
		&region.X,
		&region.Y,
		&region.Width,
		&region.Height,
		pq.Array(&region.Embedding),
	)
}
