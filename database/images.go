package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
	loadSql "github.com/siherrmann/visualgenome/sql"
)

// ImagesDBHandlerFunctions defines the interface for Images database operations.
type ImagesDBHandlerFunctions interface {
	InsertImage(image *model.Image) error
	SelectImage(id int) (*model.Image, error)
	SelectImages(lastID *int, limit int) ([]*model.Image, error)
	DeleteImage(id int) error
}

// ImagesDBHandler handles image metadata database operations
type ImagesDBHandler struct {
	db *helper.Database
}

// NewImagesDBHandler creates a new images database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewImagesDBHandler(db *helper.Database, force bool) (*ImagesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	imagesDbHandler := &ImagesDBHandler{
		db: db,
	}

	err := loadSql.LoadImagesSql(imagesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load images sql", err)
	}

	err = imagesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ImagesDBHandler")

	return imagesDbHandler, nil
}

// CreateTable creates the 'images' table if it does not exist yet.
func (h *ImagesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_images();`)
	if err != nil {
		return helper.NewError("init images", err)
	}

	h.db.Logger.Info("Checked/created table images")

	return nil
}

// InsertImage inserts or updates the metadata of one image.
// RID and CreatedAt are set from the stored row.
func (h *ImagesDBHandler) InsertImage(image *model.Image) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_image($1, $2, $3, $4, $5, $6)`,
		image.ID,
		image.URL,
		image.Width,
		image.Height,
		image.CocoID,
		image.FlickrID,
	)

	err := scanImage(row, image)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectImage retrieves an image by its dataset id
func (h *ImagesDBHandler) SelectImage(id int) (*model.Image, error) {
	image := &model.Image{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_image($1)`,
		id,
	)

	err := scanImage(row, image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select image", fmt.Errorf("%w: image %d", model.ErrNotFound, id))
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return image, nil
}

// SelectImages retrieves up to limit images ordered by id, starting after lastID.
// A nil lastID starts at the first image.
func (h *ImagesDBHandler) SelectImages(lastID *int, limit int) ([]*model.Image, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_images($1, $2)`,
		lastID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var images []*model.Image
	for rows.Next() {
		image := &model.Image{}
		err := scanImage(rows, image)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		images = append(images, image)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows iteration", err)
	}

	return images, nil
}

// DeleteImage deletes the metadata of an image
func (h *ImagesDBHandler) DeleteImage(id int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_image($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(row scanner, image *model.Image) error {
	return row.Scan(
		&image.ID,
		&image.RID,
		&image.URL,
		&image.Width,
		&image.Height,
		&image.CocoID,
		&image.FlickrID,
		&image.CreatedAt,
	)
}
