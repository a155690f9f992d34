package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/siherrmann/visualgenome/core/scenegraph"
	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
	loadSql "github.com/siherrmann/visualgenome/sql"
)

// SceneGraphsDBHandlerFunctions defines the interface for SceneGraphs database operations.
type SceneGraphsDBHandlerFunctions interface {
	InsertSceneGraph(graph *model.Graph) error
	SelectSceneGraph(imageID int, synsets model.SynsetMap) (*model.Graph, error)
	SelectSceneGraphIDsByRelationshipCount(minCount, maxCount int, lastID *int, limit int) ([]int, error)
	SelectSceneGraphIDsByPredicate(predicate string, limit int) ([]int, error)
	DeleteSceneGraph(imageID int) error
}

// SceneGraphsDBHandler stores scene graphs in the per image file schema as JSONB
type SceneGraphsDBHandler struct {
	db *helper.Database
}

// NewSceneGraphsDBHandler creates a new scene graphs database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSceneGraphsDBHandler(db *helper.Database, force bool) (*SceneGraphsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	sceneGraphsDbHandler := &SceneGraphsDBHandler{
		db: db,
	}

	err := loadSql.LoadSceneGraphsSql(sceneGraphsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load scene graphs sql", err)
	}

	err = sceneGraphsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SceneGraphsDBHandler")

	return sceneGraphsDbHandler, nil
}

// CreateTable creates the 'scene_graphs' table and its indexes.
func (h *SceneGraphsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_scene_graphs();`)
	if err != nil {
		return helper.NewError("init scene graphs", err)
	}

	h.db.Logger.Info("Checked/created table scene_graphs")

	return nil
}

// InsertSceneGraph stores the serialized graph under its image id,
// replacing an earlier version.
func (h *SceneGraphsDBHandler) InsertSceneGraph(graph *model.Graph) error {
	if graph == nil {
		return helper.NewError("insert scene graph", fmt.Errorf("graph is nil"))
	}

	data, err := scenegraph.SerializeJSON(graph)
	if err != nil {
		return helper.NewError("serialize", err)
	}

	var imageID, objects, relationships, attributes int
	var createdAt time.Time
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_scene_graph($1, $2, $3, $4, $5)`,
		graph.ImageID,
		string(data),
		len(graph.Objects),
		len(graph.Relationships),
		len(graph.Attributes),
	)

	err = row.Scan(
		&imageID,
		&objects,
		&relationships,
		&attributes,
		&createdAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	h.db.Logger.Debug("Stored scene graph", "image_id", imageID, "relationships", relationships)

	return nil
}

// SelectSceneGraph loads and parses the graph of an image. When synsets
// is not nil the graph is resolved against it.
func (h *SceneGraphsDBHandler) SelectSceneGraph(imageID int, synsets model.SynsetMap) (*model.Graph, error) {
	var storedID int
	var data []byte
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_scene_graph($1)`,
		imageID,
	)

	err := row.Scan(
		&storedID,
		&data,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select scene graph", fmt.Errorf("%w: scene graph of image %d", model.ErrNotFound, imageID))
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	// Stored graphs are already merged, the policy only matters for raw files.
	graph, err := scenegraph.ParseJSON(data, storedID, model.MergeFirstWins)
	if err != nil {
		return nil, helper.NewError("parse", err)
	}

	if synsets != nil {
		err = scenegraph.ResolveSynsets(graph, synsets)
		if err != nil {
			return nil, helper.NewError("resolve synsets", err)
		}
	}

	return graph, nil
}

// SelectSceneGraphIDsByRelationshipCount returns the image ids whose graph has
// between minCount and maxCount relationships, ordered by id and starting after lastID.
func (h *SceneGraphsDBHandler) SelectSceneGraphIDsByRelationshipCount(minCount, maxCount int, lastID *int, limit int) ([]int, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_scene_graph_ids_by_relationship_count($1, $2, $3, $4)`,
		minCount,
		maxCount,
		lastID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// SelectSceneGraphIDsByPredicate returns the image ids whose graph holds
// at least one relationship with the predicate.
func (h *SceneGraphsDBHandler) SelectSceneGraphIDsByPredicate(predicate string, limit int) ([]int, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_scene_graph_ids_by_predicate($1, $2)`,
		predicate,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// DeleteSceneGraph deletes the graph of an image
func (h *SceneGraphsDBHandler) DeleteSceneGraph(imageID int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_scene_graph($1)`,
		imageID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

func scanIDs(rows *sql.Rows) ([]int, error) {
	var ids []int
	for rows.Next() {
		var id int
		err := rows.Scan(&id)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows iteration", err)
	}

	return ids, nil
}
