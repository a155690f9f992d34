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

// SynsetsDBHandlerFunctions defines the interface for Synsets database operations.
type SynsetsDBHandlerFunctions interface {
	InsertSynset(synset *model.Synset) error
	InsertSynsets(synsets model.SynsetMap) error
	SelectSynset(name string) (*model.Synset, error)
	SelectAllSynsets() (model.SynsetMap, error)
	DeleteSynset(name string) error
}

// SynsetsDBHandler handles the synset dictionary table
type SynsetsDBHandler struct {
	db *helper.Database
}

// NewSynsetsDBHandler creates a new synsets database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSynsetsDBHandler(db *helper.Database, force bool) (*SynsetsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	synsetsDbHandler := &SynsetsDBHandler{
		db: db,
	}

	err := loadSql.LoadSynsetsSql(synsetsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load synsets sql", err)
	}

	err = synsetsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SynsetsDBHandler")

	return synsetsDbHandler, nil
}

// CreateTable creates the 'synsets' table if it does not exist yet.
func (h *SynsetsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_synsets();`)
	if err != nil {
		return helper.NewError("init synsets", err)
	}

	h.db.Logger.Info("Checked/created table synsets")

	return nil
}

// InsertSynset inserts a synset or updates its definition
func (h *SynsetsDBHandler) InsertSynset(synset *model.Synset) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_synset($1, $2)`,
		synset.Name,
		synset.Definition,
	)

	err := row.Scan(
		&synset.Name,
		&synset.Definition,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// InsertSynsets stores a whole dictionary in one transaction
func (h *SynsetsDBHandler) InsertSynsets(synsets model.SynsetMap) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`SELECT * FROM insert_synset($1, $2)`)
	if err != nil {
		return helper.NewError("prepare", err)
	}
	defer stmt.Close()

	for _, name := range synsets.Names() {
		_, err = stmt.Exec(name, synsets[name].Definition)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert synset %s", name), err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit", err)
	}

	h.db.Logger.Info("Inserted synsets", "count", len(synsets))

	return nil
}

// SelectSynset retrieves one synset by name
func (h *SynsetsDBHandler) SelectSynset(name string) (*model.Synset, error) {
	synset := &model.Synset{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_synset($1)`,
		name,
	)

	err := row.Scan(
		&synset.Name,
		&synset.Definition,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select synset", &model.SynsetError{Name: name})
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return synset, nil
}

// SelectAllSynsets loads the whole dictionary with one shared record per name
func (h *SynsetsDBHandler) SelectAllSynsets() (model.SynsetMap, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_synsets()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	synsets := model.SynsetMap{}
	for rows.Next() {
		synset := &model.Synset{}
		err := rows.Scan(
			&synset.Name,
			&synset.Definition,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		synsets[synset.Name] = synset
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows iteration", err)
	}

	return synsets, nil
}

// DeleteSynset deletes a synset by name
func (h *SynsetsDBHandler) DeleteSynset(name string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_synset($1)`,
		name,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}
