package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed images.sql
var imagesSQL string

//go:embed synsets.sql
var synsetsSQL string

//go:embed scene_graphs.sql
var sceneGraphsSQL string

//go:embed regions.sql
var regionsSQL string

// Function lists for verification
var ImagesFunctions = []string{
	"init_images",
	"insert_image",
	"select_image",
	"select_images",
	"delete_image",
}

var SynsetsFunctions = []string{
	"init_synsets",
	"insert_synset",
	"select_synset",
	"select_all_synsets",
	"delete_synset",
}

var SceneGraphsFunctions = []string{
	"init_scene_graphs",
	"insert_scene_graph",
	"select_scene_graph",
	"select_scene_graph_ids_by_relationship_count",
	"select_scene_graph_ids_by_predicate",
	"delete_scene_graph",
}

var RegionsFunctions = []string{
	"init_regions",
	"insert_region",
	"select_region",
	"select_regions_by_image",
	"select_regions_by_similarity",
	"update_region_embedding",
	"delete_region",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadImagesSql loads image-related SQL functions
func LoadImagesSql(db *sql.DB, force bool) error {
	return loadSql(db, "images", imagesSQL, ImagesFunctions, force)
}

// LoadSynsetsSql loads synset-related SQL functions
func LoadSynsetsSql(db *sql.DB, force bool) error {
	return loadSql(db, "synsets", synsetsSQL, SynsetsFunctions, force)
}

// LoadSceneGraphsSql loads scene graph SQL functions
func LoadSceneGraphsSql(db *sql.DB, force bool) error {
	return loadSql(db, "scene graphs", sceneGraphsSQL, SceneGraphsFunctions, force)
}

// LoadRegionsSql loads region-related SQL functions
func LoadRegionsSql(db *sql.DB, force bool) error {
	return loadSql(db, "regions", regionsSQL, RegionsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadImagesSql(db, force); err != nil {
		return err
	}

	if err := LoadSynsetsSql(db, force); err != nil {
		return err
	}

	if err := LoadSceneGraphsSql(db, force); err != nil {
		return err
	}

	if err := LoadRegionsSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadSql executes the embedded script unless all of its functions
// already exist. force always executes it.
func loadSql(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required %s SQL functions were created", name)
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
